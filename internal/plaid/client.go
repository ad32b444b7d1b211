// Package plaid provides a client for interacting with the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/normalize"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	TenantID    string // stamped on every fetched row
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("%w: invalid Plaid environment: must be sandbox or production", common.ErrInvalidConfig)
	}

	return nil
}

// Client implements the TransactionFetcher interface.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   *common.RetryOptions
	accessToken string
	tenantID    string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Configure Plaid client based on environment
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	client := plaid.NewAPIClient(configuration)

	return &Client{
		client:      client,
		accessToken: cfg.AccessToken,
		tenantID:    cfg.TenantID,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: &common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetTransactions fetches transactions from Plaid within the specified date
// range as aggregator rows. Rows with an unreadable date are skipped.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]normalize.AggregatorRow, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	var allTransactions []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	// Fetch all transactions with pagination
	for {
		var plaidTransactions []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format("2006-01-02"),
				endDate.Format("2006-01-02"),
			)
			// Set options for pagination
			options := plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			}
			request.SetOptions(options)

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				if plaidError := extractPlaidError(err); plaidError != nil {
					// Check for rate limit error
					if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
						c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
						return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrAggregatorRateLimit, plaidError.ErrorMessage), Retryable: true}
					}
					return fmt.Errorf("%w: plaid API error: %s - %s", common.ErrAggregatorConnection, plaidError.ErrorCode, plaidError.ErrorMessage)
				}
				return fmt.Errorf("%w: failed to fetch transactions: %v", common.ErrAggregatorConnection, err)
			}

			plaidTransactions = resp.GetTransactions()
			totalTransactions := resp.GetTotalTransactions()

			c.logger.Debug("Fetched transaction batch",
				"count", len(plaidTransactions),
				"offset", offset,
				"total", totalTransactions)

			return nil
		}, *c.retryOpts)

		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, plaidTransactions...)

		// Check if we've fetched all transactions
		if len(plaidTransactions) < int(pageSize) {
			break
		}

		offset += pageSize
	}

	c.logger.Info("Fetched all transactions", "count", len(allTransactions))

	rows := make([]normalize.AggregatorRow, 0, len(allTransactions))
	for _, pt := range allTransactions {
		row, err := c.mapPlaidTransaction(pt)
		if err != nil {
			c.logger.Warn("Skipping transaction", "transaction_id", pt.GetTransactionId(), "error", err)
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// GetAccounts fetches account IDs from Plaid.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	c.logger.Info("Fetching accounts from Plaid")

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			if plaidError := extractPlaidError(err); plaidError != nil {
				if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
					c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
					return &common.RetryableError{Err: err, Retryable: true}
				}
				return fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage)
			}
			return fmt.Errorf("failed to fetch accounts: %w", err)
		}

		accounts = resp.GetAccounts()
		return nil
	}, *c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))

	// Extract account IDs
	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}

	return accountIDs, nil
}

// mapPlaidTransaction converts a Plaid transaction to an aggregator row.
// Plaid reports outflows as positive amounts; the sign is flipped so that
// inflows are positive. The merchant is the creditor on outflows and the
// debtor on inflows.
func (c *Client) mapPlaidTransaction(pt plaid.Transaction) (normalize.AggregatorRow, error) {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		return normalize.AggregatorRow{}, fmt.Errorf("%w: transaction date %q: %v", common.ErrInvalidRow, pt.GetDate(), err)
	}

	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}
	merchantName = cleanMerchantName(merchantName)

	remittance := pt.GetOriginalDescription()
	if remittance == "" {
		remittance = pt.GetName()
	}

	amount := decimal.NewFromFloat(pt.GetAmount()).Neg()

	row := normalize.AggregatorRow{
		TransactionID:         pt.GetTransactionId(),
		TenantID:              c.tenantID,
		AccountID:             pt.GetAccountId(),
		BookingDate:           date,
		Amount:                amount.StringFixed(2),
		RemittanceInformation: normalize.Ptr(remittance),
	}
	if amount.IsPositive() {
		row.DebtorName = normalize.Ptr(merchantName)
	} else {
		row.CreditorName = normalize.Ptr(merchantName)
	}

	return row, nil
}

// cleanMerchantName title-cases a merchant name, collapses whitespace and
// drops a trailing transaction reference. Legal-form suffixes are kept since
// tenant companies are matched by their full name.
func cleanMerchantName(name string) string {
	words := strings.Fields(cases.Title(language.German).String(name))

	// Handle patterns like "MERCHANT 123456789"
	if len(words) > 1 {
		lastPart := words[len(words)-1]
		// If the last part is all digits and longer than 5 chars, it's probably a transaction reference
		if len(lastPart) > 5 && isAllDigits(lastPart) {
			words = words[:len(words)-1]
		}
	}

	return strings.Join(words, " ")
}

// isAllDigits checks if a string contains only digits.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements TransactionFetcher interface.
var _ TransactionFetcher = (*Client)(nil)
