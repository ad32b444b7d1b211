// Package simplefin fetches transactions from a SimpleFIN bridge and maps
// them onto aggregator rows.
package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/normalize"
	"github.com/shopspring/decimal"
)

// SimpleFIN API response types
type accountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Balance      string        `json:"balance"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"` // signed decimal, negative for outflows
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Memo        string `json:"memo"`
	Posted      int64  `json:"posted"`
	Pending     bool   `json:"pending"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryOptions replaces the default retry policy.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(c *Client) { c.retryOpts = opts }
}

// Client reads accounts and transactions through a claimed access URL.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	accessURL  string
	tenantID   string
	retryOpts  common.RetryOptions
}

// NewClient creates a client for accessURL. Credentials embedded in the URL
// are sent as basic auth.
func NewClient(accessURL, tenantID string, opts ...Option) (*Client, error) {
	if accessURL == "" {
		return nil, fmt.Errorf("%w: simplefin access URL is required", common.ErrMissingConfig)
	}
	if err := validateURL(accessURL); err != nil {
		return nil, err
	}

	c := &Client{
		accessURL: strings.TrimSuffix(accessURL, "/"),
		tenantID:  tenantID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "simplefin"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid simplefin URL", common.ErrInvalidConfig)
	}
	return nil
}

// GetTransactions fetches posted transactions between startDate and endDate,
// both inclusive. Pending transactions and rows with an unreadable amount are
// skipped.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]normalize.AggregatorRow, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	params := url.Values{}
	params.Set("start-date", strconv.FormatInt(startDate.Unix(), 10))
	// end-date is exclusive
	params.Set("end-date", strconv.FormatInt(endDate.AddDate(0, 0, 1).Unix(), 10))

	c.logger.Info("Fetching transactions from SimpleFIN",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	set, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	var rows []normalize.AggregatorRow
	for _, acct := range set.Accounts {
		for _, tx := range acct.Transactions {
			if tx.Pending {
				continue
			}
			date := time.Unix(tx.Posted, 0).UTC()
			if date.Before(startDate) || date.After(endDate) {
				continue
			}

			row, err := c.mapTransaction(acct.ID, tx)
			if err != nil {
				c.logger.Warn("Skipping transaction", "transaction_id", tx.ID, "error", err)
				continue
			}
			rows = append(rows, row)
		}
	}

	c.logger.Info("Fetched all transactions", "count", len(rows))
	return rows, nil
}

// GetAccounts returns the sorted account IDs visible to the access URL.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("balances-only", "1")

	set, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(set.Accounts))
	for _, acct := range set.Accounts {
		ids = append(ids, acct.ID)
	}
	slices.Sort(ids)
	return ids, nil
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*accountSet, error) {
	u, err := url.Parse(c.accessURL + "/accounts")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	u.RawQuery = params.Encode()

	var set accountSet
	err = common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrAggregatorConnection, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if err := statusError(resp); err != nil {
			return err
		}

		set = accountSet{}
		if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to decode response: %w", err)}
		}
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	for _, msg := range set.Errors {
		c.logger.Warn("SimpleFIN bridge reported a problem", "message", msg)
	}
	return &set, nil
}

// statusError maps non-200 responses: 429 and 5xx are retried, everything
// else is final.
func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrAggregatorRateLimit, msg), Retryable: true}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &common.RetryableError{Err: fmt.Errorf("%w: %d - %s", common.ErrAggregatorConnection, resp.StatusCode, msg), Retryable: true}
	}
	return &common.RetryableError{Err: fmt.Errorf("%w: simplefin API error: %d - %s", common.ErrAggregatorConnection, resp.StatusCode, msg)}
}

// mapTransaction converts a bridge transaction. The payee is the creditor on
// outflows and the debtor on inflows; the description is the remittance line.
func (c *Client) mapTransaction(accountID string, tx transaction) (normalize.AggregatorRow, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(tx.Amount))
	if err != nil {
		return normalize.AggregatorRow{}, fmt.Errorf("%w: amount %q", common.ErrInvalidRow, tx.Amount)
	}

	row := normalize.AggregatorRow{
		TransactionID: accountID + "_" + tx.ID,
		TenantID:      c.tenantID,
		AccountID:     accountID,
		BookingDate:   time.Unix(tx.Posted, 0).UTC().Truncate(24 * time.Hour),
		Amount:        amount.StringFixed(2),
	}

	remittance := strings.TrimSpace(tx.Description)
	if memo := strings.TrimSpace(tx.Memo); memo != "" && memo != remittance {
		remittance = strings.TrimSpace(remittance + " " + memo)
	}
	if remittance != "" {
		row.RemittanceInformation = normalize.Ptr(remittance)
	}

	if payee := strings.TrimSpace(tx.Payee); payee != "" {
		if amount.IsPositive() {
			row.DebtorName = normalize.Ptr(payee)
		} else {
			row.CreditorName = normalize.Ptr(payee)
		}
	}
	return row, nil
}
