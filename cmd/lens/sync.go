package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/config"
	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/Veraticus/ledgerlens/internal/plaid"
	"github.com/Veraticus/ledgerlens/internal/simplefin"
	"github.com/spf13/cobra"
)

// Aggregator sources.
const (
	sourcePlaid     = "plaid"
	sourceSimpleFIN = "simplefin"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch transactions from an aggregator and classify them",
		Long: `Fetch recent transactions from Plaid or a SimpleFIN bridge and run them
through the same pipeline as analyze.

Plaid credentials are read from plaid.client_id, plaid.secret and
plaid.access_token (or LENS_PLAID_CLIENT_ID and friends). SimpleFIN reads
simplefin.access_url, or claims simplefin.token once and saves the result.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}

	cmd.Flags().String("source", sourcePlaid, "Aggregator to fetch from (plaid, simplefin)")
	cmd.Flags().String("tenant", defaultTenant, "Tenant the account belongs to")
	cmd.Flags().String("owner", "", "Owner context YAML (leases, plants, loans, known IBANs)")
	cmd.Flags().Int("days", 90, "Number of days to fetch")
	cmd.Flags().BoolP("entries", "e", false, "Show every classified transaction")
	cmd.Flags().Bool("store", false, "Persist the run and detected contracts")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	source, _ := cmd.Flags().GetString("source")
	tenantID, _ := cmd.Flags().GetString("tenant")
	ownerPath, _ := cmd.Flags().GetString("owner")
	days, _ := cmd.Flags().GetInt("days")
	showEntries, _ := cmd.Flags().GetBool("entries")
	store, _ := cmd.Flags().GetBool("store")

	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	owner, err := loadOwner(ownerPath, tenantID)
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(ctx, source, settings, tenantID)
	if err != nil {
		return err
	}

	eng, err := buildEngine(settings)
	if err != nil {
		return err
	}

	report, err := syncTenant(ctx, fetcher, eng, owner, tenantID, days, time.Now())
	if err != nil {
		return err
	}

	reports := []*engine.Report{report}
	if store {
		if err := storeReports(cmd, settings, reports); err != nil {
			return err
		}
	}
	return renderReports(cmd.OutOrStdout(), reports, showEntries)
}

// newFetcher builds the client for source. Missing credentials surface as
// user errors naming the keys to set.
func newFetcher(ctx context.Context, source string, settings *config.Settings, tenantID string) (plaid.TransactionFetcher, error) {
	switch source {
	case sourcePlaid:
		cfg := settings.Plaid
		cfg.TenantID = tenantID
		client, err := plaid.NewClient(cfg)
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError("Plaid is not configured: set plaid.client_id, plaid.secret and plaid.access_token", err)
		}
		return client, err

	case sourceSimpleFIN:
		accessURL := settings.SimpleFIN.AccessURL
		if accessURL == "" {
			hc := &http.Client{Timeout: 30 * time.Second}
			auth, err := simplefin.LoadOrClaimAuth(ctx, hc, settings.SimpleFIN.Token, settings.SimpleFIN.StateFile)
			if err != nil {
				return nil, common.NewUserError("SimpleFIN is not configured: set simplefin.access_url or simplefin.token", err)
			}
			accessURL = auth.AccessURL
		}
		return simplefin.NewClient(accessURL, tenantID)
	}
	return nil, fmt.Errorf("unknown source %q (want %s or %s)", source, sourcePlaid, sourceSimpleFIN)
}

// syncTenant fetches the last days of rows ending at now and runs them.
func syncTenant(ctx context.Context, fetcher plaid.TransactionFetcher, eng *engine.Engine, owner model.OwnerContext, tenantID string, days int, now time.Time) (*engine.Report, error) {
	start := now.AddDate(0, 0, -days)
	slog.Info("Fetching transactions", "tenant", tenantID, "start", start.Format("2006-01-02"), "end", now.Format("2006-01-02"))

	rows, err := fetcher.GetTransactions(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return eng.Run(ctx, engine.Batch{Owner: owner, TenantID: tenantID, AggregatorRows: rows})
}
