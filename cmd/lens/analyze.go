package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/ledgerlens/internal/cli"
	"github.com/Veraticus/ledgerlens/internal/config"
	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Classify statements and detect recurring contracts",
		Long: `Classify transactions from CSV or OFX/QFX statement exports and list the
recurring contracts found among the unexplained payments.

Examples:
  # One tenant, owner context from YAML
  lens analyze --tenant house-1 --owner house-1.yaml ~/Downloads/umsaetze_*.csv

  # Every tenant of a workspace, stored for review
  lens analyze --workspace tenants.yaml --store`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("tenant", defaultTenant, "Tenant the statements belong to")
	cmd.Flags().String("owner", "", "Owner context YAML (leases, plants, loans, known IBANs)")
	cmd.Flags().String("account", "", "Account ID for CSV rows (default: file name)")
	cmd.Flags().String("workspace", "", "Workspace YAML listing tenants, owners and files")
	cmd.Flags().BoolP("entries", "e", false, "Show every classified transaction")
	cmd.Flags().Bool("store", false, "Persist the run and detected contracts")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	workspacePath, _ := cmd.Flags().GetString("workspace")
	showEntries, _ := cmd.Flags().GetBool("entries")
	store, _ := cmd.Flags().GetBool("store")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	var batches []engine.Batch
	var warnings []error
	if workspacePath != "" {
		if len(args) > 0 {
			return fmt.Errorf("statement files and --workspace are mutually exclusive")
		}
		batches, warnings, err = workspaceBatches(cmd, workspacePath)
	} else {
		batches, warnings, err = flagBatch(cmd, args)
	}
	if err != nil {
		return err
	}

	eng, err := buildEngine(settings)
	if err != nil {
		return err
	}

	reports, err := eng.RunAll(ctx, batches)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range warnings {
		if _, err := fmt.Fprintln(out, cli.FormatWarning(w.Error())); err != nil {
			return err
		}
	}

	if store {
		if err := storeReports(cmd, settings, reports); err != nil {
			return err
		}
	}

	return renderReports(out, reports, showEntries)
}

func flagBatch(cmd *cobra.Command, args []string) ([]engine.Batch, []error, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("no statement files given")
	}
	tenantID, _ := cmd.Flags().GetString("tenant")
	ownerPath, _ := cmd.Flags().GetString("owner")
	accountID, _ := cmd.Flags().GetString("account")

	owner, err := loadOwner(ownerPath, tenantID)
	if err != nil {
		return nil, nil, err
	}

	files, err := expandPatterns(args)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no files found to analyze")
	}

	rows, warnings, err := readRows(cmd.Context(), files, tenantID, accountID, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	return []engine.Batch{{Owner: owner, TenantID: tenantID, ManualRows: rows}}, warnings, nil
}

func workspaceBatches(cmd *cobra.Command, path string) ([]engine.Batch, []error, error) {
	ws, err := loadWorkspace(path)
	if err != nil {
		return nil, nil, err
	}

	batches := make([]engine.Batch, 0, len(ws.Tenants))
	var warnings []error
	for _, t := range ws.Tenants {
		files, err := expandPatterns(t.Files)
		if err != nil {
			return nil, nil, err
		}
		rows, w, err := readRows(cmd.Context(), files, t.TenantID, t.AccountID, cmd.ErrOrStderr())
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		batches = append(batches, engine.Batch{Owner: t.Owner, TenantID: t.TenantID, ManualRows: rows})
	}
	return batches, warnings, nil
}

func storeReports(cmd *cobra.Command, settings *config.Settings, reports []*engine.Report) error {
	store, err := initStorage(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}()

	for _, r := range reports {
		runID, err := store.SaveRun(cmd.Context(), r)
		if err != nil {
			return fmt.Errorf("failed to store run for tenant %s: %w", r.TenantID, err)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Stored run %s for tenant %s", runID, r.TenantID))); err != nil {
			return err
		}
	}
	return nil
}

func renderReports(w io.Writer, reports []*engine.Report, showEntries bool) error {
	for _, r := range reports {
		if err := cli.RenderReport(w, r, showEntries); err != nil {
			return err
		}
	}
	return nil
}
