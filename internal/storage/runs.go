package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledgerlens/internal/engine"
)

// SaveRun persists a report in one transaction and returns the new run id.
// Transactions already stored are kept, categorizations are replaced by the
// latest run, and contracts are upserted on tenant, counterparty key,
// frequency and anchor transaction (the first sample id). Contracts without an id get one here; the
// persisted id is written back into report.Contracts. A reviewer's selected
// flag survives re-runs.
func (s *SQLiteStorage) SaveRun(ctx context.Context, report *engine.Report) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateReport(report); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runID := s.newID()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, tenant_id, owner_id, generated_at, transaction_count, skipped_rows, fallback_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, report.TenantID, report.OwnerID, report.GeneratedAt,
		len(report.Entries), len(report.RowErrors), report.Fallbacks)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	if err := s.saveEntriesTx(ctx, tx, runID, report); err != nil {
		return "", err
	}
	if err := s.saveContractsTx(ctx, tx, runID, report); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	slog.Debug("Saved run",
		"run_id", runID,
		"tenant", report.TenantID,
		"transactions", len(report.Entries),
		"contracts", len(report.Contracts))

	return runID, nil
}

func (s *SQLiteStorage) saveEntriesTx(ctx context.Context, tx *sql.Tx, runID string, report *engine.Report) error {
	txnStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			tenant_id, id, hash, date, account_id, purpose, counterparty, amount, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = txnStmt.Close() }()

	catStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO categorizations (
			tenant_id, transaction_id, run_id, category, matched_by, rule_code, confidence, iban_label
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, transaction_id) DO UPDATE SET
			run_id = excluded.run_id,
			category = excluded.category,
			matched_by = excluded.matched_by,
			rule_code = excluded.rule_code,
			confidence = excluded.confidence,
			iban_label = excluded.iban_label,
			classified_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = catStmt.Close() }()

	for _, entry := range report.Entries {
		txn := entry.Transaction
		if _, err := txnStmt.ExecContext(ctx,
			report.TenantID, txn.ID, txn.GenerateHash(), txn.Date, txn.AccountID,
			txn.Purpose, txn.Counterparty, txn.Amount, string(txn.Source),
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}

		res := entry.Result
		if _, err := catStmt.ExecContext(ctx,
			report.TenantID, txn.ID, runID, string(res.Category), string(res.MatchedBy),
			res.RuleCode, res.Confidence, entry.IBANLabel,
		); err != nil {
			return fmt.Errorf("failed to save categorization for %s: %w", txn.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) saveContractsTx(ctx context.Context, tx *sql.Tx, runID string, report *engine.Report) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO detected_contracts (
			id, tenant_id, run_id, counterparty_key, counterparty, frequency, anchor_id, target,
			target_label, average_amount, interval_days, occurrences, first_seen, last_seen,
			confidence, sample_ids, selected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, counterparty_key, frequency, anchor_id) DO UPDATE SET
			run_id = excluded.run_id,
			counterparty = excluded.counterparty,
			target = excluded.target,
			target_label = excluded.target_label,
			average_amount = excluded.average_amount,
			interval_days = excluded.interval_days,
			occurrences = excluded.occurrences,
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			confidence = excluded.confidence,
			sample_ids = excluded.sample_ids,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range report.Contracts {
		c := &report.Contracts[i]
		if c.ID == "" {
			c.ID = s.newID()
		}

		samples, err := json.Marshal(c.SampleIDs)
		if err != nil {
			return fmt.Errorf("failed to encode sample ids: %w", err)
		}

		var persistedID string
		err = stmt.QueryRowContext(ctx,
			c.ID, report.TenantID, runID, c.CounterpartyKey, c.Counterparty, string(c.Frequency),
			c.SampleIDs[0], string(c.Target), c.TargetLabel, c.AverageAmount, c.IntervalDays,
			c.Occurrences, c.FirstSeen, c.LastSeen, c.Confidence, string(samples), c.Selected,
		).Scan(&persistedID)
		if err != nil {
			return fmt.Errorf("failed to save contract %s: %w", c.CounterpartyKey, err)
		}
		c.ID = persistedID
	}
	return nil
}
