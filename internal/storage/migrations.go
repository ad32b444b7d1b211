package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					owner_id TEXT,
					generated_at DATETIME NOT NULL,
					transaction_count INTEGER NOT NULL DEFAULT 0,
					skipped_rows INTEGER NOT NULL DEFAULT 0,
					fallback_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_runs_tenant ON runs(tenant_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					tenant_id TEXT NOT NULL,
					id TEXT NOT NULL,
					hash TEXT NOT NULL,
					date DATETIME NOT NULL,
					account_id TEXT,
					purpose TEXT,
					counterparty TEXT,
					amount REAL NOT NULL,
					source TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (tenant_id, id)
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(tenant_id, date)`,

				`CREATE TABLE IF NOT EXISTS categorizations (
					tenant_id TEXT NOT NULL,
					transaction_id TEXT NOT NULL,
					run_id TEXT NOT NULL,
					category TEXT NOT NULL,
					matched_by TEXT NOT NULL,
					rule_code TEXT,
					confidence REAL NOT NULL DEFAULT 0,
					classified_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (tenant_id, transaction_id),
					FOREIGN KEY (tenant_id, transaction_id) REFERENCES transactions(tenant_id, id),
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,
				`CREATE INDEX idx_categorizations_category ON categorizations(tenant_id, category)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add detected contracts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS detected_contracts (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					run_id TEXT NOT NULL,
					counterparty_key TEXT NOT NULL,
					counterparty TEXT,
					frequency TEXT NOT NULL,
					target TEXT NOT NULL,
					target_label TEXT,
					average_amount REAL NOT NULL,
					interval_days INTEGER NOT NULL,
					occurrences INTEGER NOT NULL,
					first_seen DATETIME NOT NULL,
					last_seen DATETIME NOT NULL,
					confidence REAL NOT NULL,
					sample_ids TEXT,
					selected INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (tenant_id, counterparty_key, frequency, first_seen),
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,
				`CREATE INDEX idx_contracts_tenant ON detected_contracts(tenant_id, confidence DESC)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Record known IBAN labels on categorizations",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE categorizations ADD COLUMN iban_label TEXT`,
			})
		},
	},
	{
		Version:     4,
		Description: "Key detected contracts on their anchor transaction",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE detected_contracts_v4 (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					run_id TEXT NOT NULL,
					counterparty_key TEXT NOT NULL,
					counterparty TEXT,
					frequency TEXT NOT NULL,
					anchor_id TEXT NOT NULL,
					target TEXT NOT NULL,
					target_label TEXT,
					average_amount REAL NOT NULL,
					interval_days INTEGER NOT NULL,
					occurrences INTEGER NOT NULL,
					first_seen DATETIME NOT NULL,
					last_seen DATETIME NOT NULL,
					confidence REAL NOT NULL,
					sample_ids TEXT,
					selected INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (tenant_id, counterparty_key, frequency, anchor_id),
					FOREIGN KEY (run_id) REFERENCES runs(id)
				)`,
				`INSERT INTO detected_contracts_v4 (
					id, tenant_id, run_id, counterparty_key, counterparty, frequency, anchor_id,
					target, target_label, average_amount, interval_days, occurrences,
					first_seen, last_seen, confidence, sample_ids, selected, created_at, updated_at
				)
				SELECT
					id, tenant_id, run_id, counterparty_key, counterparty, frequency,
					COALESCE(json_extract(sample_ids, '$[0]'), id),
					target, target_label, average_amount, interval_days, occurrences,
					first_seen, last_seen, confidence, sample_ids, selected, created_at, updated_at
				FROM detected_contracts`,
				`DROP TABLE detected_contracts`,
				`ALTER TABLE detected_contracts_v4 RENAME TO detected_contracts`,
				`CREATE INDEX idx_contracts_tenant ON detected_contracts(tenant_id, confidence DESC)`,
			})
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
