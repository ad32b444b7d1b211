package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
)

const contractColumns = `
	id, tenant_id, counterparty_key, counterparty, frequency, target, target_label,
	average_amount, interval_days, occurrences, first_seen, last_seen, confidence,
	sample_ids, selected`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (model.DetectedContract, error) {
	var c model.DetectedContract
	var frequency, target, samples string

	err := row.Scan(
		&c.ID, &c.TenantID, &c.CounterpartyKey, &c.Counterparty, &frequency, &target, &c.TargetLabel,
		&c.AverageAmount, &c.IntervalDays, &c.Occurrences, &c.FirstSeen, &c.LastSeen, &c.Confidence,
		&samples, &c.Selected,
	)
	if err != nil {
		return c, err
	}

	c.Frequency = model.Frequency(frequency)
	c.Target = model.RoutingTarget(target)
	if samples != "" {
		if err := json.Unmarshal([]byte(samples), &c.SampleIDs); err != nil {
			return c, fmt.Errorf("failed to decode sample ids: %w", err)
		}
	}
	return c, nil
}

// ListContracts returns a tenant's contract candidates, most confident first.
func (s *SQLiteStorage) ListContracts(ctx context.Context, tenantID string) ([]model.DetectedContract, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+contractColumns+`
		FROM detected_contracts
		WHERE tenant_id = ?
		ORDER BY confidence DESC, counterparty_key, first_seen
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contracts []model.DetectedContract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// GetContract returns a contract by id.
func (s *SQLiteStorage) GetContract(ctx context.Context, id string) (*model.DetectedContract, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	c, err := scanContract(s.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM detected_contracts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contract %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &c, nil
}

// SetContractSelected records a reviewer's decision on a candidate.
func (s *SQLiteStorage) SetContractSelected(ctx context.Context, id string, selected bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE detected_contracts SET selected = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, selected, id)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contract %s: %w", id, common.ErrNotFound)
	}
	return nil
}
