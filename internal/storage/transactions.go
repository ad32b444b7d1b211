package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/model"
)

// GetTransactionsByIDs returns the stored transactions of a tenant with the
// given ids, ordered by date. Unknown ids are ignored.
func (s *SQLiteStorage) GetTransactionsByIDs(ctx context.Context, tenantID string, ids []string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tenantID, "tenantID"); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, date, account_id, purpose, counterparty, amount, source
		FROM transactions
		WHERE tenant_id = ? AND id IN (`+placeholders+`)
		ORDER BY date, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var source string
		if err := rows.Scan(&txn.ID, &txn.TenantID, &txn.Date, &txn.AccountID,
			&txn.Purpose, &txn.Counterparty, &txn.Amount, &source); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Source = model.Source(source)
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// CountTransactions returns the number of stored transactions of a tenant.
func (s *SQLiteStorage) CountTransactions(ctx context.Context, tenantID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE tenant_id = ?`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
