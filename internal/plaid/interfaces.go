package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/ledgerlens/internal/normalize"
)

// TransactionFetcher defines the contract for fetching aggregator rows.
// This interface allows for easy mocking in tests and swapping data sources.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]normalize.AggregatorRow, error)
	GetAccounts(ctx context.Context) ([]string, error)
}
