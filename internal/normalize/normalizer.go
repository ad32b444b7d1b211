package normalize

import (
	"fmt"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/model"
)

// FromManual converts a manual/CSV row into a canonical transaction.
func FromManual(row ManualRow) (model.Transaction, error) {
	amount, err := ParseAmount(row.Amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("row %s: %w", row.ID, err)
	}

	return model.Transaction{
		ID:           row.ID,
		TenantID:     row.TenantID,
		AccountID:    row.AccountID,
		Date:         row.BookingDate,
		Amount:       amount,
		Purpose:      text(row.Purpose),
		Counterparty: text(row.Counterparty),
		Source:       model.SourceManual,
	}, nil
}

// FromAggregator converts an aggregator row into a canonical transaction.
func FromAggregator(row AggregatorRow) (model.Transaction, error) {
	amount, err := ParseAmount(row.Amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("row %s: %w", row.TransactionID, err)
	}

	counterparty := text(row.CreditorName)
	if amount > 0 {
		counterparty = text(row.DebtorName)
	}

	return model.Transaction{
		ID:           row.TransactionID,
		TenantID:     row.TenantID,
		AccountID:    row.AccountID,
		Date:         row.BookingDate,
		Amount:       amount,
		Purpose:      text(row.RemittanceInformation),
		Counterparty: counterparty,
		Source:       model.SourceAggregator,
	}, nil
}

// Batch normalizes both row shapes, manual rows first. Rows that fail amount
// coercion are skipped and returned as errs.
func Batch(manual []ManualRow, aggregated []AggregatorRow) ([]model.Transaction, []error) {
	out := make([]model.Transaction, 0, len(manual)+len(aggregated))
	var errs []error

	for _, row := range manual {
		txn, err := FromManual(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, txn)
	}
	for _, row := range aggregated {
		txn, err := FromAggregator(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, txn)
	}

	return out, errs
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Ptr returns a pointer to s; convenient for building rows.
func Ptr(s string) *string {
	return &s
}
