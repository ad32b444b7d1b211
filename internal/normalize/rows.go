// Package normalize maps raw transaction rows from the supported sources into
// the canonical model.Transaction.
package normalize

import "time"

// ManualRow is a manually entered or CSV-exported bank row.
// Nil text fields are treated as empty.
type ManualRow struct {
	BookingDate  time.Time
	Purpose      *string
	Counterparty *string
	ID           string
	TenantID     string
	AccountID    string
	Amount       string // German ("1.234,56") or plain ("-1234.56") notation
}

// AggregatorRow is a row delivered by an open-banking aggregator.
// The counterparty is the creditor on outflows and the debtor on inflows.
type AggregatorRow struct {
	BookingDate           time.Time
	RemittanceInformation *string
	CreditorName          *string
	DebtorName            *string
	TransactionID         string
	TenantID              string
	AccountID             string
	Amount                string
}
