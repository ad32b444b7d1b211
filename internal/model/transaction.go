// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Source identifies which raw row shape a transaction was normalized from.
type Source string

// Source constants.
const (
	SourceManual     Source = "manual"
	SourceAggregator Source = "aggregator"
)

// Direction is the flow of money relative to the owner's account.
type Direction string

// Direction constants.
const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction is the canonical bank transaction produced by the normalizer.
// Amount is signed: positive values are inflows, negative values are outflows.
type Transaction struct {
	Date         time.Time
	ID           string
	TenantID     string
	AccountID    string
	Purpose      string // Remittance line
	Counterparty string
	Source       Source
	Amount       float64
}

// IsCredit reports whether the transaction is an inflow.
func (t Transaction) IsCredit() bool {
	return t.Amount > 0
}

// IsDebit reports whether the transaction is an outflow.
func (t Transaction) IsDebit() bool {
	return t.Amount < 0
}

// Direction returns credit for inflows and debit for everything else.
func (t Transaction) Direction() Direction {
	if t.IsCredit() {
		return DirectionCredit
	}
	return DirectionDebit
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() float64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// SearchText is the lowercase purpose and counterparty joined by a space, in
// NFC form so decomposed umlauts from bank exports compare equal to literals.
// All text evidence in rules and matchers is evaluated against it.
func (t Transaction) SearchText() string {
	return norm.NFC.String(strings.ToLower(t.Purpose + " " + t.Counterparty))
}

// GenerateHash creates a unique hash for duplicate detection.
func (t Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.TenantID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Counterparty,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
