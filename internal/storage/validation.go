package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/Veraticus/ledgerlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidContract    = errors.New("invalid contract")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateReport checks the fields persistence relies on.
func validateReport(report *engine.Report) error {
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if err := validateString(report.TenantID, "tenantID"); err != nil {
		return err
	}
	for i, entry := range report.Entries {
		if err := validateTransaction(entry.Transaction); err != nil {
			return fmt.Errorf("entry at index %d: %w", i, err)
		}
	}
	seen := make(map[string]int, len(report.Contracts))
	for i, c := range report.Contracts {
		if err := validateContract(c); err != nil {
			return fmt.Errorf("contract at index %d: %w", i, err)
		}
		key := c.CounterpartyKey + "\x00" + string(c.Frequency) + "\x00" + c.SampleIDs[0]
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: contracts at index %d and %d share anchor %s",
				common.ErrDuplicateEntry, prev, i, c.SampleIDs[0])
		}
		seen[key] = i
	}
	return nil
}

func validateTransaction(txn model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	return nil
}

func validateContract(c model.DetectedContract) error {
	if c.CounterpartyKey == "" {
		return fmt.Errorf("%w: missing counterparty key", ErrInvalidContract)
	}
	if c.Frequency == "" {
		return fmt.Errorf("%w: missing frequency", ErrInvalidContract)
	}
	if c.FirstSeen.IsZero() {
		return fmt.Errorf("%w: missing first seen date", ErrInvalidContract)
	}
	if len(c.SampleIDs) == 0 || c.SampleIDs[0] == "" {
		return fmt.Errorf("%w: missing anchor transaction", ErrInvalidContract)
	}
	return nil
}
