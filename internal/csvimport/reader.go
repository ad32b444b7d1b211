// Package csvimport reads bank CSV exports into manual rows.
package csvimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/Veraticus/ledgerlens/internal/normalize"
)

// Canonical column names.
const (
	colDate         = "date"
	colAmount       = "amount"
	colPurpose      = "purpose"
	colCounterparty = "counterparty"
	colID           = "id"
	colAccount      = "account"
)

// headerAliases maps lowercase export headers onto canonical columns.
var headerAliases = map[string]string{
	"date":                              colDate,
	"booking_date":                      colDate,
	"buchungstag":                       colDate,
	"buchungsdatum":                     colDate,
	"amount":                            colAmount,
	"betrag":                            colAmount,
	"betrag (eur)":                      colAmount,
	"umsatz":                            colAmount,
	"purpose":                           colPurpose,
	"verwendungszweck":                  colPurpose,
	"counterparty":                      colCounterparty,
	"beguenstigter/zahlungspflichtiger": colCounterparty,
	"begünstigter/zahlungspflichtiger":  colCounterparty,
	"auftraggeber/empfänger":            colCounterparty,
	"name zahlungsbeteiligter":          colCounterparty,
	"id":                                colID,
	"transaction_id":                    colID,
	"account":                           colAccount,
	"auftragskonto":                     colAccount,
	"iban auftragskonto":                colAccount,
}

var requiredColumns = []string{colDate, colAmount}

var dateLayouts = []string{"02.01.2006", "2006-01-02", "02.01.06", "02/01/2006"}

// Options scope the imported rows.
type Options struct {
	TenantID  string
	AccountID string // used when the export has no account column
}

// Result holds the parsed rows and the rows that were skipped.
type Result struct {
	Rows    []normalize.ManualRow
	Skipped []error
}

// Parse reads a CSV export with a header line. The delimiter is ';' when the
// header contains one, ',' otherwise. Rows with an unreadable date are
// skipped; amounts stay textual for the normalizer.
func Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV headers: %w", err)
	}

	columnMap, err := createColumnMap(headers)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Errorf("%w: line %d: %v", common.ErrInvalidRow, line, err))
			continue
		}

		row, err := parseRecord(record, columnMap, opts, line)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		result.Rows = append(result.Rows, row)

		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func detectDelimiter(content []byte) rune {
	first, _, _ := bytes.Cut(content, []byte("\n"))
	if bytes.Contains(first, []byte(";")) {
		return ';'
	}
	return ','
}

func createColumnMap(headers []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for i, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		if col, ok := headerAliases[name]; ok {
			if _, seen := columnMap[col]; !seen {
				columnMap[col] = i
			}
		}
	}

	for _, col := range requiredColumns {
		if _, ok := columnMap[col]; !ok {
			return nil, fmt.Errorf("%w: required column %q not found in CSV", common.ErrInvalidRow, col)
		}
	}
	return columnMap, nil
}

func field(record []string, columnMap map[string]int, col string) string {
	i, ok := columnMap[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseRecord(record []string, columnMap map[string]int, opts Options, line int) (normalize.ManualRow, error) {
	date, err := parseDate(field(record, columnMap, colDate))
	if err != nil {
		return normalize.ManualRow{}, err
	}

	row := normalize.ManualRow{
		ID:           field(record, columnMap, colID),
		TenantID:     opts.TenantID,
		AccountID:    field(record, columnMap, colAccount),
		BookingDate:  date,
		Amount:       field(record, columnMap, colAmount),
		Purpose:      normalize.Ptr(field(record, columnMap, colPurpose)),
		Counterparty: normalize.Ptr(field(record, columnMap, colCounterparty)),
	}
	if row.AccountID == "" {
		row.AccountID = opts.AccountID
	}
	if row.ID == "" {
		row.ID = syntheticID(row, line)
	}
	return row, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unreadable date %q", common.ErrInvalidRow, s)
}

// syntheticID derives a stable id for exports without one. The line number
// separates identical bookings on the same day.
func syntheticID(row normalize.ManualRow, line int) string {
	amount, _ := normalize.ParseAmount(row.Amount)
	hash := model.Transaction{
		TenantID:     row.TenantID,
		AccountID:    row.AccountID,
		Date:         row.BookingDate,
		Counterparty: *row.Counterparty,
		Amount:       amount,
	}.GenerateHash()
	return fmt.Sprintf("csv-%s-%d", hash[:16], line)
}
