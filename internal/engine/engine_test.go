package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/matcher"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/Veraticus/ledgerlens/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func row(id string, date time.Time, amount, purpose, counterparty string) normalize.ManualRow {
	return normalize.ManualRow{
		ID:           id,
		TenantID:     "tenant-1",
		AccountID:    "acc-1",
		BookingDate:  date,
		Amount:       amount,
		Purpose:      normalize.Ptr(purpose),
		Counterparty: normalize.Ptr(counterparty),
	}
}

func installment(v float64) *float64 {
	return &v
}

func propertyOwner() model.OwnerContext {
	return model.OwnerContext{
		OwnerID:   "house-1",
		OwnerType: model.OwnerProperty,
		Leases: []model.Lease{
			{ID: "lease-1", UnitCode: "WE03", TenantSurname: "Mustermann", ExpectedWarmRent: 1000},
		},
		Loans: []model.Loan{
			{ID: "loan-1", BankIBAN: "DE89 3704 0044 0532 0130 00", MonthlyInstallment: installment(500)},
		},
		KnownIBANs: map[string]string{
			"DE89 3704 0044 0532 0130 00": "Sparkasse Baufinanzierung",
		},
	}
}

func propertyBatch() Batch {
	return Batch{
		TenantID: "tenant-1",
		Owner:    propertyOwner(),
		ManualRows: []normalize.ManualRow{
			row("r1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "1.000,00", "Miete Februar", "Max Mustermann"),
			row("l1", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), "-500,00", "Tilgung Darlehen DE89370400440532013000", "Sparkasse"),
			row("n1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "-9,99", "Netflix Abo", "Netflix International B.V."),
			row("n2", time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), "-9,99", "Netflix Abo", "Netflix International B.V."),
			row("n3", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "-9,99", "Netflix Abo", "Netflix International B.V."),
			row("bad", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "abc", "Kaputt", "Unbekannt"),
		},
	}
}

func entryByID(t *testing.T, report *Report, id string) Entry {
	t.Helper()
	for _, e := range report.Entries {
		if e.Transaction.ID == id {
			return e
		}
	}
	t.Fatalf("entry %s not found", id)
	return Entry{}
}

func TestRun_PropertyBatch(t *testing.T) {
	e := New(WithClock(func() time.Time { return fixedNow }))

	report, err := e.Run(context.Background(), propertyBatch())
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", report.TenantID)
	assert.Equal(t, "house-1", report.OwnerID)
	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Len(t, report.Entries, 5)
	require.Len(t, report.RowErrors, 1)
	assert.ErrorIs(t, report.RowErrors[0], common.ErrInvalidRow)
	assert.Equal(t, 3, report.Fallbacks)
	assert.Equal(t, 2, report.DomainHits)

	rent := entryByID(t, report, "r1")
	assert.Equal(t, "PROP_RENT", rent.Rule.RuleCode)
	assert.Equal(t, model.MatchedByRent, rent.Result.MatchedBy)
	assert.Equal(t, model.CategoryRent, rent.Result.Category)
	assert.InDelta(t, 1.0, rent.Result.Confidence, 1e-9)
	require.NotNil(t, rent.Rent)
	assert.Equal(t, "lease-1", rent.Rent.LeaseID)
	assert.Equal(t, model.RentPaid, rent.Rent.Status)
	assert.Nil(t, rent.Solar)
	assert.Nil(t, rent.Loan)

	loan := entryByID(t, report, "l1")
	assert.Equal(t, "LOAN_INSTALLMENT", loan.Rule.RuleCode)
	assert.Equal(t, model.MatchedByLoan, loan.Result.MatchedBy)
	assert.Equal(t, "Sparkasse Baufinanzierung", loan.IBANLabel)
	require.NotNil(t, loan.Loan)
	assert.Equal(t, "loan-1", loan.Loan.LoanID)

	netflix := entryByID(t, report, "n1")
	assert.Equal(t, model.MatchedByFallback, netflix.Result.MatchedBy)
	assert.Equal(t, model.CategoryExpenseOther, netflix.Result.Category)
	assert.Empty(t, netflix.IBANLabel)

	require.Len(t, report.Contracts, 1)
	c := report.Contracts[0]
	assert.Equal(t, model.FrequencyMonthly, c.Frequency)
	assert.Equal(t, model.TargetSubscription, c.Target)
	assert.Equal(t, []string{"n1", "n2", "n3"}, c.SampleIDs)
	assert.InDelta(t, 0.65, c.Confidence, 1e-9)
	assert.Equal(t, 3, report.Detection.Considered)
}

func TestRun_DomainMatchExcludesFromDetection(t *testing.T) {
	owner := propertyOwner()
	batch := Batch{TenantID: "tenant-1", Owner: owner}
	for i, d := range []time.Time{
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
	} {
		// no loan keyword: rule falls back, the loan matcher explains it
		batch.ManualRows = append(batch.ManualRows,
			row(fmt.Sprintf("l%d", i), d, "-500,00", "Rate DE89370400440532013000", "Sparkasse"))
	}

	report, err := New().Run(context.Background(), batch)
	require.NoError(t, err)

	for _, e := range report.Entries {
		assert.Equal(t, model.MatchedByFallback, e.Rule.MatchedBy)
		assert.Equal(t, model.CategoryLoanInstallment, e.Result.Category)
	}
	assert.Empty(t, report.Contracts)
}

func TestRun_CustomMatcherSettings(t *testing.T) {
	settings := matcher.DefaultSettings()
	settings.LoanThreshold = 0.99

	batch := Batch{
		TenantID: "tenant-1",
		Owner:    propertyOwner(),
		ManualRows: []normalize.ManualRow{
			row("l1", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), "-500,00", "Rate DE89370400440532013000", "Sparkasse"),
		},
	}

	report, err := New(WithMatcher(matcher.New(settings))).Run(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, model.MatchedByFallback, report.Entries[0].Result.MatchedBy)
	assert.Nil(t, report.Entries[0].Loan)
}

func TestRun_AggregatorRows(t *testing.T) {
	batch := Batch{
		TenantID: "tenant-2",
		Owner:    model.OwnerContext{OwnerID: "me", OwnerType: model.OwnerPerson},
		AggregatorRows: []normalize.AggregatorRow{
			{
				TransactionID:         "a1",
				TenantID:              "tenant-2",
				BookingDate:           time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC),
				Amount:                "3200.00",
				RemittanceInformation: normalize.Ptr("Gehalt Januar"),
				DebtorName:            normalize.Ptr("Arbeitgeber GmbH"),
			},
		},
	}

	report, err := New().Run(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, model.CategorySalary, report.Entries[0].Result.Category)
	assert.Equal(t, "Arbeitgeber GmbH", report.Entries[0].Transaction.Counterparty)
	assert.Equal(t, 0, report.Fallbacks)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, propertyBatch())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAll(t *testing.T) {
	var batches []Batch
	for i := 0; i < 5; i++ {
		b := propertyBatch()
		b.TenantID = fmt.Sprintf("tenant-%d", i)
		batches = append(batches, b)
	}

	reports, err := New(WithWorkers(2)).RunAll(context.Background(), batches)
	require.NoError(t, err)
	require.Len(t, reports, len(batches))
	for i, r := range reports {
		assert.Equal(t, batches[i].TenantID, r.TenantID)
		assert.Len(t, r.Contracts, 1)
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := New().RunAll(ctx, []Batch{propertyBatch(), propertyBatch()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, reports)
}

func TestKnownIBANLabel(t *testing.T) {
	known := map[string]string{"DE02 1203 0000 0000 2020 51": "Tagesgeld"}

	tests := []struct {
		name    string
		purpose string
		want    string
	}{
		{"compact", "Übertrag DE02120300000000202051", "Tagesgeld"},
		{"spaced", "Übertrag DE02 1203 0000 0000 2020 51", "Tagesgeld"},
		{"absent", "Übertrag", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := model.Transaction{Purpose: tt.purpose}
			assert.Equal(t, tt.want, knownIBANLabel(txn, known))
		})
	}
}
