package normalize

import (
	"testing"
	"time"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "plain negative", raw: "-9.99", want: -9.99},
		{name: "german decimal comma", raw: "-9,99", want: -9.99},
		{name: "german thousands", raw: "1.234,56", want: 1234.56},
		{name: "english thousands", raw: "1,234.56", want: 1234.56},
		{name: "currency suffix", raw: "1.000,00 EUR", want: 1000},
		{name: "euro sign", raw: "-500,00 €", want: -500},
		{name: "integer", raw: "1000", want: 1000},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidRow)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFromManual(t *testing.T) {
	date := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	txn, err := FromManual(ManualRow{
		ID:           "m-1",
		TenantID:     "tenant-a",
		AccountID:    "acc-1",
		BookingDate:  date,
		Amount:       "-1.250,00",
		Purpose:      Ptr("  Hausgeld WEG Musterstraße  "),
		Counterparty: nil,
	})
	require.NoError(t, err)

	assert.Equal(t, model.Transaction{
		ID:           "m-1",
		TenantID:     "tenant-a",
		AccountID:    "acc-1",
		Date:         date,
		Amount:       -1250,
		Purpose:      "Hausgeld WEG Musterstraße",
		Counterparty: "",
		Source:       model.SourceManual,
	}, txn)
}

func TestFromAggregator(t *testing.T) {
	date := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		amount           string
		wantCounterparty string
	}{
		{name: "outflow uses creditor", amount: "-9.99", wantCounterparty: "Netflix"},
		{name: "inflow uses debtor", amount: "1000.00", wantCounterparty: "Max Mustermann"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := FromAggregator(AggregatorRow{
				TransactionID:         "agg-1",
				TenantID:              "tenant-a",
				AccountID:             "acc-2",
				BookingDate:           date,
				Amount:                tt.amount,
				RemittanceInformation: Ptr("ref"),
				CreditorName:          Ptr("Netflix"),
				DebtorName:            Ptr("Max Mustermann"),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCounterparty, txn.Counterparty)
			assert.Equal(t, model.SourceAggregator, txn.Source)
			assert.Equal(t, "ref", txn.Purpose)
		})
	}
}

func TestBatch_SkipsInvalidRows(t *testing.T) {
	manual := []ManualRow{
		{ID: "ok", Amount: "10,00"},
		{ID: "bad", Amount: "n/a"},
	}
	aggregated := []AggregatorRow{
		{TransactionID: "agg", Amount: "-5.00"},
	}

	txns, errs := Batch(manual, aggregated)

	require.Len(t, txns, 2)
	assert.Equal(t, "ok", txns[0].ID)
	assert.Equal(t, "agg", txns[1].ID)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "row bad")
}
