package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *engine.Report {
	day := func(m, d int) time.Time { return time.Date(2025, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	return &engine.Report{
		GeneratedAt: day(4, 1),
		TenantID:    "t1",
		OwnerID:     "house-1",
		Entries: []engine.Entry{
			{
				Transaction: model.Transaction{ID: "r1", Date: day(1, 3), Amount: 950, Counterparty: "Max Mustermann"},
				Result:      model.MatchResult{TransactionID: "r1", Category: model.CategoryRent, MatchedBy: model.MatchedByRent, Confidence: 1},
			},
			{
				Transaction: model.Transaction{ID: "n1", Date: day(1, 15), Amount: -12.99, Counterparty: "Netflix International B.V."},
				Result:      model.MatchResult{TransactionID: "n1", Category: model.CategoryExpenseOther, MatchedBy: model.MatchedByFallback, RuleCode: model.FallbackRuleCode, Confidence: 0.3},
			},
			{
				Transaction: model.Transaction{ID: "n2", Date: day(2, 14), Amount: -12.99, Counterparty: "Netflix International B.V."},
				Result:      model.MatchResult{TransactionID: "n2", Category: model.CategoryExpenseOther, MatchedBy: model.MatchedByFallback, RuleCode: model.FallbackRuleCode, Confidence: 0.3},
				IBANLabel:   "Girokonto",
			},
		},
		Contracts: []model.DetectedContract{
			{
				ID:              "c-1",
				CounterpartyKey: "netflix international bv",
				Counterparty:    "Netflix International B.V.",
				Frequency:       model.FrequencyMonthly,
				Target:          model.TargetSubscription,
				AverageAmount:   12.99,
				Confidence:      0.65,
				IntervalDays:    30,
				Occurrences:     3,
				FirstSeen:       day(1, 15),
				LastSeen:        day(3, 16),
			},
		},
		RowErrors:  []error{errors.New("row bad: invalid row")},
		Fallbacks:  2,
		DomainHits: 1,
	}
}

func TestTotals(t *testing.T) {
	totals := Totals(sampleReport())
	require.Len(t, totals, 2)

	assert.Equal(t, model.CategoryRent, totals[0].Category)
	assert.Equal(t, "950.00", totals[0].Total.StringFixed(2))
	assert.Equal(t, 1, totals[0].Count)

	assert.Equal(t, model.CategoryExpenseOther, totals[1].Category)
	assert.Equal(t, "-25.98", totals[1].Total.StringFixed(2))
	assert.Equal(t, 2, totals[1].Count)
}

func TestTotals_Empty(t *testing.T) {
	assert.Empty(t, Totals(&engine.Report{}))
}

func TestRenderReport(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		notExpected []string
		showEntries bool
	}{
		{
			name:        "summary only",
			expected:    []string{"t1 / house-1", "Transactions:    3", "Domain matches:  1", "Rejected rows:   1", "Miete", "Sonstige Ausgaben", "-25.98", "row bad", "Netflix International B.V.", "65%"},
			notExpected: []string{"Girokonto"},
		},
		{
			name:        "with entries",
			showEntries: true,
			expected:    []string{"Girokonto", "FALLBACK", "-12.99", "2025-01-03", "100%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderReport(&buf, sampleReport(), tt.showEntries))

			out := buf.String()
			for _, e := range tt.expected {
				assert.Contains(t, out, e)
			}
			for _, n := range tt.notExpected {
				assert.NotContains(t, out, n)
			}
		})
	}
}

func TestRenderContracts(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderContracts(&buf, nil))
		assert.Contains(t, buf.String(), "No recurring contracts detected")
	})

	t.Run("selected marker and label", func(t *testing.T) {
		c := sampleReport().Contracts[0]
		c.Selected = true
		var buf bytes.Buffer
		require.NoError(t, RenderContracts(&buf, []model.DetectedContract{c}))

		out := buf.String()
		assert.Contains(t, out, "c-1")
		assert.Contains(t, out, "Abonnement")
		assert.Contains(t, out, "monthly")
		assert.Contains(t, out, SuccessIcon)
	})
}

func TestRenderSamples(t *testing.T) {
	r := sampleReport()
	c := r.Contracts[0]

	var buf bytes.Buffer
	require.NoError(t, RenderSamples(&buf, c, []model.Transaction{r.Entries[1].Transaction}))
	out := buf.String()
	assert.Contains(t, out, "netflix international bv")
	assert.Contains(t, out, "every 30 days")
	assert.Contains(t, out, "2025-01-15")

	buf.Reset()
	require.NoError(t, RenderSamples(&buf, c, nil))
	assert.Contains(t, buf.String(), "Sample transactions are not stored")
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"negative amount", FormatAmount(-12.99), "-12.99"},
		{"whole amount", FormatAmount(950), "950.00"},
		{"confidence", FormatConfidence(0.65), "65%"},
		{"confidence rounds", FormatConfidence(0.6955), "70%"},
		{"short text", truncate("Netflix", 10), "Netflix"},
		{"long text", truncate("Stadtwerke München", 10), "Stadtwerk…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}
