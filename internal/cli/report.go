package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CategoryTotal is the summed amount of one category in a report.
type CategoryTotal struct {
	Category model.Category
	Total    decimal.Decimal
	Count    int
}

// Totals sums report entries per effective category, largest absolute
// total first, ties by category name.
func Totals(r *engine.Report) []CategoryTotal {
	byCategory := make(map[model.Category]*CategoryTotal)
	for _, e := range r.Entries {
		c := e.Result.Category
		t, ok := byCategory[c]
		if !ok {
			t = &CategoryTotal{Category: c}
			byCategory[c] = t
		}
		t.Total = t.Total.Add(decimal.NewFromFloat(e.Transaction.Amount))
		t.Count++
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for _, t := range byCategory {
		totals = append(totals, *t)
	}
	slices.SortFunc(totals, func(a, b CategoryTotal) int {
		if c := b.Total.Abs().Cmp(a.Total.Abs()); c != 0 {
			return c
		}
		return strings.Compare(string(a.Category), string(b.Category))
	})
	return totals
}

// RenderReport writes the summary, category totals and, when showEntries is
// set, every classified transaction. Detected contracts follow.
func RenderReport(w io.Writer, r *engine.Report, showEntries bool) error {
	var b strings.Builder

	b.WriteString(FormatTitle(fmt.Sprintf("Report for %s", displayTenant(r))))
	b.WriteString("\n")
	b.WriteString(RenderBox(ChartIcon+" Summary", summary(r)))
	b.WriteString("\n\n")

	if len(r.Entries) > 0 {
		b.WriteString(totalsTable(Totals(r)))
		b.WriteString("\n\n")
	}

	if showEntries && len(r.Entries) > 0 {
		b.WriteString(entriesTable(r.Entries))
		b.WriteString("\n\n")
	}

	for _, err := range r.RowErrors {
		b.WriteString(FormatWarning(err.Error()))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return RenderContracts(w, r.Contracts)
}

// RenderContracts writes detected contracts as a table.
func RenderContracts(w io.Writer, contracts []model.DetectedContract) error {
	var out string
	if len(contracts) == 0 {
		out = FormatInfo("No recurring contracts detected") + "\n"
	} else {
		out = TitleStyle.Render(RepeatIcon+" Recurring contracts") + "\n" + contractsTable(contracts) + "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write contracts: %w", err)
	}
	return nil
}

// RenderSamples writes one contract and the transactions behind it.
func RenderSamples(w io.Writer, c model.DetectedContract, samples []model.Transaction) error {
	var b strings.Builder
	b.WriteString(RenderBox(c.Counterparty, contractDetails(c)))
	b.WriteString("\n")

	if len(samples) == 0 {
		b.WriteString(FormatWarning("Sample transactions are not stored"))
		b.WriteString("\n")
	} else {
		t := newTable("Date", "Amount", "Counterparty", "Purpose")
		for _, s := range samples {
			t.Row(s.Date.Format(dateLayout), FormatAmount(s.Amount), s.Counterparty, truncate(s.Purpose, 48))
		}
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// FormatAmount renders a signed amount with two decimals.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatConfidence renders a confidence as a percentage.
func FormatConfidence(v float64) string {
	return strconv.Itoa(int(decimal.NewFromFloat(v).Shift(2).Round(0).IntPart())) + "%"
}

func displayTenant(r *engine.Report) string {
	if r.OwnerID != "" && r.OwnerID != r.TenantID {
		return r.TenantID + " / " + r.OwnerID
	}
	return r.TenantID
}

func summary(r *engine.Report) string {
	lines := []string{
		fmt.Sprintf("Transactions:    %d", len(r.Entries)),
		fmt.Sprintf("Domain matches:  %d", r.DomainHits),
		fmt.Sprintf("Fallbacks:       %d", r.Fallbacks),
		fmt.Sprintf("Rejected rows:   %d", len(r.RowErrors)),
		fmt.Sprintf("Contracts:       %d", len(r.Contracts)),
	}
	if !r.GeneratedAt.IsZero() {
		lines = append(lines, SubtleStyle.Render("Generated "+r.GeneratedAt.Format("2006-01-02 15:04:05")))
	}
	return strings.Join(lines, "\n")
}

func contractDetails(c model.DetectedContract) string {
	label := c.TargetLabel
	if label == "" {
		label = c.Target.Label()
	}
	return strings.Join([]string{
		fmt.Sprintf("Key:         %s", c.CounterpartyKey),
		fmt.Sprintf("Filed under: %s", label),
		fmt.Sprintf("Cadence:     %s (every %d days)", c.Frequency, c.IntervalDays),
		fmt.Sprintf("Amount:      %s", FormatAmount(c.AverageAmount)),
		fmt.Sprintf("Seen:        %d times, %s to %s", c.Occurrences, c.FirstSeen.Format(dateLayout), c.LastSeen.Format(dateLayout)),
		fmt.Sprintf("Confidence:  %s", FormatConfidence(c.Confidence)),
	}, "\n")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

func totalsTable(totals []CategoryTotal) string {
	t := newTable("Category", "Type", "Count", "Total")
	for _, ct := range totals {
		t.Row(ct.Category.Label(), string(ct.Category.Type()), strconv.Itoa(ct.Count), ct.Total.StringFixed(2))
	}
	return t.String()
}

func entriesTable(entries []engine.Entry) string {
	t := newTable("Date", "Amount", "Counterparty", "Category", "Matched by", "Rule", "Confidence", "Account")
	for _, e := range entries {
		t.Row(
			e.Transaction.Date.Format(dateLayout),
			FormatAmount(e.Transaction.Amount),
			truncate(e.Transaction.Counterparty, 32),
			e.Result.Category.Label(),
			string(e.Result.MatchedBy),
			e.Result.RuleCode,
			FormatConfidence(e.Result.Confidence),
			e.IBANLabel,
		)
	}
	return t.String()
}

func contractsTable(contracts []model.DetectedContract) string {
	t := newTable("ID", "Counterparty", "Filed under", "Cadence", "Amount", "Seen", "Confidence", "Selected")
	for _, c := range contracts {
		label := c.TargetLabel
		if label == "" {
			label = c.Target.Label()
		}
		selected := ""
		if c.Selected {
			selected = SuccessIcon
		}
		t.Row(
			c.ID,
			truncate(c.Counterparty, 32),
			label,
			string(c.Frequency),
			FormatAmount(c.AverageAmount),
			strconv.Itoa(c.Occurrences),
			FormatConfidence(c.Confidence),
			selected,
		)
	}
	return t.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
