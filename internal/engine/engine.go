// Package engine runs the full classification pipeline for one or more
// tenants: normalize, categorize, domain matching and contract detection.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/ledgerlens/internal/categorize"
	"github.com/Veraticus/ledgerlens/internal/matcher"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/Veraticus/ledgerlens/internal/normalize"
	"github.com/Veraticus/ledgerlens/internal/recurring"
)

// DefaultWorkers bounds parallel tenant runs in RunAll.
const DefaultWorkers = 4

// Batch is the input of a single tenant run.
type Batch struct {
	Owner          model.OwnerContext
	TenantID       string
	ManualRows     []normalize.ManualRow
	AggregatorRows []normalize.AggregatorRow
}

// Entry is one classified transaction in a report.
type Entry struct {
	Rent        *model.RentMatch
	Solar       *model.SolarMatch
	Loan        *model.LoanMatch
	IBANLabel   string
	Transaction model.Transaction
	Rule        model.MatchResult // rule table outcome
	Result      model.MatchResult // effective outcome after domain matching
}

// Report is the outcome of a single tenant run.
type Report struct {
	GeneratedAt time.Time
	TenantID    string
	OwnerID     string
	Entries     []Entry
	Contracts   []model.DetectedContract
	RowErrors   []error
	Detection   recurring.Stats
	Fallbacks   int
	DomainHits  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCategorizer replaces the default rule table.
func WithCategorizer(c *categorize.Categorizer) Option {
	return func(e *Engine) { e.categorizer = c }
}

// WithMatcher replaces the default domain matcher settings.
func WithMatcher(m *matcher.Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

// WithDetector replaces the default recurring detector.
func WithDetector(d *recurring.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithWorkers bounds the number of tenants processed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine wires the pure classification components together.
type Engine struct {
	categorizer *categorize.Categorizer
	matcher     *matcher.Matcher
	detector    *recurring.Detector
	logger      *slog.Logger
	now         func() time.Time
	workers     int
}

// New creates an engine with default components unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		categorizer: categorize.Default(),
		matcher:     matcher.New(matcher.DefaultSettings()),
		detector:    recurring.NewDetector(),
		logger:      slog.Default().With("component", "engine"),
		now:         time.Now,
		workers:     DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes one tenant batch. Malformed rows are skipped and listed in
// Report.RowErrors; the only returned error is context cancellation.
func (e *Engine) Run(ctx context.Context, batch Batch) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s: %w", batch.TenantID, err)
	}

	log := e.logger.With("tenant", batch.TenantID)

	txns, rowErrs := normalize.Batch(batch.ManualRows, batch.AggregatorRows)
	for _, err := range rowErrs {
		log.Warn("Skipping malformed row", "error", err)
	}

	report := &Report{
		GeneratedAt: e.now(),
		TenantID:    batch.TenantID,
		OwnerID:     batch.Owner.OwnerID,
		Entries:     make([]Entry, 0, len(txns)),
		RowErrors:   rowErrs,
	}

	inputs := make([]recurring.Input, 0, len(txns))
	for _, txn := range txns {
		entry := e.classify(txn, batch.Owner)
		if entry.Result.MatchedBy == model.MatchedByFallback {
			report.Fallbacks++
		}
		if entry.Result.MatchedBy != entry.Rule.MatchedBy {
			report.DomainHits++
		}
		report.Entries = append(report.Entries, entry)
		inputs = append(inputs, recurring.Input{Transaction: txn, Category: entry.Result.Category})
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s: %w", batch.TenantID, err)
	}

	report.Contracts, report.Detection = e.detector.DetectWithStats(inputs)

	log.Debug("Recurring detection finished",
		"considered", report.Detection.Considered,
		"groups", report.Detection.Groups,
		"clusters", report.Detection.Clusters,
		"too_few", report.Detection.TooFew,
		"no_cadence", report.Detection.NoCadence)
	log.Info("Run complete",
		"transactions", len(report.Entries),
		"skipped_rows", len(rowErrs),
		"fallbacks", report.Fallbacks,
		"domain_matches", report.DomainHits,
		"contracts", len(report.Contracts))

	return report, nil
}

// classify categorizes a transaction and lets a matched domain hypothesis
// override the rule outcome. Among several domain hits the highest confidence
// wins; ties go to rent, then solar, then loan.
func (e *Engine) classify(txn model.Transaction, owner model.OwnerContext) Entry {
	rule := e.categorizer.Categorize(txn, owner)
	entry := Entry{
		Transaction: txn,
		Rule:        rule,
		Result:      rule,
		IBANLabel:   knownIBANLabel(txn, owner.KnownIBANs),
	}

	best := 0.0
	override := func(category model.Category, by model.MatchedBy, confidence float64) {
		if confidence <= best {
			return
		}
		best = confidence
		entry.Result = model.MatchResult{
			TransactionID: txn.ID,
			Category:      category,
			MatchedBy:     by,
			Confidence:    confidence,
		}
	}

	if m, ok := e.matcher.BestRent(txn, owner.Leases); ok {
		entry.Rent = &m
		override(model.CategoryRent, model.MatchedByRent, m.Confidence)
	}
	if m, ok := e.matcher.BestSolar(txn, owner.Plants); ok {
		entry.Solar = &m
		override(model.CategoryFeedInTariff, model.MatchedBySolar, m.Confidence)
	}
	if m, ok := e.matcher.BestLoan(txn, owner.Loans); ok {
		entry.Loan = &m
		override(model.CategoryLoanInstallment, model.MatchedByLoan, m.Confidence)
	}

	return entry
}

// knownIBANLabel returns the label of the first known IBAN, in sorted order,
// found in the transaction text.
func knownIBANLabel(txn model.Transaction, known map[string]string) string {
	if len(known) == 0 {
		return ""
	}
	text := strings.ReplaceAll(txn.SearchText(), " ", "")
	ibans := make([]string, 0, len(known))
	for iban := range known {
		ibans = append(ibans, iban)
	}
	slices.Sort(ibans)
	for _, iban := range ibans {
		compact := strings.ToLower(strings.Join(strings.Fields(iban), ""))
		if compact != "" && strings.Contains(text, compact) {
			return known[iban]
		}
	}
	return ""
}
