// Package matcher scores domain hypotheses (rent, solar feed-in, loan
// installment) for single transactions. Every scorer is a pure function of its
// inputs; confidence arithmetic is additive with a ceiling of 1.0.
package matcher

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Rent scoring.
const (
	RentDefaultTolerance  = 1.0
	RentMaxDeviation      = 0.5 // fraction of expected warm rent
	RentExactConfidence   = 0.95
	RentPartialConfidence = 0.70
	RentTextBonus         = 0.10
)

// Solar feed-in scoring.
const (
	SolarDefaultTolerance  = 5.0
	SolarKeywordConfidence = 0.80
	SolarOperatorOnly      = 0.60
	SolarOperatorBonus     = 0.15
	SolarAmountBonus       = 0.10
)

// Loan installment scoring.
const (
	LoanDefaultTolerance = 0.5
	LoanDefaultThreshold = 0.75
	LoanIBANWeight       = 0.60
	LoanAmountWeight     = 0.35
	LoanKeywordWeight    = 0.20
)

// MaxConfidence caps every domain score.
const MaxConfidence = 1.0

var (
	feedInKeywords = []string{"einspeis", "eeg", "marktprämie", "solarstrom", "pv-vergütung"}
	loanKeywords   = []string{"darlehen", "tilgung", "annuität", "kredit", "baufinanzierung", "zins"}
)

// Settings holds the tunable tolerances. A zero tolerance means an exact
// amount match. New replaces a non-positive LoanThreshold with the default so
// a zero value never marks every debit as an installment.
type Settings struct {
	RentTolerance  float64
	SolarTolerance float64
	LoanTolerance  float64
	LoanThreshold  float64
}

// DefaultSettings returns the calibrated defaults.
func DefaultSettings() Settings {
	return Settings{
		RentTolerance:  RentDefaultTolerance,
		SolarTolerance: SolarDefaultTolerance,
		LoanTolerance:  LoanDefaultTolerance,
		LoanThreshold:  LoanDefaultThreshold,
	}
}

// Matcher bundles the three scorers with one set of tolerances.
type Matcher struct {
	settings Settings
}

// New creates a Matcher. Negative tolerances and a non-positive loan
// threshold fall back to the defaults.
func New(settings Settings) *Matcher {
	if settings.RentTolerance < 0 {
		settings.RentTolerance = RentDefaultTolerance
	}
	if settings.SolarTolerance < 0 {
		settings.SolarTolerance = SolarDefaultTolerance
	}
	if settings.LoanTolerance < 0 {
		settings.LoanTolerance = LoanDefaultTolerance
	}
	if settings.LoanThreshold <= 0 {
		settings.LoanThreshold = LoanDefaultThreshold
	}
	return &Matcher{settings: settings}
}

// Settings returns the tolerances in use.
func (m *Matcher) Settings() Settings {
	return m.settings
}

var defaultMatcher = New(DefaultSettings())

// containsAnyTerm reports whether text contains any non-empty term,
// compared case-insensitively in NFC form.
func containsAnyTerm(text string, terms ...string) bool {
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if strings.Contains(text, norm.NFC.String(strings.ToLower(term))) {
			return true
		}
	}
	return false
}
