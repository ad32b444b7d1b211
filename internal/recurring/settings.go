// Package recurring mines a batch of categorized transactions for undeclared
// recurring payments and emits contract candidates for human review.
package recurring

import "github.com/Veraticus/ledgerlens/internal/model"

// Defaults for Settings.
const (
	DefaultAmountTolerance     = 0.05
	DefaultMinOccurrences      = 2
	DefaultBaseConfidence      = 0.6
	DefaultOccurrenceBonus     = 0.05
	DefaultIrregularityPenalty = 0.01 // per day of mean absolute gap deviation
	DefaultMinConfidence       = 0.5
	DefaultMaxConfidence       = 0.95
	DefaultMaxSamples          = 5
)

// Band maps a range of mean day gaps onto a frequency. Bounds are inclusive.
type Band struct {
	Frequency model.Frequency
	MinDays   float64
	MaxDays   float64
}

// DefaultBands are the non-overlapping cadence bands.
func DefaultBands() []Band {
	return []Band{
		{Frequency: model.FrequencyMonthly, MinDays: 25, MaxDays: 35},
		{Frequency: model.FrequencyQuarterly, MinDays: 80, MaxDays: 100},
		{Frequency: model.FrequencyYearly, MinDays: 350, MaxDays: 380},
	}
}

// Settings tunes clustering and scoring.
type Settings struct {
	Bands               []Band
	AmountTolerance     float64
	BaseConfidence      float64
	OccurrenceBonus     float64
	IrregularityPenalty float64
	MinConfidence       float64
	MaxConfidence       float64
	MinOccurrences      int
	MaxSamples          int
}

// DefaultSettings returns the calibrated defaults.
func DefaultSettings() Settings {
	return Settings{
		Bands:               DefaultBands(),
		AmountTolerance:     DefaultAmountTolerance,
		BaseConfidence:      DefaultBaseConfidence,
		OccurrenceBonus:     DefaultOccurrenceBonus,
		IrregularityPenalty: DefaultIrregularityPenalty,
		MinConfidence:       DefaultMinConfidence,
		MaxConfidence:       DefaultMaxConfidence,
		MinOccurrences:      DefaultMinOccurrences,
		MaxSamples:          DefaultMaxSamples,
	}
}

// explained lists categories whose transactions are already accounted for by
// a structured record and are never contract candidates.
var explained = map[model.Category]bool{
	model.CategoryRent:            true,
	model.CategoryCondoFee:        true,
	model.CategoryPropertyTax:     true,
	model.CategoryLoanInstallment: true,
	model.CategoryMaintenance:     true,
	model.CategoryFeedInTariff:    true,
	model.CategoryServiceContract: true,
	model.CategorySalary:          true,
	model.CategoryIncomeOther:     true,
}

// IsExplained reports whether c is excluded from detection.
func IsExplained(c model.Category) bool {
	return explained[c]
}
