// Package categorize assigns taxonomy categories to transactions using an
// ordered, owner-type-scoped rule table.
package categorize

import (
	"slices"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/model"
)

// Rule matches transactions by direction, absolute amount and text patterns.
// A rule table is an ordered slice; earlier rules take precedence.
type Rule struct {
	MinAmount  *float64          `yaml:"min_amount,omitempty"`
	MaxAmount  *float64          `yaml:"max_amount,omitempty"`
	Code       string            `yaml:"code"`
	Category   model.Category    `yaml:"category"`
	Direction  model.Direction   `yaml:"direction"`
	OwnerTypes []model.OwnerType `yaml:"owner_types"`
	Patterns   []string          `yaml:"patterns"` // lowercase substrings
	MatchAll   bool              `yaml:"match_all,omitempty"`
}

// AppliesTo reports whether the rule is scoped to the owner type.
func (r Rule) AppliesTo(owner model.OwnerType) bool {
	return slices.Contains(r.OwnerTypes, owner)
}

// Matches evaluates the direction, amount-range and pattern gates in order.
func (r Rule) Matches(txn model.Transaction) bool {
	return r.matchesDirection(txn) && r.matchesAmount(txn) && r.matchesPatterns(txn.SearchText())
}

func (r Rule) matchesDirection(txn model.Transaction) bool {
	switch r.Direction {
	case model.DirectionCredit:
		return txn.IsCredit()
	case model.DirectionDebit:
		return txn.IsDebit()
	}
	return false
}

func (r Rule) matchesAmount(txn model.Transaction) bool {
	abs := txn.AbsAmount()
	if r.MinAmount != nil && abs < *r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && abs > *r.MaxAmount {
		return false
	}
	return true
}

func (r Rule) matchesPatterns(text string) bool {
	if len(r.Patterns) == 0 {
		return false
	}

	if r.MatchAll {
		for _, p := range r.Patterns {
			if !strings.Contains(text, p) {
				return false
			}
		}
		return true
	}

	for _, p := range r.Patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
