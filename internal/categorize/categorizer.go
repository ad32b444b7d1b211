package categorize

import (
	"github.com/Veraticus/ledgerlens/internal/model"
)

const (
	// RuleConfidence is reported for every rule hit.
	RuleConfidence = 0.85
	// FallbackConfidence is reported when no rule matched.
	FallbackConfidence = 0.10
)

// Categorizer evaluates an ordered rule table. It holds no mutable state and
// is safe for concurrent use.
type Categorizer struct {
	rules []Rule
}

// NewCategorizer creates a categorizer over a copy of rules. Order is kept.
func NewCategorizer(rules []Rule) *Categorizer {
	return &Categorizer{rules: append([]Rule(nil), rules...)}
}

// Default returns a categorizer over DefaultRules.
func Default() *Categorizer {
	return NewCategorizer(DefaultRules())
}

// Rules returns a copy of the rule table in evaluation order.
func (c *Categorizer) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Categorize returns the first matching rule's category among rules scoped to
// the owner type, or the directional fallback. It never fails.
func (c *Categorizer) Categorize(txn model.Transaction, owner model.OwnerContext) model.MatchResult {
	for _, rule := range c.rules {
		if !rule.AppliesTo(owner.OwnerType) {
			continue
		}
		if rule.Matches(txn) {
			return model.MatchResult{
				TransactionID: txn.ID,
				Category:      rule.Category,
				Confidence:    RuleConfidence,
				MatchedBy:     model.MatchedByRule,
				RuleCode:      rule.Code,
			}
		}
	}

	return model.MatchResult{
		TransactionID: txn.ID,
		Category:      model.FallbackCategory(txn.Direction()),
		Confidence:    FallbackConfidence,
		MatchedBy:     model.MatchedByFallback,
		RuleCode:      model.FallbackRuleCode,
	}
}

// Categorize is a convenience wrapper over the default rule table.
func Categorize(txn model.Transaction, owner model.OwnerContext) model.MatchResult {
	return defaultCategorizer.Categorize(txn, owner)
}

var defaultCategorizer = Default()
