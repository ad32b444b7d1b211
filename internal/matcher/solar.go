package matcher

import (
	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
)

// Solar scores txn as a feed-in tariff payment for plant.
func (m *Matcher) Solar(txn model.Transaction, plant model.SolarPlant) model.SolarMatch {
	res := model.SolarMatch{PlantID: plant.ID}
	if !txn.IsCredit() {
		return res
	}

	text := txn.SearchText()
	keyword := containsAnyTerm(text, feedInKeywords...)
	operator := containsAnyTerm(text, plant.GridOperator)
	if !keyword && !operator {
		return res
	}

	confidence := SolarOperatorOnly
	if keyword {
		confidence = SolarKeywordConfidence
		if operator {
			confidence += SolarOperatorBonus
		}
	}

	if plant.ExpectedMonthlyFeedIn != nil && common.Within(txn.Amount, *plant.ExpectedMonthlyFeedIn, m.settings.SolarTolerance) {
		confidence += SolarAmountBonus
		res.AmountInRange = true
	}

	res.Matched = true
	res.KeywordHit = keyword
	res.OperatorHit = operator
	res.Confidence = common.Cap(confidence, MaxConfidence)
	return res
}

// BestSolar evaluates every plant and returns the highest-confidence match.
func (m *Matcher) BestSolar(txn model.Transaction, plants []model.SolarPlant) (best model.SolarMatch, ok bool) {
	for _, plant := range plants {
		res := m.Solar(txn, plant)
		if res.Matched && (!ok || res.Confidence > best.Confidence) {
			best, ok = res, true
		}
	}
	return best, ok
}

// MatchSolar scores a feed-in hypothesis with default tolerances.
func MatchSolar(txn model.Transaction, plant model.SolarPlant) model.SolarMatch {
	return defaultMatcher.Solar(txn, plant)
}
