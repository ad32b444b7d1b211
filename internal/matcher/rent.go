package matcher

import (
	"math"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
)

// Rent scores txn as a payment of lease's warm rent. Exact amount evidence
// decides the status; text evidence alone yields at most a partial or
// overpaid hypothesis.
func (m *Matcher) Rent(txn model.Transaction, lease model.Lease) model.RentMatch {
	res := model.RentMatch{LeaseID: lease.ID}
	if !txn.IsCredit() {
		return res
	}

	diff := txn.Amount - lease.ExpectedWarmRent
	if math.Abs(diff) > lease.ExpectedWarmRent*RentMaxDeviation {
		return res
	}

	exact := math.Abs(diff) <= m.settings.RentTolerance
	evidence := containsAnyTerm(txn.SearchText(), lease.TenantSurname, lease.TenantCompany, lease.UnitCode)
	if !exact && !evidence {
		return res
	}

	confidence := RentPartialConfidence
	if exact {
		confidence = RentExactConfidence
	}
	if evidence {
		confidence += RentTextBonus
	}

	res.Matched = true
	res.Exact = exact
	res.TextEvidence = evidence
	res.Confidence = common.Cap(confidence, MaxConfidence)
	res.Difference = common.RoundCents(diff)
	switch {
	case exact:
		res.Status = model.RentPaid
	case diff > 0:
		res.Status = model.RentOverpaid
	default:
		res.Status = model.RentPartial
	}
	return res
}

// BestRent evaluates every lease and returns the highest-confidence match.
// On ties the earlier lease wins. ok is false when no lease matched.
func (m *Matcher) BestRent(txn model.Transaction, leases []model.Lease) (best model.RentMatch, ok bool) {
	for _, lease := range leases {
		res := m.Rent(txn, lease)
		if res.Matched && (!ok || res.Confidence > best.Confidence) {
			best, ok = res, true
		}
	}
	return best, ok
}

// MatchRent scores a rent hypothesis with default tolerances.
func MatchRent(txn model.Transaction, lease model.Lease) model.RentMatch {
	return defaultMatcher.Rent(txn, lease)
}
