package matcher

import (
	"strings"

	"github.com/Veraticus/ledgerlens/internal/common"
	"github.com/Veraticus/ledgerlens/internal/model"
)

// Loan scores txn as an installment on loan. Each signal contributes only
// when the loan record carries the data it needs.
func (m *Matcher) Loan(txn model.Transaction, loan model.Loan) model.LoanMatch {
	res := model.LoanMatch{LoanID: loan.ID}
	if !txn.IsDebit() {
		return res
	}

	text := txn.SearchText()
	confidence := 0.0

	if iban := compactIBAN(loan.BankIBAN); iban != "" && strings.Contains(text, iban) {
		confidence += LoanIBANWeight
		res.IBANHit = true
	}
	if loan.MonthlyInstallment != nil && common.Within(txn.AbsAmount(), *loan.MonthlyInstallment, m.settings.LoanTolerance) {
		confidence += LoanAmountWeight
		res.AmountHit = true
	}
	if containsAnyTerm(text, loanKeywords...) {
		confidence += LoanKeywordWeight
		res.KeywordHit = true
	}

	res.Confidence = common.Cap(confidence, MaxConfidence)
	res.Matched = res.Confidence >= m.settings.LoanThreshold
	return res
}

// BestLoan evaluates every loan and returns the highest-confidence match.
func (m *Matcher) BestLoan(txn model.Transaction, loans []model.Loan) (best model.LoanMatch, ok bool) {
	for _, loan := range loans {
		res := m.Loan(txn, loan)
		if res.Matched && (!ok || res.Confidence > best.Confidence) {
			best, ok = res, true
		}
	}
	return best, ok
}

// MatchLoan scores an installment hypothesis with default tolerances.
func MatchLoan(txn model.Transaction, loan model.Loan) model.LoanMatch {
	return defaultMatcher.Loan(txn, loan)
}

func compactIBAN(iban string) string {
	return strings.ToLower(strings.Join(strings.Fields(iban), ""))
}
