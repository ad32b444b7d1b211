package model

// MatchedBy names the mechanism that produced a categorization.
type MatchedBy string

// Mechanisms.
const (
	MatchedByRule     MatchedBy = "rule"
	MatchedByFallback MatchedBy = "fallback"
	MatchedByRent     MatchedBy = "rent"
	MatchedBySolar    MatchedBy = "solar"
	MatchedByLoan     MatchedBy = "loan"
)

// FallbackRuleCode is the rule code reported when no rule matched.
const FallbackRuleCode = "FALLBACK"

// MatchResult is the categorization of a single transaction.
type MatchResult struct {
	TransactionID string
	Category      Category
	MatchedBy     MatchedBy
	RuleCode      string
	Confidence    float64
}

// RentStatus classifies a received rent payment against the expected amount.
type RentStatus string

// Rent statuses.
const (
	RentPaid     RentStatus = "paid"
	RentOverpaid RentStatus = "overpaid"
	RentPartial  RentStatus = "partial"
)

// RentMatch is the rent matcher's hypothesis for one lease.
type RentMatch struct {
	LeaseID      string
	Status       RentStatus
	Difference   float64 // amount - expected warm rent
	Confidence   float64
	Matched      bool
	Exact        bool
	TextEvidence bool
}

// SolarMatch is the feed-in matcher's hypothesis for one plant.
type SolarMatch struct {
	PlantID       string
	Confidence    float64
	Matched       bool
	KeywordHit    bool
	OperatorHit   bool
	AmountInRange bool
}

// LoanMatch is the installment matcher's hypothesis for one loan.
type LoanMatch struct {
	LoanID     string
	Confidence float64
	Matched    bool
	IBANHit    bool
	AmountHit  bool
	KeywordHit bool
}
