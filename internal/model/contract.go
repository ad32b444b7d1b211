package model

import "time"

// Frequency is the inferred payment cadence of a recurring pattern.
type Frequency string

// Frequencies.
const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// RoutingTarget is the descriptive bucket a detected contract is filed under.
type RoutingTarget string

// Routing targets.
const (
	TargetInsurance    RoutingTarget = "insurance"
	TargetEnergy       RoutingTarget = "energy"
	TargetSubscription RoutingTarget = "subscription"
)

var targetLabels = map[RoutingTarget]string{
	TargetInsurance:    "Versicherung",
	TargetEnergy:       "Energie-/Versorgungsvertrag",
	TargetSubscription: "Abonnement",
}

// Label returns the human-readable name of the target.
func (r RoutingTarget) Label() string {
	if l, ok := targetLabels[r]; ok {
		return l
	}
	return string(r)
}

// DetectedContract is a recurring payment candidate awaiting confirmation.
// ID is empty until assigned by an injected generator or by persistence.
type DetectedContract struct {
	FirstSeen       time.Time
	LastSeen        time.Time
	ID              string
	TenantID        string
	CounterpartyKey string
	Counterparty    string
	Frequency       Frequency
	Target          RoutingTarget
	TargetLabel     string
	SampleIDs       []string
	AverageAmount   float64
	Confidence      float64
	IntervalDays    int
	Occurrences     int
	Selected        bool
}
