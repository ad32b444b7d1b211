package model

import "fmt"

// OwnerType is the scope a transaction is classified against.
type OwnerType string

// Owner types.
const (
	OwnerPerson     OwnerType = "person"
	OwnerProperty   OwnerType = "property"
	OwnerSolarPlant OwnerType = "solar_plant"
)

// ParseOwnerType converts a string into an OwnerType.
func ParseOwnerType(s string) (OwnerType, error) {
	switch OwnerType(s) {
	case OwnerPerson, OwnerProperty, OwnerSolarPlant:
		return OwnerType(s), nil
	}
	return "", fmt.Errorf("unknown owner type %q", s)
}

// Lease is the subset of a rental agreement the rent matcher needs.
type Lease struct {
	ID               string  `yaml:"id"`
	UnitCode         string  `yaml:"unit_code"`
	TenantSurname    string  `yaml:"tenant_surname"`
	TenantCompany    string  `yaml:"tenant_company"`
	ExpectedWarmRent float64 `yaml:"expected_warm_rent"`
}

// SolarPlant is the subset of a solar installation the feed-in matcher needs.
type SolarPlant struct {
	ExpectedMonthlyFeedIn *float64 `yaml:"expected_monthly_feed_in"`
	ID                    string   `yaml:"id"`
	GridOperator          string   `yaml:"grid_operator"`
}

// Loan is the subset of a financing record the installment matcher needs.
type Loan struct {
	MonthlyInstallment *float64 `yaml:"monthly_installment"`
	ID                 string   `yaml:"id"`
	BankIBAN           string   `yaml:"bank_iban"`
}

// OwnerContext is assembled by the caller for each classification run.
type OwnerContext struct {
	KnownIBANs map[string]string `yaml:"known_ibans"` // IBAN -> label
	OwnerID    string            `yaml:"owner_id"`
	OwnerType  OwnerType         `yaml:"owner_type"`
	Leases     []Lease           `yaml:"leases"`
	Plants     []SolarPlant      `yaml:"plants"`
	Loans      []Loan            `yaml:"loans"`
}
