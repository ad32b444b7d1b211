package categorize

import "github.com/Veraticus/ledgerlens/internal/model"

var (
	allOwners      = []model.OwnerType{model.OwnerPerson, model.OwnerProperty, model.OwnerSolarPlant}
	personOnly     = []model.OwnerType{model.OwnerPerson}
	propertyOnly   = []model.OwnerType{model.OwnerProperty}
	solarOnly      = []model.OwnerType{model.OwnerSolarPlant}
	personProperty = []model.OwnerType{model.OwnerPerson, model.OwnerProperty}
	propertySolar  = []model.OwnerType{model.OwnerProperty, model.OwnerSolarPlant}
)

func amount(v float64) *float64 {
	return &v
}

// DefaultRules returns the built-in rule table. Position is priority: the
// specific property and solar rules precede the broad household rules.
func DefaultRules() []Rule {
	return []Rule{
		// Property
		{
			Code:       "PROP_NK_REFUND",
			Category:   model.CategoryIncomeOther,
			OwnerTypes: propertyOnly,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"nebenkosten", "erstattung"},
			MatchAll:   true,
		},
		{
			Code:       "PROP_DEPOSIT",
			Category:   model.CategoryIncomeOther,
			OwnerTypes: propertyOnly,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"kaution", "mietsicherheit"},
		},
		{
			Code:       "PROP_RENT",
			Category:   model.CategoryRent,
			OwnerTypes: propertyOnly,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"miete", "kaltmiete", "warmmiete", "nutzungsentgelt"},
		},
		{
			Code:       "PROP_HAUSGELD",
			Category:   model.CategoryCondoFee,
			OwnerTypes: personProperty,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"hausgeld", "wohngeld weg"},
		},
		{
			Code:       "PROP_GRUNDSTEUER",
			Category:   model.CategoryPropertyTax,
			OwnerTypes: propertyOnly,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"grundsteuer", "grundbesitzabgaben"},
		},
		{
			Code:       "PROP_SERVICE_CONTRACT",
			Category:   model.CategoryServiceContract,
			OwnerTypes: propertySolar,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"wartungsvertrag", "hausmeister", "treppenhausreinigung", "schornsteinfeger"},
		},
		{
			Code:       "PROP_MAINTENANCE",
			Category:   model.CategoryMaintenance,
			OwnerTypes: propertyOnly,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"reparatur", "instandhaltung", "instandsetzung", "handwerker", "malerarbeiten", "dachdecker"},
		},

		// Solar
		{
			Code:       "SOLAR_FEED_IN",
			Category:   model.CategoryFeedInTariff,
			OwnerTypes: allOwners,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"einspeisevergütung", "einspeisung", "eeg-vergütung", "marktprämie"},
		},
		{
			Code:       "SOLAR_MAINTENANCE",
			Category:   model.CategoryMaintenance,
			OwnerTypes: solarOnly,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"wechselrichter", "modulreinigung", "pv-service"},
		},

		// Financing
		{
			Code:       "LOAN_INSTALLMENT",
			Category:   model.CategoryLoanInstallment,
			OwnerTypes: allOwners,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"darlehen", "tilgung", "annuität", "baufinanzierung"},
		},

		// Household income
		{
			Code:       "PERSON_SALARY",
			Category:   model.CategorySalary,
			OwnerTypes: personOnly,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"gehalt", "lohn", "bezüge"},
		},
		{
			Code:       "PERSON_PENSION",
			Category:   model.CategoryPension,
			OwnerTypes: personOnly,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"rentenzahlung", "deutsche rentenversicherung", "versorgungsbezug"},
		},
		{
			Code:       "PERSON_CHILD_BENEFIT",
			Category:   model.CategoryChildBenefit,
			OwnerTypes: personOnly,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"kindergeld", "familienkasse"},
		},
		{
			Code:       "TAX_REFUND",
			Category:   model.CategoryTaxRefund,
			OwnerTypes: personProperty,
			Direction:  model.DirectionCredit,
			Patterns:   []string{"finanzamt", "steuererstattung"},
		},

		// Household expenses
		{
			Code:       "PERSON_INCOME_TAX",
			Category:   model.CategoryIncomeTax,
			OwnerTypes: personOnly,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"einkommensteuer", "finanzamt"},
		},
		{
			Code:       "INSURANCE",
			Category:   model.CategoryInsurance,
			OwnerTypes: allOwners,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"versicherung", "haftpflicht", "allianz", "huk-coburg", "axa", "ergo group"},
		},
		{
			Code:       "UTILITIES",
			Category:   model.CategoryUtilities,
			OwnerTypes: allOwners,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"stadtwerke", "strom", "erdgas", "wasserversorgung", "energie", "vattenfall", "e.on"},
		},
		{
			Code:       "TELECOM",
			Category:   model.CategoryTelecom,
			OwnerTypes: personProperty,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"telekom", "vodafone", "telefonica", "1&1", "congstar"},
		},
		{
			Code:       "SUBSCRIPTION",
			Category:   model.CategorySubscription,
			OwnerTypes: personOnly,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"netflix", "spotify", "amazon prime", "disney plus", "dazn", "abonnement"},
		},
		{
			Code:       "BANK_FEES",
			Category:   model.CategoryBankFees,
			OwnerTypes: allOwners,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"kontoführung", "entgelt", "gebühr"},
			MaxAmount:  amount(50),
		},
		{
			Code:       "GROCERIES",
			Category:   model.CategoryGroceries,
			OwnerTypes: personOnly,
			Direction:  model.DirectionDebit,
			Patterns:   []string{"rewe", "edeka", "aldi", "lidl", "kaufland", "netto marken"},
		},
	}
}
