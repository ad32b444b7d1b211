package model

// CategoryType indicates whether a category books income or expense.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a member of the closed transaction taxonomy.
type Category string

// Taxonomy members.
const (
	CategoryRent            Category = "rent"
	CategoryCondoFee        Category = "condo_fee"
	CategoryPropertyTax     Category = "property_tax"
	CategoryLoanInstallment Category = "loan_installment"
	CategoryMaintenance     Category = "maintenance"
	CategoryFeedInTariff    Category = "feed_in_tariff"
	CategoryServiceContract Category = "service_contract"
	CategorySalary          Category = "salary"
	CategoryPension         Category = "pension"
	CategoryChildBenefit    Category = "child_benefit"
	CategoryTaxRefund       Category = "tax_refund"
	CategoryInsurance       Category = "insurance"
	CategoryUtilities       Category = "utilities"
	CategoryTelecom         Category = "telecom"
	CategorySubscription    Category = "subscription"
	CategoryBankFees        Category = "bank_fees"
	CategoryIncomeTax       Category = "income_tax"
	CategoryGroceries       Category = "groceries"
	CategoryIncomeOther     Category = "income_other"
	CategoryExpenseOther    Category = "expense_other"
)

type categoryInfo struct {
	label string
	kind  CategoryType
}

// categoryTable is the side table for every taxonomy member.
var categoryTable = map[Category]categoryInfo{
	CategoryRent:            {"Miete", CategoryTypeIncome},
	CategoryCondoFee:        {"Hausgeld", CategoryTypeExpense},
	CategoryPropertyTax:     {"Grundsteuer", CategoryTypeExpense},
	CategoryLoanInstallment: {"Darlehensrate", CategoryTypeExpense},
	CategoryMaintenance:     {"Instandhaltung", CategoryTypeExpense},
	CategoryFeedInTariff:    {"Einspeisevergütung", CategoryTypeIncome},
	CategoryServiceContract: {"Wartungsvertrag", CategoryTypeExpense},
	CategorySalary:          {"Gehalt", CategoryTypeIncome},
	CategoryPension:         {"Rente", CategoryTypeIncome},
	CategoryChildBenefit:    {"Kindergeld", CategoryTypeIncome},
	CategoryTaxRefund:       {"Steuererstattung", CategoryTypeIncome},
	CategoryInsurance:       {"Versicherung", CategoryTypeExpense},
	CategoryUtilities:       {"Energie & Versorgung", CategoryTypeExpense},
	CategoryTelecom:         {"Telekommunikation", CategoryTypeExpense},
	CategorySubscription:    {"Abonnement", CategoryTypeExpense},
	CategoryBankFees:        {"Bankgebühren", CategoryTypeExpense},
	CategoryIncomeTax:       {"Einkommensteuer", CategoryTypeExpense},
	CategoryGroceries:       {"Lebensmittel", CategoryTypeExpense},
	CategoryIncomeOther:     {"Sonstige Einnahmen", CategoryTypeIncome},
	CategoryExpenseOther:    {"Sonstige Ausgaben", CategoryTypeExpense},
}

// AllCategories returns every taxonomy member in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryRent, CategoryCondoFee, CategoryPropertyTax, CategoryLoanInstallment,
		CategoryMaintenance, CategoryFeedInTariff, CategoryServiceContract, CategorySalary,
		CategoryPension, CategoryChildBenefit, CategoryTaxRefund, CategoryInsurance,
		CategoryUtilities, CategoryTelecom, CategorySubscription, CategoryBankFees,
		CategoryIncomeTax, CategoryGroceries, CategoryIncomeOther, CategoryExpenseOther,
	}
}

// IsValid reports whether c is a member of the taxonomy.
func (c Category) IsValid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Label returns the display name, or the raw value for unknown categories.
func (c Category) Label() string {
	if info, ok := categoryTable[c]; ok {
		return info.label
	}
	return string(c)
}

// Type returns whether the category books income or expense.
func (c Category) Type() CategoryType {
	if info, ok := categoryTable[c]; ok {
		return info.kind
	}
	return CategoryTypeExpense
}

// FallbackCategory returns the generic bucket for a transaction direction.
func FallbackCategory(d Direction) Category {
	if d == DirectionCredit {
		return CategoryIncomeOther
	}
	return CategoryExpenseOther
}
