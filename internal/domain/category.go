package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryType splits spending into the 50/30/20 buckets.
type CategoryType string

const (
	TypeNeeds   CategoryType = "needs"
	TypeWants   CategoryType = "wants"
	TypeSavings CategoryType = "savings"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	switch t {
	case TypeNeeds, TypeWants, TypeSavings:
		return true
	}
	return false
}

// DefaultAlertThreshold is the usage percentage at which a category starts
// warning, unless the user picked another one.
const DefaultAlertThreshold = 80

// Category is a user-defined spending bucket. Type is optional; when unset
// it is inferred from the name. MonthlyBudget is the default budget, which a
// CategoryBudget row can override for individual months.
type Category struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Name           string              `json:"name"`
	Color          string              `json:"color,omitempty"`
	Icon           string              `json:"icon,omitempty"`
	MonthlyBudget  decimal.NullDecimal `json:"monthly_budget"`
	AlertThreshold int                 `json:"alert_threshold"`
	Type           CategoryType        `json:"category_type,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ResolvedType returns the explicit type when set, otherwise the type
// inferred from the category name.
func (c *Category) ResolvedType() CategoryType {
	return ResolveCategoryType(c.Name, c.Type)
}

// CategoryBudget is a per-month override of a category's default budget.
// At most one override exists per (user, category, month).
type CategoryBudget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CategoryID string          `json:"category_id"`
	Month      Month           `json:"month"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// typeKeywords maps well-known category names to a bucket. Matching is
// case-insensitive, exact name first, then substring.
var typeKeywords = []struct {
	keyword string
	typ     CategoryType
}{
	{"rent", TypeNeeds},
	{"groceries", TypeNeeds},
	{"grocery", TypeNeeds},
	{"utilities", TypeNeeds},
	{"electricity", TypeNeeds},
	{"water", TypeNeeds},
	{"internet", TypeNeeds},
	{"emi", TypeNeeds},
	{"loan", TypeNeeds},
	{"insurance", TypeNeeds},
	{"fuel", TypeNeeds},
	{"petrol", TypeNeeds},
	{"transport", TypeNeeds},
	{"commute", TypeNeeds},
	{"medical", TypeNeeds},
	{"health", TypeNeeds},
	{"education", TypeNeeds},
	{"entertainment", TypeWants},
	{"dining", TypeWants},
	{"restaurant", TypeWants},
	{"food delivery", TypeWants},
	{"shopping", TypeWants},
	{"travel", TypeWants},
	{"subscription", TypeWants},
	{"hobby", TypeWants},
	{"gifts", TypeWants},
	{"investment", TypeSavings},
	{"investments", TypeSavings},
	{"sip", TypeSavings},
	{"mutual fund", TypeSavings},
	{"ppf", TypeSavings},
	{"fd", TypeSavings},
	{"deposit", TypeSavings},
	{"savings", TypeSavings},
	{"emergency fund", TypeSavings},
}

// InferCategoryType guesses the bucket for a category name. Unrecognized
// names default to wants.
func InferCategoryType(name string) CategoryType {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return TypeWants
	}
	for _, kw := range typeKeywords {
		if n == kw.keyword {
			return kw.typ
		}
	}
	for _, kw := range typeKeywords {
		if strings.Contains(n, kw.keyword) {
			return kw.typ
		}
	}
	return TypeWants
}

// ResolveCategoryType picks the explicit type when one was supplied and
// falls back to name-based inference otherwise.
func ResolveCategoryType(name string, explicit CategoryType) CategoryType {
	if explicit.Valid() {
		return explicit
	}
	return InferCategoryType(name)
}
