// Package ai wraps the Gemini model behind typed calls for statement
// parsing, category suggestion and spending insights.
package ai

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParsedStatement is the model's reading of one bank statement PDF.
// PeriodStart/PeriodEnd are nil when the statement does not state them.
type ParsedStatement struct {
	BankName     string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	Transactions []ParsedTransaction
}

// ParsedTransaction is one statement row as extracted by the model.
// Amounts are always positive; Type carries the direction.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        string // "debit" or "credit"
	Balance     decimal.Decimal
	HasBalance  bool
	RawText     string
}

// CategorySuggestion assigns one transaction to a category with the model's
// confidence. An empty CategoryID means the model declined to guess.
type CategorySuggestion struct {
	CategoryID string
	Confidence float64
}

// InsightInput is the month-over-month summary handed to the model.
type InsightInput struct {
	Month          string
	PrevMonth      string
	CurrencySymbol string
	Lines          []InsightLine
}

// InsightLine is one category's figures across the compared months.
type InsightLine struct {
	Category  string
	Type      string
	Budget    decimal.Decimal
	Spent     decimal.Decimal
	PrevSpent decimal.Decimal
}

// InsightReport is the model's narrative output.
type InsightReport struct {
	Summary string   `json:"summary"`
	Tips    []string `json:"tips"`
}
