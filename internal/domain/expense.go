package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how an expense was paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentUPI    PaymentMethod = "upi"
	PaymentCard   PaymentMethod = "card"
	PaymentBank   PaymentMethod = "bank"
	PaymentWallet PaymentMethod = "wallet"
)

// Valid reports whether p is one of the supported payment methods.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentUPI, PaymentCard, PaymentBank, PaymentWallet:
		return true
	}
	return false
}

// Expense is a single spending record. There is no hard delete; drafts are
// hidden from budgets and reports until committed.
type Expense struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note"`
	CategoryID     string          `json:"category_id,omitempty"`
	CategoryName   string          `json:"category_name,omitempty"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	ExpenseDate    time.Time       `json:"expense_date"`
	IsDraft        bool            `json:"is_draft"`
	SourceImportID string          `json:"source_import_id,omitempty"` // set when the row came from a statement import
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ExpenseFilter narrows expense listings. Zero values mean "no constraint";
// drafts are excluded unless IncludeDrafts is set.
type ExpenseFilter struct {
	Month         Month
	CategoryID    string
	IncludeDrafts bool
	Limit         int
	Offset        int
}
