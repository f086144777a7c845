package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UIMode selects the complexity of the client experience. Advanced mode is
// gated on the premium flag.
type UIMode string

const (
	UISimple   UIMode = "simple"
	UIAdvanced UIMode = "advanced"
)

// Valid reports whether m is a known UI mode.
func (m UIMode) Valid() bool {
	return m == UISimple || m == UIAdvanced
}

// Default target split of spending across buckets, in percent.
const (
	DefaultNeedsPct   = 50
	DefaultWantsPct   = 30
	DefaultSavingsPct = 20
)

// FinancialSettings holds a user's target split and plan flags. A row is
// created on first read with the 50/30/20 defaults. IsPremium is written by
// the payment system and only read here.
type FinancialSettings struct {
	UserID           string          `json:"user_id"`
	NeedsPct         int             `json:"needs_pct"`
	WantsPct         int             `json:"wants_pct"`
	SavingsPct       int             `json:"savings_pct"`
	MinSavingsTarget decimal.Decimal `json:"min_savings_target"`
	UIMode           UIMode          `json:"ui_mode"`
	IsPremium        bool            `json:"is_premium"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// DefaultSettings returns the settings a brand new user starts with.
func DefaultSettings(userID string) FinancialSettings {
	return FinancialSettings{
		UserID:     userID,
		NeedsPct:   DefaultNeedsPct,
		WantsPct:   DefaultWantsPct,
		SavingsPct: DefaultSavingsPct,
		UIMode:     UISimple,
	}
}

// TargetPct returns the configured target share for one bucket.
func (fs *FinancialSettings) TargetPct(t CategoryType) int {
	switch t {
	case TypeNeeds:
		return fs.NeedsPct
	case TypeWants:
		return fs.WantsPct
	case TypeSavings:
		return fs.SavingsPct
	}
	return 0
}

// ValidateSplit checks that the target split is a sensible percentage
// breakdown.
func (fs *FinancialSettings) ValidateSplit() error {
	for _, pct := range []int{fs.NeedsPct, fs.WantsPct, fs.SavingsPct} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("split percentages must be between 0 and 100: %w", ErrInvalidInput)
		}
	}
	if fs.NeedsPct+fs.WantsPct+fs.SavingsPct != 100 {
		return fmt.Errorf("split percentages must sum to 100: %w", ErrInvalidInput)
	}
	if fs.MinSavingsTarget.IsNegative() {
		return fmt.Errorf("min savings target cannot be negative: %w", ErrInvalidInput)
	}
	return nil
}
