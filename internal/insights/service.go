// Package insights produces short month-over-month spending narratives via
// the model. Requests are validated synchronously and the model call is
// bounded by a hard timeout.
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/store"
)

// DefaultTimeout bounds one insight generation end to end.
const DefaultTimeout = 30 * time.Second

// Generator is the model surface the service needs.
type Generator interface {
	GenerateInsights(ctx context.Context, in ai.InsightInput) (*ai.InsightReport, error)
}

// Store is the persistence surface the service needs.
type Store interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	ListCategoryBudgets(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error)
	SpendByCategory(ctx context.Context, userID string, month domain.Month) ([]store.CategorySpend, error)
}

// Service assembles the month-over-month table and asks the model for a
// narrative.
type Service struct {
	store   Store
	gen     Generator
	timeout time.Duration
	symbol  string
}

func NewService(st Store, gen Generator, timeout time.Duration, currencySymbol string) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if currencySymbol == "" {
		currencySymbol = "₹"
	}
	return &Service{store: st, gen: gen, timeout: timeout, symbol: currencySymbol}
}

// Monthly generates insights for the month. A model that does not answer
// within the timeout yields ErrInsightTimeout; the caller degrades
// gracefully instead of hanging.
func (s *Service) Monthly(ctx context.Context, userID string, month domain.Month) (*ai.InsightReport, error) {
	if !month.Valid() {
		return nil, fmt.Errorf("Monthly: month %q: %w", month, domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	in, err := s.assemble(ctx, userID, month)
	if err != nil {
		return nil, s.mapTimeout(fmt.Errorf("Monthly: %w", err))
	}

	report, err := s.gen.GenerateInsights(ctx, *in)
	if err != nil {
		return nil, s.mapTimeout(fmt.Errorf("Monthly: %w", err))
	}
	return report, nil
}

func (s *Service) assemble(ctx context.Context, userID string, month domain.Month) (*ai.InsightInput, error) {
	prev := month.Prev()

	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	overrides, err := s.store.ListCategoryBudgets(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	current, err := s.spendMap(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	previous, err := s.spendMap(ctx, userID, prev)
	if err != nil {
		return nil, err
	}

	in := &ai.InsightInput{
		Month:          string(month),
		PrevMonth:      string(prev),
		CurrencySymbol: s.symbol,
	}
	for _, c := range categories {
		budget := decimal.Zero
		if amount, ok := overrides[c.ID]; ok {
			budget = amount
		} else if c.MonthlyBudget.Valid {
			budget = c.MonthlyBudget.Decimal
		}
		in.Lines = append(in.Lines, ai.InsightLine{
			Category:  c.Name,
			Type:      string(c.ResolvedType()),
			Budget:    budget,
			Spent:     current[c.ID],
			PrevSpent: previous[c.ID],
		})
	}

	// Uncategorized spending still matters to the story.
	if current[""].IsPositive() || previous[""].IsPositive() {
		in.Lines = append(in.Lines, ai.InsightLine{
			Category:  "Uncategorized",
			Type:      string(domain.TypeWants),
			Spent:     current[""],
			PrevSpent: previous[""],
		})
	}

	return in, nil
}

func (s *Service) spendMap(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error) {
	rows, err := s.store.SpendByCategory(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("spend for %s: %w", month, err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.CategoryID] = r.Total
	}
	return out, nil
}

func (s *Service) mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", domain.ErrInsightTimeout, s.timeout)
	}
	return err
}
