package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/store"
)

// Store is the persistence surface the service needs.
type Store interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	ListCategoryBudgets(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error)
	SpendByCategory(ctx context.Context, userID string, month domain.Month) ([]store.CategorySpend, error)
	GetSettings(ctx context.Context, userID string) (*domain.FinancialSettings, error)
	GetCategory(ctx context.Context, userID, id string) (*domain.Category, error)
	UpsertCategoryBudget(ctx context.Context, cb *domain.CategoryBudget) (*domain.CategoryBudget, error)
}

// Service assembles health reports from stored data and tracks suggestion
// dismissals for the process lifetime.
type Service struct {
	store   Store
	session *Session
}

func NewService(st Store) *Service {
	return &Service{store: st, session: NewSession()}
}

// Health evaluates the user's budget for the month. Overrides beat category
// defaults; suggestions the user dismissed this session are filtered out.
func (s *Service) Health(ctx context.Context, userID string, month domain.Month) (*Report, error) {
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Health: list categories: %w", err)
	}
	overrides, err := s.store.ListCategoryBudgets(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("Health: list overrides: %w", err)
	}
	spend, err := s.store.SpendByCategory(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("Health: spend by category: %w", err)
	}
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Health: settings: %w", err)
	}

	spent := make(map[string]decimal.Decimal, len(spend))
	var uncategorized decimal.Decimal
	for _, cs := range spend {
		if cs.CategoryID == "" {
			uncategorized = cs.Total
			continue
		}
		spent[cs.CategoryID] = cs.Total
	}

	in := Input{
		Month:              month,
		Settings:           *settings,
		UncategorizedSpent: uncategorized,
	}
	for _, c := range categories {
		ci := CategoryInput{
			ID:             c.ID,
			Name:           c.Name,
			Type:           c.Type,
			Budget:         c.MonthlyBudget,
			AlertThreshold: c.AlertThreshold,
			Spent:          spent[c.ID],
		}
		if amount, ok := overrides[c.ID]; ok {
			ci.Budget = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
		in.Categories = append(in.Categories, ci)
	}

	report := Evaluate(in)
	report.Suggestions = s.session.Filter(userID, report.Suggestions)
	return report, nil
}

// AcceptReallocation applies a reallocation suggestion: a single budget
// override upsert for the category and month, after which the suggestion no
// longer appears in this session.
func (s *Service) AcceptReallocation(ctx context.Context, userID string, re Reallocation) (*domain.CategoryBudget, error) {
	if !re.Month.Valid() {
		return nil, fmt.Errorf("AcceptReallocation: month %q: %w", re.Month, domain.ErrInvalidInput)
	}
	if re.CategoryID == "" || !re.SuggestedAmount.IsPositive() {
		return nil, fmt.Errorf("AcceptReallocation: category and positive amount required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetCategory(ctx, userID, re.CategoryID); err != nil {
		return nil, fmt.Errorf("AcceptReallocation: %w", err)
	}

	cb, err := s.store.UpsertCategoryBudget(ctx, &domain.CategoryBudget{
		ID:         uuid.NewString(),
		UserID:     userID,
		CategoryID: re.CategoryID,
		Month:      re.Month,
		Amount:     re.SuggestedAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("AcceptReallocation: %w", err)
	}

	s.session.Dismiss(userID, SuggestionID(KindReallocation, re.CategoryID, re.Month))
	return cb, nil
}

// DismissSuggestion hides a suggestion for the rest of the session.
func (s *Service) DismissSuggestion(userID, id string) {
	s.session.Dismiss(userID, id)
}
