package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/store"
)

// mockStore implements Store with function fields so each test overrides
// only what it needs.
type mockStore struct {
	ListCategoriesFunc      func(ctx context.Context, userID string) ([]domain.Category, error)
	ListCategoryBudgetsFunc func(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error)
	SpendByCategoryFunc     func(ctx context.Context, userID string, month domain.Month) ([]store.CategorySpend, error)
	GetSettingsFunc         func(ctx context.Context, userID string) (*domain.FinancialSettings, error)
	GetCategoryFunc         func(ctx context.Context, userID, id string) (*domain.Category, error)

	upserts []domain.CategoryBudget
}

func (m *mockStore) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockStore) ListCategoryBudgets(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error) {
	if m.ListCategoryBudgetsFunc != nil {
		return m.ListCategoryBudgetsFunc(ctx, userID, month)
	}
	return map[string]decimal.Decimal{}, nil
}

func (m *mockStore) SpendByCategory(ctx context.Context, userID string, month domain.Month) ([]store.CategorySpend, error) {
	if m.SpendByCategoryFunc != nil {
		return m.SpendByCategoryFunc(ctx, userID, month)
	}
	return nil, nil
}

func (m *mockStore) GetSettings(ctx context.Context, userID string) (*domain.FinancialSettings, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx, userID)
	}
	fs := domain.DefaultSettings(userID)
	return &fs, nil
}

func (m *mockStore) GetCategory(ctx context.Context, userID, id string) (*domain.Category, error) {
	if m.GetCategoryFunc != nil {
		return m.GetCategoryFunc(ctx, userID, id)
	}
	return &domain.Category{ID: id, UserID: userID}, nil
}

func (m *mockStore) UpsertCategoryBudget(ctx context.Context, cb *domain.CategoryBudget) (*domain.CategoryBudget, error) {
	m.upserts = append(m.upserts, *cb)
	out := *cb
	out.ID = "cb-1"
	return &out, nil
}

func overBudgetStore() *mockStore {
	return &mockStore{
		ListCategoriesFunc: func(ctx context.Context, userID string) ([]domain.Category, error) {
			return []domain.Category{
				{ID: "c1", Name: "Groceries", MonthlyBudget: budgetOf("5000")},
				{ID: "c2", Name: "Utilities", MonthlyBudget: budgetOf("4000")},
			}, nil
		},
		SpendByCategoryFunc: func(ctx context.Context, userID string, month domain.Month) ([]store.CategorySpend, error) {
			return []store.CategorySpend{
				{CategoryID: "c1", Total: dec("6000")},
				{CategoryID: "c2", Total: dec("800")},
			}, nil
		},
	}
}

func TestServiceHealthOverridesBeatDefaults(t *testing.T) {
	st := overBudgetStore()
	st.ListCategoryBudgetsFunc = func(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error) {
		return map[string]decimal.Decimal{"c1": dec("8000")}, nil
	}
	svc := NewService(st)

	report, err := svc.Health(context.Background(), "user-1", domain.Month("2025-07"))
	if err != nil {
		t.Fatalf("Health: %v", err)
	}

	for _, c := range report.Categories {
		if c.CategoryID != "c1" {
			continue
		}
		if !c.Budget.Decimal.Equal(dec("8000")) {
			t.Errorf("groceries budget = %s, want override 8000", c.Budget.Decimal)
		}
		if c.OverBudget {
			t.Error("groceries under the raised override should not be over budget")
		}
	}
}

func TestServiceHealthUncategorizedSpend(t *testing.T) {
	st := overBudgetStore()
	st.SpendByCategoryFunc = func(ctx context.Context, userID string, month domain.Month) ([]store.CategorySpend, error) {
		return []store.CategorySpend{
			{CategoryID: "", Total: dec("700")},
			{CategoryID: "c1", Total: dec("1000")},
		}, nil
	}
	svc := NewService(st)

	report, err := svc.Health(context.Background(), "user-1", domain.Month("2025-07"))
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !report.TotalSpent.Equal(dec("1700")) {
		t.Errorf("total spent = %s, want 1700 including uncategorized", report.TotalSpent)
	}
}

func TestAcceptReallocationSingleUpsert(t *testing.T) {
	st := overBudgetStore()
	svc := NewService(st)
	ctx := context.Background()
	month := domain.Month("2025-07")

	report, err := svc.Health(ctx, "user-1", month)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	var re *Reallocation
	for _, sg := range report.Suggestions {
		if sg.Kind == KindReallocation {
			re = sg.Reallocation
		}
	}
	if re == nil {
		t.Fatalf("no reallocation offered: %+v", report.Suggestions)
	}

	cb, err := svc.AcceptReallocation(ctx, "user-1", *re)
	if err != nil {
		t.Fatalf("AcceptReallocation: %v", err)
	}
	if len(st.upserts) != 1 {
		t.Fatalf("upsert count = %d, want exactly 1", len(st.upserts))
	}
	got := st.upserts[0]
	if got.CategoryID != re.CategoryID || got.Month != month || !got.Amount.Equal(re.SuggestedAmount) {
		t.Errorf("upsert = %+v, want category %s month %s amount %s", got, re.CategoryID, month, re.SuggestedAmount)
	}
	if cb.ID == "" {
		t.Error("expected the stored override back")
	}

	// The accepted suggestion stays hidden for the rest of the session.
	report, err = svc.Health(ctx, "user-1", month)
	if err != nil {
		t.Fatalf("Health after accept: %v", err)
	}
	for _, sg := range report.Suggestions {
		if sg.Kind == KindReallocation && sg.Reallocation.CategoryID == re.CategoryID {
			t.Fatalf("accepted reallocation reappeared: %+v", sg)
		}
	}
}

func TestAcceptReallocationValidation(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	_, err := svc.AcceptReallocation(ctx, "user-1", Reallocation{
		CategoryID: "c1", Month: domain.Month("bad"), SuggestedAmount: dec("100"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad month: err = %v, want ErrInvalidInput", err)
	}

	_, err = svc.AcceptReallocation(ctx, "user-1", Reallocation{
		CategoryID: "c1", Month: domain.Month("2025-07"), SuggestedAmount: dec("0"),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("zero amount: err = %v, want ErrInvalidInput", err)
	}

	st := &mockStore{
		GetCategoryFunc: func(ctx context.Context, userID, id string) (*domain.Category, error) {
			return nil, domain.ErrNotFound
		},
	}
	_, err = NewService(st).AcceptReallocation(ctx, "user-1", Reallocation{
		CategoryID: "other", Month: domain.Month("2025-07"), SuggestedAmount: dec("100"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign category: err = %v, want ErrNotFound", err)
	}
	if len(st.upserts) != 0 {
		t.Errorf("upserts = %d, want none on validation failure", len(st.upserts))
	}
}

func TestDismissSuggestion(t *testing.T) {
	svc := NewService(overBudgetStore())
	ctx := context.Background()
	month := domain.Month("2025-07")

	report, err := svc.Health(ctx, "user-1", month)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if len(report.Suggestions) == 0 {
		t.Fatal("expected suggestions")
	}
	dismissed := report.Suggestions[0].ID
	svc.DismissSuggestion("user-1", dismissed)

	report, err = svc.Health(ctx, "user-1", month)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	for _, sg := range report.Suggestions {
		if sg.ID == dismissed {
			t.Fatalf("dismissed suggestion %s reappeared", dismissed)
		}
	}

	// Dismissals are per user.
	report, err = svc.Health(ctx, "user-2", month)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	found := false
	for _, sg := range report.Suggestions {
		if sg.ID == dismissed {
			found = true
		}
	}
	if !found {
		t.Error("another user's view should still include the suggestion")
	}
}
