package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/domain"
)

type mockExpenseStore struct {
	CreateExpenseFunc func(ctx context.Context, exp *domain.Expense) (*domain.Expense, error)
	GetExpenseFunc    func(ctx context.Context, userID, id string) (*domain.Expense, error)
	ListExpensesFunc  func(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error)
	UpdateExpenseFunc func(ctx context.Context, exp *domain.Expense) (*domain.Expense, error)
}

func (m *mockExpenseStore) CreateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
	if m.CreateExpenseFunc == nil {
		return exp, nil
	}
	return m.CreateExpenseFunc(ctx, exp)
}

func (m *mockExpenseStore) GetExpense(ctx context.Context, userID, id string) (*domain.Expense, error) {
	if m.GetExpenseFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetExpenseFunc(ctx, userID, id)
}

func (m *mockExpenseStore) ListExpenses(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	if m.ListExpensesFunc == nil {
		return nil, nil
	}
	return m.ListExpensesFunc(ctx, userID, filter)
}

func (m *mockExpenseStore) UpdateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
	if m.UpdateExpenseFunc == nil {
		return exp, nil
	}
	return m.UpdateExpenseFunc(ctx, exp)
}

func TestCreateExpense(t *testing.T) {
	var created *domain.Expense
	st := &mockExpenseStore{
		CreateExpenseFunc: func(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
			created = exp
			return exp, nil
		},
	}
	h := NewExpensesHandler(st, zerolog.Nop())

	body := `{"amount": 450.50, "note": "swiggy", "payment_method": "upi", "expense_date": "2025-07-03"}`
	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/expenses", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if created == nil {
		t.Fatal("store was not called")
	}
	if created.UserID != testUser {
		t.Errorf("UserID = %q, want %q", created.UserID, testUser)
	}
	if created.ID == "" {
		t.Error("expense was created without an id")
	}
	if !created.Amount.Equal(dec(t, "450.50")) {
		t.Errorf("Amount = %s", created.Amount)
	}
	if created.PaymentMethod != domain.PaymentUPI {
		t.Errorf("PaymentMethod = %q", created.PaymentMethod)
	}
	if got := created.ExpenseDate.Format("2006-01-02"); got != "2025-07-03" {
		t.Errorf("ExpenseDate = %s", got)
	}

	var resp domain.Expense
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != created.ID {
		t.Errorf("response id = %q, want %q", resp.ID, created.ID)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"amount": 0, "payment_method": "upi"}`},
		{"negative amount", `{"amount": -5, "payment_method": "upi"}`},
		{"unknown method", `{"amount": 100, "payment_method": "cheque"}`},
		{"missing method", `{"amount": 100}`},
		{"bad date", `{"amount": 100, "payment_method": "cash", "expense_date": "03/07/2025"}`},
		{"not json", `amount=100`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockExpenseStore{
				CreateExpenseFunc: func(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
					t.Error("store should not be called")
					return exp, nil
				},
			}
			h := NewExpensesHandler(st, zerolog.Nop())

			rec := httptest.NewRecorder()
			h.Create(rec, authedRequest(http.MethodPost, "/api/expenses", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateExpenseDefaultsDateToToday(t *testing.T) {
	var created *domain.Expense
	st := &mockExpenseStore{
		CreateExpenseFunc: func(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
			created = exp
			return exp, nil
		},
	}
	h := NewExpensesHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"amount": 100, "payment_method": "cash"}`)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if created == nil {
		t.Fatal("store was not called")
	}
	if time.Since(created.ExpenseDate) > time.Minute {
		t.Errorf("ExpenseDate = %s, expected about now", created.ExpenseDate)
	}
}

func TestGetExpense(t *testing.T) {
	st := &mockExpenseStore{
		GetExpenseFunc: func(ctx context.Context, userID, id string) (*domain.Expense, error) {
			if userID != testUser || id != "e1" {
				return nil, domain.ErrNotFound
			}
			return &domain.Expense{ID: "e1", UserID: userID, Amount: dec(t, "450.50")}, nil
		},
	}
	h := NewExpensesHandler(st, zerolog.Nop())

	req := authedRequest(http.MethodGet, "/api/expenses/e1", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, withURLParams(req, "id", "e1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp domain.Expense
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "e1" || !resp.Amount.Equal(dec(t, "450.50")) {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	h := NewExpensesHandler(&mockExpenseStore{}, zerolog.Nop())

	req := authedRequest(http.MethodGet, "/api/expenses/ghost", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, withURLParams(req, "id", "ghost"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListExpensesFilter(t *testing.T) {
	var gotFilter domain.ExpenseFilter
	st := &mockExpenseStore{
		ListExpensesFunc: func(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error) {
			gotFilter = filter
			return []domain.Expense{{ID: "e1"}, {ID: "e2"}}, nil
		},
	}
	h := NewExpensesHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet,
		"/api/expenses?month=2025-07&drafts=true&category_id=c1&limit=10&offset=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilter.Month != domain.Month("2025-07") {
		t.Errorf("Month = %q", gotFilter.Month)
	}
	if !gotFilter.IncludeDrafts {
		t.Error("IncludeDrafts not set")
	}
	if gotFilter.CategoryID != "c1" || gotFilter.Limit != 10 || gotFilter.Offset != 5 {
		t.Errorf("filter = %+v", gotFilter)
	}

	var resp struct {
		Expenses []domain.Expense `json:"expenses"`
		Count    int              `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Expenses) != 2 {
		t.Errorf("count = %d, expenses = %d", resp.Count, len(resp.Expenses))
	}
}

func TestListExpensesBadMonth(t *testing.T) {
	st := &mockExpenseStore{
		ListExpensesFunc: func(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error) {
			t.Error("store should not be called")
			return nil, nil
		},
	}
	h := NewExpensesHandler(st, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/expenses?month=July", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateExpenseTogglesDraft(t *testing.T) {
	existing := &domain.Expense{
		ID:            "e1",
		UserID:        testUser,
		Amount:        dec(t, "900"),
		Note:          "rent part",
		PaymentMethod: domain.PaymentBank,
		ExpenseDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		IsDraft:       true,
	}
	var updated *domain.Expense
	st := &mockExpenseStore{
		GetExpenseFunc: func(ctx context.Context, userID, id string) (*domain.Expense, error) {
			if userID != testUser || id != "e1" {
				return nil, domain.ErrNotFound
			}
			cp := *existing
			return &cp, nil
		},
		UpdateExpenseFunc: func(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
			updated = exp
			return exp, nil
		},
	}
	h := NewExpensesHandler(st, zerolog.Nop())

	req := authedRequest(http.MethodPut, "/api/expenses/e1", strings.NewReader(`{"is_draft": false}`))
	rec := httptest.NewRecorder()
	h.Update(rec, withURLParams(req, "id", "e1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if updated == nil {
		t.Fatal("store was not called")
	}
	if updated.IsDraft {
		t.Error("IsDraft still set")
	}
	if !updated.Amount.Equal(dec(t, "900")) || updated.Note != "rent part" {
		t.Errorf("unchanged fields were lost: %+v", updated)
	}
}

func TestUpdateExpenseNotFound(t *testing.T) {
	h := NewExpensesHandler(&mockExpenseStore{}, zerolog.Nop())

	req := authedRequest(http.MethodPut, "/api/expenses/ghost", strings.NewReader(`{"note": "x"}`))
	rec := httptest.NewRecorder()
	h.Update(rec, withURLParams(req, "id", "ghost"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
