package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/budget"
	"github.com/rupeelog/rupeelog/internal/domain"
)

type mockBudgetService struct {
	HealthFunc             func(ctx context.Context, userID string, month domain.Month) (*budget.Report, error)
	AcceptReallocationFunc func(ctx context.Context, userID string, re budget.Reallocation) (*domain.CategoryBudget, error)
	DismissedIDs           []string
}

func (m *mockBudgetService) Health(ctx context.Context, userID string, month domain.Month) (*budget.Report, error) {
	if m.HealthFunc == nil {
		return &budget.Report{Month: month, Score: 100, Band: budget.BandExcellent}, nil
	}
	return m.HealthFunc(ctx, userID, month)
}

func (m *mockBudgetService) AcceptReallocation(ctx context.Context, userID string, re budget.Reallocation) (*domain.CategoryBudget, error) {
	if m.AcceptReallocationFunc == nil {
		return &domain.CategoryBudget{CategoryID: re.CategoryID, Month: re.Month, Amount: re.SuggestedAmount}, nil
	}
	return m.AcceptReallocationFunc(ctx, userID, re)
}

func (m *mockBudgetService) DismissSuggestion(userID, id string) {
	m.DismissedIDs = append(m.DismissedIDs, id)
}

func TestBudgetHealth(t *testing.T) {
	var gotMonth domain.Month
	svc := &mockBudgetService{
		HealthFunc: func(ctx context.Context, userID string, month domain.Month) (*budget.Report, error) {
			if userID != testUser {
				t.Errorf("userID = %q", userID)
			}
			gotMonth = month
			return &budget.Report{Month: month, Score: 74, Band: budget.BandGood}, nil
		},
	}
	h := NewBudgetHandler(svc, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Health(rec, authedRequest(http.MethodGet, "/api/budget/health?month=2025-07", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if gotMonth != domain.Month("2025-07") {
		t.Errorf("month = %q", gotMonth)
	}

	var resp budget.Report
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Score != 74 || resp.Band != budget.BandGood {
		t.Errorf("report = %+v", resp)
	}
}

func TestBudgetHealthDefaultsToCurrentMonth(t *testing.T) {
	var gotMonth domain.Month
	svc := &mockBudgetService{
		HealthFunc: func(ctx context.Context, userID string, month domain.Month) (*budget.Report, error) {
			gotMonth = month
			return &budget.Report{Month: month}, nil
		},
	}
	h := NewBudgetHandler(svc, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Health(rec, authedRequest(http.MethodGet, "/api/budget/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotMonth != domain.CurrentMonth() {
		t.Errorf("month = %q, want current", gotMonth)
	}
}

func TestBudgetHealthBadMonth(t *testing.T) {
	svc := &mockBudgetService{
		HealthFunc: func(ctx context.Context, userID string, month domain.Month) (*budget.Report, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	}
	h := NewBudgetHandler(svc, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Health(rec, authedRequest(http.MethodGet, "/api/budget/health?month=notamonth", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAcceptReallocation(t *testing.T) {
	var gotRe budget.Reallocation
	svc := &mockBudgetService{
		AcceptReallocationFunc: func(ctx context.Context, userID string, re budget.Reallocation) (*domain.CategoryBudget, error) {
			gotRe = re
			return &domain.CategoryBudget{ID: "cb-1", CategoryID: re.CategoryID, Month: re.Month, Amount: re.SuggestedAmount}, nil
		},
	}
	h := NewBudgetHandler(svc, zerolog.Nop())

	body := `{"category_id": "c1", "month": "2025-07", "suggested_amount": 6000}`
	rec := httptest.NewRecorder()
	h.AcceptReallocation(rec, authedRequest(http.MethodPost, "/api/budget/reallocations", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if gotRe.CategoryID != "c1" || gotRe.Month != domain.Month("2025-07") {
		t.Errorf("reallocation = %+v", gotRe)
	}
	if !gotRe.SuggestedAmount.Equal(dec(t, "6000")) {
		t.Errorf("SuggestedAmount = %s", gotRe.SuggestedAmount)
	}
}

func TestAcceptReallocationInvalid(t *testing.T) {
	svc := &mockBudgetService{
		AcceptReallocationFunc: func(ctx context.Context, userID string, re budget.Reallocation) (*domain.CategoryBudget, error) {
			return nil, domain.ErrInvalidInput
		},
	}
	h := NewBudgetHandler(svc, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.AcceptReallocation(rec, authedRequest(http.MethodPost, "/api/budget/reallocations",
		strings.NewReader(`{"category_id": "", "month": "bad"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDismissSuggestionEndpoint(t *testing.T) {
	svc := &mockBudgetService{}
	h := NewBudgetHandler(svc, zerolog.Nop())

	req := authedRequest(http.MethodPost, "/api/budget/suggestions/abc123/dismiss", nil)
	rec := httptest.NewRecorder()
	h.DismissSuggestion(rec, withURLParams(req, "id", "abc123"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(svc.DismissedIDs) != 1 || svc.DismissedIDs[0] != "abc123" {
		t.Errorf("dismissed = %v", svc.DismissedIDs)
	}
}
