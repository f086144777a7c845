package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// ExpenseStore is the slice of the store the expenses handler needs.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error)
	GetExpense(ctx context.Context, userID, id string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, userID string, filter domain.ExpenseFilter) ([]domain.Expense, error)
	UpdateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error)
}

// ExpensesHandler handles expense endpoints.
type ExpensesHandler struct {
	store ExpenseStore
	log   zerolog.Logger
}

// NewExpensesHandler creates a new expenses handler.
func NewExpensesHandler(store ExpenseStore, log zerolog.Logger) *ExpensesHandler {
	return &ExpensesHandler{store: store, log: log}
}

type expenseRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note"`
	CategoryID    string          `json:"category_id"`
	PaymentMethod string          `json:"payment_method"`
	ExpenseDate   string          `json:"expense_date"` // YYYY-MM-DD, today when empty
	IsDraft       bool            `json:"is_draft"`
}

func (req *expenseRequest) toExpense(userID string) (*domain.Expense, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrInvalidInput)
	}
	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.PaymentMethod, domain.ErrInvalidInput)
	}
	date := time.Now()
	if req.ExpenseDate != "" {
		d, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return nil, fmt.Errorf("expense_date must be YYYY-MM-DD: %w", domain.ErrInvalidInput)
		}
		date = d
	}
	return &domain.Expense{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        req.Amount,
		Note:          req.Note,
		CategoryID:    req.CategoryID,
		PaymentMethod: method,
		ExpenseDate:   date,
		IsDraft:       req.IsDraft,
	}, nil
}

// Create handles POST /api/expenses
func (h *ExpensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	exp, err := req.toExpense(middleware.UserID(ctx))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	created, err := h.store.CreateExpense(ctx, exp)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/expenses/{id}
func (h *ExpensesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	exp, err := h.store.GetExpense(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, exp)
}

// List handles GET /api/expenses
func (h *ExpensesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := domain.ExpenseFilter{
		CategoryID:    query.Get("category_id"),
		IncludeDrafts: query.Get("drafts") == "true",
	}
	if m := query.Get("month"); m != "" {
		month, err := domain.ParseMonth(m)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		filter.Month = month
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	expenses, err := h.store.ListExpenses(ctx, middleware.UserID(ctx), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expenses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list expenses")
		return
	}

	if expenses == nil {
		expenses = []domain.Expense{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"count":    len(expenses),
	})
}

type expenseUpdateRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Note          *string          `json:"note"`
	CategoryID    *string          `json:"category_id"`
	PaymentMethod *string          `json:"payment_method"`
	ExpenseDate   *string          `json:"expense_date"`
	IsDraft       *bool            `json:"is_draft"`
}

// Update handles PUT /api/expenses/{id}. Absent fields keep their stored
// values, so a draft can be committed with just {"is_draft": false}.
func (h *ExpensesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req expenseUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	exp, err := h.store.GetExpense(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if req.Amount != nil {
		exp.Amount = *req.Amount
	}
	if req.Note != nil {
		exp.Note = *req.Note
	}
	if req.CategoryID != nil {
		exp.CategoryID = *req.CategoryID
		exp.CategoryName = ""
	}
	if req.PaymentMethod != nil {
		exp.PaymentMethod = domain.PaymentMethod(*req.PaymentMethod)
	}
	if req.ExpenseDate != nil {
		d, err := time.Parse("2006-01-02", *req.ExpenseDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "expense_date must be YYYY-MM-DD")
			return
		}
		exp.ExpenseDate = d
	}
	if req.IsDraft != nil {
		exp.IsDraft = *req.IsDraft
	}

	if !exp.Amount.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if !exp.PaymentMethod.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "unknown payment method")
		return
	}

	updated, err := h.store.UpdateExpense(ctx, exp)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, updated)
}
