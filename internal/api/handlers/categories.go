package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// CategoryStore is the slice of the store the categories handler needs.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	GetCategory(ctx context.Context, userID, id string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
	ListCategoryBudgets(ctx context.Context, userID string, month domain.Month) (map[string]decimal.Decimal, error)
	GetCategoryBudget(ctx context.Context, userID, categoryID string, month domain.Month) (*domain.CategoryBudget, error)
	UpsertCategoryBudget(ctx context.Context, cb *domain.CategoryBudget) (*domain.CategoryBudget, error)
	DeleteCategoryBudget(ctx context.Context, userID, categoryID string, month domain.Month) error
}

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	store CategoryStore
	log   zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(store CategoryStore, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{store: store, log: log}
}

// categoryView decorates a category with its resolved bucket and, when a
// month was requested, the budget that applies to that month.
type categoryView struct {
	domain.Category
	ResolvedType    domain.CategoryType `json:"resolved_type"`
	EffectiveBudget decimal.NullDecimal `json:"effective_budget"`
}

// List handles GET /api/categories
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var overrides map[string]decimal.Decimal
	if m := r.URL.Query().Get("month"); m != "" {
		month, err := domain.ParseMonth(m)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		overrides, err = h.store.ListCategoryBudgets(ctx, userID, month)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list budget overrides")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
			return
		}
	}

	categories, err := h.store.ListCategories(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, cat := range categories {
		view := categoryView{
			Category:        cat,
			ResolvedType:    cat.ResolvedType(),
			EffectiveBudget: cat.MonthlyBudget,
		}
		if amount, ok := overrides[cat.ID]; ok {
			view.EffectiveBudget = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
		views = append(views, view)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": views,
		"count":      len(views),
	})
}

type categoryRequest struct {
	Name           string              `json:"name"`
	Color          string              `json:"color"`
	Icon           string              `json:"icon"`
	MonthlyBudget  decimal.NullDecimal `json:"monthly_budget"`
	AlertThreshold *int                `json:"alert_threshold"`
	Type           string              `json:"category_type"`
}

// Create handles POST /api/categories
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	typ := domain.CategoryType(req.Type)
	if req.Type != "" && !typ.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "category_type must be needs, wants or savings")
		return
	}
	if req.MonthlyBudget.Valid && !req.MonthlyBudget.Decimal.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "monthly_budget must be positive")
		return
	}
	threshold := domain.DefaultAlertThreshold
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}
	if threshold <= 0 || threshold > 100 {
		middleware.WriteError(w, http.StatusBadRequest, "alert_threshold must be between 1 and 100")
		return
	}

	created, err := h.store.CreateCategory(ctx, &domain.Category{
		ID:             uuid.NewString(),
		UserID:         middleware.UserID(ctx),
		Name:           req.Name,
		Color:          req.Color,
		Icon:           req.Icon,
		MonthlyBudget:  req.MonthlyBudget,
		AlertThreshold: threshold,
		Type:           typ,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, created)
}

type categoryUpdateRequest struct {
	Name           *string              `json:"name"`
	Color          *string              `json:"color"`
	Icon           *string              `json:"icon"`
	MonthlyBudget  *decimal.NullDecimal `json:"monthly_budget"`
	AlertThreshold *int                 `json:"alert_threshold"`
	Type           *string              `json:"category_type"`
}

// Update handles PUT /api/categories/{id}. Sending "category_type": ""
// clears the explicit type so the name-based inference applies again.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req categoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cat, err := h.store.GetCategory(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if req.Name != nil {
		cat.Name = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		cat.Color = *req.Color
	}
	if req.Icon != nil {
		cat.Icon = *req.Icon
	}
	if req.MonthlyBudget != nil {
		cat.MonthlyBudget = *req.MonthlyBudget
	}
	if req.AlertThreshold != nil {
		cat.AlertThreshold = *req.AlertThreshold
	}
	if req.Type != nil {
		typ := domain.CategoryType(*req.Type)
		if *req.Type != "" && !typ.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "category_type must be needs, wants or savings")
			return
		}
		cat.Type = typ
	}

	if cat.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if cat.MonthlyBudget.Valid && !cat.MonthlyBudget.Decimal.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "monthly_budget must be positive")
		return
	}
	if cat.AlertThreshold <= 0 || cat.AlertThreshold > 100 {
		middleware.WriteError(w, http.StatusBadRequest, "alert_threshold must be between 1 and 100")
		return
	}

	updated, err := h.store.UpdateCategory(ctx, cat)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/categories/{id}
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.DeleteCategory(ctx, middleware.UserID(ctx), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutBudget handles PUT /api/categories/{id}/budget. It sets the budget
// override for one month; saving again replaces the amount.
func (h *CategoriesHandler) PutBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	categoryID := chi.URLParam(r, "id")

	var req struct {
		Month  string          `json:"month"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	month, err := domain.ParseMonth(req.Month)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	if !req.Amount.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	// Ownership check before the write.
	if _, err := h.store.GetCategory(ctx, userID, categoryID); err != nil {
		respondError(w, h.log, err)
		return
	}

	cb, err := h.store.UpsertCategoryBudget(ctx, &domain.CategoryBudget{
		ID:         uuid.NewString(),
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month,
		Amount:     req.Amount,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, cb)
}

// GetBudget handles GET /api/categories/{id}/budget. 404 means no override
// is set for that month and the category default applies.
func (h *CategoriesHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month, err := domain.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	cb, err := h.store.GetCategoryBudget(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"), month)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, cb)
}

// DeleteBudget handles DELETE /api/categories/{id}/budget. Removing the
// override falls the category back to its default monthly budget.
func (h *CategoriesHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month, err := domain.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	if err := h.store.DeleteCategoryBudget(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"), month); err != nil {
		respondError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
