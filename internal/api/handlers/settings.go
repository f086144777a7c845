package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// SettingsStore is the slice of the store the settings handler needs.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*domain.FinancialSettings, error)
	UpdateSettings(ctx context.Context, fs *domain.FinancialSettings) (*domain.FinancialSettings, error)
}

// SettingsHandler handles financial settings endpoints.
type SettingsHandler struct {
	store SettingsStore
	log   zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(store SettingsStore, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, log: log}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fs, err := h.store.GetSettings(ctx, middleware.UserID(ctx))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, fs)
}

type settingsRequest struct {
	NeedsPct         *int             `json:"needs_pct"`
	WantsPct         *int             `json:"wants_pct"`
	SavingsPct       *int             `json:"savings_pct"`
	MinSavingsTarget *decimal.Decimal `json:"min_savings_target"`
	UIMode           *string          `json:"ui_mode"`
}

// Put handles PUT /api/settings. The premium flag is owned by the payment
// system and cannot be written here; switching to advanced mode requires it
// to already be set.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fs, err := h.store.GetSettings(ctx, userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if req.NeedsPct != nil {
		fs.NeedsPct = *req.NeedsPct
	}
	if req.WantsPct != nil {
		fs.WantsPct = *req.WantsPct
	}
	if req.SavingsPct != nil {
		fs.SavingsPct = *req.SavingsPct
	}
	if req.MinSavingsTarget != nil {
		fs.MinSavingsTarget = *req.MinSavingsTarget
	}
	if req.UIMode != nil {
		mode := domain.UIMode(*req.UIMode)
		if !mode.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "ui_mode must be simple or advanced")
			return
		}
		if mode == domain.UIAdvanced && !fs.IsPremium {
			respondError(w, h.log, fmt.Errorf("advanced mode: %w", domain.ErrPremiumRequired))
			return
		}
		fs.UIMode = mode
	}

	if err := fs.ValidateSplit(); err != nil {
		respondError(w, h.log, err)
		return
	}

	updated, err := h.store.UpdateSettings(ctx, fs)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, updated)
}
