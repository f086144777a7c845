package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// InsightService generates the month-over-month spending narrative.
type InsightService interface {
	Monthly(ctx context.Context, userID string, month domain.Month) (*ai.InsightReport, error)
}

// InsightsHandler handles the AI insights endpoint.
type InsightsHandler struct {
	svc InsightService
	log zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(svc InsightService, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{svc: svc, log: log}
}

// Get handles GET /api/insights. The month is validated before anything is
// sent to the model; a malformed month never reaches the backend.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := domain.CurrentMonth()
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := domain.ParseMonth(m)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	report, err := h.svc.Monthly(ctx, middleware.UserID(ctx), month)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"month":   month,
		"summary": report.Summary,
		"tips":    report.Tips,
	})
}
