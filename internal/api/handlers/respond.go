// Package handlers implements the HTTP endpoints over the application
// services and the store.
package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// respondError maps the domain sentinel errors onto HTTP status codes.
// Unrecognized errors are logged and reported as a plain 500.
func respondError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, domain.ErrPremiumRequired):
		middleware.WriteError(w, http.StatusPaymentRequired, "premium plan required")
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsightTimeout):
		middleware.WriteError(w, http.StatusGatewayTimeout, err.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
