package domain

import "errors"

// Sentinel errors shared across stores, services and handlers. Callers match
// them with errors.Is to pick a response code.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPremiumRequired  = errors.New("premium plan required")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrInsightTimeout   = errors.New("insight generation timed out")
)
