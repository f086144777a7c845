// Package api wires the HTTP surface: middleware chain, route table and
// handler construction.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/api/handlers"
	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/jobs"
)

// Deps carries everything the router needs. The store fields are usually
// all satisfied by the same *store.Store; tests swap in mocks per handler.
type Deps struct {
	Expenses   handlers.ExpenseStore
	Categories handlers.CategoryStore
	Settings   handlers.SettingsStore
	Budget     handlers.BudgetService
	Insights   handlers.InsightService
	Imports    handlers.ImportService
	Jobs       jobs.Store

	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds the chi router with the full middleware chain. Everything
// under /api requires a valid bearer token; /healthz stays open.
func NewRouter(d Deps) *chi.Mux {
	expensesHandler := handlers.NewExpensesHandler(d.Expenses, d.Log)
	categoriesHandler := handlers.NewCategoriesHandler(d.Categories, d.Log)
	settingsHandler := handlers.NewSettingsHandler(d.Settings, d.Log)
	budgetHandler := handlers.NewBudgetHandler(d.Budget, d.Log)
	insightsHandler := handlers.NewInsightsHandler(d.Insights, d.Log)
	importsHandler := handlers.NewImportsHandler(d.Imports, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.Jobs, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.JWTSecret))

		// Expenses
		r.Post("/expenses", expensesHandler.Create)
		r.Get("/expenses", expensesHandler.List)
		r.Get("/expenses/{id}", expensesHandler.Get)
		r.Put("/expenses/{id}", expensesHandler.Update)

		// Categories
		r.Get("/categories", categoriesHandler.List)
		r.Post("/categories", categoriesHandler.Create)
		r.Put("/categories/{id}", categoriesHandler.Update)
		r.Delete("/categories/{id}", categoriesHandler.Delete)
		r.Put("/categories/{id}/budget", categoriesHandler.PutBudget)
		r.Get("/categories/{id}/budget", categoriesHandler.GetBudget)
		r.Delete("/categories/{id}/budget", categoriesHandler.DeleteBudget)

		// Budget health
		r.Get("/budget/health", budgetHandler.Health)
		r.Post("/budget/reallocations", budgetHandler.AcceptReallocation)
		r.Post("/budget/suggestions/{id}/dismiss", budgetHandler.DismissSuggestion)

		// Settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Put)

		// Insights
		r.Get("/insights", insightsHandler.Get)

		// Statement imports
		r.Post("/imports", importsHandler.Upload)
		r.Get("/imports", importsHandler.List)
		r.Get("/imports/{id}", importsHandler.Get)
		r.Get("/imports/{id}/transactions", importsHandler.Transactions)
		r.Post("/imports/{id}/parse", importsHandler.Parse)
		r.Post("/imports/{id}/categorize", importsHandler.Categorize)
		r.Post("/imports/{id}/commit", importsHandler.Commit)
		r.Patch("/imports/{id}/transactions/{txn_id}", importsHandler.UpdateTransaction)
		r.Delete("/imports/{id}", importsHandler.Cancel)

		// Jobs
		r.Get("/jobs", jobsHandler.List)
		r.Get("/jobs/{id}", jobsHandler.Get)
	})

	return r
}
