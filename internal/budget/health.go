// Package budget computes the monthly budget-health report: score, per-type
// usage, per-category breakdown and ordered suggestions. The evaluation is a
// pure function so it can be tested without a database.
package budget

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// Band buckets the score for display.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandAttention Band = "attention"
)

// CategoryInput is one category with its effective budget for the month
// (override when present, default otherwise) and its committed spend.
type CategoryInput struct {
	ID             string
	Name           string
	Type           domain.CategoryType
	Budget         decimal.NullDecimal
	AlertThreshold int
	Spent          decimal.Decimal
}

// Input is everything the evaluation needs for one month.
type Input struct {
	Month              domain.Month
	Settings           domain.FinancialSettings
	Categories         []CategoryInput
	UncategorizedSpent decimal.Decimal
}

// CategoryReport is one category's evaluation.
type CategoryReport struct {
	CategoryID    string              `json:"category_id"`
	Name          string              `json:"name"`
	Type          domain.CategoryType `json:"type"`
	Budget        decimal.NullDecimal `json:"budget"`
	Spent         decimal.Decimal     `json:"spent"`
	Usage         *float64            `json:"usage,omitempty"`
	OverBudget    bool                `json:"over_budget"`
	NearLimit     bool                `json:"near_limit"`
	UnderUtilized bool                `json:"under_utilized"`
}

// TypeReport aggregates one 50/30/20 bucket.
type TypeReport struct {
	Type      domain.CategoryType `json:"type"`
	Budget    decimal.Decimal     `json:"budget"`
	Spent     decimal.Decimal     `json:"spent"`
	Usage     *float64            `json:"usage,omitempty"`
	TargetPct int                 `json:"target_pct"`
	ActualPct *float64            `json:"actual_pct,omitempty"`
}

// Report is the full budget-health evaluation for one month.
type Report struct {
	Month              domain.Month     `json:"month"`
	Score              int              `json:"score"`
	Band               Band             `json:"band"`
	TotalBudget        decimal.Decimal  `json:"total_budget"`
	TotalSpent         decimal.Decimal  `json:"total_spent"`
	ProjectedSavings   decimal.Decimal  `json:"projected_savings"`
	SavingsProgress    *float64         `json:"savings_progress,omitempty"`
	OverBudgetCount    int              `json:"over_budget_count"`
	UnderUtilizedCount int              `json:"under_utilized_count"`
	Types              []TypeReport     `json:"types"`
	Categories         []CategoryReport `json:"categories"`
	Suggestions        []Suggestion     `json:"suggestions"`
}

var hundred = decimal.NewFromInt(100)

// Evaluate computes the report. Usage percentages are raw and unclamped;
// a nil usage means the denominator was zero. Raising any category's spend
// with budgets fixed never raises the score.
func Evaluate(in Input) *Report {
	report := &Report{Month: in.Month}

	typeBudget := map[domain.CategoryType]decimal.Decimal{}
	typeSpent := map[domain.CategoryType]decimal.Decimal{}

	for _, c := range in.Categories {
		cr := CategoryReport{
			CategoryID: c.ID,
			Name:       c.Name,
			Type:       domain.ResolveCategoryType(c.Name, c.Type),
			Budget:     c.Budget,
			Spent:      c.Spent,
		}

		threshold := c.AlertThreshold
		if threshold <= 0 {
			threshold = domain.DefaultAlertThreshold
		}

		if c.Budget.Valid && c.Budget.Decimal.IsPositive() {
			u := usagePct(c.Spent, c.Budget.Decimal)
			cr.Usage = &u
			cr.OverBudget = c.Spent.GreaterThan(c.Budget.Decimal)
			cr.NearLimit = !cr.OverBudget && u >= float64(threshold)
			cr.UnderUtilized = u < 50

			typeBudget[cr.Type] = typeBudget[cr.Type].Add(c.Budget.Decimal)
			report.TotalBudget = report.TotalBudget.Add(c.Budget.Decimal)
		}

		typeSpent[cr.Type] = typeSpent[cr.Type].Add(c.Spent)
		report.TotalSpent = report.TotalSpent.Add(c.Spent)

		if cr.OverBudget {
			report.OverBudgetCount++
		}
		if cr.UnderUtilized {
			report.UnderUtilizedCount++
		}

		report.Categories = append(report.Categories, cr)
	}

	// Spend with no category counts against the wants bucket.
	if in.UncategorizedSpent.IsPositive() {
		typeSpent[domain.TypeWants] = typeSpent[domain.TypeWants].Add(in.UncategorizedSpent)
		report.TotalSpent = report.TotalSpent.Add(in.UncategorizedSpent)
	}

	for _, t := range []domain.CategoryType{domain.TypeNeeds, domain.TypeWants, domain.TypeSavings} {
		tr := TypeReport{
			Type:      t,
			Budget:    typeBudget[t],
			Spent:     typeSpent[t],
			TargetPct: in.Settings.TargetPct(t),
		}
		if tr.Budget.IsPositive() {
			u := usagePct(tr.Spent, tr.Budget)
			tr.Usage = &u
		}
		if report.TotalSpent.IsPositive() {
			share := usagePct(tr.Spent, report.TotalSpent)
			tr.ActualPct = &share
		}
		report.Types = append(report.Types, tr)
	}

	report.ProjectedSavings = report.TotalBudget.Sub(report.TotalSpent)
	if report.ProjectedSavings.IsNegative() {
		report.ProjectedSavings = decimal.Zero
	}

	if in.Settings.MinSavingsTarget.IsPositive() {
		progress := report.ProjectedSavings.Div(in.Settings.MinSavingsTarget).InexactFloat64()
		report.SavingsProgress = &progress
	}

	report.Score = score(report, in.Settings)
	report.Band = bandFor(report.Score)
	report.Suggestions = buildSuggestions(report)

	return report
}

// score implements the penalty model. Every penalty is weakly increasing in
// every category's spend, so the score is weakly decreasing.
func score(r *Report, settings domain.FinancialSettings) int {
	var needsOver, wantsOver float64
	for _, tr := range r.Types {
		if tr.Usage == nil || *tr.Usage <= 100 {
			continue
		}
		over := math.Min(20, (*tr.Usage-100)/5)
		switch tr.Type {
		case domain.TypeNeeds:
			needsOver = over
		case domain.TypeWants:
			wantsOver = over
		}
	}

	overCatPenalty := math.Min(20, 4*float64(r.OverBudgetCount))

	var savingsPenalty float64
	if settings.MinSavingsTarget.IsPositive() {
		progress := r.ProjectedSavings.Div(settings.MinSavingsTarget).InexactFloat64()
		savingsPenalty = 20 * (1 - math.Min(1, progress))
	}

	raw := 100 - needsOver - wantsOver - overCatPenalty - savingsPenalty
	s := int(math.Round(raw))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func bandFor(score int) Band {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 60:
		return BandGood
	case score >= 40:
		return BandFair
	default:
		return BandAttention
	}
}

func usagePct(spent, budget decimal.Decimal) float64 {
	return spent.Mul(hundred).Div(budget).InexactFloat64()
}
