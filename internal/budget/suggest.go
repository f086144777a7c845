package budget

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// SuggestionKind orders suggestions for display: warnings first, then
// actionable reallocations, then informational notes, then praise.
type SuggestionKind string

const (
	KindWarning      SuggestionKind = "warning"
	KindReallocation SuggestionKind = "reallocation"
	KindInfo         SuggestionKind = "info"
	KindSuccess      SuggestionKind = "success"
)

var kindRank = map[SuggestionKind]int{
	KindWarning:      0,
	KindReallocation: 1,
	KindInfo:         2,
	KindSuccess:      3,
}

// Reallocation is the payload of a reallocation suggestion. Accepting it
// results in exactly one budget override upsert for the named category.
type Reallocation struct {
	CategoryID      string          `json:"category_id"`
	Month           domain.Month    `json:"month"`
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
}

// Suggestion is one piece of advice on the health report. The ID is stable
// for a given (kind, category, month), so a dismissal keeps holding across
// recomputes within a session.
type Suggestion struct {
	ID           string          `json:"id"`
	Kind         SuggestionKind  `json:"kind"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	CategoryID   string          `json:"category_id,omitempty"`
	Reallocation *Reallocation   `json:"reallocation,omitempty"`
	severity     decimal.Decimal // orders suggestions within a kind
}

// DisplayLimit is how many suggestions the client shows at once.
const DisplayLimit = 5

// Display returns at most limit suggestions plus the count that was held
// back. A limit of zero or less means DisplayLimit.
func Display(suggestions []Suggestion, limit int) ([]Suggestion, int) {
	if limit <= 0 {
		limit = DisplayLimit
	}
	if len(suggestions) <= limit {
		return suggestions, 0
	}
	return suggestions[:limit], len(suggestions) - limit
}

// SuggestionID derives the stable identifier used for session dismissals.
func SuggestionID(kind SuggestionKind, categoryID string, month domain.Month) string {
	sum := sha256.Sum256([]byte(string(kind) + ":" + categoryID + ":" + string(month)))
	return hex.EncodeToString(sum[:8])
}

func buildSuggestions(r *Report) []Suggestion {
	var out []Suggestion

	donors := donorPool(r)

	for _, c := range r.Categories {
		if !c.OverBudget {
			continue
		}
		over := c.Spent.Sub(c.Budget.Decimal)
		out = append(out, Suggestion{
			ID:         SuggestionID(KindWarning, c.CategoryID, r.Month),
			Kind:       KindWarning,
			Title:      fmt.Sprintf("%s is over budget", c.Name),
			Body:       fmt.Sprintf("%s has used %.0f%% of its budget, %s over the limit.", c.Name, *c.Usage, over.StringFixed(2)),
			CategoryID: c.CategoryID,
			severity:   over,
		})

		if donor, ok := donors[c.Type]; ok && donor.CategoryID != c.CategoryID {
			suggested := roundUpTo(c.Spent, 100)
			out = append(out, Suggestion{
				ID:         SuggestionID(KindReallocation, c.CategoryID, r.Month),
				Kind:       KindReallocation,
				Title:      fmt.Sprintf("Raise %s for this month", c.Name),
				Body:       fmt.Sprintf("%s has room to spare. Move part of it to set %s's budget to %s for %s.", donor.Name, c.Name, suggested.StringFixed(2), r.Month),
				CategoryID: c.CategoryID,
				Reallocation: &Reallocation{
					CategoryID:      c.CategoryID,
					Month:           r.Month,
					SuggestedAmount: suggested,
				},
				severity: over,
			})
		}
	}

	for _, c := range r.Categories {
		if !c.NearLimit {
			continue
		}
		out = append(out, Suggestion{
			ID:         SuggestionID(KindInfo, c.CategoryID, r.Month),
			Kind:       KindInfo,
			Title:      fmt.Sprintf("%s is close to its limit", c.Name),
			Body:       fmt.Sprintf("%s is at %.0f%% of its budget. Slow down to stay inside it.", c.Name, *c.Usage),
			CategoryID: c.CategoryID,
			severity:   c.Spent,
		})
	}

	if uncat := uncategorizedSpent(r); uncat.IsPositive() {
		out = append(out, Suggestion{
			ID:       SuggestionID(KindInfo, "uncategorized", r.Month),
			Kind:     KindInfo,
			Title:    "Uncategorized spending",
			Body:     fmt.Sprintf("%s of spending has no category and is counted against wants. Categorize it for a sharper report.", uncat.StringFixed(2)),
			severity: uncat,
		})
	}

	if r.OverBudgetCount == 0 && r.TotalSpent.IsPositive() {
		out = append(out, Suggestion{
			ID:    SuggestionID(KindSuccess, "within-budget", r.Month),
			Kind:  KindSuccess,
			Title: "All categories within budget",
			Body:  "Every budgeted category is inside its limit this month.",
		})
	}
	if r.SavingsProgress != nil && *r.SavingsProgress >= 1 {
		out = append(out, Suggestion{
			ID:    SuggestionID(KindSuccess, "savings-target", r.Month),
			Kind:  KindSuccess,
			Title: "Savings target on track",
			Body:  "Projected savings meet the monthly target.",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if kindRank[out[i].Kind] != kindRank[out[j].Kind] {
			return kindRank[out[i].Kind] < kindRank[out[j].Kind]
		}
		return out[i].severity.GreaterThan(out[j].severity)
	})

	return out
}

// donorPool picks, per type, the under-utilized category with the most
// unspent budget. Its slack funds reallocation suggestions for over-budget
// categories of the same type.
func donorPool(r *Report) map[domain.CategoryType]CategoryReport {
	donors := map[domain.CategoryType]CategoryReport{}
	for _, c := range r.Categories {
		if !c.UnderUtilized {
			continue
		}
		slack := c.Budget.Decimal.Sub(c.Spent)
		best, ok := donors[c.Type]
		if !ok || slack.GreaterThan(best.Budget.Decimal.Sub(best.Spent)) {
			donors[c.Type] = c
		}
	}
	return donors
}

func uncategorizedSpent(r *Report) decimal.Decimal {
	total := r.TotalSpent
	for _, c := range r.Categories {
		total = total.Sub(c.Spent)
	}
	return total
}

// roundUpTo rounds d up to the next multiple of step.
func roundUpTo(d decimal.Decimal, step int64) decimal.Decimal {
	s := decimal.NewFromInt(step)
	q := d.Div(s).Ceil()
	return q.Mul(s)
}
