package importer

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/rupeelog/rupeelog/internal/domain"
)

const (
	// fuzzyDateWindowDays is how far apart a statement row and a ledger
	// expense may be and still count as the same purchase.
	fuzzyDateWindowDays = 3

	// fuzzyDistanceRatio is the edit-distance cutoff relative to the longer
	// normalized description. Below it the rows are considered duplicates.
	fuzzyDistanceRatio = 0.4
)

// markDuplicates flags extracted debit rows that already exist in the ledger.
// An exact match is same amount, same day and same normalized description.
// A fuzzy match is same amount within the date window and a near-identical
// description. Credits are never matched; the ledger holds only spending.
func markDuplicates(txns []domain.ExtractedTransaction, existing []domain.Expense) {
	type candidate struct {
		id   string
		date time.Time
		norm string
	}
	byAmount := make(map[string][]candidate, len(existing))
	for _, e := range existing {
		key := e.Amount.String()
		byAmount[key] = append(byAmount[key], candidate{
			id:   e.ID,
			date: e.ExpenseDate,
			norm: normalizeDescription(e.Note),
		})
	}

	for i := range txns {
		t := &txns[i]
		t.IsDuplicate = false
		t.DuplicateOf = ""
		if t.Type != domain.TxnDebit {
			continue
		}

		norm := normalizeDescription(t.Description)
		for _, c := range byAmount[t.Amount.String()] {
			if !withinDays(t.Date, c.date, fuzzyDateWindowDays) {
				continue
			}
			if sameDay(t.Date, c.date) && norm == c.norm {
				t.IsDuplicate = true
				t.DuplicateOf = c.id
				break
			}
			if descriptionsSimilar(norm, c.norm) {
				t.IsDuplicate = true
				t.DuplicateOf = c.id
				break
			}
		}
	}
}

// normalizeDescription lowercases, strips punctuation and collapses
// whitespace so that cosmetic differences between a statement narration and
// a saved note do not defeat matching.
func normalizeDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func descriptionsSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(dist)/float64(longest) < fuzzyDistanceRatio
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func withinDays(a, b time.Time, days int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}
