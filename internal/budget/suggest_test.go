package budget

import (
	"testing"

	"github.com/rupeelog/rupeelog/internal/domain"
)

func overBudgetReport() *Report {
	return Evaluate(Input{
		Month:    domain.Month("2025-07"),
		Settings: settingsWithTarget("0"),
		Categories: []CategoryInput{
			{ID: "c1", Name: "Groceries", Budget: budgetOf("5000"), Spent: dec("6000")},
			{ID: "c2", Name: "Utilities", Budget: budgetOf("4000"), Spent: dec("800")},
			{ID: "c3", Name: "Dining", Type: domain.TypeWants, Budget: budgetOf("1000"), Spent: dec("850")},
		},
		UncategorizedSpent: dec("300"),
	})
}

func TestSuggestionsRankedByKind(t *testing.T) {
	report := overBudgetReport()
	if len(report.Suggestions) == 0 {
		t.Fatal("expected suggestions")
	}

	last := -1
	for _, sg := range report.Suggestions {
		rank, ok := kindRank[sg.Kind]
		if !ok {
			t.Fatalf("unknown kind %q", sg.Kind)
		}
		if rank < last {
			t.Fatalf("suggestion kind %q out of order: %+v", sg.Kind, report.Suggestions)
		}
		last = rank
	}

	if report.Suggestions[0].Kind != KindWarning {
		t.Errorf("first suggestion kind = %q, want warning", report.Suggestions[0].Kind)
	}
}

func TestReallocationSuggestion(t *testing.T) {
	report := overBudgetReport()

	var re *Suggestion
	for i := range report.Suggestions {
		if report.Suggestions[i].Kind == KindReallocation {
			re = &report.Suggestions[i]
		}
	}
	if re == nil {
		t.Fatalf("no reallocation suggestion despite an under-utilized donor: %+v", report.Suggestions)
	}
	if re.Reallocation == nil {
		t.Fatal("reallocation suggestion missing payload")
	}
	if re.Reallocation.CategoryID != "c1" {
		t.Errorf("payload category = %q, want the over-budget category c1", re.Reallocation.CategoryID)
	}
	if re.Reallocation.Month != domain.Month("2025-07") {
		t.Errorf("payload month = %q, want 2025-07", re.Reallocation.Month)
	}
	if !re.Reallocation.SuggestedAmount.Equal(dec("6000")) {
		t.Errorf("suggested amount = %s, want 6000 (spend rounded up to 100)", re.Reallocation.SuggestedAmount)
	}
}

func TestNoReallocationWithoutDonor(t *testing.T) {
	report := Evaluate(Input{
		Month:    domain.Month("2025-07"),
		Settings: settingsWithTarget("0"),
		Categories: []CategoryInput{
			{ID: "c1", Name: "Groceries", Budget: budgetOf("5000"), Spent: dec("6000")},
		},
	})
	for _, sg := range report.Suggestions {
		if sg.Kind == KindReallocation {
			t.Fatalf("unexpected reallocation with no donor category: %+v", sg)
		}
	}
}

func TestSuccessSuggestionsWhenHealthy(t *testing.T) {
	report := Evaluate(Input{
		Month:    domain.Month("2025-07"),
		Settings: settingsWithTarget("1000"),
		Categories: []CategoryInput{
			{ID: "c1", Name: "Rent", Type: domain.TypeNeeds, Budget: budgetOf("10000"), Spent: dec("8000")},
		},
	})

	kinds := map[SuggestionKind]int{}
	for _, sg := range report.Suggestions {
		kinds[sg.Kind]++
	}
	if kinds[KindWarning] != 0 {
		t.Errorf("unexpected warnings: %+v", report.Suggestions)
	}
	if kinds[KindSuccess] < 2 {
		t.Errorf("want within-budget and savings-target successes, got %+v", report.Suggestions)
	}
}

func TestSuggestionIDStable(t *testing.T) {
	a := SuggestionID(KindWarning, "c1", domain.Month("2025-07"))
	b := SuggestionID(KindWarning, "c1", domain.Month("2025-07"))
	if a != b {
		t.Errorf("same inputs produced different ids: %q vs %q", a, b)
	}
	if SuggestionID(KindWarning, "c1", domain.Month("2025-08")) == a {
		t.Error("different months should produce different ids")
	}
	if SuggestionID(KindInfo, "c1", domain.Month("2025-07")) == a {
		t.Error("different kinds should produce different ids")
	}
}

func TestDisplayCap(t *testing.T) {
	suggestions := make([]Suggestion, 8)
	for i := range suggestions {
		suggestions[i].ID = string(rune('a' + i))
	}

	shown, held := Display(suggestions, 0)
	if len(shown) != DisplayLimit || held != 3 {
		t.Errorf("Display(8, default) = %d shown %d held, want 5 and 3", len(shown), held)
	}

	shown, held = Display(suggestions[:4], 0)
	if len(shown) != 4 || held != 0 {
		t.Errorf("Display(4, default) = %d shown %d held, want 4 and 0", len(shown), held)
	}

	shown, held = Display(suggestions, 2)
	if len(shown) != 2 || held != 6 {
		t.Errorf("Display(8, 2) = %d shown %d held, want 2 and 6", len(shown), held)
	}
}
