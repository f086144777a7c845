package ai

import (
	"testing"
	"time"

	"github.com/rupeelog/rupeelog/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object untouched",
			in:   `{"bank_name": "HDFC"}`,
			want: `{"bank_name": "HDFC"}`,
		},
		{
			name: "json fence stripped",
			in:   "```json\n{\"bank_name\": \"HDFC\"}\n```",
			want: `{"bank_name": "HDFC"}`,
		},
		{
			name: "bare fence stripped",
			in:   "```\n[1, 2]\n```",
			want: `[1, 2]`,
		},
		{
			name: "leading prose removed",
			in:   "Here is the result:\n{\"summary\": \"ok\"}",
			want: `{"summary": "ok"}`,
		},
		{
			name: "trailing prose removed",
			in:   "[{\"index\": 0}]\nLet me know if you need more.",
			want: `[{"index": 0}]`,
		},
		{
			name: "whitespace trimmed",
			in:   "   {\"a\": 1}   ",
			want: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeStatementResponse(t *testing.T) {
	raw := `{
		"bank_name": "HDFC Bank",
		"period_start": "2025-06-01",
		"period_end": "2025-06-30",
		"transactions": [
			{"date": "2025-06-03", "description": "UPI-SWIGGY", "amount": 450.50, "type": "debit", "balance": 10234.55, "raw_text": "03/06/25 UPI-SWIGGY-BANGALORE 450.50 DR 10,234.55"},
			{"date": "2025-06-05", "description": "SALARY CREDIT", "amount": 85000, "type": "credit", "balance": null},
			{"date": "bad-date", "description": "skipped", "amount": 10, "type": "debit", "balance": null},
			{"date": "2025-06-07", "description": "unknown direction", "amount": 10, "type": "transfer", "balance": null}
		]
	}`

	parsed, err := decodeStatementResponse(raw)
	if err != nil {
		t.Fatalf("decodeStatementResponse failed: %v", err)
	}

	if parsed.BankName != "HDFC Bank" {
		t.Errorf("BankName = %q, want HDFC Bank", parsed.BankName)
	}
	if parsed.PeriodStart == nil || !parsed.PeriodStart.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PeriodStart = %v, want 2025-06-01", parsed.PeriodStart)
	}
	if parsed.PeriodEnd == nil || !parsed.PeriodEnd.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PeriodEnd = %v, want 2025-06-30", parsed.PeriodEnd)
	}
	if len(parsed.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2 (unparseable rows skipped)", len(parsed.Transactions))
	}

	first := parsed.Transactions[0]
	if !first.Date.Equal(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", first.Date)
	}
	if first.Description != "UPI-SWIGGY" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Amount.StringFixed(2) != "450.50" {
		t.Errorf("Amount = %s, want 450.50", first.Amount)
	}
	if first.Type != "debit" {
		t.Errorf("Type = %q, want debit", first.Type)
	}
	if !first.HasBalance || first.Balance.StringFixed(2) != "10234.55" {
		t.Errorf("Balance = %s (has=%v), want 10234.55", first.Balance, first.HasBalance)
	}
	if first.RawText != "03/06/25 UPI-SWIGGY-BANGALORE 450.50 DR 10,234.55" {
		t.Errorf("RawText = %q", first.RawText)
	}

	second := parsed.Transactions[1]
	if second.Type != "credit" {
		t.Errorf("Type = %q, want credit", second.Type)
	}
	if second.HasBalance {
		t.Error("null balance should leave HasBalance false")
	}
}

func TestDecodeStatementResponseNegativeAmountNormalized(t *testing.T) {
	raw := `{"bank_name": "", "transactions": [
		{"date": "2025-06-03", "description": "ATM", "amount": -500, "type": "debit", "balance": null}
	]}`

	parsed, err := decodeStatementResponse(raw)
	if err != nil {
		t.Fatalf("decodeStatementResponse failed: %v", err)
	}
	if parsed.Transactions[0].Amount.StringFixed(2) != "500.00" {
		t.Errorf("Amount = %s, want 500.00", parsed.Transactions[0].Amount)
	}
}

func TestDecodeStatementResponseInvalidJSON(t *testing.T) {
	if _, err := decodeStatementResponse("the model refused"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestDecodeCategoryResponse(t *testing.T) {
	categories := []domain.Category{
		{ID: "cat-groc", Name: "Groceries"},
		{ID: "cat-dine", Name: "Dining Out"},
	}

	raw := "```json\n" + `[
		{"index": 0, "category": "groceries", "confidence": 0.92},
		{"index": 1, "category": "Dining Out", "confidence": 1.7},
		{"index": 2, "category": "Unknown Category", "confidence": 0.9},
		{"index": 99, "category": "Groceries", "confidence": 0.5}
	]` + "\n```"

	got, err := decodeCategoryResponse(raw, 3, categories)
	if err != nil {
		t.Fatalf("decodeCategoryResponse failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(got))
	}

	// Case-insensitive name match.
	if got[0].CategoryID != "cat-groc" || got[0].Confidence != 0.92 {
		t.Errorf("suggestion 0 = %+v", got[0])
	}
	// Confidence clamped to [0, 1].
	if got[1].CategoryID != "cat-dine" || got[1].Confidence != 1 {
		t.Errorf("suggestion 1 = %+v", got[1])
	}
	// Unknown category name leaves the slot empty.
	if got[2].CategoryID != "" {
		t.Errorf("suggestion 2 = %+v, want empty", got[2])
	}
}

func TestDecodeInsightResponse(t *testing.T) {
	raw := `{"summary": "Spending is on track.", "tips": ["Trim dining out", "Keep the SIP going"]}`

	report, err := decodeInsightResponse(raw)
	if err != nil {
		t.Fatalf("decodeInsightResponse failed: %v", err)
	}
	if report.Summary != "Spending is on track." {
		t.Errorf("Summary = %q", report.Summary)
	}
	if len(report.Tips) != 2 {
		t.Errorf("got %d tips, want 2", len(report.Tips))
	}
}

func TestDecodeInsightResponseEmptySummary(t *testing.T) {
	if _, err := decodeInsightResponse(`{"summary": "", "tips": []}`); err == nil {
		t.Fatal("expected error for empty summary")
	}
}
