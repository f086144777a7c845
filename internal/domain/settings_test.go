package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultSettings(t *testing.T) {
	fs := DefaultSettings("u1")

	if fs.NeedsPct != 50 || fs.WantsPct != 30 || fs.SavingsPct != 20 {
		t.Errorf("default split = %d/%d/%d, want 50/30/20", fs.NeedsPct, fs.WantsPct, fs.SavingsPct)
	}
	if fs.UIMode != UISimple {
		t.Errorf("UIMode = %q, want simple", fs.UIMode)
	}
	if fs.IsPremium {
		t.Error("new users are not premium")
	}
}

func TestValidateSplit(t *testing.T) {
	tests := []struct {
		name    string
		needs   int
		wants   int
		savings int
		target  decimal.Decimal
		wantErr bool
	}{
		{name: "default split", needs: 50, wants: 30, savings: 20},
		{name: "custom split", needs: 60, wants: 20, savings: 20},
		{name: "does not sum to 100", needs: 50, wants: 30, savings: 30, wantErr: true},
		{name: "negative pct", needs: -10, wants: 90, savings: 20, wantErr: true},
		{name: "over 100 pct", needs: 110, wants: 0, savings: -10, wantErr: true},
		{name: "negative target", needs: 50, wants: 30, savings: 20, target: decimal.NewFromInt(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := FinancialSettings{
				NeedsPct:         tt.needs,
				WantsPct:         tt.wants,
				SavingsPct:       tt.savings,
				MinSavingsTarget: tt.target,
			}
			err := fs.ValidateSplit()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTargetPct(t *testing.T) {
	fs := FinancialSettings{NeedsPct: 55, WantsPct: 25, SavingsPct: 20}

	if got := fs.TargetPct(TypeNeeds); got != 55 {
		t.Errorf("TargetPct(needs) = %d, want 55", got)
	}
	if got := fs.TargetPct(TypeWants); got != 25 {
		t.Errorf("TargetPct(wants) = %d, want 25", got)
	}
	if got := fs.TargetPct(TypeSavings); got != 20 {
		t.Errorf("TargetPct(savings) = %d, want 20", got)
	}
	if got := fs.TargetPct(CategoryType("bogus")); got != 0 {
		t.Errorf("TargetPct(bogus) = %d, want 0", got)
	}
}
