package domain

import "testing"

func TestInferCategoryType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CategoryType
	}{
		{name: "exact needs", in: "Rent", want: TypeNeeds},
		{name: "exact wants", in: "shopping", want: TypeWants},
		{name: "exact savings", in: "SIP", want: TypeSavings},
		{name: "substring needs", in: "Car Fuel", want: TypeNeeds},
		{name: "substring wants", in: "weekend travel fund", want: TypeWants},
		{name: "substring savings", in: "Monthly Investments", want: TypeSavings},
		{name: "whitespace trimmed", in: "  groceries  ", want: TypeNeeds},
		{name: "unknown defaults to wants", in: "Miscellaneous", want: TypeWants},
		{name: "empty defaults to wants", in: "", want: TypeWants},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferCategoryType(tt.in); got != tt.want {
				t.Errorf("InferCategoryType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveCategoryType(t *testing.T) {
	// An explicit valid type always wins over the name.
	if got := ResolveCategoryType("rent", TypeSavings); got != TypeSavings {
		t.Errorf("ResolveCategoryType(rent, savings) = %q, want savings", got)
	}
	// An invalid explicit type falls back to inference.
	if got := ResolveCategoryType("rent", CategoryType("")); got != TypeNeeds {
		t.Errorf("ResolveCategoryType(rent, \"\") = %q, want needs", got)
	}
	if got := ResolveCategoryType("rent", CategoryType("bogus")); got != TypeNeeds {
		t.Errorf("ResolveCategoryType(rent, bogus) = %q, want needs", got)
	}
}

func TestCategoryTypeValid(t *testing.T) {
	for _, typ := range []CategoryType{TypeNeeds, TypeWants, TypeSavings} {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if CategoryType("essential").Valid() {
		t.Error("unknown type should not be valid")
	}
}
