package core

import "testing"

func TestDisplayValue(t *testing.T) {
	budget := FieldSpec{Name: "budget_min", Type: FieldInteger, Currency: "USD"}

	tests := []struct {
		name  string
		field FieldSpec
		raw   string
		want  string
	}{
		{"currency integer", budget, "5000", "$5,000.00"},
		{"currency with symbols", budget, "$12,500", "$12,500.00"},
		{"unparseable left alone", budget, "lots", "lots"},
		{"no currency", FieldSpec{Type: FieldInteger}, "5000", "5000"},
		{"unknown currency", FieldSpec{Type: FieldInteger, Currency: "ZZZ"}, "5", "5"},
		{"text", FieldSpec{Type: FieldText}, "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayValue(tt.field, tt.raw); got != tt.want {
				t.Errorf("DisplayValue(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDisplayRow(t *testing.T) {
	def := gigs(t)
	out := DisplayRow(def, map[string]string{"fee": "250", "title": "x", "extra": "kept"})

	if out["fee"] != "$250.00" {
		t.Errorf("fee = %q", out["fee"])
	}
	if out["title"] != "x" || out["extra"] != "kept" {
		t.Errorf("row = %v", out)
	}
}
