package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		Title:    "Groceries",
		Amount:   Money{Cents: 4250},
		Category: "Food & Dining",
		Date:     NewDate(2025, 3, 14),
		Type:     Expense,
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Transaction)
		wantField string
	}{
		{
			name:   "valid transaction",
			mutate: func(tx *Transaction) {},
		},
		{
			name:      "empty title",
			mutate:    func(tx *Transaction) { tx.Title = "   " },
			wantField: "title",
		},
		{
			name:      "title too long",
			mutate:    func(tx *Transaction) { tx.Title = strings.Repeat("x", MaxTitleLen+1) },
			wantField: "title",
		},
		{
			name:   "multibyte title at the character limit",
			mutate: func(tx *Transaction) { tx.Title = strings.Repeat("é", MaxTitleLen) },
		},
		{
			name:      "multibyte title over the character limit",
			mutate:    func(tx *Transaction) { tx.Title = strings.Repeat("é", MaxTitleLen+1) },
			wantField: "title",
		},
		{
			name:      "zero amount",
			mutate:    func(tx *Transaction) { tx.Amount = Money{} },
			wantField: "amount",
		},
		{
			name:      "amount above bound",
			mutate:    func(tx *Transaction) { tx.Amount = Money{Cents: MaxAmountCents + 1} },
			wantField: "amount",
		},
		{
			name:      "missing category",
			mutate:    func(tx *Transaction) { tx.Category = "" },
			wantField: "category",
		},
		{
			name:      "unknown category",
			mutate:    func(tx *Transaction) { tx.Category = "Rocketry" },
			wantField: "category",
		},
		{
			name:      "missing date",
			mutate:    func(tx *Transaction) { tx.Date = Date{} },
			wantField: "date",
		},
		{
			name:      "description too long",
			mutate:    func(tx *Transaction) { tx.Description = strings.Repeat("y", MaxDescriptionLen+1) },
			wantField: "description",
		},
		{
			name:   "multibyte description at the character limit",
			mutate: func(tx *Transaction) { tx.Description = strings.Repeat("ü", MaxDescriptionLen) },
		},
		{
			name:      "missing type",
			mutate:    func(tx *Transaction) { tx.Type = "" },
			wantField: "type",
		},
		{
			name:      "bogus type",
			mutate:    func(tx *Transaction) { tx.Type = "transfer" },
			wantField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			errs := tx.Validate()
			if tt.wantField == "" {
				if errs != nil {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if errs == nil {
				t.Fatal("expected validation errors, got none")
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected error on field %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestTransaction_ValidateAtBounds(t *testing.T) {
	tx := validTransaction()
	tx.Title = strings.Repeat("a", MaxTitleLen)
	tx.Description = strings.Repeat("b", MaxDescriptionLen)
	tx.Amount = Money{Cents: MaxAmountCents}
	if errs := tx.Validate(); errs != nil {
		t.Errorf("boundary values should be valid, got %v", errs)
	}
	tx.Amount = Money{Cents: 1}
	if errs := tx.Validate(); errs != nil {
		t.Errorf("minimum amount should be valid, got %v", errs)
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 12, 3)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-12-03"` {
		t.Errorf("expected ISO date, got %s", data)
	}

	var parsed Date
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !parsed.Equal(d.Time) {
		t.Errorf("round trip changed date: %v != %v", parsed, d)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2025-02-30"); err == nil {
		t.Error("expected error for impossible date")
	}
	if _, err := ParseDate("03/14/2025"); err == nil {
		t.Error("expected error for non-ISO format")
	}
	d, err := ParseDate(" 2025-01-31 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.MonthKey() != "2025-01" {
		t.Errorf("expected month key 2025-01, got %s", d.MonthKey())
	}
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !IsValidCategory(c) {
			t.Errorf("canonical category %q reported invalid", c)
		}
	}
	if IsValidCategory("food & dining") {
		t.Error("category matching must be exact, not case-insensitive")
	}
}
