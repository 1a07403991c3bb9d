package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		cents   int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12.345", 1234, false}, // rounds down
		{"12.346", 1235, false}, // rounds up
		{"0.01", 1, false},
		{"999999.99", MaxAmountCents, false},
		{" 7 ", 700, false},
		{".50", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"12a", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %v", tt.in, m)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			}
			if m.Cents != tt.cents {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.in, m.Cents, tt.cents)
			}
		})
	}
}

func TestMoney_FloatRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 99, 100, 1234, MaxAmountCents} {
		m := Money{Cents: cents}
		if got := FromFloat(m.Float()); got.Cents != cents {
			t.Errorf("round trip %d cents via float gave %d", cents, got.Cents)
		}
	}
}

func TestMoney_String(t *testing.T) {
	if s := (Money{Cents: 1234}).String(); s != "12.34" {
		t.Errorf("expected 12.34, got %s", s)
	}
	if s := (Money{Cents: 5}).String(); s != "0.05" {
		t.Errorf("expected 0.05, got %s", s)
	}
}
