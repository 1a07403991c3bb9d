package export

import (
	"testing"

	"tally/internal/core"
)

func TestTransactionRow(t *testing.T) {
	date, err := core.ParseDate("2026-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	tx := core.Transaction{
		ID:          "5",
		Title:       "Dentist",
		Amount:      core.Money{Cents: 8050},
		Category:    "Healthcare",
		Description: "checkup",
		Date:        date,
		Type:        core.Expense,
	}

	row := transactionRow(tx)
	if len(row) != len(headerRow) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(headerRow))
	}
	if row[0] != "2026-03-15" || row[1] != "Dentist" || row[3] != "Healthcare" {
		t.Errorf("unexpected row: %v", row)
	}
	if amount, ok := row[2].(float64); !ok || amount != 80.50 {
		t.Errorf("amount cell = %v, want 80.50", row[2])
	}
}
