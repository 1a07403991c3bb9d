package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/log"
)

func transactionsEqual(a, b []core.Transaction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Title != y.Title || x.Amount != y.Amount ||
			x.Category != y.Category || x.Description != y.Description ||
			x.Type != y.Type || !x.Date.Equal(y.Date.Time) ||
			!x.CreatedAt.Equal(y.CreatedAt) || !x.UpdatedAt.Equal(y.UpdatedAt) {
			return false
		}
	}
	return true
}

func newTestRepository(t *testing.T) *SnapshotRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snapshot.db")
	repo, err := NewSnapshotRepository(path, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("NewSnapshotRepository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()

	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func sampleTransactions(t *testing.T) []core.Transaction {
	t.Helper()

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	return []core.Transaction{
		{
			ID:          "3",
			Title:       "Groceries",
			Amount:      core.Money{Cents: 4250},
			Category:    "Food & Dining",
			Description: "weekly shop",
			Date:        mustDate(t, "2026-05-09"),
			Type:        core.Expense,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:       "1",
			Title:    "Train ticket",
			Amount:   core.Money{Cents: 1980},
			Category: "Transportation",
			Date:     mustDate(t, "2026-05-02"),
			Type:     core.Expense,
		},
		{
			ID:       "2",
			Title:    "Refund",
			Amount:   core.Money{Cents: 500},
			Category: "Others",
			Date:     mustDate(t, "2026-05-05"),
			Type:     core.Income,
		},
	}
}

func TestSaveAndListRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	want := sampleTransactions(t)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !transactionsEqual(got, want) {
		t.Errorf("List returned %+v, want %+v", got, want)
	}
}

func TestListEmptySnapshot(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty snapshot, got %d transactions", len(got))
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, sampleTransactions(t)); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	replacement := []core.Transaction{
		{
			ID:       "9",
			Title:    "Cinema",
			Amount:   core.Money{Cents: 1200},
			Category: "Entertainment",
			Date:     mustDate(t, "2026-05-11"),
			Type:     core.Expense,
		},
	}
	if err := repo.Save(ctx, replacement); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !transactionsEqual(got, replacement) {
		t.Errorf("List returned %+v, want %+v", got, replacement)
	}
}

func TestSavedAt(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, ok := repo.SavedAt(ctx); ok {
		t.Fatal("SavedAt reported a timestamp before any Save")
	}

	before := time.Now().Add(-time.Second)
	if err := repo.Save(ctx, sampleTransactions(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	at, ok := repo.SavedAt(ctx)
	if !ok {
		t.Fatal("SavedAt reported no timestamp after Save")
	}
	if at.Before(before) {
		t.Errorf("SavedAt %v is before Save happened (%v)", at, before)
	}
}

func TestSaveEmptySliceClearsSnapshot(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, sampleTransactions(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, nil); err != nil {
		t.Fatalf("Save(nil): %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected cleared snapshot, got %d transactions", len(got))
	}
}
