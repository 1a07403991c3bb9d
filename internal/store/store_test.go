package store

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"tally/internal/core"
)

func entry(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:       id,
		Title:    "t" + id,
		Amount:   core.Money{Cents: cents},
		Category: "Others",
		Date:     core.NewDate(2025, 1, 1),
		Type:     core.Expense,
	}
}

func storeIDs(s *Store) []string {
	snap := s.Snapshot()
	out := make([]string, len(snap))
	for i, tx := range snap {
		out[i] = tx.ID
	}
	return out
}

func TestStore_Replace(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100), entry("2", 200)})
	if s.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", s.Len())
	}

	// wholesale swap, not merge
	s.Replace([]core.Transaction{entry("3", 300)})
	if !reflect.DeepEqual(storeIDs(s), []string{"3"}) {
		t.Errorf("expected [3], got %v", storeIDs(s))
	}
}

func TestStore_ReplaceDeduplicates(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100), entry("1", 999), entry("2", 200)})
	if s.Len() != 2 {
		t.Fatalf("expected 2 unique entries, got %d", s.Len())
	}
	got, _ := s.Get("1")
	if got.Amount.Cents != 999 {
		t.Errorf("last write should win, got %d cents", got.Amount.Cents)
	}
}

func TestStore_Prepend(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100)})
	s.Prepend(entry("2", 200))
	if !reflect.DeepEqual(storeIDs(s), []string{"2", "1"}) {
		t.Errorf("expected [2 1], got %v", storeIDs(s))
	}

	// prepending an existing id updates in place instead
	s.Prepend(entry("1", 150))
	if !reflect.DeepEqual(storeIDs(s), []string{"2", "1"}) {
		t.Errorf("expected order unchanged, got %v", storeIDs(s))
	}
	got, _ := s.Get("1")
	if got.Amount.Cents != 150 {
		t.Errorf("expected updated amount, got %d", got.Amount.Cents)
	}
}

func TestStore_UpdatePreservesPosition(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100), entry("2", 200), entry("3", 300)})

	if ok := s.Update("2", entry("2", 999)); !ok {
		t.Fatal("update of present id should succeed")
	}
	if !reflect.DeepEqual(storeIDs(s), []string{"1", "2", "3"}) {
		t.Errorf("position must be preserved, got %v", storeIDs(s))
	}

	if ok := s.Update("missing", entry("missing", 1)); ok {
		t.Error("update of absent id should report false")
	}
	if s.Len() != 3 {
		t.Errorf("failed update must not change the store, got %d items", s.Len())
	}
}

func TestStore_Remove(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100), entry("2", 200), entry("3", 300)})

	if ok := s.Remove("2"); !ok {
		t.Fatal("remove of present id should succeed")
	}
	if !reflect.DeepEqual(storeIDs(s), []string{"1", "3"}) {
		t.Errorf("expected [1 3], got %v", storeIDs(s))
	}
	if s.Contains("2") {
		t.Error("removed id must not be queryable")
	}

	// the index must stay consistent after compaction
	got, ok := s.Get("3")
	if !ok || got.Amount.Cents != 300 {
		t.Errorf("index out of sync after removal: %v %v", got, ok)
	}

	if ok := s.Remove("2"); ok {
		t.Error("removing an absent id should report false")
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100)})
	snap := s.Snapshot()
	snap[0].Title = "mutated"
	got, _ := s.Get("1")
	if got.Title == "mutated" {
		t.Error("snapshot must not alias internal storage")
	}
}

func TestStore_Clear(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100), entry("2", 200)})
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
	if _, ok := s.Get("1"); ok {
		t.Error("entries must be gone after clear")
	}
	// the store stays usable
	s.Prepend(entry("5", 500))
	if s.Len() != 1 {
		t.Error("store should accept writes after clear")
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := New()
	var calls int
	unsubscribe := s.Subscribe(func() { calls++ })

	s.Prepend(entry("1", 100))
	s.Update("1", entry("1", 200))
	s.Remove("1")
	if calls != 3 {
		t.Errorf("expected 3 notifications, got %d", calls)
	}

	unsubscribe()
	s.Prepend(entry("2", 100))
	if calls != 3 {
		t.Errorf("unsubscribed observer must not fire, got %d calls", calls)
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := New()
	s.Replace([]core.Transaction{entry("1", 100)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					s.Replace([]core.Transaction{entry(fmt.Sprintf("%d-%d", i, j), 1)})
				} else {
					snap := s.Snapshot()
					// a reader must never observe a torn replace
					if len(snap) > 1 {
						t.Errorf("observed mixed state: %d items", len(snap))
						return
					}
				}
			}
		}(i)
	}
	wg.Wait()
}
