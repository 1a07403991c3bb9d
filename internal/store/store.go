// Package store holds the in-memory mirror of the remote store's
// transactions for the active session. It is the only mutable shared
// state on the query side; all reads hand out snapshots.
package store

import (
	"sync"

	"tally/internal/core"
)

// Store is an ordered, id-unique transaction collection. Mutations are
// atomic with respect to readers: a snapshot never observes a partial
// replace.
type Store struct {
	mu    sync.RWMutex
	items []core.Transaction
	index map[string]int

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Replace swaps the whole collection, deduplicating by id (last write
// wins). Used after a full load from the remote store.
func (s *Store) Replace(items []core.Transaction) {
	s.mu.Lock()
	s.items = make([]core.Transaction, 0, len(items))
	s.index = make(map[string]int, len(items))
	for _, tx := range items {
		if pos, ok := s.index[tx.ID]; ok {
			s.items[pos] = tx
			continue
		}
		s.index[tx.ID] = len(s.items)
		s.items = append(s.items, tx)
	}
	s.mu.Unlock()
	s.notify()
}

// Prepend inserts a transaction at the front. If the id already
// exists, the existing entry is updated in place instead.
func (s *Store) Prepend(tx core.Transaction) {
	s.mu.Lock()
	if pos, ok := s.index[tx.ID]; ok {
		s.items[pos] = tx
		s.mu.Unlock()
		s.notify()
		return
	}
	s.items = append([]core.Transaction{tx}, s.items...)
	for id, pos := range s.index {
		s.index[id] = pos + 1
	}
	s.index[tx.ID] = 0
	s.mu.Unlock()
	s.notify()
}

// Update replaces the entry with the given id in place, preserving its
// position. Returns false if the id is no longer present, in which
// case nothing changes.
func (s *Store) Update(id string, tx core.Transaction) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	tx.ID = id
	s.items[pos] = tx
	s.mu.Unlock()
	s.notify()
	return true
}

// Remove deletes the entry with the given id. Returns false if absent.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// Get returns the entry with the given id, if present.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return core.Transaction{}, false
	}
	return s.items[pos], true
}

// Contains reports whether the id is present.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Snapshot returns a copy of the collection in its current order.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear empties the store. Called on logout and session change so no
// transactions leak across users.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[string]int)
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after every mutation. The returned
// function unregisters it; callers must invoke it on teardown.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func())
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
