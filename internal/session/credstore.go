package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tally/internal/log"
)

// CredStore persists small key/value entries with an optional expiry
// to a single JSON file. When the file cannot be read or written (no
// home dir, read-only filesystem, quota) it degrades to memory-only
// operation with a log line; it never fails the caller.
type CredStore struct {
	mu     sync.Mutex
	path   string
	mem    map[string]credEntry
	logger *log.Logger

	// set once a file operation has failed; keeps the log quiet on
	// repeated failures
	degraded bool
}

type credEntry struct {
	Value  json.RawMessage `json:"value"`
	Expiry int64           `json:"expiry,omitempty"` // unix, 0 = no expiry
}

// NewCredStore creates a store backed by the file at path. An empty
// path means memory-only from the start.
func NewCredStore(path string, logger *log.Logger) *CredStore {
	return &CredStore{
		path:     path,
		mem:      make(map[string]credEntry),
		logger:   logger.WithComponent(log.ComponentSession),
		degraded: path == "",
	}
}

// Set stores value under key with the given ttl (0 = no expiry).
func (s *CredStore) Set(key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("could not marshal credential entry", log.FieldKey, key, log.FieldError, err.Error())
		return
	}
	entry := credEntry{Value: data}
	if ttl > 0 {
		entry.Expiry = time.Now().Add(ttl).Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.load()
	entries[key] = entry
	s.save(entries)
}

// Get reads the entry under key into out. Absent and expired entries
// return false; expired entries are removed on the way.
func (s *CredStore) Get(key string, out any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entry, ok := entries[key]
	if !ok {
		return false
	}
	if entry.Expiry > 0 && time.Now().Unix() >= entry.Expiry {
		delete(entries, key)
		s.save(entries)
		return false
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		s.logger.Warn("corrupt credential entry", log.FieldKey, key, log.FieldError, err.Error())
		return false
	}
	return true
}

// Remove deletes the entry under key. Best effort.
func (s *CredStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.load()
	if _, ok := entries[key]; !ok {
		return
	}
	delete(entries, key)
	s.save(entries)
}

// load returns the current entries, preferring the file and falling
// back to the in-memory copy. Callers hold the lock.
func (s *CredStore) load() map[string]credEntry {
	if s.degraded {
		return s.mem
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.degrade("read", err)
		}
		return s.mem
	}
	entries := make(map[string]credEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		s.degrade("parse", err)
		return s.mem
	}
	s.mem = entries
	return entries
}

// save writes entries to the file; on failure the in-memory copy keeps
// the session alive for this process. Callers hold the lock.
func (s *CredStore) save(entries map[string]credEntry) {
	s.mem = entries
	if s.degraded {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		s.degrade("marshal", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.degrade("mkdir", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.degrade("write", err)
	}
}

func (s *CredStore) degrade(op string, err error) {
	if !s.degraded {
		s.logger.Warn("credential storage unavailable, continuing in memory only",
			log.FieldOperation, op, log.FieldError, err.Error())
	}
	s.degraded = true
}
