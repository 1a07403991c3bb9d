package session

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/log"
)

func credLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Component: "test"})
}

func TestCredStore_SetGetRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	s := NewCredStore(path, credLogger())

	s.Set("token", "abc", 0)

	var got string
	if !s.Get("token", &got) || got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}

	s.Remove("token")
	if s.Get("token", &got) {
		t.Error("removed key should be absent")
	}
}

func TestCredStore_Expiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	s := NewCredStore(path, credLogger())

	s.Set("token", "abc", 10*time.Millisecond)
	time.Sleep(1100 * time.Millisecond) // expiry has second resolution

	var got string
	if s.Get("token", &got) {
		t.Error("entry past expiry must be treated as absent")
	}
}

func TestCredStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	NewCredStore(path, credLogger()).Set("user", map[string]string{"name": "ada"}, 0)

	var got map[string]string
	if !NewCredStore(path, credLogger()).Get("user", &got) {
		t.Fatal("expected entry to survive restart")
	}
	if got["name"] != "ada" {
		t.Errorf("unexpected value: %v", got)
	}
}

func TestCredStore_DegradesToMemory(t *testing.T) {
	// a directory at the file path makes every write fail
	dir := t.TempDir()
	blocked := filepath.Join(dir, "creds.json")
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewCredStore(blocked, credLogger())
	s.Set("token", "abc", 0)

	var got string
	if !s.Get("token", &got) || got != "abc" {
		t.Error("store must keep working in memory when the file is unusable")
	}
}

func TestCredStore_EmptyPathIsMemoryOnly(t *testing.T) {
	s := NewCredStore("", credLogger())
	s.Set("k", 42, 0)
	var got int
	if !s.Get("k", &got) || got != 42 {
		t.Error("memory-only store should round-trip values")
	}
}

func TestCredStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewCredStore(path, credLogger())
	var got string
	if s.Get("token", &got) {
		t.Error("corrupt file should behave as absent, not crash")
	}
	// and the store still accepts writes
	s.Set("token", "abc", 0)
	if !s.Get("token", &got) {
		t.Error("store should keep working after corruption")
	}
}
