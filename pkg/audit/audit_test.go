package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func newEvent(device, runMode string, success bool) *Event {
	e := NewEvent()
	e.Actor = "noc"
	e.Device = device
	e.RunMode = runMode
	e.Success = success
	e.CommandCount = 3
	return e
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := NewFileLogger(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer l.Close()

	if err := l.Log(newEvent("olt-ny-01", "live", true)); err != nil {
		t.Fatal(err)
	}
	if err := l.Log(newEvent("olt-ny-02", "simulate", true)); err != nil {
		t.Fatal(err)
	}
	if err := l.Log(newEvent("olt-ny-01", "live", false)); err != nil {
		t.Fatal(err)
	}

	events, err := l.Query(Filter{Device: "olt-ny-01"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	failures, err := l.Query(Filter{Device: "olt-ny-01", FailureOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0].Success {
		t.Errorf("FailureOnly query returned %d events", len(failures))
	}
}

func TestFileLoggerLimitOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := NewFileLogger(path, RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		if err := l.Log(newEvent("d", "live", true)); err != nil {
			t.Fatal(err)
		}
	}

	events, err := l.Query(Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestFileLoggerQueryMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := NewFileLogger(path, RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	events, err := l.Query(Filter{})
	if err != nil {
		t.Fatalf("Query on empty log: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from empty log", len(events))
	}
}

func TestMemoryLoggerBounded(t *testing.T) {
	l := NewMemoryLogger(3)
	for i := 0; i < 5; i++ {
		e := newEvent("d", "live", true)
		e.CommandCount = i
		if err := l.Log(e); err != nil {
			t.Fatal(err)
		}
	}

	events, err := l.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want cap of 3", len(events))
	}
	// Newest first; oldest two evicted.
	if events[0].CommandCount != 4 || events[2].CommandCount != 2 {
		t.Errorf("order/eviction wrong: %d..%d", events[0].CommandCount, events[2].CommandCount)
	}
}

func TestMemoryLoggerTimeFilter(t *testing.T) {
	l := NewMemoryLogger(10)
	old := newEvent("d", "live", true)
	old.Timestamp = time.Now().Add(-2 * time.Hour)
	l.Log(old)
	l.Log(newEvent("d", "live", true))

	events, err := l.Query(Filter{StartTime: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1 recent", len(events))
	}
}

func TestEventIDsUnique(t *testing.T) {
	a, b := NewEvent(), NewEvent()
	if a.ID == b.ID || a.ID == "" {
		t.Errorf("event IDs must be unique and non-empty: %q %q", a.ID, b.ID)
	}
}
