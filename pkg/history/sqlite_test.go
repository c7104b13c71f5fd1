package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	want := Entry{
		ID:         "attempt-1",
		Time:       time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		Trigger:    "reload",
		Outcome:    OutcomeFailure,
		Violations: []string{"[out_of_range] http.request_timeout", "[invalid_enum] output.format"},
	}
	if err := store.Record(ctx, want); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(entries))
	}

	got := entries[0]
	if got.ID != want.ID || got.Trigger != want.Trigger || got.Outcome != want.Outcome {
		t.Errorf("entry mismatch: got %+v, want %+v", got, want)
	}
	if !got.Time.Equal(want.Time) {
		t.Errorf("Time = %v, want %v", got.Time, want.Time)
	}
	if len(got.Violations) != 2 || got.Violations[0] != want.Violations[0] {
		t.Errorf("Violations = %v, want %v", got.Violations, want.Violations)
	}
}

func TestSQLiteStoreOrderingAndLimit(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		err := store.Record(ctx, Entry{
			ID:          string(rune('a' + i)),
			Time:        base.Add(time.Duration(i) * time.Second),
			Trigger:     "watch",
			Outcome:     OutcomeSuccess,
			SnapshotID:  "snap",
			Fingerprint: "fp",
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List(3) returned %d entries", len(entries))
	}
	if entries[0].ID != "e" || entries[1].ID != "d" || entries[2].ID != "c" {
		t.Errorf("entries not newest-first: %v", entries)
	}
}

func TestSQLiteStoreEmptyViolations(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, Entry{ID: "ok", Time: time.Now(), Trigger: "startup", Outcome: OutcomeSuccess}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries[0].Violations) != 0 {
		t.Errorf("Violations should be empty: %v", entries[0].Violations)
	}
}

func TestSQLiteStoreRejectsEmptyID(t *testing.T) {
	store := newTestSQLiteStore(t)
	if err := store.Record(context.Background(), Entry{Time: time.Now()}); err == nil {
		t.Error("expected error for empty entry ID")
	}
}

func TestSQLiteStoreEmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("expected error for empty database path")
	}
}

func TestSQLiteStoreCloseIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
