package history

import (
	"context"
	"sync"
	"time"
)

// Outcome classifies a resolution attempt.
type Outcome string

const (
	// OutcomeSuccess means a new snapshot was published.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure means the previous snapshot was retained.
	OutcomeFailure Outcome = "failure"
)

// Entry is one recorded resolution attempt.
type Entry struct {
	// ID uniquely identifies the attempt.
	ID string

	// Time is when the attempt completed.
	Time time.Time

	// Trigger names what started the attempt: "startup", "reload",
	// "override", "profile", "watch", or "schedule".
	Trigger string

	// Outcome is success or failure.
	Outcome Outcome

	// SnapshotID is the published snapshot's ID on success, empty on failure.
	SnapshotID string

	// Fingerprint is the published snapshot's fingerprint on success.
	Fingerprint string

	// Violations holds the rendered violations of a failed attempt and any
	// warnings of a successful one.
	Violations []string
}

// Store persists resolution history.
type Store interface {
	// Record appends one entry.
	Record(ctx context.Context, entry Entry) error

	// List returns the most recent entries, newest first, at most limit.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Close releases the store's resources.
	Close() error
}

// MemoryStore keeps history in memory with a bounded capacity. Oldest
// entries are discarded once the capacity is exceeded.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewMemoryStore creates an in-memory store keeping at most max entries.
// A non-positive max keeps 1000.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryStore{max: max}
}

// Record implements Store.
func (m *MemoryStore) Record(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
