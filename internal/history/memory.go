package history

import (
	"context"
	"slices"
	"sync"
)

// maxEntriesPerSession caps memory use per session; older entries are dropped.
const maxEntriesPerSession = 100

// MemoryStore keeps history in memory (for development/testing).
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]Entry),
	}
}

// Record appends an entry to its session's history.
func (s *MemoryStore) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.entries[entry.SessionID], entry)
	if len(list) > maxEntriesPerSession {
		list = list[len(list)-maxEntriesPerSession:]
	}
	s.entries[entry.SessionID] = list
	return nil
}

// Recent returns up to limit entries for a session, newest first.
func (s *MemoryStore) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.RLock()
	list := slices.Clone(s.entries[sessionID])
	s.mu.RUnlock()

	slices.Reverse(list)
	if len(list) > limit {
		list = list[:limit]
	}
	if list == nil {
		list = []Entry{}
	}
	return list, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
