package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/despensa/internal/model"
)

type memoryEntry struct {
	expiry  time.Time
	pending model.PendingAction
}

// MemoryStore keeps pending actions in process memory. Values are copied on
// the way in and out.
type MemoryStore struct {
	entries   map[string]memoryEntry
	now       func() time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	ttl       time.Duration
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl and
// starts its cleanup goroutine. A non-positive ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		ttl:     ttl,
	}

	interval := time.Minute
	if ttl > 0 {
		interval = min(ttl, interval)
	}
	go s.cleanup(interval)

	return s
}

// Load returns a copy of the user's pending action.
func (s *MemoryStore) Load(_ context.Context, userID string) (*model.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return nil, nil
	}
	if s.expired(entry) {
		delete(s.entries, userID)
		return nil, nil
	}

	pending := entry.pending.Clone()
	return &pending, nil
}

// Save replaces the user's pending action.
func (s *MemoryStore) Save(_ context.Context, userID string, pending model.PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{pending: pending.Clone()}
	if s.ttl > 0 {
		entry.expiry = s.now().Add(s.ttl)
	}
	s.entries[userID] = entry
	return nil
}

// Clear drops the user's pending action.
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, userID)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiry.IsZero() && s.now().After(entry.expiry)
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, userID)
		}
	}
}
