package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/metrics"
)

// MemStore implements Store with plain in-memory maps. It keeps two
// indexes over the same choices: by user (for selector exclusion) and by
// item (for scorer fan-out).
type MemStore struct {
	mu     sync.RWMutex
	byUser map[string]map[string]model.Choice
	byItem map[string]map[string]bool
	closed bool

	now func() time.Time
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemStore constructs an empty in-memory choice store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		byUser: make(map[string]map[string]model.Choice),
		byItem: make(map[string]map[string]bool),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordChoice upserts a decision for (user, item).
func (s *MemStore) RecordChoice(ctx context.Context, user, itemID string, decision bool) (bool, bool, error) {
	if user == "" || itemID == "" {
		return false, false, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, false, ErrClosed
	}

	var prev, existed bool
	if items, ok := s.byUser[user]; ok {
		if c, ok := items[itemID]; ok {
			prev, existed = c.Decision, true
		}
	} else {
		s.byUser[user] = make(map[string]model.Choice)
	}

	s.byUser[user][itemID] = model.Choice{
		User:     user,
		ItemID:   itemID,
		Decision: decision,
		At:       s.now(),
	}
	if _, ok := s.byItem[itemID]; !ok {
		s.byItem[itemID] = make(map[string]bool)
	}
	s.byItem[itemID][user] = decision

	if existed {
		metrics.RecordChoiceOverwritten()
	} else {
		metrics.RecordChoiceInserted()
		metrics.UpdateChoiceCount(s.countLocked())
		metrics.UpdateUserCount(len(s.byUser))
	}
	return prev, existed, nil
}

// ChoicesOf returns a copy of the user's item -> decision mapping.
func (s *MemStore) ChoicesOf(ctx context.Context, user string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.byUser[user]))
	for itemID, c := range s.byUser[user] {
		out[itemID] = c.Decision
	}
	return out
}

// ChoicesOn returns a copy of the item's user -> decision mapping.
func (s *MemStore) ChoicesOn(ctx context.Context, itemID string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.byItem[itemID]))
	for user, decision := range s.byItem[itemID] {
		out[user] = decision
	}
	return out
}

// HasChoice reports whether (user, item) has a recorded decision.
func (s *MemStore) HasChoice(ctx context.Context, user, itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUser[user][itemID]
	return ok
}

// Users lists every user with at least one recorded choice.
func (s *MemStore) Users(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.byUser))
	for user, items := range s.byUser {
		if len(items) > 0 {
			users = append(users, user)
		}
	}
	return users
}

// Count returns the total number of recorded choices.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

func (s *MemStore) countLocked() int {
	n := 0
	for _, items := range s.byUser {
		n += len(items)
	}
	return n
}

// Snapshot returns a deep copy of all choices keyed by user then item.
func (s *MemStore) Snapshot(ctx context.Context) map[string]map[string]model.Choice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]model.Choice, len(s.byUser))
	for user, items := range s.byUser {
		cp := make(map[string]model.Choice, len(items))
		for itemID, c := range items {
			cp[itemID] = c
		}
		out[user] = cp
	}
	return out
}

// Restore replaces the store contents with the given snapshot.
func (s *MemStore) Restore(ctx context.Context, choices map[string]map[string]model.Choice) error {
	for user, items := range choices {
		if user == "" {
			return ErrBadSnapshot
		}
		for itemID := range items {
			if itemID == "" {
				return ErrBadSnapshot
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.byUser = make(map[string]map[string]model.Choice, len(choices))
	s.byItem = make(map[string]map[string]bool)
	for user, items := range choices {
		cp := make(map[string]model.Choice, len(items))
		for itemID, c := range items {
			c.User, c.ItemID = user, itemID
			cp[itemID] = c
			if _, ok := s.byItem[itemID]; !ok {
				s.byItem[itemID] = make(map[string]bool)
			}
			s.byItem[itemID][user] = c.Decision
		}
		s.byUser[user] = cp
	}

	metrics.UpdateChoiceCount(s.countLocked())
	metrics.UpdateUserCount(len(s.byUser))
	return nil
}

// Clear removes every recorded choice.
func (s *MemStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.byUser = make(map[string]map[string]model.Choice)
	s.byItem = make(map[string]map[string]bool)
	metrics.UpdateChoiceCount(0)
	metrics.UpdateUserCount(0)
	return nil
}

// Close marks the store closed. Further writes fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
