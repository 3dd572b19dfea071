// Package selector picks the next item to present to a user, balancing
// novelty against overlap with other users' choices.
package selector

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/logger"
	"github.com/jfeo/artswipe/pkg/metrics"
)

// defaultRetries bounds the draws discarded per path before giving up.
const defaultRetries = 10

// Catalog is the item pool the exploration path draws from.
type Catalog interface {
	NextUnseen(ctx context.Context) (model.Item, bool)
	EnsureStocked(ctx context.Context) error
	Item(ctx context.Context, id string) (model.Item, bool)
}

// Choices is the read view of the choice matrix the selector needs.
type Choices interface {
	HasChoice(ctx context.Context, user, itemID string) bool
	Users(ctx context.Context) []string
	ChoicesOf(ctx context.Context, user string) map[string]bool
}

// path names a step of the selection chain, used for outcome metrics.
type path string

const (
	pathExplored    path = "explored"
	pathExploited   path = "exploited"
	pathUnavailable path = "unavailable"
)

// Selector implements the randomized explore/exploit selection chain:
// a fair coin picks the first path, the other path is the fallback, and
// both paths discard at most `retries` colliding draws. The chain never
// loops unbounded and never returns an item the user already judged.
type Selector struct {
	catalog Catalog
	choices Choices
	retries int

	mu  sync.Mutex // guards rng; rand.Rand is not goroutine-safe
	rng *rand.Rand

	log logger.Logger
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRetries sets the per-path collision retry bound.
func WithRetries(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithRandomSource overrides the randomness, mainly for tests.
func WithRandomSource(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New constructs a selector over the given catalog and choice view.
func New(catalog Catalog, choices Choices, opts ...Option) *Selector {
	s := &Selector{
		catalog: catalog,
		choices: choices,
		retries: defaultRetries,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection diversity, not security
		log:     logger.Get().Named("selector"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectItem picks the next item for the user or fails with
// ErrUnavailable when both paths are exhausted.
func (s *Selector) SelectItem(ctx context.Context, user string) (model.Item, error) {
	first, second := s.explore, s.exploit
	firstPath, secondPath := pathExplored, pathExploited
	if !s.coinFlip() {
		first, second = second, first
		firstPath, secondPath = secondPath, firstPath
	}

	if item, ok := first(ctx, user); ok {
		metrics.RecordSelectorOutcome(string(firstPath))
		return item, nil
	}
	if item, ok := second(ctx, user); ok {
		metrics.RecordSelectorOutcome(string(secondPath))
		return item, nil
	}

	metrics.RecordSelectorOutcome(string(pathUnavailable))
	s.log.Debug(ctx, "selection unavailable", logger.String("user", user))
	return model.Item{}, ErrUnavailable
}

// explore draws from the catalog's unseen pool, discarding up to the
// retry bound of items the user already judged, then escalates to one
// restock and a final draw.
func (s *Selector) explore(ctx context.Context, user string) (model.Item, bool) {
	for attempt := 0; attempt < s.retries; attempt++ {
		item, ok := s.catalog.NextUnseen(ctx)
		if !ok {
			break // pool empty, go straight to the restock escalation
		}
		if !s.choices.HasChoice(ctx, user, item.ID) {
			return item, true
		}
		metrics.RecordSelectorRetry()
	}

	if err := s.catalog.EnsureStocked(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Debug(ctx, "restock escalation failed", logger.Error(err))
		}
		return model.Item{}, false
	}
	item, ok := s.catalog.NextUnseen(ctx)
	if !ok || s.choices.HasChoice(ctx, user, item.ID) {
		return model.Item{}, false
	}
	return item, true
}

// exploit samples a random peer with recorded choices, then a random item
// from that peer's history, discarding collisions up to the retry bound.
func (s *Selector) exploit(ctx context.Context, user string) (model.Item, bool) {
	peers := make([]string, 0)
	for _, u := range s.choices.Users(ctx) {
		if u != user {
			peers = append(peers, u)
		}
	}
	if len(peers) == 0 {
		return model.Item{}, false
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		peer := peers[s.intn(len(peers))]
		itemID, ok := s.randomItemOf(ctx, peer)
		if !ok {
			continue
		}
		if s.choices.HasChoice(ctx, user, itemID) {
			metrics.RecordSelectorRetry()
			continue
		}
		if item, found := s.catalog.Item(ctx, itemID); found {
			return item, true
		}
		// Known only through the choice matrix (e.g. loaded state from a
		// previous run); serve the bare identity.
		return model.Item{ID: itemID}, true
	}
	return model.Item{}, false
}

// randomItemOf returns a uniformly random item id from a user's choices.
func (s *Selector) randomItemOf(ctx context.Context, user string) (string, bool) {
	items := s.choices.ChoicesOf(ctx, user)
	if len(items) == 0 {
		return "", false
	}
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids[s.intn(len(ids))], true
}

func (s *Selector) coinFlip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(2) == 0
}

func (s *Selector) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
