// Package affinity maintains pairwise agreement tallies between users.
//
// Tallies are kept for ordered pairs and updated in both directions on
// every overlapping choice, so tally(u,v) always mirrors tally(v,u).
package affinity

import (
	"context"
	"sync"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/metrics"
)

// Scorer is the single writer of affinity tallies. It never fails on
// arithmetic; only Restore can reject input.
type Scorer struct {
	mu      sync.RWMutex
	tallies map[string]map[string]model.Tally
}

// NewScorer constructs an empty scorer.
func NewScorer() *Scorer {
	return &Scorer{
		tallies: make(map[string]map[string]model.Tally),
	}
}

// Apply folds one recorded choice into the tallies. peers maps every user
// with a recorded choice on the same item to their decision; the choosing
// user is skipped if present. prev and existed carry the store's upsert
// result: on a flipped decision the stale contribution against every peer
// is reversed before the new one is applied.
func (s *Scorer) Apply(ctx context.Context, user string, decision bool, prev, existed bool, peers map[string]bool) {
	if existed && prev == decision {
		return // decision unchanged, tallies already account for it
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for peer, peerDecision := range peers {
		if peer == user {
			continue
		}
		if existed {
			s.bump(user, peer, prev == peerDecision, -1)
		}
		s.bump(user, peer, decision == peerDecision, 1)
	}
	metrics.UpdateTallyPairCount(s.pairCountLocked())
}

// bump adjusts one bucket by delta in both directions of the pair.
func (s *Scorer) bump(user, peer string, agree bool, delta int) {
	for _, pair := range [2][2]string{{user, peer}, {peer, user}} {
		a, b := pair[0], pair[1]
		if _, ok := s.tallies[a]; !ok {
			s.tallies[a] = make(map[string]model.Tally)
		}
		t := s.tallies[a][b]
		if agree {
			t.Agree += delta
		} else {
			t.Disagree += delta
		}
		s.tallies[a][b] = t
	}
}

// AffinityOf returns the signed score against every user the given user
// shares a tally with.
func (s *Scorer) AffinityOf(ctx context.Context, user string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.tallies[user]))
	for peer, t := range s.tallies[user] {
		out[peer] = t.Score()
	}
	return out
}

// TallyOf returns the tally for an ordered pair, zero-valued if absent.
func (s *Scorer) TallyOf(ctx context.Context, user, peer string) model.Tally {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tallies[user][peer]
}

// Snapshot returns a deep copy of all tallies keyed by user then peer.
func (s *Scorer) Snapshot(ctx context.Context) map[string]map[string]model.Tally {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]model.Tally, len(s.tallies))
	for user, peers := range s.tallies {
		cp := make(map[string]model.Tally, len(peers))
		for peer, t := range peers {
			cp[peer] = t
		}
		out[user] = cp
	}
	return out
}

// Restore replaces all tallies with the given snapshot.
func (s *Scorer) Restore(ctx context.Context, tallies map[string]map[string]model.Tally) error {
	for user, peers := range tallies {
		if user == "" {
			return ErrBadSnapshot
		}
		for peer := range peers {
			if peer == "" || peer == user {
				return ErrBadSnapshot
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tallies = make(map[string]map[string]model.Tally, len(tallies))
	for user, peers := range tallies {
		cp := make(map[string]model.Tally, len(peers))
		for peer, t := range peers {
			cp[peer] = t
		}
		s.tallies[user] = cp
	}
	metrics.UpdateTallyPairCount(s.pairCountLocked())
	return nil
}

// Clear drops every tally.
func (s *Scorer) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tallies = make(map[string]map[string]model.Tally)
	metrics.UpdateTallyPairCount(0)
}

func (s *Scorer) pairCountLocked() int {
	n := 0
	for _, peers := range s.tallies {
		n += len(peers)
	}
	return n
}
