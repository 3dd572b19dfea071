// Package matchset derives threshold-filtered match lists from affinity
// scores and diffs them against the last list reported per user.
package matchset

import (
	"context"
	"sort"
	"sync"

	"github.com/jfeo/artswipe/pkg/metrics"
)

// DefaultThreshold is the affinity score a pair must strictly exceed to
// count as a match.
const DefaultThreshold = 3

// Result is the outcome of one match poll.
type Result struct {
	All  []string `json:"all_matches"`
	New  []string `json:"new_matches"`
	Lost []string `json:"lost_matches"`
}

// Differ owns the per-user snapshot of the last reported match set. It is
// the only reader and writer of those snapshots.
type Differ struct {
	mu        sync.Mutex
	snapshots map[string][]string
}

// NewDiffer constructs a differ with no snapshots.
func NewDiffer() *Differ {
	return &Differ{snapshots: make(map[string][]string)}
}

// CurrentMatches filters scores by threshold and orders the qualifying
// peers ascending by score, weakest match first. Ties break on peer id so
// the ordering is deterministic. It does not touch the snapshot.
func (d *Differ) CurrentMatches(ctx context.Context, threshold int, scores map[string]int) []string {
	matches := make([]string, 0, len(scores))
	for peer, score := range scores {
		if score > threshold {
			matches = append(matches, peer)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		si, sj := scores[matches[i]], scores[matches[j]]
		if si != sj {
			return si < sj
		}
		return matches[i] < matches[j]
	})
	return matches
}

// Poll computes the user's current match set, diffs it against the stored
// snapshot and replaces the snapshot, all under one lock acquisition so
// the returned diff always corresponds to the returned set. Concurrent
// polls for the same user race on the snapshot; the later write wins and
// each poll's diff is valid for its own emission.
func (d *Differ) Poll(ctx context.Context, user string, threshold int, scores map[string]int) Result {
	all := d.CurrentMatches(ctx, threshold, scores)

	d.mu.Lock()
	previous := d.snapshots[user]
	d.snapshots[user] = all
	d.mu.Unlock()

	prevSet := make(map[string]bool, len(previous))
	for _, peer := range previous {
		prevSet[peer] = true
	}
	curSet := make(map[string]bool, len(all))
	for _, peer := range all {
		curSet[peer] = true
	}

	// New matches inherit the ascending-score order of the full list;
	// lost matches keep the order they were last reported in.
	res := Result{All: all, New: []string{}, Lost: []string{}}
	for _, peer := range all {
		if !prevSet[peer] {
			res.New = append(res.New, peer)
		}
	}
	for _, peer := range previous {
		if !curSet[peer] {
			res.Lost = append(res.Lost, peer)
		}
	}

	metrics.RecordMatchPoll()
	metrics.RecordMatchesGained(len(res.New))
	metrics.RecordMatchesLost(len(res.Lost))
	return res
}

// Clear drops every stored snapshot.
func (d *Differ) Clear(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshots = make(map[string][]string)
}
