// Package repository defines the choice store interface and its
// in-memory and durable implementations.
package repository

import (
	"context"

	"github.com/jfeo/artswipe/internal/domain/model"
)

// Store provides read/write access to the sparse user x item choice matrix.
// All keys are composite (user, item); a later upsert on the same pair
// overwrites the decision and refreshes the timestamp.
type Store interface {
	// RecordChoice upserts a decision for (user, item). It returns the
	// previous decision and whether one existed, so callers can distinguish
	// insert from overwrite for tally bookkeeping.
	RecordChoice(ctx context.Context, user, itemID string, decision bool) (prev bool, existed bool, err error)

	// ChoicesOf returns the items a user has judged, mapped to decisions.
	ChoicesOf(ctx context.Context, user string) map[string]bool

	// ChoicesOn returns the users that judged an item, mapped to decisions.
	ChoicesOn(ctx context.Context, itemID string) map[string]bool

	// HasChoice reports whether (user, item) has a recorded decision.
	HasChoice(ctx context.Context, user, itemID string) bool

	// Users lists every user with at least one recorded choice.
	Users(ctx context.Context) []string

	// Count returns the total number of recorded choices.
	Count(ctx context.Context) int

	// Snapshot returns a deep copy of all choices keyed by user then item.
	Snapshot(ctx context.Context) map[string]map[string]model.Choice

	// Restore replaces the store contents with the given snapshot.
	Restore(ctx context.Context, choices map[string]map[string]model.Choice) error

	// Clear removes every recorded choice.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
