// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is a presentable culture artifact. The ID is an opaque key built
// from source prefix, collection and the supplier-local id, e.g.
// "natmus-frihedsmuseet-102132". Items are immutable once created.
type Item struct {
	ID    string `json:"asset_id"`
	Title string `json:"title"`
	Thumb string `json:"thumb"`
}

// ItemKey builds the canonical item id for a source/collection/local triple.
func ItemKey(source, collection, localID string) string {
	return fmt.Sprintf("%s-%s-%s", source, collection, localID)
}

// SplitItemKey decomposes an item id into its source, collection and local
// id parts. Collections never contain dashes; local ids may.
func SplitItemKey(id string) (source, collection, localID string, ok bool) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// Choice records a user's like/dislike on one item. At most one Choice
// exists per (user, item) pair; a later submission overwrites the decision
// and refreshes the timestamp.
type Choice struct {
	User     string    `json:"user"`
	ItemID   string    `json:"asset_id"`
	Decision bool      `json:"choice"`
	At       time.Time `json:"at"`
}

// Tally counts agreements and disagreements between an ordered pair of
// users across their overlapping choices.
type Tally struct {
	Agree    int `json:"same"`
	Disagree int `json:"not"`
}

// Score is the signed affinity derived from a tally.
func (t Tally) Score() int {
	return t.Agree - t.Disagree
}
