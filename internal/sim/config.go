// Package sim drives simulated swipe traffic against a running artswipe
// service and verifies match symmetry across users.
package sim

import "time"

// Config holds configuration for the swipe simulation.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumSwipers    int           // Number of simulated users
	SwipesPerUser int           // Choices each user submits
	Timeout       time.Duration // HTTP request timeout
	LikeBias      float64       // Probability a swipe is a like (0..1)
	LogFile       string        // Log file for simulation output
	Verbose       bool          // Enable verbose logging
}

// item mirrors the wire shape of a culture item.
type item struct {
	AssetID string `json:"asset_id"`
	Title   string `json:"title"`
	Thumb   string `json:"thumb"`
}

// matchResult mirrors the wire shape of a match poll.
type matchResult struct {
	All  []string `json:"all_matches"`
	New  []string `json:"new_matches"`
	Lost []string `json:"lost_matches"`
}

// Stats holds simulation statistics.
type Stats struct {
	SwipesAttempted    int
	SwipesRecorded     int
	SwipesUnavailable  int
	SwipesFailed       int
	MatchesObserved    int
	SymmetryViolations int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
