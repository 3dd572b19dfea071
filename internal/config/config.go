// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SupplierURL is the museum search endpoint item batches are fetched from.
	SupplierURL string `koanf:"supplier_url"`

	// SupplierImageURL is the base URL thumbnail links are built from.
	SupplierImageURL string `koanf:"supplier_image_url"`

	// FetchBatchSize sets how many items one supplier fetch asks for.
	FetchBatchSize int `koanf:"fetch_batch_size"`

	// FetchTimeoutMS bounds a single supplier fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// SelectorRetries bounds discarded draws per selection path.
	SelectorRetries int `koanf:"selector_retries"`

	// MatchThreshold is the affinity score a pair must exceed to match.
	MatchThreshold int `koanf:"match_threshold"`

	// StoreBackend selects the choice store: "memory" or "badger".
	StoreBackend string `koanf:"store_backend"`

	// BadgerPath is the on-disk directory for the badger backend.
	BadgerPath string `koanf:"badger_path"`

	// StatePath is where SaveState writes and LoadState reads the
	// JSON state document.
	StatePath string `koanf:"state_path"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:         "info",
		Addr:             ":8080",
		SupplierURL:      "https://api.natmus.dk/search/public/raw",
		SupplierImageURL: "https://samlinger.natmus.dk/image",
		FetchBatchSize:   10,
		FetchTimeoutMS:   5000,
		SelectorRetries:  10,
		MatchThreshold:   3,
		StoreBackend:     "memory",
		BadgerPath:       "artswipe.badger",
		StatePath:        "dump.json",
	}
	return c
}
