package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if ARTSWIPE_CONFIG is set
//  3. env (prefix ARTSWIPE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ARTSWIPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ARTSWIPE_ADDR, ARTSWIPE_FETCH_BATCH_SIZE, ...
	// Map env keys like ARTSWIPE_FETCH_BATCH_SIZE -> fetch_batch_size (flat
	// keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ARTSWIPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "artswipe_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.SupplierURL == "" {
		return fmt.Errorf("%w: supplier_url must not be empty", ErrInvalidConfig)
	}
	if cfg.FetchBatchSize <= 0 {
		return fmt.Errorf("%w: fetch_batch_size must be positive", ErrInvalidConfig)
	}
	if cfg.MatchThreshold < 0 {
		return fmt.Errorf("%w: match_threshold must not be negative", ErrInvalidConfig)
	}
	switch cfg.StoreBackend {
	case "memory", "badger":
	default:
		return fmt.Errorf("%w: store_backend must be memory or badger, got %q", ErrInvalidConfig, cfg.StoreBackend)
	}
	if cfg.StoreBackend == "badger" && cfg.BadgerPath == "" {
		return fmt.Errorf("%w: badger_path must not be empty for the badger backend", ErrInvalidConfig)
	}
	return nil
}
