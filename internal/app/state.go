package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/natefinch/atomic"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/logger"
	"github.com/jfeo/artswipe/pkg/metrics"
)

// stateDocument is the on-disk JSON shape of a state dump. Version guards
// against silently loading a document written by an incompatible build.
type stateDocument struct {
	Version int                                `json:"version"`
	SavedAt time.Time                          `json:"saved_at"`
	Choices map[string]map[string]model.Choice `json:"choices"`
	Tallies map[string]map[string]model.Tally  `json:"tallies"`
}

const stateVersion = 1

// SaveState writes choices and tallies to the given path, or to the
// configured state path when path is empty. The write is atomic; readers
// never observe a half-written document.
func (s *Service) SaveState(ctx context.Context, path string) error {
	if path == "" {
		path = s.statePath
	}

	s.mu.Lock()
	doc := stateDocument{
		Version: stateVersion,
		SavedAt: time.Now().UTC(),
		Choices: s.store.Snapshot(ctx),
		Tallies: s.scorer.Snapshot(ctx),
	}
	s.mu.Unlock()

	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		metrics.RecordErrorByComponent("state", "save_failed")
		return fmt.Errorf("write state file: %w", err)
	}

	metrics.RecordStateSave()
	s.logger.Info(ctx, "state saved",
		logger.String("path", path),
		logger.Int("bytes", len(buf)),
	)
	return nil
}

// LoadState replaces choices and tallies with the document at the given
// path, or at the configured state path when path is empty. A failure at
// any stage leaves the running state untouched. Match snapshots are
// cleared so the next poll reports against the loaded state.
func (s *Service) LoadState(ctx context.Context, path string) error {
	if path == "" {
		path = s.statePath
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		metrics.RecordStateLoadError()
		return fmt.Errorf("read state file: %w", err)
	}

	var doc stateDocument
	if err := json.Unmarshal(buf, &doc); err != nil {
		metrics.RecordStateLoadError()
		return fmt.Errorf("%w: %w", ErrBadStateFile, err)
	}
	if doc.Version != stateVersion {
		metrics.RecordStateLoadError()
		return fmt.Errorf("%w: unsupported version %d", ErrBadStateFile, doc.Version)
	}
	if err := validateState(&doc); err != nil {
		metrics.RecordStateLoadError()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Both restores validated above, so neither can fail halfway through
	// a replacement.
	if err := s.store.Restore(ctx, doc.Choices); err != nil {
		metrics.RecordStateLoadError()
		return fmt.Errorf("restore choices: %w", err)
	}
	if err := s.scorer.Restore(ctx, doc.Tallies); err != nil {
		metrics.RecordStateLoadError()
		return fmt.Errorf("restore tallies: %w", err)
	}
	s.differ.Clear(ctx)

	metrics.RecordStateLoad()
	s.logger.Info(ctx, "state loaded",
		logger.String("path", path),
		logger.String("savedAt", doc.SavedAt.Format(time.RFC3339)),
		logger.Int("users", len(doc.Choices)),
	)
	return nil
}

// validateState rejects documents the restores would refuse, before any
// running state is replaced.
func validateState(doc *stateDocument) error {
	for user, items := range doc.Choices {
		if user == "" {
			return fmt.Errorf("%w: empty user key in choices", ErrBadStateFile)
		}
		for itemID := range items {
			if itemID == "" {
				return fmt.Errorf("%w: empty item key for user %s", ErrBadStateFile, user)
			}
		}
	}
	for user, peers := range doc.Tallies {
		if user == "" {
			return fmt.Errorf("%w: empty user key in tallies", ErrBadStateFile)
		}
		for peer := range peers {
			if peer == "" || peer == user {
				return fmt.Errorf("%w: bad tally pair %s/%s", ErrBadStateFile, user, peer)
			}
		}
	}
	return nil
}
