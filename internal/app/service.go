// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jfeo/artswipe/internal/adapters/repository"
	"github.com/jfeo/artswipe/internal/adapters/supplier"
	"github.com/jfeo/artswipe/internal/domain/affinity"
	"github.com/jfeo/artswipe/internal/domain/catalog"
	"github.com/jfeo/artswipe/internal/domain/matchset"
	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/internal/domain/selector"
	"github.com/jfeo/artswipe/pkg/logger"
)

// Store backend names accepted by WithStoreBackend.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Service wires the choice store, affinity scorer, match differ, item
// catalog and selector behind the operations the HTTP API needs.
//
// The mutex couples every store write to its scorer update so tallies
// never drift from the choice matrix. Reads of either side take the same
// lock; the catalog synchronizes itself.
type Service struct {
	mu sync.Mutex

	// Core components
	store    repository.Store
	scorer   *affinity.Scorer
	differ   *matchset.Differ
	catalog  *catalog.Catalog
	selector *selector.Selector
	supplier catalog.Supplier

	// Configuration
	supplierURL      string
	supplierImageURL string
	fetchBatchSize   int
	fetchTimeout     time.Duration
	selectorRetries  int
	matchThreshold   int
	storeBackend     string
	badgerPath       string
	statePath        string
	rng              *rand.Rand

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSupplier injects the item supplier, mainly for tests.
func WithSupplier(sup catalog.Supplier) Option {
	return func(s *Service) {
		if sup != nil {
			s.supplier = sup
		}
	}
}

// WithStore injects the choice store, mainly for tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSupplierEndpoints sets the museum search and thumbnail base URLs.
func WithSupplierEndpoints(searchURL, imageURL string) Option {
	return func(s *Service) {
		if searchURL != "" {
			s.supplierURL = searchURL
		}
		if imageURL != "" {
			s.supplierImageURL = imageURL
		}
	}
}

// WithFetchBatchSize sets how many items one supplier fetch asks for.
func WithFetchBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.fetchBatchSize = size
		}
	}
}

// WithFetchTimeout bounds a single supplier fetch.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.fetchTimeout = timeout
		}
	}
}

// WithSelectorRetries bounds discarded draws per selection path.
func WithSelectorRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.selectorRetries = n
		}
	}
}

// WithMatchThreshold sets the score a pair must strictly exceed to match.
func WithMatchThreshold(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.matchThreshold = n
		}
	}
}

// WithStoreBackend selects the choice store backend and, for badger, its
// on-disk path.
func WithStoreBackend(backend, badgerPath string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
		if badgerPath != "" {
			s.badgerPath = badgerPath
		}
	}
}

// WithStatePath sets where SaveState writes and LoadState reads.
func WithStatePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.statePath = path
		}
	}
}

// WithRandomSource overrides the randomness of catalog and selector,
// mainly for tests.
func WithRandomSource(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		supplierURL:      "https://api.natmus.dk/search/public/raw",
		supplierImageURL: "https://samlinger.natmus.dk/image",
		fetchBatchSize:   10,
		fetchTimeout:     5 * time.Second,
		selectorRetries:  10,
		matchThreshold:   matchset.DefaultThreshold,
		storeBackend:     BackendMemory,
		statePath:        "dump.json",
		logger:           nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matching service...")

	if s.store == nil {
		switch s.storeBackend {
		case BackendBadger:
			store, err := repository.OpenBadgerStore(ctx, s.badgerPath)
			if err != nil {
				return fmt.Errorf("open badger store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using badger choice store", logger.String("path", s.badgerPath))
		default:
			s.store = repository.NewMemStore()
			s.logger.Info(ctx, "using in-memory choice store")
		}
	}

	if s.supplier == nil {
		s.supplier = supplier.NewNatmus(s.supplierURL, s.supplierImageURL)
	}

	s.scorer = affinity.NewScorer()
	s.differ = matchset.NewDiffer()

	catalogOpts := []catalog.Option{
		catalog.WithBatchSize(s.fetchBatchSize),
		catalog.WithFetchTimeout(s.fetchTimeout),
	}
	selectorOpts := []selector.Option{
		selector.WithRetries(s.selectorRetries),
	}
	if s.rng != nil {
		catalogOpts = append(catalogOpts, catalog.WithRandomSource(s.rng))
		selectorOpts = append(selectorOpts, selector.WithRandomSource(s.rng))
	}
	s.catalog = catalog.New(s.supplier, catalogOpts...)
	s.selector = selector.New(s.catalog, s.store, selectorOpts...)

	// Warm the pool so the first selection does not pay for a fetch. A
	// failure here is not fatal; the selector escalates to a restock on
	// demand.
	if err := s.catalog.EnsureStocked(ctx); err != nil {
		s.logger.Warn(ctx, "initial catalog stock failed", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.String("backend", s.storeBackend),
		logger.Int("fetchBatchSize", s.fetchBatchSize),
		logger.Int("matchThreshold", s.matchThreshold),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping matching service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "close choice store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "matching service stopped")
}

// NextItem picks the next item to present to the user.
func (s *Service) NextItem(ctx context.Context, user string) (model.Item, error) {
	return s.selector.SelectItem(ctx, user)
}

// RecordChoice upserts the user's decision on an item and folds it into
// the affinity tallies in the same critical section.
func (s *Service) RecordChoice(ctx context.Context, user, itemID string, decision bool) error {
	if !s.knownItem(ctx, itemID) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed, err := s.store.RecordChoice(ctx, user, itemID, decision)
	if err != nil {
		return fmt.Errorf("record choice: %w", err)
	}
	peers := s.store.ChoicesOn(ctx, itemID)
	s.scorer.Apply(ctx, user, decision, prev, existed, peers)

	s.logger.Debug(ctx, "choice recorded",
		logger.String("user", user),
		logger.String("item", itemID),
		logger.Bool("decision", decision),
		logger.Bool("overwrite", existed),
	)
	return nil
}

// knownItem accepts ids the catalog has fetched plus ids that appear in
// the choice matrix, which covers items carried over through LoadState.
func (s *Service) knownItem(ctx context.Context, itemID string) bool {
	if s.catalog.Has(ctx, itemID) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.store.ChoicesOn(ctx, itemID)) > 0
}

// PollMatches reports the user's current matches and the delta since
// their previous poll. A negative threshold selects the configured one.
func (s *Service) PollMatches(ctx context.Context, user string, threshold int) matchset.Result {
	if threshold < 0 {
		threshold = s.matchThreshold
	}
	s.mu.Lock()
	scores := s.scorer.AffinityOf(ctx, user)
	s.mu.Unlock()
	return s.differ.Poll(ctx, user, threshold, scores)
}

// DebugState is the full internal state view served by the debug endpoint.
type DebugState struct {
	Users        []string                           `json:"users"`
	ChoiceCount  int                                `json:"choice_count"`
	Choices      map[string]map[string]model.Choice `json:"choices"`
	Tallies      map[string]map[string]model.Tally  `json:"tallies"`
	CatalogPool  int                                `json:"catalog_pool"`
	CatalogKnown int                                `json:"catalog_known"`
}

// Dump returns a deep copy of the current state for inspection.
func (s *Service) Dump(ctx context.Context) DebugState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return DebugState{
		Users:        s.store.Users(ctx),
		ChoiceCount:  s.store.Count(ctx),
		Choices:      s.store.Snapshot(ctx),
		Tallies:      s.scorer.Snapshot(ctx),
		CatalogPool:  s.catalog.PoolSize(ctx),
		CatalogKnown: s.catalog.KnownCount(ctx),
	}
}

// Reset clears choices, tallies and match snapshots. The catalog keeps
// its pool; already fetched items stay servable.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear choice store: %w", err)
	}
	s.scorer.Clear(ctx)
	s.differ.Clear(ctx)

	s.logger.Info(ctx, "state reset")
	return nil
}
