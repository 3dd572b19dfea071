// Package catalog holds the pool of culture items available for
// presentation, restocked on demand from an external supplier.
package catalog

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/logger"
	"github.com/jfeo/artswipe/pkg/metrics"
)

// Default catalog configuration constants.
const (
	defaultBatchSize    = 10
	defaultFetchTimeout = 5 * time.Second
)

// Supplier is the external source of item batches. Implementations may
// fail; the catalog absorbs failures as empty batches.
type Supplier interface {
	FetchItemBatch(ctx context.Context, sampleSize int) ([]model.Item, error)
}

// Catalog owns the pool of not-yet-served items plus an index of every
// item it has ever seen. The supplier shuffles each batch server-side, so
// pool order carries no ranking meaning.
type Catalog struct {
	mu    sync.Mutex
	pool  []model.Item
	known map[string]model.Item

	supplier     Supplier
	batchSize    int
	fetchTimeout time.Duration

	// restock collapses concurrent EnsureStocked calls into one fetch.
	restock singleflight.Group

	rng *rand.Rand
	log logger.Logger
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithBatchSize sets how many items a restock requests from the supplier.
func WithBatchSize(size int) Option {
	return func(c *Catalog) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// WithFetchTimeout bounds a single supplier fetch.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Catalog) {
		if timeout > 0 {
			c.fetchTimeout = timeout
		}
	}
}

// WithRandomSource overrides the draw randomness, mainly for tests.
func WithRandomSource(rng *rand.Rand) Option {
	return func(c *Catalog) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// New constructs a catalog backed by the given supplier.
func New(supplier Supplier, opts ...Option) *Catalog {
	c := &Catalog{
		known:        make(map[string]model.Item),
		supplier:     supplier,
		batchSize:    defaultBatchSize,
		fetchTimeout: defaultFetchTimeout,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // sample diversification, not security
		log:          logger.Get().Named("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextUnseen pops a uniformly random item from the unserved pool.
// The second return is false when the pool is empty.
func (c *Catalog) NextUnseen(ctx context.Context) (model.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) == 0 {
		return model.Item{}, false
	}
	i := c.rng.Intn(len(c.pool))
	item := c.pool[i]
	c.pool[i] = c.pool[len(c.pool)-1]
	c.pool = c.pool[:len(c.pool)-1]
	metrics.UpdateCatalogPoolSize(len(c.pool))
	return item, true
}

// EnsureStocked fetches a fresh batch when the pool is empty. Concurrent
// callers share a single in-flight fetch and all observe its result.
// A failed or empty fetch returns ErrExhausted.
func (c *Catalog) EnsureStocked(ctx context.Context) error {
	c.mu.Lock()
	poolLen := len(c.pool)
	c.mu.Unlock()
	if poolLen > 0 {
		return nil
	}

	_, err, _ := c.restock.Do("restock", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()

		items, err := c.supplier.FetchItemBatch(fetchCtx, c.batchSize)
		if err != nil {
			c.log.Warn(ctx, "supplier fetch failed", logger.Error(err))
			return nil, ErrExhausted
		}
		if len(items) == 0 {
			c.log.Warn(ctx, "supplier returned no items")
			return nil, ErrExhausted
		}

		c.mu.Lock()
		c.pool = append(c.pool, items...)
		for _, item := range items {
			c.known[item.ID] = item
		}
		poolLen := len(c.pool)
		c.mu.Unlock()

		metrics.UpdateCatalogPoolSize(poolLen)
		c.log.Info(ctx, "catalog restocked", logger.Int("added", len(items)), logger.Int("pool", poolLen))
		return nil, nil
	})
	return err
}

// Item looks up a known item by id.
func (c *Catalog) Item(ctx context.Context, id string) (model.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.known[id]
	return item, ok
}

// Has reports whether the catalog has ever seen the item id.
func (c *Catalog) Has(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.known[id]
	return ok
}

// PoolSize returns the number of unserved items.
func (c *Catalog) PoolSize(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pool)
}

// KnownCount returns the number of items ever fetched.
func (c *Catalog) KnownCount(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.known)
}
