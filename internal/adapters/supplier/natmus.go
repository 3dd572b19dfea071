// Package supplier implements the external museum search API client that
// feeds the item catalog.
package supplier

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/logger"
	"github.com/jfeo/artswipe/pkg/metrics"
)

// sourcePrefix tags item ids originating from the National Museum API.
const sourcePrefix = "natmus"

// Breaker thresholds. The breaker opens after a run of consecutive
// failures so a dead upstream fails fast instead of eating the fetch
// timeout on every restock attempt.
const (
	breakerConsecutiveFailures = 5
	breakerInterval            = time.Minute
	breakerTimeout             = 30 * time.Second
)

// Natmus fetches randomized asset batches from the National Museum
// search API. It implements the catalog's Supplier contract.
type Natmus struct {
	searchURL string
	imageURL  string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]model.Item]
	rng       *rand.Rand
	log       logger.Logger
}

// Option applies a configuration option to the Natmus client.
type Option func(*Natmus)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Natmus) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRandomSource overrides the seed source for the random_score query.
func WithRandomSource(rng *rand.Rand) Option {
	return func(c *Natmus) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// NewNatmus constructs a client for the given search and thumbnail URLs.
func NewNatmus(searchURL, imageURL string, opts ...Option) *Natmus {
	c := &Natmus{
		searchURL: searchURL,
		imageURL:  imageURL,
		client:    &http.Client{},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // query diversification, not security
		log:       logger.Get().Named("natmus"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]model.Item](gobreaker.Settings{
		Name:     "natmus-search",
		Interval: breakerInterval,
		Timeout:  breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateSupplierBreakerOpen(to == gobreaker.StateOpen)
			c.log.Warn(context.Background(), "supplier breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c
}

// searchQuery mirrors the Elasticsearch raw search body the museum API
// expects: filter on assets, shuffle with a per-request random_score seed.
func searchQuery(size int, seed int64) map[string]any {
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": map[string]any{
					"term": map[string]any{"type": "asset"},
				},
				"should": map[string]any{
					"function_score": map[string]any{
						"functions": []any{
							map[string]any{"random_score": map[string]any{"seed": seed}},
						},
						"score_mode": "sum",
					},
				},
			},
		},
	}
}

// searchResponse covers the part of the search payload we consume.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				ID         json.Number `json:"id"`
				Collection string      `json:"collection"`
				Text       map[string]struct {
					Title string `json:"title"`
				} `json:"text"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchItemBatch requests up to sampleSize randomized items. Any transport
// or decode failure is returned as an error; callers absorb it as an empty
// batch.
func (c *Natmus) FetchItemBatch(ctx context.Context, sampleSize int) ([]model.Item, error) {
	metrics.RecordCatalogFetch()

	items, err := c.breaker.Execute(func() ([]model.Item, error) {
		return c.fetch(ctx, sampleSize)
	})
	if err != nil {
		metrics.RecordCatalogFetchError()
		metrics.RecordErrorByComponent("supplier", "fetch_failed")
		return nil, err
	}
	metrics.RecordCatalogItemsFetched(len(items))
	return items, nil
}

func (c *Natmus) fetch(ctx context.Context, sampleSize int) ([]model.Item, error) {
	seed := c.rng.Int63n(math.MaxUint32-1) + 1
	body, err := json.Marshal(searchQuery(sampleSize, seed))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %w", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrBadResponse, err)
	}

	items := make([]model.Item, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		src := hit.Source
		if src.ID.String() == "" || src.Collection == "" {
			continue // skip hits we cannot key
		}
		items = append(items, model.Item{
			ID:    model.ItemKey(sourcePrefix, src.Collection, src.ID.String()),
			Title: src.Text["da-DK"].Title,
			Thumb: fmt.Sprintf("%s/%s/%s", c.imageURL, src.Collection, src.ID.String()),
		})
	}
	c.log.Debug(ctx, "fetched item batch",
		logger.Int("requested", sampleSize),
		logger.Int("received", len(items)),
	)
	return items, nil
}
