// Package metrics provides Prometheus metrics for the artswipe backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the artswipe service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Choice matrix metrics
	choicesInserted    prometheus.Counter
	choicesOverwritten prometheus.Counter
	choiceCount        prometheus.Gauge
	userCount          prometheus.Gauge
	tallyPairCount     prometheus.Gauge

	// Catalog and supplier metrics
	catalogPoolSize     prometheus.Gauge
	catalogFetches      prometheus.Counter
	catalogFetchErrors  prometheus.Counter
	catalogItemsFetched prometheus.Counter
	supplierBreakerOpen prometheus.Gauge

	// Selector metrics
	selectorOutcomes *prometheus.CounterVec
	selectorRetries  prometheus.Counter

	// Match metrics
	matchPolls    prometheus.Counter
	matchesGained prometheus.Counter
	matchesLost   prometheus.Counter

	// Persistence metrics
	stateSaves      prometheus.Counter
	stateLoads      prometheus.Counter
	stateLoadErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "artswipe",
		subsystem:        "backend",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.choicesInserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choices_inserted_total",
		Help:      "Total number of first-time choices recorded",
	})
	m.choicesOverwritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choices_overwritten_total",
		Help:      "Total number of choices that overwrote a previous decision",
	})
	m.choiceCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choice_count",
		Help:      "Current number of recorded (user, item) choices",
	})
	m.userCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "user_count",
		Help:      "Current number of users with at least one choice",
	})
	m.tallyPairCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tally_pair_count",
		Help:      "Current number of ordered user pairs with a tally",
	})

	m.catalogPoolSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_pool_size",
		Help:      "Items in the catalog pool not yet served",
	})
	m.catalogFetches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_fetches_total",
		Help:      "Total number of supplier fetch attempts",
	})
	m.catalogFetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_fetch_errors_total",
		Help:      "Total number of failed supplier fetches",
	})
	m.catalogItemsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_items_fetched_total",
		Help:      "Total number of items appended to the catalog pool",
	})
	m.supplierBreakerOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "supplier_breaker_open",
		Help:      "1 when the supplier circuit breaker is open, 0 otherwise",
	})

	m.selectorOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "selector_outcomes_total",
			Help:      "Selection outcomes by path (explored, exploited, unavailable)",
		},
		[]string{"outcome"},
	)
	m.selectorRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selector_retries_total",
		Help:      "Total number of draws discarded because the user already judged the item",
	})

	m.matchPolls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_polls_total",
		Help:      "Total number of match list polls",
	})
	m.matchesGained = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_gained_total",
		Help:      "Total matches reported as new across all polls",
	})
	m.matchesLost = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_lost_total",
		Help:      "Total matches reported as lost across all polls",
	})

	m.stateSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_saves_total",
		Help:      "Total number of successful state saves",
	})
	m.stateLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_loads_total",
		Help:      "Total number of successful state loads",
	})
	m.stateLoadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "state_load_errors_total",
		Help:      "Total number of rejected state loads",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordChoiceInserted increments the first-time choice counter.
func RecordChoiceInserted() {
	globalManager.choicesInserted.Inc()
}

// RecordChoiceOverwritten increments the overwrite counter.
func RecordChoiceOverwritten() {
	globalManager.choicesOverwritten.Inc()
}

// UpdateChoiceCount sets the current number of recorded choices.
func UpdateChoiceCount(count int) {
	globalManager.choiceCount.Set(float64(count))
}

// UpdateUserCount sets the current number of active users.
func UpdateUserCount(count int) {
	globalManager.userCount.Set(float64(count))
}

// UpdateTallyPairCount sets the current number of ordered tally pairs.
func UpdateTallyPairCount(count int) {
	globalManager.tallyPairCount.Set(float64(count))
}

// UpdateCatalogPoolSize sets the number of unserved items in the pool.
func UpdateCatalogPoolSize(size int) {
	globalManager.catalogPoolSize.Set(float64(size))
}

// RecordCatalogFetch increments the supplier fetch counter.
func RecordCatalogFetch() {
	globalManager.catalogFetches.Inc()
}

// RecordCatalogFetchError increments the failed fetch counter.
func RecordCatalogFetchError() {
	globalManager.catalogFetchErrors.Inc()
}

// RecordCatalogItemsFetched adds to the fetched item counter.
func RecordCatalogItemsFetched(n int) {
	globalManager.catalogItemsFetched.Add(float64(n))
}

// UpdateSupplierBreakerOpen flags whether the supplier breaker is open.
func UpdateSupplierBreakerOpen(open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	globalManager.supplierBreakerOpen.Set(v)
}

// RecordSelectorOutcome increments the counter for a selection outcome.
func RecordSelectorOutcome(outcome string) {
	globalManager.selectorOutcomes.WithLabelValues(outcome).Inc()
}

// RecordSelectorRetry increments the discarded-draw counter.
func RecordSelectorRetry() {
	globalManager.selectorRetries.Inc()
}

// RecordMatchPoll increments the match poll counter.
func RecordMatchPoll() {
	globalManager.matchPolls.Inc()
}

// RecordMatchesGained adds to the gained match counter.
func RecordMatchesGained(n int) {
	globalManager.matchesGained.Add(float64(n))
}

// RecordMatchesLost adds to the lost match counter.
func RecordMatchesLost(n int) {
	globalManager.matchesLost.Add(float64(n))
}

// RecordStateSave increments the successful save counter.
func RecordStateSave() {
	globalManager.stateSaves.Inc()
}

// RecordStateLoad increments the successful load counter.
func RecordStateLoad() {
	globalManager.stateLoads.Inc()
}

// RecordStateLoadError increments the rejected load counter.
func RecordStateLoadError() {
	globalManager.stateLoadErrors.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry used for the /metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
