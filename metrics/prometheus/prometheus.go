package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry

	connectionsClosed prometheus.Counter
	connectionsError  *prometheus.CounterVec
	connectionsOpened prometheus.Counter
	resolutions       *prometheus.CounterVec
	resolutionTimer   *prometheus.HistogramVec
	fetches           *prometheus.CounterVec
	fetchTimer        *prometheus.HistogramVec
	wrapperDepth      prometheus.Histogram
	trackedErrors     *prometheus.CounterVec
	capping           *prometheus.CounterVec
	documentCache     *prometheus.CounterVec
}

const (
	connectionErrorLabel = "connection_error"
	sourceLabel          = "source"
	statusLabel          = "status"
	strategyLabel        = "strategy"
	codeLabel            = "code"
	outcomeLabel         = "outcome"
	cacheResultLabel     = "cache_result"
)

const (
	connectionAcceptError = "accept"
	connectionCloseError  = "close"
	cacheHit              = "hit"
	cacheMiss             = "miss"
)

// NewMetrics initializes a new Prometheus metrics instance with preloaded label values.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	standardTimeBuckets := []float64{0.05, 0.1, 0.15, 0.20, 0.25, 0.3, 0.4, 0.5, 0.75, 1, 2, 5}
	depthBuckets := []float64{0, 1, 2, 3, 4, 5, 6, 8, 10}

	metrics := Metrics{}
	metrics.Registry = prometheus.NewRegistry()

	metrics.connectionsClosed = newCounterWithoutLabels(cfg, metrics.Registry,
		"connections_closed",
		"Count of successful connections closed to the resolver.")

	metrics.connectionsError = newCounter(cfg, metrics.Registry,
		"connections_error",
		"Count of errors for connection open and close attempts to the resolver labeled by type.",
		[]string{connectionErrorLabel})

	metrics.connectionsOpened = newCounterWithoutLabels(cfg, metrics.Registry,
		"connections_opened",
		"Count of successful connections opened to the resolver.")

	metrics.resolutions = newCounter(cfg, metrics.Registry,
		"resolutions",
		"Count of top-level VAST resolutions labeled by source and status.",
		[]string{sourceLabel, statusLabel})

	metrics.resolutionTimer = newHistogramVec(cfg, metrics.Registry,
		"resolution_time_seconds",
		"Seconds to resolve a whole wrapper chain labeled by source.",
		[]string{sourceLabel},
		standardTimeBuckets)

	metrics.fetches = newCounter(cfg, metrics.Registry,
		"fetches",
		"Count of VAST document fetches labeled by strategy and status.",
		[]string{strategyLabel, statusLabel})

	metrics.fetchTimer = newHistogramVec(cfg, metrics.Registry,
		"fetch_time_seconds",
		"Seconds to fetch one VAST document labeled by strategy.",
		[]string{strategyLabel},
		standardTimeBuckets)

	metrics.wrapperDepth = newHistogram(cfg, metrics.Registry,
		"wrapper_depth",
		"Wrapper depth of every fetched VAST document.",
		depthBuckets)

	metrics.trackedErrors = newCounter(cfg, metrics.Registry,
		"tracked_errors",
		"Count of VAST errors reported to error tracking URLs labeled by VAST error code.",
		[]string{codeLabel})

	metrics.capping = newCounter(cfg, metrics.Registry,
		"capping_decisions",
		"Count of capping gate decisions labeled by outcome.",
		[]string{outcomeLabel})

	metrics.documentCache = newCounter(cfg, metrics.Registry,
		"document_cache",
		"Count of document cache lookups labeled by result.",
		[]string{cacheResultLabel})

	preloadLabelValues(&metrics)

	return &metrics
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newCounterWithoutLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Counter {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounter(opts)
	registry.MustRegister(counter)
	return counter
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

func newHistogram(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, buckets []float64) prometheus.Histogram {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogram(opts)
	registry.MustRegister(histogram)
	return histogram
}

func (m *Metrics) RecordConnectionAccept(success bool) {
	if success {
		m.connectionsOpened.Inc()
	} else {
		m.connectionsError.With(prometheus.Labels{
			connectionErrorLabel: connectionAcceptError,
		}).Inc()
	}
}

func (m *Metrics) RecordConnectionClose(success bool) {
	if success {
		m.connectionsClosed.Inc()
	} else {
		m.connectionsError.With(prometheus.Labels{
			connectionErrorLabel: connectionCloseError,
		}).Inc()
	}
}

func (m *Metrics) RecordResolution(labels metrics.ResolutionLabels) {
	m.resolutions.With(prometheus.Labels{
		sourceLabel: string(labels.Source),
		statusLabel: string(labels.Status),
	}).Inc()
}

func (m *Metrics) RecordResolutionTime(labels metrics.ResolutionLabels, length time.Duration) {
	if labels.Status == metrics.ResolutionOK {
		m.resolutionTimer.With(prometheus.Labels{
			sourceLabel: string(labels.Source),
		}).Observe(length.Seconds())
	}
}

func (m *Metrics) RecordFetch(labels metrics.FetchLabels, length time.Duration) {
	m.fetches.With(prometheus.Labels{
		strategyLabel: string(labels.Strategy),
		statusLabel:   string(labels.Status),
	}).Inc()
	m.fetchTimer.With(prometheus.Labels{
		strategyLabel: string(labels.Strategy),
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordWrapperDepth(depth int) {
	m.wrapperDepth.Observe(float64(depth))
}

func (m *Metrics) RecordTrackedError(code int) {
	m.trackedErrors.With(prometheus.Labels{
		codeLabel: strconv.Itoa(code),
	}).Inc()
}

func (m *Metrics) RecordCapping(outcome metrics.CappingOutcome) {
	m.capping.With(prometheus.Labels{
		outcomeLabel: string(outcome),
	}).Inc()
}

func (m *Metrics) RecordDocumentCache(hit bool) {
	result := cacheMiss
	if hit {
		result = cacheHit
	}
	m.documentCache.With(prometheus.Labels{
		cacheResultLabel: result,
	}).Inc()
}
