package config

import (
	"time"

	mainConfig "github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/metrics"
	prometheusmetrics "github.com/prebid/vast-resolver/metrics/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics engine
// for this instance. The go-metrics engine is always present since its registry backs
// the admin endpoint.
func NewMetricsEngine(cfg *mainConfig.Configuration) *DetailedMetricsEngine {
	engineList := make(MultiMetricsEngine, 0, 2)
	returnEngine := DetailedMetricsEngine{}

	returnEngine.GoMetrics = metrics.NewMetrics(gometrics.NewPrefixedRegistry("vastresolver."))
	engineList = append(engineList, returnEngine.GoMetrics)

	if cfg.Metrics.Prometheus.Port != 0 {
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		returnEngine.MetricsEngine = &engineList
	}
	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to the underlying
// metrics engines.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	GoMetrics         *metrics.Metrics
	PrometheusMetrics *prometheusmetrics.Metrics
}

// MultiMetricsEngine logs metrics to multiple metrics databases. The can be useful in transitioning
// an instance from one engine to another, you can run both in parallel to verify stats match up.
type MultiMetricsEngine []metrics.MetricsEngine

// RecordConnectionAccept across all engines
func (me *MultiMetricsEngine) RecordConnectionAccept(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionAccept(success)
	}
}

// RecordConnectionClose across all engines
func (me *MultiMetricsEngine) RecordConnectionClose(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionClose(success)
	}
}

// RecordResolution across all engines
func (me *MultiMetricsEngine) RecordResolution(labels metrics.ResolutionLabels) {
	for _, thisME := range *me {
		thisME.RecordResolution(labels)
	}
}

// RecordResolutionTime across all engines
func (me *MultiMetricsEngine) RecordResolutionTime(labels metrics.ResolutionLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordResolutionTime(labels, length)
	}
}

// RecordFetch across all engines
func (me *MultiMetricsEngine) RecordFetch(labels metrics.FetchLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordFetch(labels, length)
	}
}

// RecordWrapperDepth across all engines
func (me *MultiMetricsEngine) RecordWrapperDepth(depth int) {
	for _, thisME := range *me {
		thisME.RecordWrapperDepth(depth)
	}
}

// RecordTrackedError across all engines
func (me *MultiMetricsEngine) RecordTrackedError(code int) {
	for _, thisME := range *me {
		thisME.RecordTrackedError(code)
	}
}

// RecordCapping across all engines
func (me *MultiMetricsEngine) RecordCapping(outcome metrics.CappingOutcome) {
	for _, thisME := range *me {
		thisME.RecordCapping(outcome)
	}
}

// RecordDocumentCache across all engines
func (me *MultiMetricsEngine) RecordDocumentCache(hit bool) {
	for _, thisME := range *me {
		thisME.RecordDocumentCache(hit)
	}
}

// NilMetricsEngine implements the MetricsEngine interface where no metrics are actually captured. This is
// used if no metric backend is configured and also for tests.
type NilMetricsEngine struct{}

func (me *NilMetricsEngine) RecordConnectionAccept(success bool) {}

func (me *NilMetricsEngine) RecordConnectionClose(success bool) {}

func (me *NilMetricsEngine) RecordResolution(labels metrics.ResolutionLabels) {}

func (me *NilMetricsEngine) RecordResolutionTime(labels metrics.ResolutionLabels, length time.Duration) {
}

func (me *NilMetricsEngine) RecordFetch(labels metrics.FetchLabels, length time.Duration) {}

func (me *NilMetricsEngine) RecordWrapperDepth(depth int) {}

func (me *NilMetricsEngine) RecordTrackedError(code int) {}

func (me *NilMetricsEngine) RecordCapping(outcome metrics.CappingOutcome) {}

func (me *NilMetricsEngine) RecordDocumentCache(hit bool) {}
