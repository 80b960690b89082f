package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics implementation of MetricsEngine. Its registry is exposed
// as JSON on the admin port.
type Metrics struct {
	MetricsRegistry            metrics.Registry
	ConnectionCounter          metrics.Counter
	ConnectionAcceptErrorMeter metrics.Meter
	ConnectionCloseErrorMeter  metrics.Meter
	CacheHitMeter              metrics.Meter
	CacheMissMeter             metrics.Meter
	WrapperDepthHistogram      metrics.Histogram

	ResolutionMeters map[ResolutionSource]map[ResolutionStatus]metrics.Meter
	ResolutionTimer  map[ResolutionSource]metrics.Timer
	FetchMeters      map[FetchStrategy]map[FetchStatus]metrics.Meter
	FetchTimer       map[FetchStrategy]metrics.Timer
	TrackedErrors    map[int]metrics.Meter
	CappingMeters    map[CappingOutcome]metrics.Meter
}

// NewBlankMetrics creates a new Metrics object with all blank metrics object. This may also be useful for
// testing routines to ensure that no metrics are written anywhere.
func NewBlankMetrics(registry metrics.Registry) *Metrics {
	blankMeter := &metrics.NilMeter{}
	newMetrics := &Metrics{
		MetricsRegistry:            registry,
		ConnectionCounter:          metrics.NilCounter{},
		ConnectionAcceptErrorMeter: blankMeter,
		ConnectionCloseErrorMeter:  blankMeter,
		CacheHitMeter:              blankMeter,
		CacheMissMeter:             blankMeter,
		WrapperDepthHistogram:      &metrics.NilHistogram{},

		ResolutionMeters: make(map[ResolutionSource]map[ResolutionStatus]metrics.Meter),
		ResolutionTimer:  make(map[ResolutionSource]metrics.Timer),
		FetchMeters:      make(map[FetchStrategy]map[FetchStatus]metrics.Meter),
		FetchTimer:       make(map[FetchStrategy]metrics.Timer),
		TrackedErrors:    make(map[int]metrics.Meter),
		CappingMeters:    make(map[CappingOutcome]metrics.Meter),
	}

	for _, source := range ResolutionSources() {
		newMetrics.ResolutionMeters[source] = make(map[ResolutionStatus]metrics.Meter)
		for _, status := range ResolutionStatuses() {
			newMetrics.ResolutionMeters[source][status] = blankMeter
		}
		newMetrics.ResolutionTimer[source] = &metrics.NilTimer{}
	}
	for _, strategy := range FetchStrategies() {
		newMetrics.FetchMeters[strategy] = make(map[FetchStatus]metrics.Meter)
		for _, status := range FetchStatuses() {
			newMetrics.FetchMeters[strategy][status] = blankMeter
		}
		newMetrics.FetchTimer[strategy] = &metrics.NilTimer{}
	}
	for _, code := range TrackedErrorCodes() {
		newMetrics.TrackedErrors[code] = blankMeter
	}
	for _, outcome := range CappingOutcomes() {
		newMetrics.CappingMeters[outcome] = blankMeter
	}
	return newMetrics
}

// NewMetrics creates a new Metrics object with needed metrics defined.
func NewMetrics(registry metrics.Registry) *Metrics {
	newMetrics := NewBlankMetrics(registry)
	newMetrics.ConnectionCounter = metrics.GetOrRegisterCounter("active_connections", registry)
	newMetrics.ConnectionAcceptErrorMeter = metrics.GetOrRegisterMeter("connection_accept_errors", registry)
	newMetrics.ConnectionCloseErrorMeter = metrics.GetOrRegisterMeter("connection_close_errors", registry)
	newMetrics.CacheHitMeter = metrics.GetOrRegisterMeter("document_cache.hits", registry)
	newMetrics.CacheMissMeter = metrics.GetOrRegisterMeter("document_cache.misses", registry)
	newMetrics.WrapperDepthHistogram = metrics.GetOrRegisterHistogram("wrapper_depth", registry, metrics.NewExpDecaySample(1028, 0.015))

	for source, statusMap := range newMetrics.ResolutionMeters {
		for status := range statusMap {
			statusMap[status] = metrics.GetOrRegisterMeter(fmt.Sprintf("resolutions.%s.%s", source, status), registry)
		}
		newMetrics.ResolutionTimer[source] = metrics.GetOrRegisterTimer(fmt.Sprintf("resolution_time.%s", source), registry)
	}
	for strategy, statusMap := range newMetrics.FetchMeters {
		for status := range statusMap {
			statusMap[status] = metrics.GetOrRegisterMeter(fmt.Sprintf("fetches.%s.%s", strategy, status), registry)
		}
		newMetrics.FetchTimer[strategy] = metrics.GetOrRegisterTimer(fmt.Sprintf("fetch_time.%s", strategy), registry)
	}
	for code := range newMetrics.TrackedErrors {
		newMetrics.TrackedErrors[code] = metrics.GetOrRegisterMeter("tracked_errors."+strconv.Itoa(code), registry)
	}
	for outcome := range newMetrics.CappingMeters {
		newMetrics.CappingMeters[outcome] = metrics.GetOrRegisterMeter("capping."+string(outcome), registry)
	}
	return newMetrics
}

func (me *Metrics) RecordConnectionAccept(success bool) {
	if success {
		me.ConnectionCounter.Inc(1)
	} else {
		me.ConnectionAcceptErrorMeter.Mark(1)
	}
}

func (me *Metrics) RecordConnectionClose(success bool) {
	if success {
		me.ConnectionCounter.Dec(1)
	} else {
		me.ConnectionCloseErrorMeter.Mark(1)
	}
}

// RecordResolution implements a part of the MetricsEngine interface
func (me *Metrics) RecordResolution(labels ResolutionLabels) {
	statusMap, ok := me.ResolutionMeters[labels.Source]
	if !ok {
		glog.Errorf("Trying to run resolution metrics on unknown source %s", labels.Source)
		return
	}
	if meter, ok := statusMap[labels.Status]; ok {
		meter.Mark(1)
	}
}

// RecordResolutionTime implements a part of the MetricsEngine interface. Only resolutions
// which produced ads are timed.
func (me *Metrics) RecordResolutionTime(labels ResolutionLabels, length time.Duration) {
	if labels.Status != ResolutionOK {
		return
	}
	if timer, ok := me.ResolutionTimer[labels.Source]; ok {
		timer.Update(length)
	}
}

func (me *Metrics) RecordFetch(labels FetchLabels, length time.Duration) {
	statusMap, ok := me.FetchMeters[labels.Strategy]
	if !ok {
		glog.Errorf("Trying to run fetch metrics on unknown strategy %s", labels.Strategy)
		return
	}
	if meter, ok := statusMap[labels.Status]; ok {
		meter.Mark(1)
	}
	me.FetchTimer[labels.Strategy].Update(length)
}

func (me *Metrics) RecordWrapperDepth(depth int) {
	me.WrapperDepthHistogram.Update(int64(depth))
}

func (me *Metrics) RecordTrackedError(code int) {
	meter, ok := me.TrackedErrors[code]
	if !ok {
		meter = me.TrackedErrors[900]
	}
	meter.Mark(1)
}

func (me *Metrics) RecordCapping(outcome CappingOutcome) {
	if meter, ok := me.CappingMeters[outcome]; ok {
		meter.Mark(1)
	}
}

func (me *Metrics) RecordDocumentCache(hit bool) {
	if hit {
		me.CacheHitMeter.Mark(1)
	} else {
		me.CacheMissMeter.Mark(1)
	}
}
