package prometheusmetrics

import (
	"strconv"

	"github.com/prebid/vast-resolver/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func preloadLabelValues(m *Metrics) {
	var (
		sourceValues   = sourcesAsString()
		statusValues   = resolutionStatusesAsString()
		strategyValues = fetchStrategiesAsString()
		fetchValues    = fetchStatusesAsString()
		codeValues     = trackedErrorCodesAsString()
		outcomeValues  = cappingOutcomesAsString()
	)

	preloadLabelValuesForCounter(m.connectionsError, map[string][]string{
		connectionErrorLabel: {connectionAcceptError, connectionCloseError},
	})

	preloadLabelValuesForCounter(m.resolutions, map[string][]string{
		sourceLabel: sourceValues,
		statusLabel: statusValues,
	})

	preloadLabelValuesForHistogram(m.resolutionTimer, map[string][]string{
		sourceLabel: sourceValues,
	})

	preloadLabelValuesForCounter(m.fetches, map[string][]string{
		strategyLabel: strategyValues,
		statusLabel:   fetchValues,
	})

	preloadLabelValuesForHistogram(m.fetchTimer, map[string][]string{
		strategyLabel: strategyValues,
	})

	preloadLabelValuesForCounter(m.trackedErrors, map[string][]string{
		codeLabel: codeValues,
	})

	preloadLabelValuesForCounter(m.capping, map[string][]string{
		outcomeLabel: outcomeValues,
	})

	preloadLabelValuesForCounter(m.documentCache, map[string][]string{
		cacheResultLabel: {cacheHit, cacheMiss},
	})
}

func preloadLabelValuesForCounter(counter *prometheus.CounterVec, labelsWithValues map[string][]string) {
	registerLabelPermutations(labelsWithValues, func(labels prometheus.Labels) {
		counter.With(labels)
	})
}

func preloadLabelValuesForHistogram(histogram *prometheus.HistogramVec, labelsWithValues map[string][]string) {
	registerLabelPermutations(labelsWithValues, func(labels prometheus.Labels) {
		histogram.With(labels)
	})
}

func registerLabelPermutations(labelsWithValues map[string][]string, register func(prometheus.Labels)) {
	if len(labelsWithValues) == 0 {
		return
	}

	keys := make([]string, 0, len(labelsWithValues))
	values := make([][]string, 0, len(labelsWithValues))
	for k, v := range labelsWithValues {
		keys = append(keys, k)
		values = append(values, v)
	}

	labels := prometheus.Labels{}
	registerLabelPermutationsRecursive(0, keys, values, labels, register)
}

func registerLabelPermutationsRecursive(depth int, keys []string, values [][]string, labels prometheus.Labels, register func(prometheus.Labels)) {
	label := keys[depth]
	isLeaf := depth == len(keys)-1

	if isLeaf {
		for _, v := range values[depth] {
			labels[label] = v
			register(cloneLabels(labels))
		}
	} else {
		for _, v := range values[depth] {
			labels[label] = v
			registerLabelPermutationsRecursive(depth+1, keys, values, labels, register)
		}
	}
}

func cloneLabels(labels prometheus.Labels) prometheus.Labels {
	clone := prometheus.Labels{}
	for k, v := range labels {
		clone[k] = v
	}
	return clone
}

func sourcesAsString() []string {
	values := metrics.ResolutionSources()
	valuesAsString := make([]string, len(values))
	for i, v := range values {
		valuesAsString[i] = string(v)
	}
	return valuesAsString
}

func resolutionStatusesAsString() []string {
	values := metrics.ResolutionStatuses()
	valuesAsString := make([]string, len(values))
	for i, v := range values {
		valuesAsString[i] = string(v)
	}
	return valuesAsString
}

func fetchStrategiesAsString() []string {
	values := metrics.FetchStrategies()
	valuesAsString := make([]string, len(values))
	for i, v := range values {
		valuesAsString[i] = string(v)
	}
	return valuesAsString
}

func fetchStatusesAsString() []string {
	values := metrics.FetchStatuses()
	valuesAsString := make([]string, len(values))
	for i, v := range values {
		valuesAsString[i] = string(v)
	}
	return valuesAsString
}

func trackedErrorCodesAsString() []string {
	values := metrics.TrackedErrorCodes()
	valuesAsString := make([]string, len(values))
	for i, v := range values {
		valuesAsString[i] = strconv.Itoa(v)
	}
	return valuesAsString
}

func cappingOutcomesAsString() []string {
	values := metrics.CappingOutcomes()
	valuesAsString := make([]string, len(values))
	for i, v := range values {
		valuesAsString[i] = string(v)
	}
	return valuesAsString
}
