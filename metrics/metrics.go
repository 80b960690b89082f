package metrics

import (
	"time"
)

// ResolutionLabels defines the labels that can be attached to a top-level resolution.
type ResolutionLabels struct {
	Source ResolutionSource
	Status ResolutionStatus
}

// FetchLabels defines the labels that can be attached to a single document fetch.
type FetchLabels struct {
	Strategy FetchStrategy
	Status   FetchStatus
}

// ResolutionSource : how the root document was obtained
type ResolutionSource string

// ResolutionStatus : the outcome of a top-level resolution
type ResolutionStatus string

// FetchStrategy : the transport strategy which served a fetch
type FetchStrategy string

// FetchStatus : the outcome of a fetch
type FetchStatus string

// CappingOutcome : the decision of the capping gate
type CappingOutcome string

const (
	SourceURL      ResolutionSource = "url"
	SourceDocument ResolutionSource = "document"
)

func ResolutionSources() []ResolutionSource {
	return []ResolutionSource{
		SourceURL,
		SourceDocument,
	}
}

const (
	ResolutionOK      ResolutionStatus = "ok"
	ResolutionNoAd    ResolutionStatus = "noad"
	ResolutionInvalid ResolutionStatus = "invalid"
	ResolutionErr     ResolutionStatus = "err"
)

func ResolutionStatuses() []ResolutionStatus {
	return []ResolutionStatus{
		ResolutionOK,
		ResolutionNoAd,
		ResolutionInvalid,
		ResolutionErr,
	}
}

const (
	StrategyPrefetched FetchStrategy = "prefetched"
	StrategyCustom     FetchStrategy = "custom"
	StrategyHTTP       FetchStrategy = "http"
	StrategyFile       FetchStrategy = "file"
	StrategyNone       FetchStrategy = "none"
)

func FetchStrategies() []FetchStrategy {
	return []FetchStrategy{
		StrategyPrefetched,
		StrategyCustom,
		StrategyHTTP,
		StrategyFile,
		StrategyNone,
	}
}

const (
	FetchOK      FetchStatus = "ok"
	FetchTimeout FetchStatus = "timeout"
	FetchErr     FetchStatus = "err"
)

func FetchStatuses() []FetchStatus {
	return []FetchStatus{
		FetchOK,
		FetchTimeout,
		FetchErr,
	}
}

const (
	CappingAdmitted     CappingOutcome = "admitted"
	CappingFreeLunch    CappingOutcome = "free_lunch"
	CappingMinInterval  CappingOutcome = "min_interval"
	CappingStoreFailure CappingOutcome = "store_error"
)

func CappingOutcomes() []CappingOutcome {
	return []CappingOutcome{
		CappingAdmitted,
		CappingFreeLunch,
		CappingMinInterval,
		CappingStoreFailure,
	}
}

// TrackedErrorCodes are the VAST error codes the resolver can report.
func TrackedErrorCodes() []int {
	return []int{101, 301, 302, 303, 900}
}

// MetricsEngine is a generic interface to record resolver metrics into the desired backend.
// RecordResolution and RecordResolutionTime fire once per top-level call. RecordFetch and
// RecordWrapperDepth fire once per fetched document, so they are not comparable with the
// resolution counts.
type MetricsEngine interface {
	RecordConnectionAccept(success bool)
	RecordConnectionClose(success bool)
	RecordResolution(labels ResolutionLabels)
	RecordResolutionTime(labels ResolutionLabels, length time.Duration)
	RecordFetch(labels FetchLabels, length time.Duration)
	RecordWrapperDepth(depth int)
	RecordTrackedError(code int)
	RecordCapping(outcome CappingOutcome)
	RecordDocumentCache(hit bool)
}
