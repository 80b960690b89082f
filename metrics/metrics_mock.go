package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordConnectionAccept mock
func (me *MetricsEngineMock) RecordConnectionAccept(success bool) {
	me.Called(success)
}

// RecordConnectionClose mock
func (me *MetricsEngineMock) RecordConnectionClose(success bool) {
	me.Called(success)
}

// RecordResolution mock
func (me *MetricsEngineMock) RecordResolution(labels ResolutionLabels) {
	me.Called(labels)
}

// RecordResolutionTime mock
func (me *MetricsEngineMock) RecordResolutionTime(labels ResolutionLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordFetch mock
func (me *MetricsEngineMock) RecordFetch(labels FetchLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordWrapperDepth mock
func (me *MetricsEngineMock) RecordWrapperDepth(depth int) {
	me.Called(depth)
}

// RecordTrackedError mock
func (me *MetricsEngineMock) RecordTrackedError(code int) {
	me.Called(code)
}

// RecordCapping mock
func (me *MetricsEngineMock) RecordCapping(outcome CappingOutcome) {
	me.Called(outcome)
}

// RecordDocumentCache mock
func (me *MetricsEngineMock) RecordDocumentCache(hit bool) {
	me.Called(hit)
}
