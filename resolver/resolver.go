// Package resolver follows VAST wrapper chains. It fetches a document, extracts its
// ads, follows every wrapper to the document it points to and folds the wrapper data
// into the ads found there, until only inline ads and failed wrappers remain.
//
// Errors which may be tracked (VAST codes 101, 301, 302 and 303) are reported once per
// call, after every branch of the chain has settled.
package resolver

import (
	"context"
	"time"

	"github.com/beevik/etree"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/prebid/vast-resolver/metrics"
	"github.com/prebid/vast-resolver/tracking"
	"github.com/prebid/vast-resolver/transport"
	"github.com/prebid/vast-resolver/vast"
)

// DefaultWrapperLimit applies when Options.WrapperLimit is not positive.
const DefaultWrapperLimit = 10

// Options configure a single call.
type Options struct {
	// WrapperLimit is the depth at which wrappers stop being followed.
	WrapperLimit int
	// Timeout bounds every fetch of the call. 0 means unbounded.
	Timeout         time.Duration
	WithCredentials bool
	// Document answers the first fetch of the call instead of the transport.
	// Wrapper targets are always fetched.
	Document *etree.Document
	// Fetcher is tried before the default fetch strategies.
	Fetcher transport.CustomFetcher
}

// Dispatcher fetches documents. *transport.Dispatcher implements it.
type Dispatcher interface {
	Fetch(ctx context.Context, req transport.Request) (*etree.Document, error)
}

type Resolver struct {
	dispatcher           Dispatcher
	tracker              tracking.Tracker
	metricsEngine        metrics.MetricsEngine
	maxConcurrentFetches int

	filters urlFilters
	events  *emitter
}

// New builds a Resolver. maxConcurrentFetches bounds the wrappers of one document
// which are followed at the same time; 1 follows them one after the other.
func New(dispatcher Dispatcher, tracker tracking.Tracker, metricsEngine metrics.MetricsEngine, maxConcurrentFetches int) *Resolver {
	if maxConcurrentFetches < 1 {
		maxConcurrentFetches = 1
	}
	return &Resolver{
		dispatcher:           dispatcher,
		tracker:              tracker,
		metricsEngine:        metricsEngine,
		maxConcurrentFetches: maxConcurrentFetches,
		events:               newEmitter(),
	}
}

// Resolve fetches url and resolves the wrapper chain it starts.
//
// The returned error is non-nil when the document behind url could not be fetched
// or is not a VAST document; nothing is tracked then. Otherwise the Response holds
// the ads left after every failed or empty ad was tracked and removed. It may be empty.
func (r *Resolver) Resolve(ctx context.Context, url string, opts Options) (*vast.Response, error) {
	res := r.newResolution(opts)
	startTime := time.Now()

	res.visit(url)
	response, err := res.fetchDocument(ctx, url, 0)
	return r.finish(res, metrics.SourceURL, startTime, response, err)
}

// Load resolves an already parsed document. The document has no URL, so relative
// wrapper targets in it fail to resolve. Options.Document is ignored.
func (r *Resolver) Load(ctx context.Context, doc *etree.Document, opts Options) (*vast.Response, error) {
	opts.Document = nil
	res := r.newResolution(opts)
	startTime := time.Now()

	response, err := res.resolveDocument(ctx, doc, "", 0)
	return r.finish(res, metrics.SourceDocument, startTime, response, err)
}

func (r *Resolver) finish(res *resolution, source metrics.ResolutionSource, startTime time.Time, response *vast.Response, err error) (*vast.Response, error) {
	labels := metrics.ResolutionLabels{Source: source}
	if err != nil {
		labels.Status = metrics.ResolutionErr
		if errortypes.ReadCode(err) == errortypes.InvalidDocumentErrorCode {
			labels.Status = metrics.ResolutionInvalid
		}
		glog.V(1).Infof("[%s] resolution failed: %v", res.id, err)
		r.metricsEngine.RecordResolution(labels)
		return nil, err
	}

	res.aggregate(response)

	labels.Status = metrics.ResolutionOK
	if len(response.Ads) == 0 {
		labels.Status = metrics.ResolutionNoAd
	}
	r.metricsEngine.RecordResolution(labels)
	r.metricsEngine.RecordResolutionTime(labels, time.Since(startTime))
	r.metricsEngine.RecordWrapperDepth(res.deepest())
	glog.V(1).Infof("[%s] resolved %d ads", res.id, len(response.Ads))
	return response, nil
}

// AddURLTemplateFilter registers a filter applied to every URL before it is fetched.
// Filters run in registration order. nil is ignored.
func (r *Resolver) AddURLTemplateFilter(filter URLTemplateFilter) {
	if filter != nil {
		r.filters.push(filter)
	}
}

// RemoveURLTemplateFilter removes and returns the most recently added filter, or nil.
func (r *Resolver) RemoveURLTemplateFilter() URLTemplateFilter {
	return r.filters.pop()
}

func (r *Resolver) ClearURLTemplateFilters() {
	r.filters.clear()
}

func (r *Resolver) CountURLTemplateFilters() int {
	return r.filters.count()
}

// On registers listener for every event called name.
func (r *Resolver) On(name string, listener Listener) ListenerID {
	return r.events.add(name, listener, false)
}

// Once registers listener for the next event called name only.
func (r *Resolver) Once(name string, listener Listener) ListenerID {
	return r.events.add(name, listener, true)
}

// Off removes a registration. It reports whether the registration existed.
func (r *Resolver) Off(name string, id ListenerID) bool {
	return r.events.remove(name, id)
}
