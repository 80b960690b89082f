package transport

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/metrics"
)

// Dispatcher selects the strategy serving a Request, in this order: the supplied
// document, a supported custom fetcher, then the default fetcher for the URL scheme.
type Dispatcher struct {
	http          Fetcher
	file          Fetcher
	metricsEngine metrics.MetricsEngine
}

// NewDispatcher builds a Dispatcher. fileFetcher may be nil, in which case file:// URLs
// are not supported.
func NewDispatcher(httpFetcher Fetcher, fileFetcher Fetcher, metricsEngine metrics.MetricsEngine) *Dispatcher {
	return &Dispatcher{
		http:          httpFetcher,
		file:          fileFetcher,
		metricsEngine: metricsEngine,
	}
}

func (d *Dispatcher) Fetch(ctx context.Context, req Request) (*etree.Document, error) {
	if req.Document != nil {
		d.metricsEngine.RecordFetch(metrics.FetchLabels{Strategy: metrics.StrategyPrefetched, Status: metrics.FetchOK}, 0)
		return req.Document, nil
	}

	strategy, fetcher := d.selectFetcher(req)
	if fetcher == nil {
		d.metricsEngine.RecordFetch(metrics.FetchLabels{Strategy: metrics.StrategyNone, Status: metrics.FetchErr}, 0)
		return nil, ErrUnsupported
	}

	if req.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Options.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	doc, err := fetcher.Fetch(ctx, req.URL, req.Options)
	labels := metrics.FetchLabels{Strategy: strategy, Status: metrics.FetchOK}
	if err != nil {
		labels.Status = metrics.FetchErr
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			labels.Status = metrics.FetchTimeout
		}
		glog.V(2).Infof("Fetching %s with the %s strategy failed: %v", req.URL, strategy, err)
	}
	d.metricsEngine.RecordFetch(labels, time.Since(startTime))
	return doc, err
}

func (d *Dispatcher) selectFetcher(req Request) (metrics.FetchStrategy, Fetcher) {
	if req.Custom != nil && req.Custom.Supported() {
		return metrics.StrategyCustom, req.Custom
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return metrics.StrategyNone, nil
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if d.http != nil {
			return metrics.StrategyHTTP, d.http
		}
	case "file":
		if d.file != nil {
			return metrics.StrategyFile, d.file
		}
	}
	return metrics.StrategyNone, nil
}
