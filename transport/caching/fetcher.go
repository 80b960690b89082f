// Package caching keeps fetched documents in memory in front of another Fetcher.
package caching

import (
	"context"

	"github.com/beevik/etree"
	"github.com/coocood/freecache"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/metrics"
	"github.com/prebid/vast-resolver/transport"
)

// Fetcher is a transport.Fetcher backed by a freecache.Cache.
type Fetcher struct {
	fetcher       transport.Fetcher
	cache         *freecache.Cache
	ttlSeconds    int
	metricsEngine metrics.MetricsEngine
}

// WithCache returns a Fetcher which serves documents from an in-memory cache keyed by
// URL before delegating to the original. Fetches made with credentials bypass the cache,
// since their content may depend on cookies.
//
// The returned fetcher also implements task.Runner: every run logs the cache statistics.
func WithCache(fetcher transport.Fetcher, cfg config.DocumentCache, metricsEngine metrics.MetricsEngine) *Fetcher {
	glog.Infof("Caching documents in %d bytes for %d seconds", cfg.SizeBytes, cfg.TTLSeconds)
	return &Fetcher{
		fetcher:       fetcher,
		cache:         freecache.NewCache(cfg.SizeBytes),
		ttlSeconds:    cfg.TTLSeconds,
		metricsEngine: metricsEngine,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string, opts transport.Options) (*etree.Document, error) {
	if opts.WithCredentials {
		return f.fetcher.Fetch(ctx, url, opts)
	}

	key := []byte(url)
	if body, err := f.cache.Get(key); err == nil {
		if doc, err := transport.Parse(body); err == nil {
			f.metricsEngine.RecordDocumentCache(true)
			return doc, nil
		}
		f.cache.Del(key)
	}
	f.metricsEngine.RecordDocumentCache(false)

	doc, err := f.fetcher.Fetch(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	body, err := doc.WriteToBytes()
	if err != nil {
		glog.Warningf("Unable to serialize the document from %s for caching: %v", url, err)
		return doc, nil
	}
	if err := f.cache.Set(key, body, f.ttlSeconds); err != nil {
		glog.Warningf("Unable to cache the document from %s: %v", url, err)
	}
	return doc, nil
}

// Run logs the cache statistics.
func (f *Fetcher) Run() error {
	glog.Infof("Document cache: entries=%d hits=%d misses=%d evacuated=%d expired=%d",
		f.cache.EntryCount(), f.cache.HitCount(), f.cache.MissCount(), f.cache.EvacuateCount(), f.cache.ExpiredCount())
	return nil
}
