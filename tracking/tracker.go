// Package tracking fires VAST tracking pixels.
package tracking

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/macros"
	"golang.org/x/net/context/ctxhttp"
)

// Tracker sends tracking pings. Send never blocks on the network and never reports
// failures to the caller.
type Tracker interface {
	Send(urlTemplates []string, values map[string]interface{})
}

// NewTracker returns a PixelTracker, or a tracker which drops every ping when tracking is disabled.
func NewTracker(cfg config.Tracking, client *http.Client, userAgent string) Tracker {
	if !cfg.Enabled {
		glog.Info("Error tracking is disabled")
		return NilTracker{}
	}
	return NewPixelTracker(client, cfg.Timeout(), userAgent, clock.New())
}

// PixelTracker expands the macros of every URL template and requests the result with GET.
type PixelTracker struct {
	httpClient *http.Client
	processor  macros.Processor
	timeout    time.Duration
	userAgent  string
	clock      clock.Clock

	inflight sync.WaitGroup
}

func NewPixelTracker(client *http.Client, timeout time.Duration, userAgent string, clk clock.Clock) *PixelTracker {
	return &PixelTracker{
		httpClient: client,
		processor:  macros.NewProcessor(),
		timeout:    timeout,
		userAgent:  userAgent,
		clock:      clk,
	}
}

func (t *PixelTracker) Send(urlTemplates []string, values map[string]interface{}) {
	if len(urlTemplates) == 0 {
		return
	}
	provider := macros.NewProvider(t.clock.Now(), values)
	for _, template := range urlTemplates {
		url, err := t.processor.Replace(strings.TrimSpace(template), provider)
		if err != nil {
			glog.Errorf("Unable to expand tracking URL %s: %v", template, err)
			continue
		}
		if url == "" {
			continue
		}
		t.inflight.Add(1)
		go t.ping(url)
	}
}

// Wait blocks until every ping sent so far has completed.
func (t *PixelTracker) Wait() {
	t.inflight.Wait()
}

func (t *PixelTracker) ping(url string) {
	defer t.inflight.Done()

	// Pings outlive the resolution which triggered them.
	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequest("GET", url, nil)
	if err != nil {
		glog.Errorf("Error creating tracking request to %s: %v", url, err)
		return
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := ctxhttp.Do(ctx, t.httpClient, httpReq)
	if err != nil {
		glog.Errorf("Error sending tracking request to %s: %v", url, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		glog.Warningf("Tracking request to %s returned %d", url, resp.StatusCode)
	}
}

// NilTracker drops every ping.
type NilTracker struct{}

func (NilTracker) Send(urlTemplates []string, values map[string]interface{}) {}
