package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/benbjohnson/clock"
	"github.com/prebid/vast-resolver/capping"
	"github.com/prebid/vast-resolver/capping/backends/memory"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/prebid/vast-resolver/metrics"
	"github.com/prebid/vast-resolver/resolver"
	"github.com/prebid/vast-resolver/tracking"
	"github.com/prebid/vast-resolver/transport"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	inlineTag = `<VAST version="3.0"><Ad id="a"><InLine><AdSystem>test</AdSystem>` +
		`<Creatives><Creative><Linear><Duration>00:00:15</Duration></Linear></Creative></Creatives>` +
		`</InLine></Ad></VAST>`
	emptyTag = `<VAST version="3.0"></VAST>`
)

type staticFetcher struct {
	docs    map[string]string
	fetches int
	options []transport.Options
}

func (f *staticFetcher) Fetch(ctx context.Context, url string, opts transport.Options) (*etree.Document, error) {
	f.fetches++
	f.options = append(f.options, opts)
	body, ok := f.docs[url]
	if !ok {
		return nil, fmt.Errorf("error fetching %s: unexpected response status 404", url)
	}
	return transport.Parse([]byte(body))
}

func newTestClient(cappingCfg config.Capping, vastCfg config.VAST) (*Client, *staticFetcher, *memory.Store, *clock.Mock) {
	fetcher := &staticFetcher{docs: map[string]string{
		"http://example.com/inline.xml": inlineTag,
		"http://example.com/empty.xml":  emptyTag,
	}}
	engine := metrics.NewMetrics(gometrics.NewRegistry())
	dispatcher := transport.NewDispatcher(fetcher, nil, engine)
	res := resolver.New(dispatcher, tracking.NilTracker{}, engine, 1)

	store := memory.NewStore("test.")
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	gate := capping.NewGate(store, cappingCfg, mockClock, engine)

	return NewClient(res, gate, vastCfg), fetcher, store, mockClock
}

func TestGetWithoutCapping(t *testing.T) {
	client, fetcher, _, _ := newTestClient(config.Capping{}, config.VAST{WrapperLimit: 5})

	response, err := client.Get(context.Background(), "http://example.com/inline.xml", resolver.Options{})
	require.NoError(t, err)
	assert.Len(t, response.Ads, 1)
	assert.Equal(t, 1, fetcher.fetches)
}

func TestGetDeniedByFreeLunch(t *testing.T) {
	client, fetcher, _, _ := newTestClient(config.Capping{FreeCallThreshold: 1}, config.VAST{WrapperLimit: 5})
	ctx := context.Background()

	response, err := client.Get(ctx, "http://example.com/inline.xml", resolver.Options{})
	assert.Nil(t, response)
	require.Error(t, err)
	assert.True(t, errortypes.IsCapped(err))
	assert.Contains(t, err.Error(), "free-lunch capping not reached yet 1/1")
	assert.Equal(t, 0, fetcher.fetches, "a denied call must not fetch")

	response, err = client.Get(ctx, "http://example.com/inline.xml", resolver.Options{})
	require.NoError(t, err)
	assert.Len(t, response.Ads, 1)
}

func TestGetRecordsSuccessOnlyWithAds(t *testing.T) {
	client, _, store, mockClock := newTestClient(config.Capping{MinimumCallIntervalMS: 1000}, config.VAST{WrapperLimit: 5})
	ctx := context.Background()

	_, err := client.Get(ctx, "http://example.com/empty.xml", resolver.Options{})
	require.NoError(t, err)
	lastSuccess, err := store.Get(ctx, capping.KeyLastSuccess)
	require.NoError(t, err)
	assert.Equal(t, int64(0), lastSuccess, "an empty response is not a success")

	_, err = client.Get(ctx, "http://example.com/inline.xml", resolver.Options{})
	require.NoError(t, err)
	lastSuccess, err = store.Get(ctx, capping.KeyLastSuccess)
	require.NoError(t, err)
	assert.Equal(t, mockClock.Now().UnixMilli(), lastSuccess)

	mockClock.Add(500 * time.Millisecond)
	_, err = client.Get(ctx, "http://example.com/inline.xml", resolver.Options{})
	assert.True(t, errortypes.IsCapped(err), "the minimum interval has not elapsed")

	mockClock.Add(time.Second)
	_, err = client.Get(ctx, "http://example.com/inline.xml", resolver.Options{})
	assert.NoError(t, err)
}

func TestDefaults(t *testing.T) {
	client, _, _, _ := newTestClient(config.Capping{}, config.VAST{WrapperLimit: 5, TimeoutMS: 250, WithCredentials: true})

	assert.Equal(t, resolver.Options{WrapperLimit: 5, Timeout: 250 * time.Millisecond, WithCredentials: true}, client.Defaults())
}

func TestGetUsesOptionsAsGiven(t *testing.T) {
	client, fetcher, _, _ := newTestClient(config.Capping{}, config.VAST{WrapperLimit: 5, TimeoutMS: 1500, WithCredentials: true})

	_, err := client.Get(context.Background(), "http://example.com/inline.xml", client.Defaults())
	require.NoError(t, err)
	require.Len(t, fetcher.options, 1)
	assert.Equal(t, 1500*time.Millisecond, fetcher.options[0].Timeout)
	assert.True(t, fetcher.options[0].WithCredentials)

	_, err = client.Get(context.Background(), "http://example.com/inline.xml", resolver.Options{WithCredentials: false, Timeout: 0})
	require.NoError(t, err)
	require.Len(t, fetcher.options, 2)
	assert.Equal(t, time.Duration(0), fetcher.options[1].Timeout, "0 means unbounded")
	assert.False(t, fetcher.options[1].WithCredentials)
}

func TestGetTakesConfiguredWrapperLimit(t *testing.T) {
	client, fetcher, _, _ := newTestClient(config.Capping{}, config.VAST{WrapperLimit: 1})
	fetcher.docs["http://example.com/wrapper.xml"] = `<VAST version="3.0"><Ad id="w"><Wrapper><AdSystem>w</AdSystem>` +
		`<VASTAdTagURI>http://example.com/wrapper2.xml</VASTAdTagURI></Wrapper></Ad></VAST>`
	fetcher.docs["http://example.com/wrapper2.xml"] = `<VAST version="3.0"><Ad id="w2"><Wrapper><AdSystem>w</AdSystem>` +
		`<VASTAdTagURI>http://example.com/inline.xml</VASTAdTagURI></Wrapper></Ad></VAST>`

	response, err := client.Get(context.Background(), "http://example.com/wrapper.xml", resolver.Options{})
	require.NoError(t, err)
	assert.Empty(t, response.Ads)
	assert.Equal(t, 2, fetcher.fetches, "the second wrapper is past the limit")
}

func TestGetFetchFailure(t *testing.T) {
	client, _, _, _ := newTestClient(config.Capping{}, config.VAST{WrapperLimit: 5})

	_, err := client.Get(context.Background(), "http://example.com/missing.xml", resolver.Options{})
	require.Error(t, err)
	assert.False(t, errortypes.IsCapped(err))
}

func TestLoadIgnoresCapping(t *testing.T) {
	client, fetcher, _, _ := newTestClient(config.Capping{FreeCallThreshold: 10}, config.VAST{WrapperLimit: 5})

	doc, err := transport.Parse([]byte(inlineTag))
	require.NoError(t, err)
	response, err := client.Load(context.Background(), doc, resolver.Options{})
	require.NoError(t, err)
	assert.Len(t, response.Ads, 1)
	assert.Equal(t, 0, fetcher.fetches)
}
