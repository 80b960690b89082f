package http_fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/beevik/etree"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/transport"
	"golang.org/x/net/context/ctxhttp"
)

// NewFetcher returns a Fetcher which GETs documents with the Client.
//
// Requests made with Options.WithCredentials go through a copy of the Client using
// Options.Jar, so cookies set by one document of a chain are sent to the next one and
// never to another chain.
func NewFetcher(client *http.Client, userAgent string) *HttpFetcher {
	glog.Infof("Making http_fetcher with user agent %q", userAgent)
	return &HttpFetcher{
		client:    client,
		userAgent: userAgent,
	}
}

type HttpFetcher struct {
	client    *http.Client
	userAgent string
}

func (fetcher *HttpFetcher) Fetch(ctx context.Context, url string, opts transport.Options) (*etree.Document, error) {
	httpReq, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.8")
	if fetcher.userAgent != "" {
		httpReq.Header.Set("User-Agent", fetcher.userAgent)
	}

	client := fetcher.client
	if opts.WithCredentials && opts.Jar != nil {
		credentialed := *fetcher.client
		credentialed.Jar = opts.Jar
		client = &credentialed
	}

	httpResp, err := ctxhttp.Do(ctx, client, httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("error fetching %s: unexpected response status %d", url, httpResp.StatusCode)
	}

	return transport.Parse(body)
}
