// Package transport obtains VAST documents. A Dispatcher picks one of several fetch
// strategies for every URL the resolver follows.
package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/net/publicsuffix"
)

// ErrUnsupported is returned when no strategy can serve a URL.
var ErrUnsupported = errors.New("current context is not supported by any of the default fetchers")

// Options travel with every fetch.
type Options struct {
	// Timeout bounds a single fetch. 0 means unbounded.
	Timeout time.Duration
	// WithCredentials asks the HTTP strategy to send and keep cookies in Jar.
	WithCredentials bool
	// Jar holds the cookies of one resolution. Without one, a credentialed fetch
	// neither sends nor keeps cookies.
	Jar http.CookieJar
}

// NewCookieJar returns an empty jar scoped by the public suffix list.
func NewCookieJar() http.CookieJar {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// Fetcher retrieves and parses the document behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (*etree.Document, error)
}

// CustomFetcher is a caller-supplied strategy. It is only used while Supported
// returns true; otherwise the dispatcher falls back to the default strategies.
type CustomFetcher interface {
	Fetcher
	Supported() bool
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string, opts Options) (*etree.Document, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string, opts Options) (*etree.Document, error) {
	return f(ctx, url, opts)
}

// Request describes one fetch made by the resolver.
type Request struct {
	URL     string
	Options Options
	// Document, when set, is returned as is and no strategy runs.
	Document *etree.Document
	// Custom takes precedence over the default strategies when it is supported.
	Custom CustomFetcher
}

// Parse reads a raw document body.
func Parse(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, err
	}
	return doc, nil
}
