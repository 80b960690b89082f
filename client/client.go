// Package client is the entry point callers use to resolve a VAST tag. It consults the
// capping gate before every call and remembers when a call last produced ads.
package client

import (
	"context"

	"github.com/beevik/etree"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/capping"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/prebid/vast-resolver/resolver"
	"github.com/prebid/vast-resolver/vast"
)

type Client struct {
	resolver *resolver.Resolver
	gate     *capping.Gate
	defaults resolver.Options
}

func NewClient(res *resolver.Resolver, gate *capping.Gate, cfg config.VAST) *Client {
	return &Client{
		resolver: res,
		gate:     gate,
		defaults: resolver.Options{
			WrapperLimit:    cfg.WrapperLimit,
			Timeout:         cfg.Timeout(),
			WithCredentials: cfg.WithCredentials,
		},
	}
}

// Get resolves the tag at url with opts as given, except that a WrapperLimit below 1
// takes the configured one. Callers honouring the configuration start from Defaults.
//
// A call refused by the capping gate returns a *errortypes.CappingDenied and does not
// fetch anything.
func (c *Client) Get(ctx context.Context, url string, opts resolver.Options) (*vast.Response, error) {
	decision, err := c.gate.Admit(ctx)
	if err != nil {
		glog.Errorf("Capping state unavailable, admitting the call: %v", err)
	}
	if !decision.Allowed {
		return nil, &errortypes.CappingDenied{Reason: decision.Detail}
	}

	response, err := c.resolver.Resolve(ctx, url, c.withDefaults(opts))
	if err != nil {
		return nil, err
	}
	if len(response.Ads) > 0 {
		if err := c.gate.RecordSuccess(ctx); err != nil {
			glog.Errorf("Unable to record the successful call: %v", err)
		}
	}
	return response, nil
}

// Load resolves an already parsed document. It is not subject to capping.
func (c *Client) Load(ctx context.Context, doc *etree.Document, opts resolver.Options) (*vast.Response, error) {
	return c.resolver.Load(ctx, doc, c.withDefaults(opts))
}

// Defaults returns the configured call options.
func (c *Client) Defaults() resolver.Options {
	return c.defaults
}

func (c *Client) withDefaults(opts resolver.Options) resolver.Options {
	if opts.WrapperLimit <= 0 {
		opts.WrapperLimit = c.defaults.WrapperLimit
	}
	return opts
}
