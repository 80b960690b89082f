package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/gofrs/uuid"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/prebid/vast-resolver/macros"
	"github.com/prebid/vast-resolver/transport"
	"github.com/prebid/vast-resolver/vast"
	"github.com/sourcegraph/conc/pool"
)

// resolution is the state of one Resolve or Load call. Branches of the call share it.
type resolution struct {
	*Resolver

	id           string
	wrapperLimit int
	fetchOptions transport.Options
	custom       transport.CustomFetcher

	mu          sync.Mutex
	document    *etree.Document
	visited     map[string]struct{}
	maxDepth    int
	unsupported []trackedError
}

// trackedError is an error reported at the end of the call.
type trackedError struct {
	urlTemplates []string
	code         int
	message      string
	extensions   []vast.Extension
	system       *vast.AdSystem
}

func (r *Resolver) newResolution(opts Options) *resolution {
	wrapperLimit := opts.WrapperLimit
	if wrapperLimit <= 0 {
		wrapperLimit = DefaultWrapperLimit
	}
	id, err := uuid.NewV4()
	if err != nil {
		glog.Errorf("Unable to generate a resolution id: %v", err)
	}
	return &resolution{
		Resolver:     r,
		id:           id.String(),
		wrapperLimit: wrapperLimit,
		fetchOptions: fetchOptions(opts),
		custom:       opts.Fetcher,
		document:     opts.Document,
		visited:      make(map[string]struct{}),
	}
}

// fetchOptions gives every credentialed call a cookie jar of its own.
func fetchOptions(opts Options) transport.Options {
	fetchOpts := transport.Options{
		Timeout:         opts.Timeout,
		WithCredentials: opts.WithCredentials,
	}
	if opts.WithCredentials {
		fetchOpts.Jar = transport.NewCookieJar()
	}
	return fetchOpts
}

// visit claims url for the call. It returns false if url was already claimed.
func (res *resolution) visit(url string) bool {
	res.mu.Lock()
	defer res.mu.Unlock()
	if _, ok := res.visited[url]; ok {
		return false
	}
	res.visited[url] = struct{}{}
	return true
}

// takeDocument returns the supplied document the first time it is called and nil afterwards.
func (res *resolution) takeDocument() *etree.Document {
	res.mu.Lock()
	defer res.mu.Unlock()
	doc := res.document
	res.document = nil
	return doc
}

func (res *resolution) reached(depth int) {
	res.mu.Lock()
	defer res.mu.Unlock()
	if depth > res.maxDepth {
		res.maxDepth = depth
	}
}

func (res *resolution) deepest() int {
	res.mu.Lock()
	defer res.mu.Unlock()
	return res.maxDepth
}

// fetchDocument obtains the document behind url and resolves it at depth.
func (res *resolution) fetchDocument(ctx context.Context, url string, depth int) (*vast.Response, error) {
	url = res.filters.apply(url)

	res.events.emit(Event{Name: EventResolving, ResolutionID: res.id, URL: url})
	doc, err := res.dispatcher.Fetch(ctx, transport.Request{
		URL:      url,
		Options:  res.fetchOptions,
		Document: res.takeDocument(),
		Custom:   res.custom,
	})
	res.events.emit(Event{Name: EventResolved, ResolutionID: res.id, URL: url})
	if err != nil {
		return nil, &errortypes.FetchFailure{URL: url, Cause: err}
	}

	return res.resolveDocument(ctx, doc, url, depth)
}

// resolveDocument extracts the ads of doc and follows its wrappers. Wrappers of the
// same document are followed concurrently; the call returns once all of them settled.
// Ads keep document order, a followed wrapper being replaced in place by the ads its
// target resolved to.
func (res *resolution) resolveDocument(ctx context.Context, doc *etree.Document, docURL string, depth int) (*vast.Response, error) {
	extracted, err := vast.Extract(doc)
	if err != nil {
		return nil, err
	}
	res.reached(depth)

	response := vast.NewResponse()
	response.ErrorURLTemplates = append(response.ErrorURLTemplates, extracted.ErrorURLTemplates...)
	for _, unsupported := range extracted.Unsupported {
		glog.V(2).Infof("[%s] %v", res.id, unsupported)
		res.mu.Lock()
		res.unsupported = append(res.unsupported, trackedError{
			urlTemplates: extracted.ErrorURLTemplates,
			code:         errortypes.ReadCode(unsupported),
		})
		res.mu.Unlock()
	}

	branches := make([]branch, len(extracted.Entries))
	p := pool.New().WithMaxGoroutines(res.maxConcurrentFetches)
	for i, entry := range extracted.Entries {
		switch entry := entry.(type) {
		case *vast.Ad:
			branches[i].ads = []*vast.Ad{entry}
		case *vast.Wrapper:
			target, failure := res.claim(entry, docURL, depth)
			if failure != nil {
				branches[i].ads = []*vast.Ad{failure}
				continue
			}
			b := &branches[i]
			wrapper := entry
			p.Go(func() {
				*b = res.followWrapper(ctx, wrapper, target, depth)
			})
		}
	}
	p.Wait()

	for _, b := range branches {
		response.Ads = append(response.Ads, b.ads...)
		response.ErrorURLTemplates = append(response.ErrorURLTemplates, b.errorURLTemplates...)
	}
	return response, nil
}

// branch is what one extracted entry resolved to.
type branch struct {
	ads               []*vast.Ad
	errorURLTemplates []string
}

// claim checks the wrapper against the depth limit and the visited URLs. It returns
// the absolute target URL, or the failed ad standing for the wrapper.
func (res *resolution) claim(wrapper *vast.Wrapper, docURL string, depth int) (string, *vast.Ad) {
	if depth >= res.wrapperLimit {
		return "", failWrapper(wrapper, &errortypes.WrapperLimit{Message: "Wrapper limit reached"})
	}
	target, err := resolveURL(wrapper.VASTAdTagURI, docURL)
	if err != nil {
		return "", failWrapper(wrapper, &errortypes.FetchFailure{URL: wrapper.VASTAdTagURI, Cause: err})
	}
	if !res.visit(target) {
		return "", failWrapper(wrapper, &errortypes.WrapperLimit{Message: "Wrapper limit reached"})
	}
	return target, nil
}

func failWrapper(wrapper *vast.Wrapper, err error) *vast.Ad {
	return wrapper.Fail(errortypes.ReadCode(err), err.Error())
}

func (res *resolution) followWrapper(ctx context.Context, wrapper *vast.Wrapper, target string, depth int) branch {
	glog.V(2).Infof("[%s] following wrapper %q to %s at depth %d", res.id, wrapper.Ad.ID, target, depth+1)
	child, err := res.fetchDocument(ctx, target, depth+1)
	if err != nil {
		return branch{ads: []*vast.Ad{wrapper.Fail(errortypes.FetchFailureErrorCode, err.Error())}}
	}

	if len(child.Ads) == 0 {
		return branch{
			ads:               []*vast.Ad{wrapper.DeadEnd()},
			errorURLTemplates: child.ErrorURLTemplates,
		}
	}
	for _, ad := range child.Ads {
		vast.Merge(ad, wrapper)
	}
	return branch{ads: child.Ads, errorURLTemplates: child.ErrorURLTemplates}
}

// aggregate reports the tracked errors of the call and removes every ad which failed
// or has no creative.
func (res *resolution) aggregate(response *vast.Response) {
	for _, unsupported := range res.unsupported {
		res.track(unsupported)
	}

	noAd := &errortypes.NoAd{}
	if len(response.Ads) == 0 {
		res.track(trackedError{urlTemplates: response.ErrorURLTemplates, code: noAd.Code()})
		return
	}

	for i := len(response.Ads) - 1; i >= 0; i-- {
		ad := response.Ads[i]
		if !ad.Failed() && len(ad.Creatives) > 0 {
			continue
		}
		code := ad.ErrorCode
		if code == 0 {
			code = noAd.Code()
		}
		res.track(trackedError{
			urlTemplates: append(append([]string{}, ad.ErrorURLTemplates...), response.ErrorURLTemplates...),
			code:         code,
			message:      ad.ErrorMessage,
			extensions:   ad.Extensions,
			system:       ad.System,
		})
		response.Ads = append(response.Ads[:i], response.Ads[i+1:]...)
	}
}

func (res *resolution) track(tracked trackedError) {
	if !errortypes.IsTrackable(tracked.code) {
		glog.Warningf("[%s] code %d is not a VAST error code, tracking %d instead", res.id, tracked.code, errortypes.UndefinedErrorCode)
		tracked.code = errortypes.UndefinedErrorCode
	}
	extensions := tracked.extensions
	if extensions == nil {
		extensions = []vast.Extension{}
	}
	data := map[string]interface{}{
		"ERRORCODE":    tracked.code,
		"ERRORMESSAGE": tracked.message,
		"extensions":   extensions,
		"system":       nil,
	}
	if tracked.system != nil {
		data["system"] = tracked.system
	}
	res.events.emit(Event{Name: EventError, ResolutionID: res.id, Data: data})
	res.metricsEngine.RecordTrackedError(tracked.code)
	res.tracker.Send(tracked.urlTemplates, map[string]interface{}{macros.MacroKeyErrorCode: tracked.code})
}

// resolveURL makes target absolute. Protocol-relative targets take the scheme of the
// current document, https when it has none; relative targets are resolved against the
// current document URL.
func resolveURL(target, docURL string) (string, error) {
	target = strings.TrimSpace(target)
	ref, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return target, nil
	}

	var base *url.URL
	if docURL != "" {
		if base, err = url.Parse(docURL); err != nil {
			return "", err
		}
	}

	if strings.HasPrefix(target, "//") {
		scheme := "https"
		if base != nil && base.Scheme != "" {
			scheme = base.Scheme
		}
		return scheme + ":" + target, nil
	}

	if base == nil {
		return "", fmt.Errorf("cannot resolve relative URL %q without a document URL", target)
	}
	return base.ResolveReference(ref).String(), nil
}
