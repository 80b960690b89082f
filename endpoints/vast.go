package endpoints

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/prebid/vast-resolver/resolver"
	"github.com/prebid/vast-resolver/transport"
	"github.com/prebid/vast-resolver/vast"
)

type vastClient interface {
	Get(ctx context.Context, url string, opts resolver.Options) (*vast.Response, error)
	Load(ctx context.Context, doc *etree.Document, opts resolver.Options) (*vast.Response, error)
	Defaults() resolver.Options
}

type vastEndpoint struct {
	client         vastClient
	maxRequestSize int64
}

// NewVASTEndpoint resolves the tag named by the url query parameter and responds with the
// resolved ads as JSON.
//
// Optional parameters: wrapper_limit, timeout_ms and with_credentials override the
// configured defaults for a single call.
func NewVASTEndpoint(client vastClient) httprouter.Handle {
	e := &vastEndpoint{client: client}
	return e.get
}

// NewVASTDocumentEndpoint resolves the VAST document posted in the request body.
func NewVASTDocumentEndpoint(client vastClient, maxRequestSize int64) httprouter.Handle {
	e := &vastEndpoint{client: client, maxRequestSize: maxRequestSize}
	return e.post
}

func (e *vastEndpoint) get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	url := query.Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, errors.New(`missing required query parameter "url"`))
		return
	}
	opts, err := parseOptions(r, e.client.Defaults())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	response, err := e.client.Get(r.Context(), url, opts)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (e *vastEndpoint) post(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	opts, err := parseOptions(r, e.client.Defaults())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reader := io.Reader(r.Body)
	if e.maxRequestSize > 0 {
		reader = io.LimitReader(r.Body, e.maxRequestSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unable to read the request body: %v", err))
		return
	}
	if e.maxRequestSize > 0 && int64(len(body)) > e.maxRequestSize {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request size exceeded max size of %d bytes", e.maxRequestSize))
		return
	}

	doc, err := transport.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	response, err := e.client.Load(r.Context(), doc, opts)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// parseOptions overrides defaults with the parameters present in the query.
func parseOptions(r *http.Request, defaults resolver.Options) (resolver.Options, error) {
	opts := defaults
	query := r.URL.Query()
	if value := query.Get("wrapper_limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 {
			return opts, fmt.Errorf("wrapper_limit must be a positive integer. Got %q", value)
		}
		opts.WrapperLimit = limit
	}
	if value := query.Get("timeout_ms"); value != "" {
		timeout, err := strconv.ParseInt(value, 10, 64)
		if err != nil || timeout < 0 {
			return opts, fmt.Errorf("timeout_ms must be a non-negative integer. Got %q", value)
		}
		opts.Timeout = time.Duration(timeout) * time.Millisecond
	}
	if value := query.Get("with_credentials"); value != "" {
		withCredentials, err := strconv.ParseBool(value)
		if err != nil {
			return opts, fmt.Errorf("with_credentials must be a boolean. Got %q", value)
		}
		opts.WithCredentials = withCredentials
	}
	return opts, nil
}

func writeResolveError(w http.ResponseWriter, err error) {
	var invalid *errortypes.InvalidDocument
	switch {
	case errortypes.IsCapped(err):
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, err)
	default:
		glog.Warningf("Unable to resolve VAST: %v", err)
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  vastCode(err),
	})
}

func vastCode(err error) int {
	code := errortypes.ReadCode(err)
	if code == errortypes.UndefinedErrorCode {
		return 0
	}
	return code
}
