package endpoints

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/prebid/vast-resolver/resolver"
	"github.com/prebid/vast-resolver/vast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientDefaults = resolver.Options{WrapperLimit: 10, Timeout: 1500 * time.Millisecond, WithCredentials: true}

type mockClient struct {
	response *vast.Response
	err      error

	url     string
	opts    resolver.Options
	doc     *etree.Document
	getHits int
}

func (m *mockClient) Get(ctx context.Context, url string, opts resolver.Options) (*vast.Response, error) {
	m.getHits++
	m.url = url
	m.opts = opts
	return m.response, m.err
}

func (m *mockClient) Load(ctx context.Context, doc *etree.Document, opts resolver.Options) (*vast.Response, error) {
	m.doc = doc
	m.opts = opts
	return m.response, m.err
}

func (m *mockClient) Defaults() resolver.Options {
	return clientDefaults
}

func oneAdResponse() *vast.Response {
	response := vast.NewResponse()
	response.Ads = append(response.Ads, &vast.Ad{
		Kind:                   vast.KindInline,
		ID:                     "a",
		ImpressionURLTemplates: []string{},
		ErrorURLTemplates:      []string{},
		Creatives:              []*vast.Creative{},
		Extensions:             []vast.Extension{},
	})
	return response
}

func TestVASTEndpoint(t *testing.T) {
	testCases := []struct {
		description    string
		target         string
		clientErr      error
		expectedStatus int
		expectedBody   string
		expectedOpts   resolver.Options
		expectCall     bool
	}{
		{
			description:    "resolved",
			target:         "/vast?url=" + "http%3A%2F%2Fexample.com%2Fvast.xml",
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"a"`,
			expectedOpts:   clientDefaults,
			expectCall:     true,
		},
		{
			description:    "options",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml&wrapper_limit=3&timeout_ms=250",
			expectedStatus: http.StatusOK,
			expectedOpts:   resolver.Options{WrapperLimit: 3, Timeout: 250 * time.Millisecond, WithCredentials: true},
			expectCall:     true,
		},
		{
			description:    "options switch defaults off",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml&timeout_ms=0&with_credentials=false",
			expectedStatus: http.StatusOK,
			expectedOpts:   resolver.Options{WrapperLimit: 10, Timeout: 0, WithCredentials: false},
			expectCall:     true,
		},
		{
			description:    "missing url",
			target:         "/vast",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `missing required query parameter`,
		},
		{
			description:    "bad wrapper limit",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml&wrapper_limit=zero",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `wrapper_limit must be a positive integer`,
		},
		{
			description:    "bad timeout",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml&timeout_ms=-1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `timeout_ms must be a non-negative integer`,
		},
		{
			description:    "capped",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml",
			clientErr:      &errortypes.CappingDenied{Reason: "free-lunch capping not reached yet 1/2"},
			expectedStatus: http.StatusNoContent,
			expectedOpts:   clientDefaults,
			expectCall:     true,
		},
		{
			description:    "invalid document",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml",
			clientErr:      &errortypes.InvalidDocument{Message: "Invalid VAST XMLDocument"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Invalid VAST XMLDocument`,
			expectedOpts:   clientDefaults,
			expectCall:     true,
		},
		{
			description:    "fetch failure",
			target:         "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml",
			clientErr:      &errortypes.FetchFailure{URL: "http://example.com/vast.xml", Cause: errors.New("connection refused")},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"code":301`,
			expectedOpts:   clientDefaults,
			expectCall:     true,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			client := &mockClient{response: oneAdResponse(), err: test.clientErr}
			handler := NewVASTEndpoint(client)

			req := httptest.NewRequest(http.MethodGet, test.target, nil)
			recorder := httptest.NewRecorder()
			handler(recorder, req, httprouter.Params{})

			assert.Equal(t, test.expectedStatus, recorder.Code)
			if test.expectedBody != "" {
				assert.Contains(t, recorder.Body.String(), test.expectedBody)
			}
			if test.expectCall {
				assert.Equal(t, 1, client.getHits)
				assert.Equal(t, "http://example.com/vast.xml", client.url)
				assert.Equal(t, test.expectedOpts, client.opts)
			} else {
				assert.Equal(t, 0, client.getHits)
			}
		})
	}
}

func TestVASTEndpointWritesJSON(t *testing.T) {
	handler := NewVASTEndpoint(&mockClient{response: oneAdResponse()})

	req := httptest.NewRequest(http.MethodGet, "/vast?url=http%3A%2F%2Fexample.com%2Fvast.xml", nil)
	recorder := httptest.NewRecorder()
	handler(recorder, req, httprouter.Params{})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"ads": [{
			"kind": "inline",
			"id": "a",
			"impression_url_templates": [],
			"error_url_templates": [],
			"creatives": [],
			"extensions": []
		}],
		"error_url_templates": []
	}`, recorder.Body.String())
}

func TestVASTDocumentEndpoint(t *testing.T) {
	client := &mockClient{response: oneAdResponse()}
	handler := NewVASTDocumentEndpoint(client, 1024)

	body := `<VAST version="3.0"><Ad id="a"><InLine><AdSystem>test</AdSystem></InLine></Ad></VAST>`
	req := httptest.NewRequest(http.MethodPost, "/vast?wrapper_limit=2", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler(recorder, req, httprouter.Params{})

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, client.doc)
	assert.Equal(t, "VAST", client.doc.Root().Tag)
	assert.Equal(t, 2, client.opts.WrapperLimit)
}

func TestVASTDocumentEndpointRejectsBadBodies(t *testing.T) {
	testCases := []struct {
		description    string
		body           string
		maxSize        int64
		expectedStatus int
	}{
		{
			description:    "malformed xml",
			body:           `<VAST><Ad></VAST>`,
			maxSize:        1024,
			expectedStatus: http.StatusBadRequest,
		},
		{
			description:    "too large",
			body:           `<VAST version="3.0"></VAST>`,
			maxSize:        10,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			client := &mockClient{response: oneAdResponse()}
			handler := NewVASTDocumentEndpoint(client, test.maxSize)

			req := httptest.NewRequest(http.MethodPost, "/vast", strings.NewReader(test.body))
			recorder := httptest.NewRecorder()
			handler(recorder, req, httprouter.Params{})

			assert.Equal(t, test.expectedStatus, recorder.Code)
			assert.Nil(t, client.doc)
		})
	}
}
