package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/prebid/vast-resolver/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineTag = `<VAST version="3.0"><Ad id="a"><InLine><AdSystem>test</AdSystem>` +
	`<Creatives><Creative><Linear><Duration>00:00:15</Duration></Linear></Creative></Creatives>` +
	`</InLine></Ad></VAST>`

func newTestConfig(t *testing.T) *config.Configuration {
	t.Helper()
	v := viper.New()
	config.SetupViper(v, "")
	cfg, err := config.New(v)
	require.NoError(t, err)
	cfg.Tracking.Enabled = false
	return cfg
}

func TestNoCache(t *testing.T) {
	nc := NoCache{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	}
	rw := httptest.NewRecorder()
	req, err := http.NewRequest("GET", "http://localhost/somepage", nil)
	require.NoError(t, err)
	nc.ServeHTTP(rw, req)
	h := rw.Header()
	assert.Equal(t, "no-cache, no-store, must-revalidate", h.Get("Cache-Control"))
	assert.Equal(t, "no-cache", h.Get("Pragma"))
	assert.Equal(t, "0", h.Get("Expires"))
}

func TestSupportCORS(t *testing.T) {
	handler := SupportCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/vast", nil)
	req.Header.Set("Origin", "https://publisher.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, req)

	assert.Equal(t, "https://publisher.example.com", rw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rw.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRoutes(t *testing.T) {
	tagServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(inlineTag))
	}))
	defer tagServer.Close()

	cfg := newTestConfig(t)
	cfg.StatusResponse = "ok"
	r, err := New(cfg, "1.0.0", "abc")
	require.NoError(t, err)
	defer r.Shutdown()

	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, "ok", rw.Body.String())

	rw = httptest.NewRecorder()
	r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.JSONEq(t, `{"revision":"abc","version":"1.0.0"}`, rw.Body.String())

	rw = httptest.NewRecorder()
	r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/vast?url="+url.QueryEscape(tagServer.URL+"/tag.xml"), nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), `"id":"a"`)
}

func TestFileTransportAndCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tag.xml"), []byte(inlineTag), 0644))

	cfg := newTestConfig(t)
	cfg.Transport.File.Enabled = true
	cfg.Transport.File.Root = dir
	cfg.Transport.Cache.Enabled = true
	r, err := New(cfg, "", "")
	require.NoError(t, err)
	defer r.Shutdown()

	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/vast?url="+url.QueryEscape("file:///tag.xml"), nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), `"id":"a"`)
}

func TestFileTransportNeedsADirectory(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Transport.File.Enabled = true
	cfg.Transport.File.Root = filepath.Join(t.TempDir(), "missing")

	_, err := New(cfg, "", "")
	assert.Error(t, err)
}

func TestUnreachableAerospikeStore(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Capping.Store.Type = config.StoreAerospike
	cfg.Capping.Store.Aerospike = config.AerospikeStore{
		Hosts:     []string{"127.0.0.1"},
		Port:      1,
		Namespace: "test",
		Set:       "capping",
		TimeoutMS: 100,
	}

	_, err := New(cfg, "", "")
	assert.ErrorContains(t, err, "aerospike connection")
}

func TestAdmin(t *testing.T) {
	cfg := newTestConfig(t)
	r, err := New(cfg, "", "")
	require.NoError(t, err)
	defer r.Shutdown()

	admin := Admin("1.0.0", "abc", r.MetricsEngine)

	rw := httptest.NewRecorder()
	admin.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "vastresolver.")

	rw = httptest.NewRecorder()
	admin.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.JSONEq(t, `{"revision":"abc","version":"1.0.0"}`, rw.Body.String())
}
