package router

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/vast-resolver/capping"
	"github.com/prebid/vast-resolver/client"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/endpoints"
	metricsConf "github.com/prebid/vast-resolver/metrics/config"
	"github.com/prebid/vast-resolver/resolver"
	"github.com/prebid/vast-resolver/server/ssl"
	"github.com/prebid/vast-resolver/tracking"
	"github.com/prebid/vast-resolver/transport"
	"github.com/prebid/vast-resolver/transport/caching"
	"github.com/prebid/vast-resolver/transport/file_fetcher"
	"github.com/prebid/vast-resolver/transport/http_fetcher"
	"github.com/prebid/vast-resolver/util/task"
	"github.com/rs/cors"
)

// NoCache Middleware
type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

type Router struct {
	*httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	Client        *client.Client
	Resolver      *resolver.Resolver
	Shutdown      func()
}

func getTransport(cfg config.HTTPClient, certPool *x509.CertPool) *http.Transport {
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
		IdleConnTimeout: time.Duration(cfg.IdleConnTimeout) * time.Second,
		TLSClientConfig: &tls.Config{RootCAs: certPool},
	}

	if cfg.DialTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   time.Duration(cfg.DialTimeout) * time.Millisecond,
			KeepAlive: time.Duration(cfg.DialKeepAlive) * time.Second,
		}).DialContext
	}

	if cfg.TLSHandshakeTimeout > 0 {
		transport.TLSHandshakeTimeout = time.Duration(cfg.TLSHandshakeTimeout) * time.Second
	}

	if cfg.ResponseHeaderTimeout > 0 {
		transport.ResponseHeaderTimeout = time.Duration(cfg.ResponseHeaderTimeout) * time.Second
	}

	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
	}

	if cfg.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}

	return transport
}

// New builds the resolver and its collaborators from the configuration and registers the public endpoints.
func New(cfg *config.Configuration, version, revision string) (r *Router, err error) {
	r = &Router{
		Router: httprouter.New(),
	}
	var shutdownFuncs []func()
	shutdown := func() {
		for _, shutdown := range shutdownFuncs {
			shutdown()
		}
	}
	r.Shutdown = shutdown
	defer func() {
		if err != nil {
			shutdown()
		}
	}()

	// Documents are fetched with the host certificates and the ones found in the configured file.
	certPool := ssl.GetRootCAPool()
	var readCertErr error
	certPool, readCertErr = ssl.AppendPEMFileToRootCAPool(certPool, cfg.Transport.HTTPClient.PemCertsFile)
	if readCertErr != nil {
		glog.Infof("Could not read certificates file: %s \n", readCertErr.Error())
	}
	generalHttpClient := &http.Client{
		Transport: getTransport(cfg.Transport.HTTPClient, certPool),
	}

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg)

	var httpFetcher transport.Fetcher = http_fetcher.NewFetcher(generalHttpClient, cfg.VAST.UserAgent)
	if cfg.Transport.Cache.Enabled {
		cachingFetcher := caching.WithCache(httpFetcher, cfg.Transport.Cache, r.MetricsEngine)
		httpFetcher = cachingFetcher
		if interval := cfg.Transport.Cache.StatsInterval(); interval > 0 {
			statsTask := task.NewTickerTaskWithOptions(task.Options{
				Interval:       interval,
				Runner:         cachingFetcher,
				SkipInitialRun: true,
			})
			statsTask.Start()
			shutdownFuncs = append(shutdownFuncs, statsTask.Stop)
		}
	}

	var fileFetcher transport.Fetcher
	if cfg.Transport.File.Enabled {
		fetcher, err := file_fetcher.NewFileFetcher(cfg.Transport.File.Root)
		if err != nil {
			return nil, err
		}
		fileFetcher = fetcher
	}

	dispatcher := transport.NewDispatcher(httpFetcher, fileFetcher, r.MetricsEngine)
	tracker := tracking.NewTracker(cfg.Tracking, generalHttpClient, cfg.VAST.UserAgent)
	r.Resolver = resolver.New(dispatcher, tracker, r.MetricsEngine, cfg.VAST.MaxConcurrentFetches)

	store, err := capping.NewStore(cfg.Capping.Store)
	if err != nil {
		return nil, err
	}
	if err := capping.CheckStore(context.Background(), store); err != nil {
		glog.Warningf("Capping store %s is unreachable, calls are admitted until it recovers: %v", cfg.Capping.Store.Type, err)
	}
	if closer, ok := store.(io.Closer); ok {
		shutdownFuncs = append(shutdownFuncs, func() {
			if err := closer.Close(); err != nil {
				glog.Errorf("Error closing the capping store: %v", err)
			}
		})
	}
	gate := capping.NewGate(store, cfg.Capping, clock.New(), r.MetricsEngine)
	r.Client = client.NewClient(r.Resolver, gate, cfg.VAST)

	r.GET("/vast", endpoints.NewVASTEndpoint(r.Client))
	r.POST("/vast", endpoints.NewVASTDocumentEndpoint(r.Client, cfg.MaxRequestSize))
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))
	r.Handler(http.MethodGet, "/version", endpoints.NewVersionEndpoint(version, revision))

	return r, nil
}

// SupportCORS wraps the handler so that browsers may call the resolver from any page.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}
