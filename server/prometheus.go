package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prebid/vast-resolver/config"
	metricsconfig "github.com/prebid/vast-resolver/metrics/config"
)

const prometheusPath = "/metrics"

var errNoPrometheusEngine = errors.New("metrics.prometheus.port is set but no Prometheus metrics engine was built")

// newPrometheusServer serves the Prometheus registry of the engine on /metrics. Scrapes
// are counted on the same registry.
func newPrometheusServer(cfg *config.Configuration, engine *metricsconfig.DetailedMetricsEngine) (*http.Server, error) {
	if engine == nil || engine.PrometheusMetrics == nil {
		return nil, errNoPrometheusEngine
	}
	registry := engine.PrometheusMetrics.Registry

	scrape := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:            promErrorLog{},
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: 5,
		Timeout:             cfg.Metrics.Prometheus.Timeout(),
	})
	mux := http.NewServeMux()
	mux.Handle(prometheusPath, promhttp.InstrumentMetricHandler(registry, scrape))

	return &http.Server{
		Addr:              cfg.Host + ":" + strconv.Itoa(cfg.Metrics.Prometheus.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

// promErrorLog routes scrape errors to glog.
type promErrorLog struct{}

func (promErrorLog) Println(v ...interface{}) {
	glog.Warningln(v...)
}
