package router

import (
	"net/http"
	"net/http/pprof"

	"github.com/prebid/vast-resolver/endpoints"
	metricsConf "github.com/prebid/vast-resolver/metrics/config"
	gometrics "github.com/rcrowley/go-metrics"
)

// Admin returns the handler of the admin server: pprof, the build version and a JSON
// dump of the go-metrics registry.
func Admin(version, revision string, metricsEngine *metricsConf.DetailedMetricsEngine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.HandleFunc("/version", endpoints.NewVersionEndpoint(version, revision))
	if metricsEngine != nil && metricsEngine.GoMetrics != nil {
		registry := metricsEngine.GoMetrics.MetricsRegistry
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			gometrics.WriteJSONOnce(registry, w)
		})
	}
	return mux
}
