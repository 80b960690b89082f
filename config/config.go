package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/errortypes"
	"github.com/spf13/viper"
)

// Configuration specifies the static application config.
type Configuration struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	AdminPort  int    `mapstructure:"admin_port"`
	EnableGzip bool   `mapstructure:"enable_gzip"`
	// StatusResponse is the body of GET /status. An empty value answers with 204.
	StatusResponse string `mapstructure:"status_response"`
	// MaxRequestSize limits the body of POST /vast.
	MaxRequestSize int64 `mapstructure:"max_request_size"`

	VAST      VAST      `mapstructure:"vast"`
	Capping   Capping   `mapstructure:"capping"`
	Transport Transport `mapstructure:"transport"`
	Tracking  Tracking  `mapstructure:"tracking"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

// VAST configures the Resolution Engine.
type VAST struct {
	// WrapperLimit is the maximum wrapper depth followed before a branch fails with 302.
	WrapperLimit int `mapstructure:"wrapper_limit"`
	// TimeoutMS bounds every document fetch. 0 means unbounded.
	TimeoutMS            int64  `mapstructure:"timeout_ms"`
	WithCredentials      bool   `mapstructure:"with_credentials"`
	MaxConcurrentFetches int    `mapstructure:"max_concurrent_fetches"`
	UserAgent            string `mapstructure:"user_agent"`
}

func (cfg *VAST) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

func (cfg *VAST) validate(errs []error) []error {
	if cfg.WrapperLimit < 1 {
		errs = append(errs, fmt.Errorf("vast.wrapper_limit must be at least 1. Got %d", cfg.WrapperLimit))
	}
	if cfg.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("vast.timeout_ms must not be negative. Got %d", cfg.TimeoutMS))
	}
	if cfg.MaxConcurrentFetches < 1 {
		errs = append(errs, fmt.Errorf("vast.max_concurrent_fetches must be at least 1. Got %d", cfg.MaxConcurrentFetches))
	}
	return errs
}

// Tracking configures the pixel sender used for error tracking.
type Tracking struct {
	Enabled   bool `mapstructure:"enabled"`
	TimeoutMS int  `mapstructure:"timeout_ms"`
}

func (cfg *Tracking) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

func (cfg *Tracking) validate(errs []error) []error {
	if cfg.Enabled && cfg.TimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("tracking.timeout_ms must be positive when tracking is enabled. Got %d", cfg.TimeoutMS))
	}
	return errs
}

type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) validate(errs []error) []error {
	if cfg.Port > 0 && cfg.TimeoutMillisRaw <= 0 {
		errs = append(errs, fmt.Errorf("metrics.prometheus.timeout_ms must be positive if metrics.prometheus.port is defined. Got timeout=%d and port=%d", cfg.TimeoutMillisRaw, cfg.Port))
	}
	return errs
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

func (cfg *Configuration) validate() []error {
	var errs []error
	if cfg.Port == cfg.AdminPort && cfg.Port != 0 {
		errs = append(errs, errors.New("port and admin_port must be different"))
	}
	if cfg.MaxRequestSize < 0 {
		errs = append(errs, fmt.Errorf("max_request_size must not be negative. Got %d", cfg.MaxRequestSize))
	}
	errs = cfg.VAST.validate(errs)
	errs = cfg.Capping.validate(errs)
	errs = cfg.Transport.validate(errs)
	errs = cfg.Tracking.validate(errs)
	errs = cfg.Metrics.Prometheus.validate(errs)
	return errs
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	c.Capping.Store.Type = StoreType(strings.ToLower(string(c.Capping.Store.Type)))

	glog.Info("Logging the resolved configuration:")
	logGeneral(c)

	if errs := c.validate(); len(errs) > 0 {
		return &c, errortypes.NewAggregateErrors("validation errors", errs)
	}
	return &c, nil
}

func logGeneral(c Configuration) {
	glog.Infof("host=%s port=%d admin_port=%d enable_gzip=%t", c.Host, c.Port, c.AdminPort, c.EnableGzip)
	glog.Infof("vast.wrapper_limit=%d vast.timeout_ms=%d vast.max_concurrent_fetches=%d", c.VAST.WrapperLimit, c.VAST.TimeoutMS, c.VAST.MaxConcurrentFetches)
	glog.Infof("capping.free_call_threshold=%d capping.minimum_call_interval_ms=%d capping.store.type=%s",
		c.Capping.FreeCallThreshold, c.Capping.MinimumCallIntervalMS, c.Capping.Store.Type)
}

// SetupViper registers the defaults and the config sources.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("status_response", "")
	v.SetDefault("max_request_size", 1024*512)

	v.SetDefault("vast.wrapper_limit", 10)
	v.SetDefault("vast.timeout_ms", 0)
	v.SetDefault("vast.with_credentials", false)
	v.SetDefault("vast.max_concurrent_fetches", 4)
	v.SetDefault("vast.user_agent", "vast-resolver")

	v.SetDefault("capping.free_call_threshold", 0)
	v.SetDefault("capping.minimum_call_interval_ms", 0)
	v.SetDefault("capping.store.type", string(StoreMemory))
	v.SetDefault("capping.store.key_prefix", "vast.")
	v.SetDefault("capping.store.redis.addr", "")
	v.SetDefault("capping.store.redis.db", 0)
	v.SetDefault("capping.store.redis.username", "")
	v.SetDefault("capping.store.redis.password", "")
	v.SetDefault("capping.store.redis.timeout_ms", 100)
	v.SetDefault("capping.store.memcache.hosts", []string{})
	v.SetDefault("capping.store.memcache.timeout_ms", 100)
	v.SetDefault("capping.store.aerospike.hosts", []string{})
	v.SetDefault("capping.store.aerospike.port", 3000)
	v.SetDefault("capping.store.aerospike.namespace", "test")
	v.SetDefault("capping.store.aerospike.set", "capping")
	v.SetDefault("capping.store.aerospike.timeout_ms", 100)

	v.SetDefault("transport.http_client.max_connections_per_host", 0)
	v.SetDefault("transport.http_client.max_idle_connections", 400)
	v.SetDefault("transport.http_client.max_idle_connections_per_host", 10)
	v.SetDefault("transport.http_client.idle_connection_timeout_seconds", 60)
	v.SetDefault("transport.http_client.dial_timeout_ms", 0)
	v.SetDefault("transport.http_client.dial_keepalive_seconds", 0)
	v.SetDefault("transport.http_client.tls_handshake_timeout_seconds", 0)
	v.SetDefault("transport.http_client.response_header_timeout_seconds", 0)
	v.SetDefault("transport.http_client.pem_certs_file", "")
	v.SetDefault("transport.file.enabled", false)
	v.SetDefault("transport.file.root", ".")
	v.SetDefault("transport.cache.enabled", false)
	v.SetDefault("transport.cache.size_bytes", 10*1024*1024)
	v.SetDefault("transport.cache.ttl_seconds", 60)
	v.SetDefault("transport.cache.stats_interval_seconds", 300)

	v.SetDefault("tracking.enabled", true)
	v.SetDefault("tracking.timeout_ms", 1000)

	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)

	v.SetEnvPrefix("VAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				glog.Warningf("Unable to read config file %s: %v", filename, err)
			}
		}
	}
}
