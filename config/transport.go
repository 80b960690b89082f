package config

import (
	"fmt"
	"time"
)

// Transport configures the fetch strategies. HTTP is always available.
type Transport struct {
	HTTPClient HTTPClient    `mapstructure:"http_client"`
	File       FileTransport `mapstructure:"file"`
	Cache      DocumentCache `mapstructure:"cache"`
}

// HTTPClient configures the client shared by the HTTP fetcher and the tracker.
type HTTPClient struct {
	MaxConnsPerHost     int `mapstructure:"max_connections_per_host"`
	MaxIdleConns        int `mapstructure:"max_idle_connections"`
	MaxIdleConnsPerHost int `mapstructure:"max_idle_connections_per_host"`
	// Seconds
	IdleConnTimeout int `mapstructure:"idle_connection_timeout_seconds"`
	// Milliseconds. 0 keeps the net/http default.
	DialTimeout int `mapstructure:"dial_timeout_ms"`
	// Seconds
	DialKeepAlive int `mapstructure:"dial_keepalive_seconds"`
	// Seconds
	TLSHandshakeTimeout int `mapstructure:"tls_handshake_timeout_seconds"`
	// Seconds
	ResponseHeaderTimeout int `mapstructure:"response_header_timeout_seconds"`
	// PemCertsFile holds extra root certificates trusted on top of the host pool.
	PemCertsFile string `mapstructure:"pem_certs_file"`
}

type FileTransport struct {
	Enabled bool `mapstructure:"enabled"`
	// Root is the directory file:// paths are resolved within.
	Root string `mapstructure:"root"`
}

// DocumentCache keeps fetched documents in memory, keyed by URL.
type DocumentCache struct {
	Enabled    bool `mapstructure:"enabled"`
	SizeBytes  int  `mapstructure:"size_bytes"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
	// StatsIntervalSeconds is how often the cache statistics are logged. 0 disables the report.
	StatsIntervalSeconds int `mapstructure:"stats_interval_seconds"`
}

func (cfg *DocumentCache) StatsInterval() time.Duration {
	return time.Duration(cfg.StatsIntervalSeconds) * time.Second
}

func (cfg *DocumentCache) TTL() time.Duration {
	return time.Duration(cfg.TTLSeconds) * time.Second
}

// freecache refuses to go below this size.
const minDocumentCacheSize = 512 * 1024

func (cfg *Transport) validate(errs []error) []error {
	if cfg.HTTPClient.MaxConnsPerHost < 0 {
		errs = append(errs, fmt.Errorf("transport.http_client.max_connections_per_host must not be negative. Got %d", cfg.HTTPClient.MaxConnsPerHost))
	}
	if cfg.File.Enabled && cfg.File.Root == "" {
		errs = append(errs, fmt.Errorf("transport.file.root must be set when transport.file.enabled is true"))
	}
	if cfg.Cache.Enabled {
		if cfg.Cache.SizeBytes < minDocumentCacheSize {
			errs = append(errs, fmt.Errorf("transport.cache.size_bytes must be at least %d. Got %d", minDocumentCacheSize, cfg.Cache.SizeBytes))
		}
		if cfg.Cache.TTLSeconds < 0 {
			errs = append(errs, fmt.Errorf("transport.cache.ttl_seconds must not be negative. Got %d", cfg.Cache.TTLSeconds))
		}
		if cfg.Cache.StatsIntervalSeconds < 0 {
			errs = append(errs, fmt.Errorf("transport.cache.stats_interval_seconds must not be negative. Got %d", cfg.Cache.StatsIntervalSeconds))
		}
	}
	return errs
}
