package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the frontend server configuration.
type Config struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:""`
	Port           string        `envconfig:"PORT" default:"3000"`
	BaseURL        string        `envconfig:"BASE_URL" default:""`
	APIBaseURL     string        `envconfig:"API_BASE_URL" default:"http://localhost:8080/api/v1"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"debug"`
	EnableTracing  bool          `envconfig:"ENABLE_TRACING" default:"false"`
	EnableProfiler bool          `envconfig:"ENABLE_PROFILER" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EdgeProxyConfig configures the SPA edge proxy: static assets are
// served from the object-storage origin with a long cache lifetime,
// every other path serves the origin's index.html with a short one.
type EdgeProxyConfig struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:""`
	Port           string        `envconfig:"PORT" default:"8090"`
	OriginBaseURL  string        `envconfig:"ORIGIN_BASE_URL" default:"https://storage.googleapis.com/order.dolinaflo.com"`
	StaticCacheTTL time.Duration `envconfig:"STATIC_CACHE_TTL" default:"8760h"`
	IndexCacheTTL  time.Duration `envconfig:"INDEX_CACHE_TTL" default:"5m"`
	RequestTimeout time.Duration `envconfig:"ORIGIN_REQUEST_TIMEOUT" default:"10s"`
}

func LoadEdgeProxy() (*EdgeProxyConfig, error) {
	var cfg EdgeProxyConfig
	if err := envconfig.Process("EDGE", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
