package config

import (
	"time"

	"notebook/internal/engine/completion"
)

type Config struct {
	Version       int           `toml:"version"`
	Completion    Completion    `toml:"completion"`
	Realm         Realm         `toml:"realm"`
	Server        Server        `toml:"server"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`

	// Dir is the directory of the loaded file; relative paths resolve
	// against it.
	Dir string `toml:"-"`
}

type Completion struct {
	MaxPrototypeDepth int      `toml:"max_prototype_depth"`
	Hidden            []string `toml:"hidden"` // glob patterns of names never suggested
}

type Realm struct {
	Preload []string          `toml:"preload"`
	Aliases map[string]string `toml:"aliases"`
}

type Server struct {
	RequestTimeout time.Duration `toml:"request_timeout"`
	RateLimit      RateLimit     `toml:"rate_limit"`
}

type RateLimit struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Preload  bool          `toml:"preload"` // re-run preload scripts when they change
	Debounce time.Duration `toml:"debounce"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Completion.MaxPrototypeDepth == 0 {
		cfg.Completion.MaxPrototypeDepth = completion.DefaultMaxPrototypeDepth
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 5 * time.Second
	}
	if cfg.Server.RateLimit.RequestsPerMinute == 0 {
		cfg.Server.RateLimit.RequestsPerMinute = 600
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 50
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "notebook"
	}
	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 100 * time.Millisecond
	}
	if cfg.Realm.Aliases == nil {
		cfg.Realm.Aliases = map[string]string{}
	}
}
