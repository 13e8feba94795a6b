package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: NOTEBOOK_[SECTION]_[KEY] (e.g., NOTEBOOK_OBSERVABILITY_METRICS_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	// Completion
	setEnvInt(&cfg.Completion.MaxPrototypeDepth, "NOTEBOOK_COMPLETION_MAX_PROTOTYPE_DEPTH")
	setEnvList(&cfg.Completion.Hidden, "NOTEBOOK_COMPLETION_HIDDEN")

	// Realm
	setEnvList(&cfg.Realm.Preload, "NOTEBOOK_REALM_PRELOAD")

	// Server
	setEnvDuration(&cfg.Server.RequestTimeout, "NOTEBOOK_SERVER_REQUEST_TIMEOUT")
	setEnvBool(&cfg.Server.RateLimit.Enabled, "NOTEBOOK_SERVER_RATE_LIMIT_ENABLED")
	setEnvInt(&cfg.Server.RateLimit.RequestsPerMinute, "NOTEBOOK_SERVER_RATE_LIMIT_REQUESTS_PER_MINUTE")
	setEnvInt(&cfg.Server.RateLimit.Burst, "NOTEBOOK_SERVER_RATE_LIMIT_BURST")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "NOTEBOOK_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "NOTEBOOK_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "NOTEBOOK_OBSERVABILITY_SERVICE_NAME")

	// Watch
	setEnvBool(&cfg.Watch.Enabled, "NOTEBOOK_WATCH_ENABLED")
	setEnvBool(&cfg.Watch.Preload, "NOTEBOOK_WATCH_PRELOAD")
	setEnvDuration(&cfg.Watch.Debounce, "NOTEBOOK_WATCH_DEBOUNCE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
