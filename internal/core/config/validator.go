package config

import (
	"fmt"
	"net"
	"strings"

	"notebook/internal/engine/completion"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateCompletion(cfg *Config) error {
	if cfg.Completion.MaxPrototypeDepth < 0 {
		return fmt.Errorf("completion.max_prototype_depth must be >= 0, got %d", cfg.Completion.MaxPrototypeDepth)
	}
	for i, pattern := range cfg.Completion.Hidden {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("completion.hidden[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateRealm(cfg *Config) error {
	for name := range cfg.Realm.Aliases {
		if !completion.IsValidVariableName(name) {
			return fmt.Errorf("realm.aliases key %q is not a valid identifier", name)
		}
		if completion.IsKeyword(name) {
			return fmt.Errorf("realm.aliases key %q is a reserved keyword", name)
		}
	}
	return nil
}

func validateServer(cfg *Config) error {
	rl := cfg.Server.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.RequestsPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_minute must be > 0 when enabled")
	}
	if rl.Burst <= 0 {
		return fmt.Errorf("server.rate_limit.burst must be > 0 when enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddress)
	if addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("observability.metrics_address %q must be host:port: %w", addr, err)
	}
	return nil
}
