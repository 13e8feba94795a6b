package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads, defaults and validates the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	if abs, err := filepath.Abs(path); err == nil {
		cfg.Dir = filepath.Dir(abs)
	} else {
		cfg.Dir = filepath.Dir(path)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalizeCompletion(&cfg)
	normalizeRealm(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every section of cfg.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateCompletion(cfg); err != nil {
		return err
	}
	if err := validateRealm(cfg); err != nil {
		return err
	}
	if err := validateServer(cfg); err != nil {
		return err
	}
	if err := validateObservability(cfg); err != nil {
		return err
	}
	return nil
}

func normalizeCompletion(cfg *Config) {
	if len(cfg.Completion.Hidden) == 0 {
		return
	}
	normalized := make([]string, 0, len(cfg.Completion.Hidden))
	for _, pattern := range cfg.Completion.Hidden {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		normalized = append(normalized, pattern)
	}
	cfg.Completion.Hidden = normalized
}

func normalizeRealm(cfg *Config) {
	preload := make([]string, 0, len(cfg.Realm.Preload))
	for _, p := range cfg.Realm.Preload {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		preload = append(preload, p)
	}
	cfg.Realm.Preload = preload
}
