package config

import (
	"path/filepath"
	"strings"
)

// PreloadPaths resolves the realm preload scripts against the config
// directory.
func PreloadPaths(cfg *Config) []string {
	out := make([]string, 0, len(cfg.Realm.Preload))
	for _, p := range cfg.Realm.Preload {
		out = append(out, ResolveRelative(cfg.Dir, p))
	}
	return out
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) || base == "" {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
