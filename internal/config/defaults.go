package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaults are registered with viper and written by WriteDefault. Keys are
// dotted paths into Config.
var defaults = map[string]interface{}{
	"remote.url":               "http://localhost:8090",
	"remote.timeout":           "10s",
	"cache.path":               "",
	"cache.memory":             false,
	"connectivity.status_file": "",
	"sync.drain_timeout":       "3s",
	"dashboard.enabled":        false,
	"dashboard.port":           8081,
	"server.port":              8090,
	"log.file":                 "",
	"log.max_size_mb":          10,
	"log.max_backups":          3,
	"log.max_age_days":         28,
	"log.compress":             false,
}

// DefaultConfig returns the built-in configuration with paths resolved
// against home. It reads no files and no environment.
func DefaultConfig(home string) *Config {
	cfg, err := load(home, nil, false)
	if err != nil {
		// Defaults alone never fail to decode.
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Dir returns the planner directory under home.
func Dir(home string) string {
	return filepath.Join(home, ".planner")
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories. An existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	body, err := yaml.Marshal(nested(defaults))
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}

	header := "# Planner configuration\n" +
		"# Empty paths resolve under ~/.planner. Every key can be overridden with\n" +
		"# PLANNER_<SECTION>_<KEY>, for example PLANNER_REMOTE_URL.\n\n"
	return os.WriteFile(path, append([]byte(header), body...), 0o644)
}

// nested turns dotted keys into nested maps for YAML output.
func nested(flat map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{})
	for _, k := range keys {
		parts := strings.Split(k, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := m[p].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				m[p] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = flat[k]
	}
	return out
}
