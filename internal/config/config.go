// Package config loads planner settings from YAML files and the environment.
//
// Sources, lowest precedence first:
//
//	built-in defaults
//	~/.planner/config.yaml   (global)
//	./.planner/config.yaml   (project)
//	PLANNER_* environment variables (PLANNER_REMOTE_URL, PLANNER_LOG_FILE, ...)
package config

import (
	"time"
)

// Config represents the full planner configuration
type Config struct {
	Remote       RemoteConfig       `yaml:"remote" mapstructure:"remote"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Connectivity ConnectivityConfig `yaml:"connectivity" mapstructure:"connectivity"`
	Sync         SyncConfig         `yaml:"sync" mapstructure:"sync"`
	Dashboard    DashboardConfig    `yaml:"dashboard" mapstructure:"dashboard"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// RemoteConfig points at the authoritative task store
type RemoteConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures the device-local cache
type CacheConfig struct {
	// Path of the SQLite cache file. Empty means ~/.planner/cache.db.
	Path string `yaml:"path" mapstructure:"path"`

	// Memory keeps the cache in process memory only.
	Memory bool `yaml:"memory" mapstructure:"memory"`
}

// ConnectivityConfig configures the host connectivity signal
type ConnectivityConfig struct {
	// StatusFile holds "online" or "offline". Empty means ~/.planner/status.
	StatusFile string `yaml:"status_file" mapstructure:"status_file"`
}

// SyncConfig tunes the sync engine
type SyncConfig struct {
	// DrainTimeout bounds how long one-shot commands wait for remote calls
	// fired at teardown.
	DrainTimeout time.Duration `yaml:"drain_timeout" mapstructure:"drain_timeout"`
}

// DashboardConfig configures the WebSocket dashboard started by the daemon
type DashboardConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Port    int  `yaml:"port" mapstructure:"port"`
}

// ServerConfig configures the reference remote store (serve-remote)
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures log output and rotation
type LogConfig struct {
	// File receives logs with rotation. Empty means stderr when verbose and
	// nowhere otherwise.
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}
