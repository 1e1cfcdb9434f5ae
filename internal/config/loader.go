package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "PLANNER"

// Load merges defaults, the global and project config files and the
// environment. Missing files are skipped.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	return LoadFrom(home, cwd)
}

// LoadFrom is Load with explicit home and project directories. An empty
// projectDir skips the project file.
func LoadFrom(home, projectDir string) (*Config, error) {
	files := []string{GlobalConfigPath(home)}
	if projectDir != "" {
		files = append(files, ProjectConfigPath(projectDir))
	}
	return load(home, files, true)
}

func load(home string, files []string, env bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	for _, path := range files {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.resolvePaths(home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolvePaths(home string) {
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(Dir(home), "cache.db")
	}
	if c.Connectivity.StatusFile == "" {
		c.Connectivity.StatusFile = filepath.Join(Dir(home), "status")
	}
	c.Cache.Path = expandHome(c.Cache.Path, home)
	c.Connectivity.StatusFile = expandHome(c.Connectivity.StatusFile, home)
	c.Log.File = expandHome(c.Log.File, home)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Remote.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote.url must be an http(s) URL (got %q)", c.Remote.URL)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive (got %s)", c.Remote.Timeout)
	}
	if c.Sync.DrainTimeout < 0 {
		return fmt.Errorf("sync.drain_timeout must not be negative")
	}
	for name, port := range map[string]int{"dashboard.port": c.Dashboard.Port, "server.port": c.Server.Port} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%s out of range (got %d)", name, port)
		}
	}
	return nil
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath(home string) string {
	return filepath.Join(Dir(home), "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath(projectDir string) string {
	return filepath.Join(projectDir, ".planner", "config.yaml")
}
