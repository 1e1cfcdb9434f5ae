package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	home := t.TempDir()

	cfg := DefaultConfig(home)

	if cfg.Remote.URL != "http://localhost:8090" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Remote.Timeout != 10*time.Second {
		t.Errorf("Remote.Timeout = %s, want 10s", cfg.Remote.Timeout)
	}
	if cfg.Sync.DrainTimeout != 3*time.Second {
		t.Errorf("Sync.DrainTimeout = %s, want 3s", cfg.Sync.DrainTimeout)
	}
	if want := filepath.Join(home, ".planner", "cache.db"); cfg.Cache.Path != want {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, want)
	}
	if want := filepath.Join(home, ".planner", "status"); cfg.Connectivity.StatusFile != want {
		t.Errorf("Connectivity.StatusFile = %q, want %q", cfg.Connectivity.StatusFile, want)
	}
	if cfg.Dashboard.Port != 8081 || cfg.Server.Port != 8090 {
		t.Errorf("ports = %d/%d, want 8081/8090", cfg.Dashboard.Port, cfg.Server.Port)
	}
}

func TestLoadFrom_ProjectOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	writeFile(t, GlobalConfigPath(home), `
remote:
  url: https://tasks.example.com
  timeout: 5s
log:
  file: ~/logs/planner.log
`)
	writeFile(t, ProjectConfigPath(project), `
remote:
  timeout: 2s
cache:
  memory: true
`)

	cfg, err := LoadFrom(home, project)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Remote.URL != "https://tasks.example.com" {
		t.Errorf("Remote.URL = %q, want global value", cfg.Remote.URL)
	}
	if cfg.Remote.Timeout != 2*time.Second {
		t.Errorf("Remote.Timeout = %s, want project value 2s", cfg.Remote.Timeout)
	}
	if !cfg.Cache.Memory {
		t.Error("Cache.Memory not applied from project config")
	}
	if want := filepath.Join(home, "logs", "planner.log"); cfg.Log.File != want {
		t.Errorf("Log.File = %q, want %q", cfg.Log.File, want)
	}
}

func TestLoadFrom_EnvOverridesFiles(t *testing.T) {
	home := t.TempDir()
	writeFile(t, GlobalConfigPath(home), "dashboard:\n  port: 9000\n")

	t.Setenv("PLANNER_DASHBOARD_PORT", "9100")
	t.Setenv("PLANNER_REMOTE_TIMEOUT", "750ms")

	cfg, err := LoadFrom(home, "")
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Dashboard.Port != 9100 {
		t.Errorf("Dashboard.Port = %d, want 9100", cfg.Dashboard.Port)
	}
	if cfg.Remote.Timeout != 750*time.Millisecond {
		t.Errorf("Remote.Timeout = %s, want 750ms", cfg.Remote.Timeout)
	}
}

func TestLoadFrom_MissingFilesUseDefaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadFrom(home, t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(home), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	home := t.TempDir()
	writeFile(t, GlobalConfigPath(home), "remote: [unclosed\n")

	if _, err := LoadFrom(home, ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad scheme", func(c *Config) { c.Remote.URL = "ftp://x" }, "remote.url"},
		{"no host", func(c *Config) { c.Remote.URL = "http://" }, "remote.url"},
		{"zero timeout", func(c *Config) { c.Remote.Timeout = 0 }, "remote.timeout"},
		{"negative drain", func(c *Config) { c.Sync.DrainTimeout = -time.Second }, "drain_timeout"},
		{"port range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	home := t.TempDir()
	path := GlobalConfigPath(home)

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	for _, want := range []string{"remote:", "url: http://localhost:8090", "timeout: 10s", "PLANNER_REMOTE_URL"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("written config missing %q:\n%s", want, content)
		}
	}

	// The written file loads back to the defaults.
	cfg, err := LoadFrom(home, "")
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(home), cfg); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if err := WriteDefault(path, false); err == nil {
		t.Error("expected error overwriting without force")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault with force failed: %v", err)
	}
}
