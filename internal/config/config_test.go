package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "MCP_ADDRESS", "OPENWEATHER_API_KEY", "LOG_FORMAT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != "localhost:9292" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Weather.APIKey != "" {
		t.Fatalf("expected no api key, got %q", cfg.Weather.APIKey)
	}
	if cfg.Weather.Timeout != 5*time.Second {
		t.Fatalf("unexpected weather timeout: %s", cfg.Weather.Timeout)
	}
	if cfg.Weather.Lang != "ja" || cfg.Weather.Units != "metric" {
		t.Fatalf("unexpected weather query settings: %+v", cfg.Weather)
	}
	if cfg.Telemetry.Enabled() {
		t.Fatal("telemetry should be disabled without an endpoint")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t, "MCP_ADDRESS")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != "localhost:9292" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t, "MCP_ADDRESS", "OPENWEATHER_API_KEY", "WEATHER_CACHE_TTL")
	path := writeConfig(t, `
server:
  address: ":8080"
  read_timeout: 3s
weather:
  api_key: from-file
  lang: en
  cache:
    ttl: 1m
audit:
  enabled: true
log:
  format: text
`)
	t.Setenv("OPENWEATHER_API_KEY", "from-env")
	t.Setenv("WEATHER_CACHE_TTL", "30s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Fatalf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Fatalf("default write timeout lost: %s", cfg.Server.WriteTimeout)
	}
	if cfg.Weather.APIKey != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.Weather.APIKey)
	}
	if cfg.Weather.Lang != "en" {
		t.Fatalf("unexpected lang: %s", cfg.Weather.Lang)
	}
	if cfg.Weather.Cache.TTL != 30*time.Second {
		t.Fatalf("unexpected cache ttl: %s", cfg.Weather.Cache.TTL)
	}
	if !cfg.Audit.Enabled || cfg.Log.Format != "text" {
		t.Fatalf("unexpected audit/log settings: %+v %+v", cfg.Audit, cfg.Log)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty address":     func(c *Config) { c.Server.Address = "" },
		"zero body limit":   func(c *Config) { c.Server.MaxBodyBytes = 0 },
		"zero timeout":      func(c *Config) { c.Weather.Timeout = 0 },
		"bad limiter":       func(c *Config) { c.Weather.Limit.Burst = 0 },
		"cache without ttl": func(c *Config) { c.Weather.Cache.TTL = 0 },
		"bad log format":    func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
