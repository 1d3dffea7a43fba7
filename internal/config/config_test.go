package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pokedex.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_defaults(t *testing.T) {
	t.Parallel()

	cfg, err := load("", envOf(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr got %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.Catalog.PageSize != 20 {
		t.Errorf("PageSize got %d, want 20", cfg.Catalog.PageSize)
	}
	if cfg.Cache.DSN != "" {
		t.Errorf("cache should be disabled by default, got %q", cfg.Cache.DSN)
	}
	if cfg.Catalog.LegacyEndDetection {
		t.Errorf("LegacyEndDetection should default to false")
	}
}

func TestLoad_yamlOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
addr: ":9090"
pokeapi:
  request_timeout: 5s
  rate_per_second: 2.5
  burst: 1
catalog:
  page_size: 50
  legacy_end_detection: true
cache:
  dsn: /tmp/pokedex.db
  ttl: 1h
log:
  level: debug
`)

	cfg, err := load(path, envOf(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr got %q", cfg.Addr)
	}
	if cfg.PokeAPI.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout got %v", cfg.PokeAPI.RequestTimeout)
	}
	if cfg.PokeAPI.RatePerSecond != 2.5 || cfg.PokeAPI.Burst != 1 {
		t.Errorf("rate got %v/%d", cfg.PokeAPI.RatePerSecond, cfg.PokeAPI.Burst)
	}
	if cfg.Catalog.PageSize != 50 || !cfg.Catalog.LegacyEndDetection {
		t.Errorf("Catalog got %+v", cfg.Catalog)
	}
	if cfg.Cache.DSN != "/tmp/pokedex.db" || cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache got %+v", cfg.Cache)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log got %+v", cfg.Log)
	}
	if cfg.PokeAPI.BaseURL != "https://pokeapi.co/api/v2" {
		t.Errorf("unset keys should keep defaults, BaseURL got %q", cfg.PokeAPI.BaseURL)
	}
}

func TestLoad_envOverridesYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "catalog:\n  page_size: 50\n")

	cfg, err := load(path, envOf(map[string]string{
		"PORT":                                 "3000",
		"POKEDEX_CATALOG_PAGE_SIZE":            "10",
		"POKEDEX_SESSION_IDLE_TIMEOUT":         "90s",
		"POKEDEX_CATALOG_LEGACY_END_DETECTION": "true",
		"SENTRY_DSN":                           "https://key@sentry.example.com/1",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":3000" {
		t.Errorf("Addr got %q, want %q", cfg.Addr, ":3000")
	}
	if cfg.Catalog.PageSize != 10 {
		t.Errorf("PageSize got %d, want 10", cfg.Catalog.PageSize)
	}
	if cfg.Session.IdleTimeout != 90*time.Second {
		t.Errorf("IdleTimeout got %v", cfg.Session.IdleTimeout)
	}
	if !cfg.Catalog.LegacyEndDetection {
		t.Errorf("LegacyEndDetection should be enabled from env")
	}
	if cfg.Sentry.DSN == "" {
		t.Errorf("Sentry DSN should be set from env")
	}
}

func TestLoad_rejectsMalformedEnv(t *testing.T) {
	t.Parallel()

	_, err := load("", envOf(map[string]string{"POKEDEX_CACHE_TTL": "tomorrow"}))
	if err == nil || !strings.Contains(err.Error(), "POKEDEX_CACHE_TTL") {
		t.Fatalf("expected POKEDEX_CACHE_TTL error, got %v", err)
	}
}

func TestLoad_missingFile(t *testing.T) {
	t.Parallel()

	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), envOf(nil))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*Config){
		"zero page size":       func(c *Config) { c.Catalog.PageSize = 0 },
		"template without %d":  func(c *Config) { c.Catalog.ImageURLTemplate = "https://example.com/sprite.png" },
		"zero request timeout": func(c *Config) { c.PokeAPI.RequestTimeout = 0 },
		"rate without burst":   func(c *Config) { c.PokeAPI.Burst = 0 },
		"negative ttl":         func(c *Config) { c.Cache.TTL = -time.Second },
	}
	for name, mutate := range tests {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}
