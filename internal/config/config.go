// Package config はサーバーの設定を読み込みます
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はサーバー全体の設定です
type Config struct {
	Addr    string        `yaml:"addr"`
	PokeAPI PokeAPIConfig `yaml:"pokeapi"`
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Sentry  SentryConfig  `yaml:"sentry"`
}

// PokeAPIConfig は取得元APIへの接続設定です
type PokeAPIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
	Burst          int           `yaml:"burst"`
}

// CatalogConfig は一覧の読み込み設定です
type CatalogConfig struct {
	PageSize           int    `yaml:"page_size"`
	ImageURLTemplate   string `yaml:"image_url_template"`
	LegacyEndDetection bool   `yaml:"legacy_end_detection"`
}

// CacheConfig はレスポンスキャッシュの設定です。DSN が空ならキャッシュを使いません
type CacheConfig struct {
	DSN string        `yaml:"dsn"`
	TTL time.Duration `yaml:"ttl"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SentryConfig は DSN が空なら Sentry を無効にします
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// Default はデフォルト値を埋めた設定を返します
func Default() *Config {
	return &Config{
		Addr: ":8080",
		PokeAPI: PokeAPIConfig{
			BaseURL:        "https://pokeapi.co/api/v2",
			RequestTimeout: 30 * time.Second,
			RatePerSecond:  10,
			Burst:          5,
		},
		Catalog: CatalogConfig{
			PageSize:         20,
			ImageURLTemplate: "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png",
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Session: SessionConfig{
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
	}
}

// Load は設定を読み込みます
// デフォルト値、YAMLファイル（path が空なら省略）、環境変数の順に上書きし、最後に検証します
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := getenv("POKEDEX_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("POKEDEX_POKEAPI_BASE_URL"); v != "" {
		c.PokeAPI.BaseURL = v
	}
	if v := getenv("POKEDEX_CATALOG_IMAGE_URL_TEMPLATE"); v != "" {
		c.Catalog.ImageURLTemplate = v
	}
	if v := getenv("POKEDEX_CACHE_DSN"); v != "" {
		c.Cache.DSN = v
	}
	if v := getenv("POKEDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("POKEDEX_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("SENTRY_DSN"); v != "" {
		c.Sentry.DSN = v
	}
	if v := getenv("POKEDEX_SENTRY_ENVIRONMENT"); v != "" {
		c.Sentry.Environment = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"POKEDEX_POKEAPI_REQUEST_TIMEOUT", &c.PokeAPI.RequestTimeout},
		{"POKEDEX_CACHE_TTL", &c.Cache.TTL},
		{"POKEDEX_SESSION_IDLE_TIMEOUT", &c.Session.IdleTimeout},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"POKEDEX_POKEAPI_BURST", &c.PokeAPI.Burst},
		{"POKEDEX_CATALOG_PAGE_SIZE", &c.Catalog.PageSize},
	}
	for _, i := range ints {
		v := getenv(i.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}
		*i.dst = parsed
	}

	if v := getenv("POKEDEX_POKEAPI_RATE_PER_SECOND"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("POKEDEX_POKEAPI_RATE_PER_SECOND: %w", err)
		}
		c.PokeAPI.RatePerSecond = parsed
	}
	if v := getenv("POKEDEX_CATALOG_LEGACY_END_DETECTION"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("POKEDEX_CATALOG_LEGACY_END_DETECTION: %w", err)
		}
		c.Catalog.LegacyEndDetection = parsed
	}

	return nil
}

// Validate は設定値の整合性を確認します
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required (set POKEDEX_ADDR, PORT or yaml)")
	}
	if c.PokeAPI.BaseURL == "" {
		return errors.New("pokeapi.base_url is required")
	}
	if c.PokeAPI.RequestTimeout <= 0 {
		return errors.New("pokeapi.request_timeout must be positive")
	}
	if c.PokeAPI.RatePerSecond > 0 && c.PokeAPI.Burst < 1 {
		return errors.New("pokeapi.burst must be at least 1 when rate_per_second is set")
	}
	if c.Catalog.PageSize < 1 {
		return errors.New("catalog.page_size must be a positive integer")
	}
	if strings.Count(c.Catalog.ImageURLTemplate, "%d") != 1 {
		return errors.New("catalog.image_url_template must contain exactly one %d")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	if c.Session.IdleTimeout < 0 {
		return errors.New("session.idle_timeout must not be negative")
	}
	return nil
}
