// Package config loads the admin-table configuration from a TOML file and
// ADMINTABLE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/table"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. ADMINTABLE_API_BASE_URL.
const EnvPrefix = "ADMINTABLE"

type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Redis RedisConfig `mapstructure:"redis"`
	Table TableConfig `mapstructure:"table"`
	Log   LogConfig   `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	DB      int    `mapstructure:"db"`
	Enabled bool   `mapstructure:"enabled"`
}

type TableConfig struct {
	DefaultLimit       int    `mapstructure:"default_limit"`
	RowsPerPageOptions []int  `mapstructure:"rows_per_page_options"`
	BasePath           string `mapstructure:"base_path"`
	Ordering           string `mapstructure:"ordering"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			UserAgent:      "admin-table/1.0 (https://github.com/Sternrassler/admin-datatable)",
			Timeout:        30 * time.Second,
			MaxRetries:     2,
			InitialBackoff: 1 * time.Second,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			DB:      0,
			Enabled: false,
		},
		Table: TableConfig{
			DefaultLimit:       10,
			RowsPerPageOptions: []int{10, 20, 40, 80, 100},
			BasePath:           "/admin",
			Ordering:           "latest_issued",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads the config file at configPath, or config.toml from
// ~/.config/admin-table and the working directory when configPath is empty.
// A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(homeDir, ".config", "admin-table"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.initial_backoff", cfg.API.InitialBackoff)

	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.enabled", cfg.Redis.Enabled)

	v.SetDefault("table.default_limit", cfg.Table.DefaultLimit)
	v.SetDefault("table.rows_per_page_options", cfg.Table.RowsPerPageOptions)
	v.SetDefault("table.base_path", cfg.Table.BasePath)
	v.SetDefault("table.ordering", cfg.Table.Ordering)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.pretty", cfg.Log.Pretty)
}

// Validate checks values the client and controller cannot recover from.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries cannot be negative: %d", c.API.MaxRetries)
	}
	if c.Table.DefaultLimit <= 0 {
		return fmt.Errorf("table.default_limit must be positive: %d", c.Table.DefaultLimit)
	}
	if o := table.Ordering(c.Table.Ordering); o != "" && !o.Valid() {
		return fmt.Errorf("table.ordering must be %q or %q: %q", table.LatestIssued, table.LatestResolved, c.Table.Ordering)
	}
	for _, n := range c.Table.RowsPerPageOptions {
		if n <= 0 {
			return fmt.Errorf("table.rows_per_page_options must be positive: %d", n)
		}
	}
	return nil
}

// Save writes cfg as TOML to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	v := viper.New()

	v.Set("api", map[string]interface{}{
		"base_url":        cfg.API.BaseURL,
		"user_agent":      cfg.API.UserAgent,
		"timeout":         cfg.API.Timeout.String(),
		"max_retries":     cfg.API.MaxRetries,
		"initial_backoff": cfg.API.InitialBackoff.String(),
	})
	v.Set("redis", map[string]interface{}{
		"addr":    cfg.Redis.Addr,
		"db":      cfg.Redis.DB,
		"enabled": cfg.Redis.Enabled,
	})
	v.Set("table", map[string]interface{}{
		"default_limit":         cfg.Table.DefaultLimit,
		"rows_per_page_options": cfg.Table.RowsPerPageOptions,
		"base_path":             cfg.Table.BasePath,
		"ordering":              cfg.Table.Ordering,
	})
	v.Set("log", map[string]interface{}{
		"level":  cfg.Log.Level,
		"pretty": cfg.Log.Pretty,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

// GenerateDefaultConfig writes the built-in configuration to path.
func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
