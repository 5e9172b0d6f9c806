package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Service  string         `mapstructure:"-"`
	Input    string         `mapstructure:"input"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Pager    PagerConfig    `mapstructure:"pager"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig tunes the pools opened for each conn_info. Connection
// strings themselves come with the commands.
type DatabaseConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
}

type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type NATSConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	CommandSubject string `mapstructure:"command_subject"`
	EventSubject   string `mapstructure:"event_subject"`
}

type AdminConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// PagerConfig drives the tile pager. Eye is the "x y z" viewpoint, in
// layer-local coordinates, that ranges are measured from.
type PagerConfig struct {
	Workers    int    `mapstructure:"workers"`
	IntervalMS int    `mapstructure:"interval_ms"`
	Eye        string `mapstructure:"eye"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("input", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.command_subject", "horao.commands")
	v.SetDefault("nats.event_subject", "horao.layer")
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.port", 8080)
	v.SetDefault("pager.workers", 4)
	v.SetDefault("pager.interval_ms", 500)
	v.SetDefault("pager.eye", "0 0 0")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: HORAO_CACHE_ADDR → cache.addr
	v.SetEnvPrefix("HORAO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Service = service

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be positive, got %d", c.Database.MaxConns))
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, "cache.addr is required when the cache is enabled")
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, "cache.ttl_seconds must not be negative")
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			errs = append(errs, "nats.url is required when nats is enabled")
		}
		if c.NATS.CommandSubject == "" {
			errs = append(errs, "nats.command_subject is required when nats is enabled")
		}
		if c.NATS.EventSubject == "" {
			errs = append(errs, "nats.event_subject is required when nats is enabled")
		}
	}
	if c.Admin.Enabled && (c.Admin.Port <= 0 || c.Admin.Port > 65535) {
		errs = append(errs, fmt.Sprintf("admin.port must be 1-65535, got %d", c.Admin.Port))
	}
	if c.Pager.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("pager.workers must be positive, got %d", c.Pager.Workers))
	}
	if c.Pager.IntervalMS <= 0 {
		errs = append(errs, fmt.Sprintf("pager.interval_ms must be positive, got %d", c.Pager.IntervalMS))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
