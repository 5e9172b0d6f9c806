package config_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/horao/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("horao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service != "horao" {
		t.Errorf("expected service horao, got %s", cfg.Service)
	}
	if cfg.NATS.CommandSubject != "horao.commands" {
		t.Errorf("expected horao.commands, got %s", cfg.NATS.CommandSubject)
	}
	if cfg.Pager.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Pager.Workers)
	}
	if cfg.Cache.Enabled || cfg.NATS.Enabled || cfg.Admin.Enabled {
		t.Error("expected optional services disabled by default")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HORAO_CACHE_ENABLED", "true")
	t.Setenv("HORAO_CACHE_ADDR", "valkey:6379")
	t.Setenv("HORAO_INPUT", "commands.txt")
	t.Setenv("HORAO_DATABASE_MAX_CONNS", "3")

	cfg, err := config.Load("horao")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "valkey:6379" {
		t.Errorf("expected cache at valkey:6379, got %+v", cfg.Cache)
	}
	if cfg.Input != "commands.txt" {
		t.Errorf("expected commands.txt, got %s", cfg.Input)
	}
	if cfg.Database.MaxConns != 3 {
		t.Errorf("expected 3 max conns, got %d", cfg.Database.MaxConns)
	}
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Log:      config.LogConfig{Level: "info", Format: "json"},
			Database: config.DatabaseConfig{MaxConns: 4},
			NATS:     config.NATSConfig{URL: "nats://localhost:4222", CommandSubject: "c", EventSubject: "e"},
			Admin:    config.AdminConfig{Port: 8080},
			Pager:    config.PagerConfig{Workers: 1, IntervalMS: 100},
		}
	}

	tests := []struct {
		name   string
		modify func(c *config.Config)
		want   string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"no conns", func(c *config.Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"cache without addr", func(c *config.Config) { c.Cache = config.CacheConfig{Enabled: true} }, "cache.addr"},
		{"nats without url", func(c *config.Config) { c.NATS.Enabled = true; c.NATS.URL = "" }, "nats.url"},
		{"nats url ignored when disabled", func(c *config.Config) { c.NATS.URL = "" }, ""},
		{"admin port", func(c *config.Config) { c.Admin = config.AdminConfig{Enabled: true, Port: 70000} }, "admin.port"},
		{"no workers", func(c *config.Config) { c.Pager.Workers = 0 }, "pager.workers"},
		{"no interval", func(c *config.Config) { c.Pager.IntervalMS = 0 }, "pager.interval_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
