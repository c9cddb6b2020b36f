package adminguard

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LoginPath != "/login" || cfg.HomePath != "/dashboard" {
		t.Fatalf("unexpected paths %q %q", cfg.LoginPath, cfg.HomePath)
	}
	if cfg.ClockSkew != 0 {
		t.Fatalf("expected strict default, got skew %s", cfg.ClockSkew)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{name: "relative login path", edit: func(c *Config) { c.LoginPath = "login" }},
		{name: "relative home path", edit: func(c *Config) { c.HomePath = "dashboard" }},
		{name: "home equals login", edit: func(c *Config) { c.HomePath = c.LoginPath }},
		{name: "negative skew", edit: func(c *Config) { c.ClockSkew = -time.Second }},
		{name: "huge skew", edit: func(c *Config) { c.ClockSkew = time.Hour }},
		{name: "audit without buffer", edit: func(c *Config) { c.Audit = AuditConfig{Enabled: true} }},
		{name: "histograms without metrics", edit: func(c *Config) { c.Metrics = MetricsConfig{EnableLatencyHistograms: true} }},
		{name: "file store without path", edit: func(c *Config) { c.Store.Backend = StoreFile }},
		{name: "redis store without addr", edit: func(c *Config) { c.Store.Backend = StoreRedis }},
		{name: "unknown backend", edit: func(c *Config) { c.Store.Backend = "etcd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigValidateStoreBackends(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = StoreConfig{Backend: StoreFile, Path: "/tmp/farm2go/session.json"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("file store: %v", err)
	}
	cfg.Store = StoreConfig{Backend: StoreRedis, RedisAddr: "127.0.0.1:6379", RedisPrefix: "farm2go"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis store: %v", err)
	}
}
