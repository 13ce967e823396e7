package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
	if cfg.Pagination.DefaultLimit != 20 {
		t.Errorf("DefaultLimit = %d, want 20", cfg.Pagination.DefaultLimit)
	}
	if cfg.Pagination.MaxLimit != 100 {
		t.Errorf("MaxLimit = %d, want 100", cfg.Pagination.MaxLimit)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
}

func TestLoadFromReader(t *testing.T) {
	yml := `
server:
  addr: ":9090"
  shutdown_timeout: 5s
postgres:
  dsn: "postgres://app@db:5432/orders"
pagination:
  default_limit: 25
  max_limit: 50
cache:
  enabled: false
  ttl: 10s
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader returned error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Postgres.DSN != "postgres://app@db:5432/orders" {
		t.Errorf("DSN = %q not applied", cfg.Postgres.DSN)
	}
	if cfg.Pagination.DefaultLimit != 25 || cfg.Pagination.MaxLimit != 50 {
		t.Errorf("pagination = %+v, want 25/50", cfg.Pagination)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled should be false")
	}
	// Unset sections keep defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want default", cfg.Redis.Addr)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("serverr:\n  addr: \":1\"\n"))
	if err == nil {
		t.Fatal("unknown top-level key should fail to decode")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/orderdesk.yaml")
	if err != nil {
		t.Fatalf("Load with missing file returned error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default :8080", cfg.Server.Addr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORDERDESK_ADDR", ":7070")
	t.Setenv("ORDERDESK_POSTGRES_DSN", "postgres://env@host/db")
	t.Setenv("ORDERDESK_CACHE_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q, want env override :7070", cfg.Server.Addr)
	}
	if cfg.Postgres.DSN != "postgres://env@host/db" {
		t.Errorf("DSN = %q, want env override", cfg.Postgres.DSN)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled should be overridden to false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server.addr",
		},
		{
			name:    "empty dsn",
			mutate:  func(c *Config) { c.Postgres.DSN = "" },
			wantErr: "postgres.dsn",
		},
		{
			name:    "zero default limit",
			mutate:  func(c *Config) { c.Pagination.DefaultLimit = 0 },
			wantErr: "default_limit",
		},
		{
			name:    "max below default",
			mutate:  func(c *Config) { c.Pagination.MaxLimit = 5 },
			wantErr: "max_limit",
		},
		{
			name:    "enabled cache without ttl",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: "cache.ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}
