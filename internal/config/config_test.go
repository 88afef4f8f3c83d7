package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	if cfg != Default() {
		t.Fatalf("Load() = %+v, want Default()", cfg)
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
proxy_addr = ":9999"

[cache]
capacity = 500
policy = "lru"
mode = "demo"
comparison_policy = "sieve"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ProxyAddr != ":9999" {
		t.Fatalf("ProxyAddr = %q, want :9999", cfg.Server.ProxyAddr)
	}
	if cfg.Cache.Capacity != 500 || cfg.Cache.Policy != "lru" || cfg.Cache.Mode != "demo" {
		t.Fatalf("Cache = %+v, want overridden fields", cfg.Cache)
	}
	if cfg.Cache.ComparisonPolicy != "sieve" {
		t.Fatalf("ComparisonPolicy = %q, want sieve", cfg.Cache.ComparisonPolicy)
	}
	// Fields not present in the TOML body must keep their Default() values.
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Fatalf("Upstream.Timeout = %v, want the default 5s", cfg.Upstream.Timeout)
	}
}

func TestLoad_InvalidTOMLErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() must error on malformed TOML")
	}
}
