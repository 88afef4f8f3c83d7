// Package config decodes the proxy's TOML configuration file and
// supplies defaults when the file is absent, mirroring the behavior of
// the original colander proxy-server's config loader.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kclaka/colander/cache"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full set of tunables for cmd/proxy.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Cache    CacheConfig    `toml:"cache"`
	Resp     RespConfig     `toml:"resp"`
}

// ServerConfig holds listen addresses. These are NOT hot-reloadable —
// changing them requires a process restart (see internal/configwatch).
type ServerConfig struct {
	ProxyAddr   string `toml:"proxy_addr"`
	MetricsAddr string `toml:"metrics_addr"`
}

// UpstreamConfig points the proxy at the origin it fronts.
type UpstreamConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// CacheConfig holds the cache settings. Capacity, the eviction policy
// choice, the optional comparison policy (for demo-mode side-by-side
// hit-rate measurement) and the mode are hot-reloadable; DefaultTTL and
// MaxBodyBytes are read once when cmd/proxy builds its handler and are
// not changed by a reload.
type CacheConfig struct {
	Capacity          int           `toml:"capacity"`
	DefaultTTL        time.Duration `toml:"default_ttl"`
	MaxBodyBytes      int64         `toml:"max_body_bytes"`
	Policy            string        `toml:"policy"`             // "sieve" | "lru" | "fifo"
	ComparisonPolicy  string        `toml:"comparison_policy"`  // "", "sieve", "lru", "fifo"
	Mode              string        `toml:"mode"`               // "bench" | "demo"
}

// RespConfig toggles the RESP2 (Redis wire protocol) adapter.
type RespConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the configuration used when no config.toml is present,
// matching the original proxy-server's documented defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ProxyAddr:   ":8080",
			MetricsAddr: ":9090",
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:8081",
			Timeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Capacity:     100_000,
			DefaultTTL:   30 * time.Second,
			MaxBodyBytes: 1 << 20,
			Policy:       "sieve",
			Mode:         "bench",
		},
		Resp: RespConfig{
			Enabled: false,
			Addr:    ":6380",
		},
	}
}

// Load reads and decodes path. If path does not exist, it returns
// Default() rather than erroring — the original proxy-server treats a
// missing config file as "use defaults", not a fatal condition.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// PolicyFactory resolves a policy name ("sieve", "lru", "fifo") to a
// cache.Factory. An empty name is treated as "none" and returns (nil, nil).
func PolicyFactory(name string) (cache.Factory, error) {
	switch name {
	case "":
		return nil, nil
	case "sieve":
		return cache.NewSieveFactory(), nil
	case "lru":
		return cache.NewLRUFactory(), nil
	case "fifo":
		return cache.NewFIFOFactory(), nil
	default:
		return nil, fmt.Errorf("config: unknown policy %q (want sieve, lru, or fifo)", name)
	}
}

// BuildLayer constructs a CacheLayer from the cache section of Config.
func (c Config) BuildLayer() (*cache.CacheLayer, error) {
	primaryFactory, err := PolicyFactory(c.Cache.Policy)
	if err != nil {
		return nil, err
	}
	if primaryFactory == nil {
		return nil, fmt.Errorf("config: cache.policy must be set")
	}
	primary := cache.NewSharded(c.Cache.Capacity, primaryFactory)

	var comparison *cache.ShardedCache
	if c.Cache.ComparisonPolicy != "" {
		cmpFactory, err := PolicyFactory(c.Cache.ComparisonPolicy)
		if err != nil {
			return nil, err
		}
		comparison = cache.NewSharded(c.Cache.Capacity, cmpFactory)
	}

	mode := cache.ModeBench
	if c.Cache.Mode == "demo" {
		mode = cache.ModeDemo
	}
	return cache.NewCacheLayer(primary, comparison, mode), nil
}
