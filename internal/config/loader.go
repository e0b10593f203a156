package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load decodes the current viper state into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	decode := func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
	if err := v.Unmarshal(cfg, decode); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	for name, quota := range map[string]Quota{
		"quotas.search":     c.Quotas.Search,
		"quotas.scrape":     c.Quotas.Scrape,
		"quotas.social":     c.Quotas.Social,
		"quotas.candidates": c.Quotas.Candidates,
	} {
		if quota.Capacity <= 0 {
			return fmt.Errorf("%s.capacity must be positive, got %d", name, quota.Capacity)
		}
		if quota.Period < time.Second {
			return fmt.Errorf("%s.period must be at least 1s, got %s", name, quota.Period)
		}
	}

	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be positive, got %d", c.Scrape.Concurrency)
	}
	if c.Scrape.MaxTargets <= 0 {
		return fmt.Errorf("scrape.max_targets must be positive, got %d", c.Scrape.MaxTargets)
	}
	if c.Failover.CoolDown <= 0 {
		return fmt.Errorf("failover.cool_down must be positive, got %s", c.Failover.CoolDown)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// SetDefaults installs the built-in defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Redis defaults; empty addr means local-only mode
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")

	// Quota defaults
	v.SetDefault("quotas.search.capacity", 5)
	v.SetDefault("quotas.search.period", "60s")
	v.SetDefault("quotas.scrape.capacity", 5)
	v.SetDefault("quotas.scrape.period", "60s")
	v.SetDefault("quotas.social.capacity", 15)
	v.SetDefault("quotas.social.period", "60s")
	v.SetDefault("quotas.candidates.capacity", 5)
	v.SetDefault("quotas.candidates.period", "60s")

	// Cache TTL defaults
	v.SetDefault("cache.search_ttl", "60s")
	v.SetDefault("cache.scrape_ttl", "60s")
	v.SetDefault("cache.candidates_ttl", "30m")

	// Scrape fan-out defaults
	v.SetDefault("scrape.concurrency", 5)
	v.SetDefault("scrape.batch_timeout", "30s")
	v.SetDefault("scrape.fetch_timeout", "10s")
	v.SetDefault("scrape.max_targets", 20)

	// Search defaults
	v.SetDefault("search.pace_interval", "1s")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.blacklisted_domains", []string{})

	// Failover defaults
	v.SetDefault("failover.cool_down", "30s")

	// Auth defaults (empty: auth disabled)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.secondary_api_key", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)

	// Debug defaults
	v.SetDefault("debug.enabled", false)
}
