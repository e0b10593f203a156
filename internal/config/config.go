// Package config defines the application configuration surface. Values are
// layered by viper: built-in defaults, an optional config file, then
// WEBRECON_-prefixed environment variables.
package config

import (
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Quotas   QuotasConfig   `mapstructure:"quotas"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Search   SearchConfig   `mapstructure:"search"`
	Failover FailoverConfig `mapstructure:"failover"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig locates the shared distributed store. An empty Addr means the
// service runs on the in-process backend from startup.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Quota is one scope's fixed-window budget.
type Quota struct {
	Capacity int           `mapstructure:"capacity"`
	Period   time.Duration `mapstructure:"period"`
}

// QuotasConfig carries the per-scope budgets. The documented constants for
// these drifted across revisions of the original service, so they are
// configuration rather than code.
type QuotasConfig struct {
	Search     Quota `mapstructure:"search"`
	Scrape     Quota `mapstructure:"scrape"`
	Social     Quota `mapstructure:"social"`
	Candidates Quota `mapstructure:"candidates"`
}

// CacheConfig carries the per-category result TTLs.
type CacheConfig struct {
	SearchTTL     time.Duration `mapstructure:"search_ttl"`
	ScrapeTTL     time.Duration `mapstructure:"scrape_ttl"`
	CandidatesTTL time.Duration `mapstructure:"candidates_ttl"`
}

// ScrapeConfig bounds the multi-URL fetch fan-out.
type ScrapeConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MaxTargets   int           `mapstructure:"max_targets"`
}

// SearchConfig configures the search collaborator.
type SearchConfig struct {
	PaceInterval       time.Duration `mapstructure:"pace_interval"`
	MaxResults         int           `mapstructure:"max_results"`
	BlacklistedDomains []string      `mapstructure:"blacklisted_domains"`
}

// FailoverConfig tunes the per-concern circuit breaker.
type FailoverConfig struct {
	CoolDown time.Duration `mapstructure:"cool_down"`
}

// AuthConfig holds the accepted API keys. Both keys are optional; with
// neither set, authentication is disabled (development mode).
type AuthConfig struct {
	APIKey          string `mapstructure:"api_key"`
	SecondaryAPIKey string `mapstructure:"secondary_api_key"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration.
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
