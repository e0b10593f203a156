package cmd

import (
	"context"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/webrecon/webrecon/internal/config"
	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/backend"
	"github.com/webrecon/webrecon/internal/core/engine"
	"github.com/webrecon/webrecon/internal/fetch"
	"github.com/webrecon/webrecon/internal/search"
)

// components is the wired engine shared by the server and the CLI commands.
type components struct {
	cfg      *config.Config
	registry *backend.Registry
	redis    *backend.Redis
	limiter  *engine.RateLimiter
	cache    *engine.ResultCache
	searcher *search.Service
	fetcher  *fetch.PageFetcher
}

// buildComponents loads the configuration and wires backend, limiter, cache,
// search, and fetch. With no redis address configured everything runs on the
// in-process backend. An unreachable redis at startup is only a warning: the
// failover registry serves locally and promotes once the store answers.
func buildComponents(ctx context.Context, logger *logging.Logger) (*components, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	var (
		distributed backend.Backend
		redisStore  *backend.Redis
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil && logger != nil {
			logger.Warn("Distributed store unreachable at startup, serving from local backend until it recovers",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err))
		}

		redisStore = backend.NewRedis(client)
		distributed = redisStore
	}

	registry := backend.NewRegistry(distributed, backend.NewMemory(), logger,
		backend.WithCoolDown(cfg.Failover.CoolDown))

	limiter := &engine.RateLimiter{
		Backend: registry.For(backend.ConcernRateLimit),
		Limits: map[core.Scope]engine.Limit{
			core.ScopeSearch:     {Capacity: cfg.Quotas.Search.Capacity, Period: cfg.Quotas.Search.Period},
			core.ScopeScrape:     {Capacity: cfg.Quotas.Scrape.Capacity, Period: cfg.Quotas.Scrape.Period},
			core.ScopeSocial:     {Capacity: cfg.Quotas.Social.Capacity, Period: cfg.Quotas.Social.Period},
			core.ScopeCandidates: {Capacity: cfg.Quotas.Candidates.Capacity, Period: cfg.Quotas.Candidates.Period},
		},
	}

	cache := &engine.ResultCache{Backend: registry.For(backend.ConcernCache)}

	searcher := search.NewService(search.NewGoogleClient(), cfg.Search.PaceInterval, cfg.Search.BlacklistedDomains)

	return &components{
		cfg:      cfg,
		registry: registry,
		redis:    redisStore,
		limiter:  limiter,
		cache:    cache,
		searcher: searcher,
		fetcher:  fetch.NewPageFetcher(cfg.Scrape.FetchTimeout),
	}, nil
}
