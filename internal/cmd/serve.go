package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/webrecon/webrecon/internal/core/backend"
	errwrap "github.com/webrecon/webrecon/internal/errors"
	"github.com/webrecon/webrecon/internal/observability"
	"github.com/webrecon/webrecon/internal/server"
	"github.com/webrecon/webrecon/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// backendHealthChecker reflects the failover registry: a demoted concern is
// degraded, not unhealthy, because the local backend keeps serving.
type backendHealthChecker struct {
	registry *backend.Registry
}

func (b backendHealthChecker) CheckHealth(ctx context.Context) error {
	if !b.registry.Distributed() {
		return nil
	}
	for _, status := range b.registry.Status() {
		if !status.UsingDistributed {
			return handlers.ErrDegraded
		}
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel := viper.GetString("logging.level")
		observability.InitServerLogger(appName, logLevel)

		metricsPort := viper.GetInt("metrics.port")
		if metricsPort == 0 {
			metricsPort = 9090
		}

		if err := observability.InitMetrics(appName, metricsPort); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}

		comps, err := buildComponents(cmd.Context(), observability.ServerLogger)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid")
		}
		cfg := comps.cfg

		host := serverHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := serverPort
		if port == 0 {
			port = cfg.Server.Port
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", host),
			zap.Int("port", port),
			zap.Int("metrics_port", metricsPort),
			zap.Bool("distributed_backend", comps.registry.Distributed()))

		// Health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		hm.RegisterChecker("backend", backendHealthChecker{registry: comps.registry})
		if comps.redis != nil {
			hm.RegisterChecker("redis", handlers.HealthCheckerFunc(func(ctx context.Context) error {
				if err := comps.redis.Ping(ctx); err != nil {
					// The registry keeps serving locally, so a dead store
					// degrades rather than fails the probe.
					return handlers.ErrDegraded
				}
				return nil
			}))
		}

		apiHandlers := server.Handlers{
			Search: &handlers.SearchHandler{
				Cache:    comps.cache,
				Limiter:  comps.limiter,
				Service:  comps.searcher,
				CacheTTL: cfg.Cache.SearchTTL,
			},
			Scrape: &handlers.ScrapeHandler{
				Cache:        comps.cache,
				Limiter:      comps.limiter,
				Fetcher:      comps.fetcher,
				Concurrency:  cfg.Scrape.Concurrency,
				MaxTargets:   cfg.Scrape.MaxTargets,
				CacheTTL:     cfg.Cache.ScrapeTTL,
				BatchTimeout: cfg.Scrape.BatchTimeout,
			},
			Quota:  &handlers.QuotaHandler{Limiter: comps.limiter},
			Health: hm,
		}

		srv := server.New(host, port, apiHandlers, cfg.Auth.APIKey, cfg.Auth.SecondaryAPIKey)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))

			// Quota and cache settings are read at wiring time; a restart is
			// still needed for those to take effect.
			return nil
		})

		// Double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", host),
				zap.Int("port", port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "server port (overrides config)")
}
