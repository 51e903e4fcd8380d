// Package main provides the entry point for respkv-server, an in-memory
// key-value server speaking a subset of the Redis RESP protocol.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/infra/tlsroots"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/httpserver"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "in-memory key-value server speaking RESP",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"RESPKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address (overrides server.redis.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides log.level)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "Serve health, readiness and metrics on this address (enables server.http)",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	overrides := flagOverrides(c)

	cfg, keys, err := loadConfig(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("starting respkv-server",
		"version", buildinfo.Get().Version,
		"config_file", configFile,
		"config", cfg)
	log.Debug("configuration keys set outside defaults", "keys", keys)

	store := memory.New(memory.WithShards(cfg.Storage.Shards))
	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	if configFile != "" {
		w, err := watchLogLevel(configFile, overrides, log)
		if err != nil {
			log.Warn("config file watch disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return w.Stop()
			})
		}
	}

	var registry *metric.Registry
	if cfg.Server.HTTP.Enabled {
		registry = metric.NewRegistry()
		registry.MustRegister(metric.NewStoreCollector(store))
	}

	redisCfg := redisConfig(cfg)
	tlsConfig, certWatcher, err := redisTLS(cfg.Server.Redis.TLS, log)
	if err != nil {
		return fmt.Errorf("load tls: %w", err)
	}
	if certWatcher != nil {
		certWatcher.StartAsync()
		shutdownHandler.OnShutdown(func(context.Context) error {
			certWatcher.Stop()
			return nil
		})
	}
	redisCfg.TLS = tlsConfig

	srv := redisserver.New(redisCfg, store,
		redisserver.WithLogger(log),
		redisserver.WithMetrics(registry),
	)

	if cfg.Server.HTTP.Enabled {
		httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics: registry,
			Ready:   srv.Running,
			Logger:  log,
		}))
		err := httpServer.Start(func(err error) {
			log.Error("http server error", "error", err)
			shutdownHandler.Trigger()
		})
		if err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		log.Info("http server listening", "addr", httpServer.Addr().String())
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down http server")
			return httpServer.Shutdown(ctx)
		})
	}

	if err := srv.Start(c.Context); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down redis server")
		return srv.Shutdown(ctx)
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// flagOverrides maps explicitly set flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.redis.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("http-addr") {
		overrides["server.http.addr"] = c.String("http-addr")
		overrides["server.http.enabled"] = true
	}
	return overrides
}

// loadConfig loads configuration from defaults, file, environment and
// flag overrides, in increasing priority. It also returns the keys those
// sources set.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, []string, error) {
	cfg := config.Default()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(configFile),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader.Keys(), nil
}

func redisConfig(cfg *config.ServerConfig) *redisserver.Config {
	r := cfg.Server.Redis
	return &redisserver.Config{
		Addr:         r.Addr,
		ReadBuffer:   r.ReadBuffer,
		IdleTimeout:  r.IdleTimeout,
		WriteTimeout: r.WriteTimeout,
		RateLimit:    r.RateLimit,
		MaxBulkLen:   r.MaxBulkLen,
		MaxArrayLen:  r.MaxArrayLen,
	}
}

// redisTLS builds the RESP listener TLS config and a watcher that keeps its
// key pair current. Both are nil when TLS is disabled.
func redisTLS(cfg config.TLSConfig, log *slog.Logger) (*tls.Config, *tlsroots.Watcher, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	w, err := tlsroots.NewWatcher(cfg.CertFile, cfg.KeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	var clientCAs *tlsroots.Pool
	if cfg.ClientCAFile != "" {
		clientCAs = tlsroots.NewEmptyPool()
		if err := clientCAs.AddCertFile(cfg.ClientCAFile); err != nil {
			return nil, nil, err
		}
	}
	return tlsroots.ServerTLSConfig(w, clientCAs), w, nil
}

// watchLogLevel applies log.level from configFile whenever it changes.
// Other settings need a restart.
func watchLogLevel(configFile string, overrides map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		if err := reloadLogLevel(path, overrides); err != nil {
			log.Warn("config reload rejected", "file", path, "error", err)
			return
		}
		log.Info("log level reloaded", "level", logger.GetLevel())
	})
	w.StartAsync()
	return w, nil
}

func reloadLogLevel(configFile string, overrides map[string]any) error {
	cfg, _, err := loadConfig(configFile, overrides)
	if err != nil {
		return err
	}
	return logger.SetLevel(cfg.Log.Level)
}
