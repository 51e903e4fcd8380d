package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/pkg/cmap"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Redis.ReadBuffer < 1 {
		return errors.New("server.redis.read_buffer must be positive")
	}
	if cfg.Redis.IdleTimeout < 0 {
		return errors.New("server.redis.idle_timeout must not be negative")
	}
	if cfg.Redis.WriteTimeout < 0 {
		return errors.New("server.redis.write_timeout must not be negative")
	}
	if cfg.Redis.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if cfg.Redis.MaxBulkLen < 1 {
		return errors.New("server.redis.max_bulk_len must be positive")
	}
	if cfg.Redis.MaxArrayLen < 1 {
		return errors.New("server.redis.max_array_len must be positive")
	}
	if tls := cfg.Redis.TLS; tls.Enabled {
		if tls.CertFile == "" || tls.KeyFile == "" {
			return errors.New("server.redis.tls requires cert_file and key_file")
		}
	}

	if cfg.HTTP.Enabled {
		if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
			return err
		}
		if cfg.HTTP.Addr == cfg.Redis.Addr {
			return fmt.Errorf("server.http.addr conflicts with server.redis.addr (%s)", cfg.Redis.Addr)
		}
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if !cmap.IsValidShardCount(cfg.Shards) {
		return fmt.Errorf("storage.shards must be a positive power of two, got %d", cfg.Shards)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	if !logger.ValidFormat(cfg.Format) {
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
