package config

import (
	"time"

	"github.com/yndnr/respkv/internal/protocol/resp"
	"github.com/yndnr/respkv/pkg/cmap"
)

// Default configuration values.
const (
	DefaultRedisAddr    = "127.0.0.1:6379"
	DefaultReadBuffer   = 1024
	DefaultWriteTimeout = 30 * time.Second

	DefaultHTTPAddr = "127.0.0.1:9121"

	DefaultShards = cmap.DefaultShardCount

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				ReadBuffer:   DefaultReadBuffer,
				WriteTimeout: DefaultWriteTimeout,
				MaxBulkLen:   resp.DefaultMaxBulkLen,
				MaxArrayLen:  resp.DefaultMaxArrayLen,
			},
			HTTP: HTTPConfig{
				Enabled: false,
				Addr:    DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			Shards: DefaultShards,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
