package config

import (
	"log/slog"
	"time"
)

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// ReadBuffer is the size of each socket read in bytes.
	ReadBuffer int `koanf:"read_buffer"`

	// IdleTimeout closes a connection that sent nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// WriteTimeout bounds each reply flush.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit is the sustained commands per second allowed per
	// connection. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	MaxBulkLen  int `koanf:"max_bulk_len"`
	MaxArrayLen int `koanf:"max_array_len"`

	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig enables TLS on the RESP listener. The key pair is reloaded
// when either file changes.
type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`

	// ClientCAFile, when set, requires clients to present a certificate
	// signed by one of its CAs.
	ClientCAFile string `koanf:"client_ca_file"`
}

// HTTPConfig configures the operational HTTP endpoint serving health,
// readiness, version and Prometheus metrics.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	// Shards must be a power of two.
	Shards int `koanf:"shards"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// LogValue implements slog.LogValuer so the effective configuration can be
// logged at startup as a single attribute.
func (c *ServerConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("redis_addr", c.Server.Redis.Addr),
		slog.Int("read_buffer", c.Server.Redis.ReadBuffer),
		slog.Duration("idle_timeout", c.Server.Redis.IdleTimeout),
		slog.Float64("rate_limit", c.Server.Redis.RateLimit),
		slog.Bool("tls", c.Server.Redis.TLS.Enabled),
		slog.Bool("http", c.Server.HTTP.Enabled),
		slog.String("http_addr", c.Server.HTTP.Addr),
		slog.Int("shards", c.Storage.Shards),
		slog.String("log_level", c.Log.Level),
	)
}
