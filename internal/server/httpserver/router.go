package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/respkv/internal/server/httpserver/handler"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics is served on /metrics. Nil leaves the route unregistered.
	Metrics *metric.Registry

	// Ready reports whether the RESP listener is accepting clients.
	// Nil means always ready.
	Ready func() bool

	// Logger for access and panic logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewRouter creates the HTTP handler with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler.New(cfg.Ready, logger))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Order: RequestID -> Recover -> AccessLog -> routes
	return Chain(mux,
		RequestID(),
		Recover(logger),
		AccessLog(logger),
	)
}
