package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

const namespace = "respkv"

// Protocol error kinds used as the "kind" label.
const (
	ErrKindMalformed = "malformed"
	ErrKindLimit     = "limit"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	protocolErrors    *prometheus.CounterVec
}

// NewRegistry creates a registry with the respkv metrics and the standard
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed, by command name.",
		}, []string{"command"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent dispatching a command, by command name.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"command"}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Client connections accepted since start.",
		}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections closed because of an undecodable frame, by kind.",
		}, []string{"kind"}),
	}

	info := buildinfo.Get()
	build := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information, always 1.",
	}, []string{"version", "commit", "go_version"})
	build.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)

	r.reg.MustRegister(
		build,
		r.commandsTotal,
		r.commandDuration,
		r.connectionsActive,
		r.connectionsTotal,
		r.protocolErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.reg.MustRegister(cs...)
}

// ObserveCommand records one dispatched command.
func (r *Registry) ObserveCommand(command string, d time.Duration) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(command).Inc()
	r.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.connectionsTotal.Inc()
	r.connectionsActive.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
}

// ProtocolError records a connection dropped for a bad frame.
func (r *Registry) ProtocolError(kind string) {
	if r == nil {
		return
	}
	r.protocolErrors.WithLabelValues(kind).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
