// Package httpserver provides the operational HTTP server for respkv.
//
// It listens on its own address, separate from the RESP listener, and
// serves:
//
//   - GET /health: liveness
//   - GET /ready: readiness, 503 until the RESP listener accepts clients
//   - GET /version: build information
//   - GET /metrics: Prometheus metrics
//
// Every route runs behind the middleware chain assembled by NewRouter.
package httpserver
