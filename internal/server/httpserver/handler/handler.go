package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves the operational endpoints.
type Handler struct {
	ready  func() bool
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler. ready reports readiness; nil means always ready.
func New(ready func() bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		ready:  ready,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)
}

// writeJSON writes data in the success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	h.write(w, status, NewResponse(requestID(w), data))
}

// writeError writes the error envelope with code in X-Error-Code.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, data any) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, status, NewErrorResponse(requestID(w), code, message, data))
}

func (h *Handler) write(w http.ResponseWriter, status int, body *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// requestID returns the ID the RequestID middleware put on the response.
func requestID(w http.ResponseWriter) string {
	return w.Header().Get("X-Request-ID")
}
