// Package shutdown coordinates graceful process shutdown.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(ctx) // returns after SIGINT/SIGTERM, Trigger or ctx done
package shutdown
