package command

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/infra/tlsroots"
	"github.com/yndnr/respkv/internal/infra/tlsroots/tlstest"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
)

func startServer(t *testing.T) string {
	t.Helper()
	return startServerWithConfig(t, &redisserver.Config{Addr: "127.0.0.1:0"})
}

func startServerWithConfig(t *testing.T, cfg *redisserver.Config) string {
	t.Helper()
	srv := redisserver.New(cfg, memory.New(),
		redisserver.WithLogger(logger.Discard()))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	app := App()
	app.Writer = out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"respkv-cli"}, args...))
	return out.String(), err
}

func TestApp_OneShot(t *testing.T) {
	addr := startServer(t)

	out, err := runApp(t, "--addr", addr, "SET", "k", "v")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "OK\n" {
		t.Errorf("SET output = %q, want OK", out)
	}

	out, err = runApp(t, "-a", addr, "get", "k")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "v\n" {
		t.Errorf("GET output = %q, want v", out)
	}
}

func TestApp_OneShotTLS(t *testing.T) {
	certFile, keyFile := tlstest.WriteKeyPair(t, t.TempDir())
	w, err := tlsroots.NewWatcher(certFile, keyFile, tlsroots.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	addr := startServerWithConfig(t, &redisserver.Config{
		Addr: "127.0.0.1:0",
		TLS:  tlsroots.ServerTLSConfig(w, nil),
	})

	out, err := runApp(t, "--addr", addr, "--cacert", certFile, "ECHO", "secure")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "secure\n" {
		t.Errorf("ECHO output = %q, want secure", out)
	}

	out, err = runApp(t, "--addr", addr, "--insecure", "PING")
	if err != nil || out != "PONG\n" {
		t.Errorf("--insecure PING = %q, %v", out, err)
	}

	if _, err := runApp(t, "--addr", addr, "--tls", "--timeout", "1s", "PING"); err == nil {
		t.Error("Run() should fail to verify a self-signed certificate without --cacert")
	}
}

func TestApp_MissingCACert(t *testing.T) {
	_, err := runApp(t, "--cacert", "/nonexistent/ca.pem", "PING")
	if err == nil {
		t.Error("Run() expected error for a missing CA file")
	}
}

func TestApp_ServerDown(t *testing.T) {
	_, err := runApp(t, "--addr", "127.0.0.1:1", "--timeout", "200ms", "PING")
	if err == nil || errors.Is(err, ErrServerReply) {
		t.Errorf("Run() error = %v, want connection error", err)
	}
}

func TestApp_Version(t *testing.T) {
	out, err := runApp(t, "--version")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out, "respkv-cli version ") {
		t.Errorf("version output = %q", out)
	}
}

func TestGlobalFlags(t *testing.T) {
	names := map[string]bool{}
	for _, f := range globalFlags() {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	for _, want := range []string{"addr", "a", "timeout", "tls", "cacert", "insecure", "no-history"} {
		if !names[want] {
			t.Errorf("missing flag %q", want)
		}
	}
}
