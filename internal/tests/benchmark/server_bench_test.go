package benchmark

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
)

func startServer(b *testing.B) net.Conn {
	b.Helper()
	srv := redisserver.New(&redisserver.Config{Addr: "127.0.0.1:0", ReadBuffer: 16 * 1024},
		memory.New(), redisserver.WithLogger(logger.Discard()))
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start failed: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		b.Fatalf("Dial failed: %v", err)
	}
	b.Cleanup(func() { _ = conn.Close() })
	return conn
}

// BenchmarkServerRoundTrip benchmarks one command per round trip.
func BenchmarkServerRoundTrip(b *testing.B) {
	conn := startServer(b)
	br := bufio.NewReader(conn)
	frame := command("PING")
	reply := make([]byte, len("+PONG\r\n"))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := conn.Write(frame); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
		if _, err := io.ReadFull(br, reply); err != nil {
			b.Fatalf("Read failed: %v", err)
		}
	}
}

// BenchmarkServerPipelined benchmarks batches of 100 pipelined SETs.
func BenchmarkServerPipelined(b *testing.B) {
	const batch = 100

	conn := startServer(b)
	br := bufio.NewReader(conn)
	frames := bytes.Repeat(command("SET", "key", string(newValue(32))), batch)
	replies := make([]byte, batch*len("+OK\r\n"))

	b.SetBytes(int64(len(frames)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := conn.Write(frames); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
		if _, err := io.ReadFull(br, replies); err != nil {
			b.Fatalf("Read failed: %v", err)
		}
	}
}
