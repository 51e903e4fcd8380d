// Package benchmark holds the respkv performance benchmarks.
//
// Run with:
//
//	go test -run=^$ -bench=. -benchmem ./internal/tests/benchmark/
//
// Store benchmarks run against several preloaded key counts; protocol
// benchmarks measure the codec and dispatcher without sockets; server
// benchmarks measure full round trips over loopback TCP.
package benchmark
