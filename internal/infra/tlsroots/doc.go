// Package tlsroots provides TLS certificate management for respkv.
//
// roots.go loads trusted CA certificates and builds server and client
// tls.Config values; watcher.go keeps the server key pair current by
// reloading it when the files change on disk.
package tlsroots
