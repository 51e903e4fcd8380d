package tlsroots

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yndnr/respkv/internal/infra/tlsroots/tlstest"
)

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
}

func TestAddCertFile(t *testing.T) {
	certFile, keyFile := tlstest.WriteKeyPair(t, t.TempDir())
	pool := NewEmptyPool()

	if err := pool.AddCertFile(certFile); err != nil {
		t.Fatalf("AddCertFile() error = %v", err)
	}

	// A key file holds no certificate.
	if err := pool.AddCertFile(keyFile); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertFile(key) error = %v, want ErrNoCertsFound", err)
	}
}

func TestAddCertFile_NotFound(t *testing.T) {
	if err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddCertFile() expected error for missing file")
	}
}

func TestAddCertPEM(t *testing.T) {
	certFile, _ := tlstest.WriteKeyPair(t, t.TempDir())
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
		anyErr  bool
	}{
		{"single", certPEM, nil, false},
		{"multiple", append(append([]byte{}, certPEM...), certPEM...), nil, false},
		{"empty", nil, ErrNoCertsFound, true},
		{"garbage", []byte("not a certificate"), ErrNoCertsFound, true},
		{"invalid der", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")}), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEmptyPool().AddCertPEM(tt.data)
			if tt.anyErr != (err != nil) {
				t.Fatalf("AddCertPEM() error = %v, wantErr %v", err, tt.anyErr)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("AddCertPEM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientTLSConfig(t *testing.T) {
	pool := NewEmptyPool()
	cfg := pool.ClientTLSConfig()

	if cfg.RootCAs != pool.Pool() {
		t.Error("RootCAs should be the pool")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
}

func TestServerTLSConfig(t *testing.T) {
	certFile, keyFile := tlstest.WriteKeyPair(t, t.TempDir())
	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	cfg := ServerTLSConfig(w, nil)
	if cfg.ClientAuth != tls.NoClientCert {
		t.Errorf("ClientAuth = %v, want none", cfg.ClientAuth)
	}
	cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{})
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}

	mutual := ServerTLSConfig(w, NewEmptyPool())
	if mutual.ClientAuth != tls.RequireAndVerifyClientCert || mutual.ClientCAs == nil {
		t.Error("client CA pool should require client certificates")
	}
}

func TestTLSHandshake(t *testing.T) {
	certFile, keyFile := tlstest.WriteKeyPair(t, t.TempDir())
	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", ServerTLSConfig(w, nil))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("+OK\r\n"))
	}()

	roots := NewEmptyPool()
	if err := roots.AddCertFile(certFile); err != nil {
		t.Fatal(err)
	}
	conn, err := tls.Dial("tcp", ln.Addr().String(), roots.ClientTLSConfig())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 5)
	if _, err := conn.Read(buf); err != nil || string(buf) != "+OK\r\n" {
		t.Errorf("Read() = %q, %v", buf, err)
	}
}
