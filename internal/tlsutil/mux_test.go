package tlsutil

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prasenjit/go-depgraph/internal/config"
)

func newMux(t *testing.T) *MuxListener {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	tlsConfig, err := NewCertificateManager(config.TLSConfig{AutoGenerate: true}, t.TempDir(), nil).ServerConfig()
	if err != nil {
		t.Fatalf("Failed to build TLS config: %v", err)
	}

	mux := NewMuxListener(listener, tlsConfig)
	t.Cleanup(func() { mux.Close() })
	return mux
}

func acceptOne(t *testing.T, l net.Listener) net.Conn {
	t.Helper()
	accepted := make(chan net.Conn, 1)
	go func() {
		if conn, err := l.Accept(); err == nil {
			accepted <- conn
		}
	}()

	select {
	case conn := <-accepted:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for connection")
		return nil
	}
}

func TestMuxListener_Addr(t *testing.T) {
	mux := newMux(t)

	if mux.HTTPListener().Addr() != mux.Addr() {
		t.Error("HTTP listener address should match")
	}
	if mux.HTTPSListener().Addr() != mux.Addr() {
		t.Error("HTTPS listener address should match")
	}
}

func TestMuxListener_RoutesPlainHTTP(t *testing.T) {
	mux := newMux(t)

	client, err := net.Dial("tcp", mux.Addr().String())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()
	client.Write([]byte("GET / HTTP/1.1\r\n"))

	conn := acceptOne(t, mux.HTTPListener())
	defer conn.Close()

	buf := make([]byte, 3)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != "GET" {
		t.Errorf("Expected the sniffed byte to be replayed, got %q", buf)
	}
}

func TestMuxListener_RoutesTLS(t *testing.T) {
	mux := newMux(t)

	handshake := make(chan error, 1)
	go func() {
		client, err := tls.Dial("tcp", mux.Addr().String(), &tls.Config{InsecureSkipVerify: true})
		if err == nil {
			client.Close()
		}
		handshake <- err
	}()

	conn := acceptOne(t, mux.HTTPSListener())
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		t.Fatalf("Expected a TLS connection, got %T", conn)
	}
	if err := tlsConn.Handshake(); err != nil {
		t.Fatalf("Server handshake failed: %v", err)
	}
	if err := <-handshake; err != nil {
		t.Errorf("Client handshake failed: %v", err)
	}
}

func TestMuxListener_CloseStopsAccept(t *testing.T) {
	mux := newMux(t)
	plain := mux.HTTPListener()

	if err := mux.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := plain.Accept(); !errors.Is(err, net.ErrClosed) {
		t.Errorf("Expected net.ErrClosed, got %v", err)
	}
}

func TestPeekedConn_Read(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte("hello world"))
	}()

	peeked := &peekedConn{Conn: server, peeked: []byte("pre")}

	buf := make([]byte, 10)
	n, err := peeked.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "pre" {
		t.Errorf("Expected 'pre', got %q", string(buf[:n]))
	}

	n, err = peeked.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "hello worl" {
		t.Errorf("Expected 'hello worl', got %q", string(buf[:n]))
	}
}
