package main

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/prasenjit/go-depgraph/internal/config"
	"github.com/prasenjit/go-depgraph/internal/tlsutil"
)

func testServerConfig(t *testing.T, tlsEnabled bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Storage.Path = t.TempDir()
	cfg.Server.TLS.Enabled = tlsEnabled
	return cfg
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
}

func get(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from %s, got %d", url, resp.StatusCode)
	}
	return string(body)
}

func TestStartServer_HTTP(t *testing.T) {
	srv, err := startServer(testServerConfig(t, false), okHandler(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	if body := get(t, client, "http://"+srv.Addr().String()+"/"); body != "ok" {
		t.Errorf("Expected ok, got %q", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestStartServer_TLS(t *testing.T) {
	cfg := testServerConfig(t, true)

	srv, err := startServer(cfg, okHandler(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer srv.Shutdown(context.Background())

	addr := srv.Addr().String()
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	if body := get(t, client, "https://"+addr+"/"); body != "ok" {
		t.Errorf("Expected ok over HTTPS, got %q", body)
	}
	if body := get(t, client, "http://"+addr+"/"); body != "ok" {
		t.Errorf("Expected ok over HTTP on the same port, got %q", body)
	}

	// The generated certificate lands under <storage.path>/certs
	certs := tlsutil.NewCertificateManager(config.TLSConfig{}, filepath.Join(cfg.Storage.Path, "certs"), nil)
	if _, err := certs.Certificate(); err != nil {
		t.Errorf("Expected stored certificate, got %v", err)
	}
}

func TestStartServer_TLSWithoutCertificate(t *testing.T) {
	cfg := testServerConfig(t, true)
	cfg.Server.TLS.AutoGenerate = false

	_, err := startServer(cfg, okHandler(), slog.New(slog.DiscardHandler))
	if !errors.Is(err, tlsutil.ErrNoCertificate) {
		t.Errorf("Expected ErrNoCertificate, got %v", err)
	}
}

func TestCertStorePath(t *testing.T) {
	if got := certStorePath(config.StorageConfig{Path: "/var/lib/depgraph"}); got != "/var/lib/depgraph/certs" {
		t.Errorf("Expected /var/lib/depgraph/certs, got %q", got)
	}
	if got := certStorePath(config.StorageConfig{Path: "data"}); !filepath.IsAbs(got) || filepath.Base(got) != "certs" {
		t.Errorf("Expected absolute certs path, got %q", got)
	}
}
