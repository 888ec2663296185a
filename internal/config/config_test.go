package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host '0.0.0.0', got %q", cfg.Server.Host)
	}
	if cfg.Server.TLS.Enabled {
		t.Error("Expected TLS to be disabled by default")
	}
	if !cfg.Server.TLS.AutoGenerate {
		t.Error("Expected TLS certificate auto-generation by default")
	}

	// Storage defaults
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
	if filepath.Base(cfg.Storage.Path) != "data" {
		t.Errorf("Expected default storage path to end with 'data', got %q", cfg.Storage.Path)
	}

	// Analysis defaults
	if cfg.Analysis.EdgeConfidenceThreshold != 0.4 {
		t.Errorf("Expected default threshold 0.4, got %v", cfg.Analysis.EdgeConfidenceThreshold)
	}
	if cfg.Analysis.MaxExtractionDepth != 10 {
		t.Errorf("Expected default max depth 10, got %d", cfg.Analysis.MaxExtractionDepth)
	}
	if cfg.Analysis.Validate {
		t.Error("Expected validation to be off by default")
	}

	// Events defaults
	if cfg.Events.MaxEvents != 1000 {
		t.Errorf("Expected default max events 1000, got %d", cfg.Events.MaxEvents)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default log format 'json', got %q", cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: localhost
  tls:
    enabled: true
    certFile: /etc/depgraph/server.crt
    keyFile: /etc/depgraph/server.key
    autoGenerate: false
storage:
  type: file
  path: /tmp/data
analysis:
  edgeConfidenceThreshold: 0.6
  maxExtractionDepth: 5
  validate: true
events:
  maxEvents: 500
logging:
  level: debug
  format: text
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got %q", cfg.Server.Host)
	}
	if !cfg.Server.TLS.Enabled || cfg.Server.TLS.AutoGenerate {
		t.Errorf("Expected TLS enabled without auto-generation, got %+v", cfg.Server.TLS)
	}
	if cfg.Server.TLS.CertFile != "/etc/depgraph/server.crt" || cfg.Server.TLS.KeyFile != "/etc/depgraph/server.key" {
		t.Errorf("Unexpected TLS files: %+v", cfg.Server.TLS)
	}
	if cfg.Storage.Type != "file" {
		t.Errorf("Expected storage type 'file', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Path != "/tmp/data" {
		t.Errorf("Expected storage path '/tmp/data', got %q", cfg.Storage.Path)
	}
	if cfg.Analysis.EdgeConfidenceThreshold != 0.6 {
		t.Errorf("Expected threshold 0.6, got %v", cfg.Analysis.EdgeConfidenceThreshold)
	}
	if cfg.Analysis.MaxExtractionDepth != 5 {
		t.Errorf("Expected max depth 5, got %d", cfg.Analysis.MaxExtractionDepth)
	}
	if !cfg.Analysis.Validate {
		t.Error("Expected validation to be enabled")
	}
	if cfg.Events.MaxEvents != 500 {
		t.Errorf("Expected max events 500, got %d", cfg.Events.MaxEvents)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected log format 'text', got %q", cfg.Logging.Format)
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Only override analysis threshold
	configContent := `
analysis:
  edgeConfidenceThreshold: 0.8
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Analysis.EdgeConfidenceThreshold != 0.8 {
		t.Errorf("Expected threshold 0.8, got %v", cfg.Analysis.EdgeConfidenceThreshold)
	}

	// Verify defaults are preserved
	if cfg.Analysis.MaxExtractionDepth != 10 {
		t.Errorf("Expected default max depth 10, got %d", cfg.Analysis.MaxExtractionDepth)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host '0.0.0.0', got %q", cfg.Server.Host)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: [invalid yaml
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte(""), 0644)
	if err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"file storage", func(c *Config) { c.Storage.Type = "file" }, false},
		{"file storage without path", func(c *Config) { c.Storage.Type = "file"; c.Storage.Path = "" }, true},
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"tls with generated cert", func(c *Config) { c.Server.TLS.Enabled = true }, false},
		{"tls cert without key", func(c *Config) { c.Server.TLS.Enabled = true; c.Server.TLS.CertFile = "server.crt" }, true},
		{"tls disabled ignores files", func(c *Config) { c.Server.TLS.CertFile = "server.crt" }, false},
		{"threshold zero", func(c *Config) { c.Analysis.EdgeConfidenceThreshold = 0 }, false},
		{"threshold one", func(c *Config) { c.Analysis.EdgeConfidenceThreshold = 1 }, false},
		{"threshold negative", func(c *Config) { c.Analysis.EdgeConfidenceThreshold = -0.1 }, true},
		{"threshold above one", func(c *Config) { c.Analysis.EdgeConfidenceThreshold = 1.1 }, true},
		{"zero depth", func(c *Config) { c.Analysis.MaxExtractionDepth = 0 }, true},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
