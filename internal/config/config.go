package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Events   EventsConfig   `yaml:"events" mapstructure:"events"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int       `yaml:"port" mapstructure:"port"`
	Host string    `yaml:"host" mapstructure:"host"`
	TLS  TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// TLSConfig enables HTTPS next to plain HTTP on the server port
type TLSConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	CertFile     string `yaml:"certFile" mapstructure:"certFile"`
	KeyFile      string `yaml:"keyFile" mapstructure:"keyFile"`
	AutoGenerate bool   `yaml:"autoGenerate" mapstructure:"autoGenerate"` // Generate a self-signed certificate when none is found
	StorePath    string `yaml:"storePath" mapstructure:"storePath"`       // Empty means <storage.path>/certs
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type string `yaml:"type" mapstructure:"type"` // "memory" or "file"
	Path string `yaml:"path" mapstructure:"path"` // Path for file storage
}

// AnalysisConfig tunes dependency inference
type AnalysisConfig struct {
	EdgeConfidenceThreshold float64 `yaml:"edgeConfidenceThreshold" mapstructure:"edgeConfidenceThreshold"`
	MaxExtractionDepth      int     `yaml:"maxExtractionDepth" mapstructure:"maxExtractionDepth"`
	Validate                bool    `yaml:"validate" mapstructure:"validate"` // Validate documents with kin-openapi before analysis
}

// EventsConfig holds event history configuration
type EventsConfig struct {
	MaxEvents int `yaml:"maxEvents" mapstructure:"maxEvents"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn or error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
			TLS: TLSConfig{
				AutoGenerate: true,
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			Path: "./data",
		},
		Analysis: AnalysisConfig{
			EdgeConfidenceThreshold: 0.4,
			MaxExtractionDepth:      10,
		},
		Events: EventsConfig{
			MaxEvents: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if tls := c.Server.TLS; tls.Enabled && (tls.CertFile == "") != (tls.KeyFile == "") {
		return fmt.Errorf("server.tls.certFile and server.tls.keyFile must be set together")
	}
	switch c.Storage.Type {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for file storage")
		}
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	if t := c.Analysis.EdgeConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("analysis.edgeConfidenceThreshold must be within [0, 1], got %v", t)
	}
	if c.Analysis.MaxExtractionDepth < 1 {
		return fmt.Errorf("analysis.maxExtractionDepth must be positive, got %d", c.Analysis.MaxExtractionDepth)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}
