// Package tlsutil provides the server certificate and a listener that serves
// plain HTTP and HTTPS on one port.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/prasenjit/go-depgraph/internal/config"
)

const (
	certFileName = "server.crt"
	keyFileName  = "server.key"

	certValidity = 365 * 24 * time.Hour
)

// ErrNoCertificate is returned when no certificate exists and generation is
// disabled
var ErrNoCertificate = errors.New("no TLS certificate found and auto-generation is disabled")

// CertificateManager resolves the server certificate from configured files,
// the certificate store, or a freshly generated self-signed pair
type CertificateManager struct {
	certFile     string
	keyFile      string
	storePath    string
	autoGenerate bool
	logger       *slog.Logger
}

// NewCertificateManager creates a manager for cfg. storePath replaces an
// empty cfg.StorePath.
func NewCertificateManager(cfg config.TLSConfig, storePath string, logger *slog.Logger) *CertificateManager {
	if cfg.StorePath != "" {
		storePath = cfg.StorePath
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CertificateManager{
		certFile:     cfg.CertFile,
		keyFile:      cfg.KeyFile,
		storePath:    storePath,
		autoGenerate: cfg.AutoGenerate,
		logger:       logger,
	}
}

// Certificate loads or generates the server certificate. Configured files
// that fail to load are an error; they never fall back to generation.
func (cm *CertificateManager) Certificate() (*tls.Certificate, error) {
	if cm.certFile != "" && cm.keyFile != "" {
		cert, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load certificate from %s and %s: %w", cm.certFile, cm.keyFile, err)
		}
		return &cert, nil
	}

	certPath, keyPath := cm.Paths()
	if cert, err := tls.LoadX509KeyPair(certPath, keyPath); err == nil {
		return &cert, nil
	}

	if !cm.autoGenerate {
		return nil, ErrNoCertificate
	}
	return cm.generate()
}

// ServerConfig returns a TLS configuration carrying the server certificate
func (cm *CertificateManager) ServerConfig() (*tls.Config, error) {
	cert, err := cm.Certificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Paths returns the certificate and key file locations in use
func (cm *CertificateManager) Paths() (certPath, keyPath string) {
	if cm.certFile != "" && cm.keyFile != "" {
		return cm.certFile, cm.keyFile
	}
	return filepath.Join(cm.storePath, certFileName), filepath.Join(cm.storePath, keyFileName)
}

// generate creates a self-signed ECDSA certificate valid for the local host
// names and addresses and writes it to the store
func (cm *CertificateManager) generate() (*tls.Certificate, error) {
	if err := os.MkdirAll(cm.storePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create certificate store directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"depgraph"},
			CommonName:   "depgraph self-signed",
		},
		NotBefore:             now,
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           append([]net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}, localIPs()...),
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	certPath, keyPath := cm.Paths()
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return nil, fmt.Errorf("failed to save certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return nil, fmt.Errorf("failed to save private key: %w", err)
	}
	cm.logger.Info("generated self-signed certificate", "cert", certPath, "expires", template.NotAfter)

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated certificate: %w", err)
	}
	return &cert, nil
}

// localIPs lists the non-loopback interface addresses
func localIPs() []net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var ips []net.IP
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			ips = append(ips, ipnet.IP)
		}
	}
	return ips
}
