package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-depgraph/internal/analyzer"
	"github.com/prasenjit/go-depgraph/internal/api"
	"github.com/prasenjit/go-depgraph/internal/config"
	"github.com/prasenjit/go-depgraph/internal/events"
	"github.com/prasenjit/go-depgraph/internal/logging"
	"github.com/prasenjit/go-depgraph/internal/storage"
	"github.com/prasenjit/go-depgraph/internal/tlsutil"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the depgraph API server",
	Long: `Starts the depgraph admin API.

The server will:
  - Accept OpenAPI documents at /_api/analyses and store their analyses
  - Serve graphs, statistics, exports and execution sequences
  - Record observed response bodies to verify inferred edges
  - Stream analysis events at /_api/events/stream
  - With --tls, serve HTTPS alongside HTTP on the same port

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var (
	portFlag int
	tlsFlag  bool
)

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")
	serveCmd.Flags().BoolVar(&tlsFlag, "tls", false, "Serve HTTPS alongside HTTP on the same port")

	// Bind flags to viper
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.tls.enabled", serveCmd.Flags().Lookup("tls"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag was explicitly set
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}
	if tlsFlag {
		cfg.Server.TLS.Enabled = true
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	store, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := events.NewHub(cfg.Events.MaxEvents)

	router := api.NewRouter(store, hub, analyzer.Options{
		EdgeConfidenceThreshold: cfg.Analysis.EdgeConfidenceThreshold,
		MaxExtractionDepth:      cfg.Analysis.MaxExtractionDepth,
	}, logger)

	srv, err := startServer(cfg, router.Handler(), logger)
	if err != nil {
		return err
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-srv.Err():
		srv.Shutdown(context.Background())
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// apiServer is the running admin API: one HTTP server, or an HTTP and an
// HTTPS server sharing a multiplexed port
type apiServer struct {
	servers  []*http.Server
	listener interface {
		Addr() net.Addr
		Close() error
	}
	errs chan error
}

// startServer listens on the configured address and serves handler in the
// background
func startServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) (*apiServer, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &apiServer{listener: listener}
	listeners := []net.Listener{listener}
	scheme := "http"

	if cfg.Server.TLS.Enabled {
		certs := tlsutil.NewCertificateManager(cfg.Server.TLS, certStorePath(cfg.Storage), logger)
		tlsConfig, err := certs.ServerConfig()
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to get TLS certificate: %w", err)
		}
		certPath, keyPath := certs.Paths()
		logger.Info("using TLS certificate", "cert", certPath, "key", keyPath)

		mux := tlsutil.NewMuxListener(listener, tlsConfig)
		s.listener = mux
		listeners = []net.Listener{mux.HTTPListener(), mux.HTTPSListener()}
		scheme = "https"
	}

	s.errs = make(chan error, len(listeners))
	for _, l := range listeners {
		server := &http.Server{
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		s.servers = append(s.servers, server)
		go func() {
			if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.errs <- err
			}
		}()
	}

	logger.Info("starting depgraph server", "addr", listener.Addr().String(), "tls", cfg.Server.TLS.Enabled)
	logger.Info("admin API available", "url", fmt.Sprintf("%s://%s/_api/", scheme, listener.Addr()))
	return s, nil
}

// Addr returns the bound address
func (s *apiServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Err reports the first serve failure
func (s *apiServer) Err() <-chan error {
	return s.errs
}

// Shutdown drains the servers, then closes the shared socket
func (s *apiServer) Shutdown(ctx context.Context) error {
	var errs []error
	for _, server := range s.servers {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// certStorePath is the default certificate store, <storage.path>/certs
func certStorePath(cfg config.StorageConfig) string {
	path := cfg.Path
	if path != "" && !filepath.IsAbs(path) {
		if cwd, err := os.Getwd(); err == nil {
			path = filepath.Join(cwd, path)
		}
	}
	return filepath.Join(path, "certs")
}

// openStorage creates the configured result store
func openStorage(cfg config.StorageConfig, logger *slog.Logger) (storage.Storage, error) {
	if cfg.Type != "file" {
		return storage.NewMemoryStorage(), nil
	}

	// Resolve relative storage path to absolute
	path := cfg.Path
	if !filepath.IsAbs(path) {
		if cwd, err := os.Getwd(); err == nil {
			path = filepath.Join(cwd, path)
		}
	}
	logger.Info("using data directory", "path", path)

	store, err := storage.NewFileStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	return store, nil
}
