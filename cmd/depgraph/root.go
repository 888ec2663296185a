package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-depgraph/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "depgraph",
		Short: "depgraph - infer call dependencies between OpenAPI operations",
		Long: `depgraph reads OpenAPI documents and infers which operations must run
before others, by matching the fields one operation returns against the
fields another one requires. It reports the dependency graph, its cycles,
an execution order and graph statistics.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		// Search config in current directory
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// DEPGRAPH_ANALYSIS_MAXEXTRACTIONDEPTH and friends
	viper.SetEnvPrefix("DEPGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(config.Default())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key with viper so that
// environment variables are picked up by Unmarshal
func setDefaults(d *config.Config) {
	// Server defaults
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.tls.enabled", d.Server.TLS.Enabled)
	viper.SetDefault("server.tls.certFile", d.Server.TLS.CertFile)
	viper.SetDefault("server.tls.keyFile", d.Server.TLS.KeyFile)
	viper.SetDefault("server.tls.autoGenerate", d.Server.TLS.AutoGenerate)
	viper.SetDefault("server.tls.storePath", d.Server.TLS.StorePath)

	// Storage defaults
	viper.SetDefault("storage.type", d.Storage.Type)
	viper.SetDefault("storage.path", d.Storage.Path)

	// Analysis defaults
	viper.SetDefault("analysis.edgeConfidenceThreshold", d.Analysis.EdgeConfidenceThreshold)
	viper.SetDefault("analysis.maxExtractionDepth", d.Analysis.MaxExtractionDepth)
	viper.SetDefault("analysis.validate", d.Analysis.Validate)

	// Events defaults
	viper.SetDefault("events.maxEvents", d.Events.MaxEvents)

	// Logging defaults
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
}

// loadConfig resolves the layered configuration: defaults, config file,
// environment and flags
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
