package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-depgraph/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize depgraph with a default configuration",
	Long: `Creates the default configuration file (config.yaml) and the data
directory used by file storage.

If config.yaml already exists, it will not be overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce bool
	initPath  string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile, err := writeDefaultConfig(absPath, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file: %s\n", configFile)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Initialization complete! You can now start the server with:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  cd %s\n", absPath)
	fmt.Fprintln(out, "  depgraph serve")
	fmt.Fprintln(out)

	return nil
}

// writeDefaultConfig creates dir/config.yaml and dir/data, refusing to
// replace an existing config unless force is set
func writeDefaultConfig(dir string, force bool) (string, error) {
	configFile := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(configFile); err == nil && !force {
		return "", fmt.Errorf("config.yaml already exists. Use --force to overwrite")
	}

	cfg := config.Default()
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dataDir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate config: %w", err)
	}

	header := `# depgraph configuration
# Every key can be overridden with a DEPGRAPH_ environment variable,
# e.g. DEPGRAPH_ANALYSIS_EDGECONFIDENCETHRESHOLD=0.6

`
	if err := os.WriteFile(configFile, []byte(header+string(data)), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configFile, nil
}
