package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/prasenjit/go-depgraph/internal/analyzer"
	"github.com/prasenjit/go-depgraph/internal/export"
	"github.com/prasenjit/go-depgraph/internal/logging"
	"github.com/prasenjit/go-depgraph/internal/models"
	"github.com/prasenjit/go-depgraph/internal/parser"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <spec>...",
	Short: "Infer the dependency graph of one or more OpenAPI documents",
	Long: `Analyzes each OpenAPI document (YAML or JSON) and writes, per document,
a folder under --out containing:

  graph.json   nodes and edges with confidences and field matches
  graph.dot    the graph in Graphviz format
  stats.txt    statistics, cycles and an execution order

Documents are analyzed in parallel.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeOut       string
	analyzeThreshold float64
	analyzeMaxDepth  int
	analyzeValidate  bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "depgraph-out", "Output folder")
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", 0.4, "Minimum edge confidence")
	analyzeCmd.Flags().IntVar(&analyzeMaxDepth, "max-depth", 10, "Maximum body nesting depth to extract")
	analyzeCmd.Flags().BoolVar(&analyzeValidate, "validate", false, "Validate documents before analysis")

	// Bind flags to viper
	viper.BindPFlag("analysis.edgeConfidenceThreshold", analyzeCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("analysis.maxExtractionDepth", analyzeCmd.Flags().Lookup("max-depth"))
	viper.BindPFlag("analysis.validate", analyzeCmd.Flags().Lookup("validate"))
}

// report is the outcome of analyzing one document
type report struct {
	Path   string
	Name   string
	Title  string
	Result *analyzer.Result
	Graph  *models.GraphDocument
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())

	a, err := analyzer.New(analyzer.Options{
		EdgeConfidenceThreshold: cfg.Analysis.EdgeConfidenceThreshold,
		MaxExtractionDepth:      cfg.Analysis.MaxExtractionDepth,
	}, logger)
	if err != nil {
		return err
	}

	reports, err := analyzeFiles(cmd.Context(), a, args, parser.LoadOptions{Validate: cfg.Analysis.Validate})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range reports {
		dir := filepath.Join(analyzeOut, r.Name)
		if err := writeReport(dir, r); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: graph built, %d fields truncated (%d operations, %d dependencies, %d cycles) -> %s\n",
			r.Path, r.Result.TruncatedFields(), r.Result.Graph.NodeCount(), r.Result.Graph.EdgeCount(),
			len(r.Result.Stats.Cycles), dir)
	}

	return nil
}

// analyzeFiles analyzes documents concurrently, bounded by the number of
// CPUs. Reports are returned in argument order.
func analyzeFiles(ctx context.Context, a *analyzer.Analyzer, paths []string, opts parser.LoadOptions) ([]*report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	names := outputNames(paths)
	reports := make([]*report, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := analyzeFile(a, path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			r.Name = names[i]
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func analyzeFile(a *analyzer.Analyzer, path string, opts parser.LoadOptions) (*report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := parser.Load(content, opts)
	if err != nil {
		return nil, err
	}

	result, err := a.Analyze(doc.Raw)
	if err != nil {
		return nil, err
	}

	graphDoc := export.Document(result.Operations, result.Graph, result.Observations)
	export.AttachHints(graphDoc, result.Hints)

	return &report{
		Path:   path,
		Title:  doc.Title,
		Result: result,
		Graph:  graphDoc,
	}, nil
}

// outputNames derives one folder name per document from its file name.
// Repeated names get a numeric suffix.
func outputNames(paths []string) []string {
	names := make([]string, len(paths))
	taken := make(map[string]bool)
	counts := make(map[string]int)
	for i, p := range paths {
		base := filepath.Base(p)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem == "" || stem == "." {
			stem = "spec"
		}
		name := stem
		for taken[name] {
			counts[stem]++
			name = stem + "-" + strconv.Itoa(counts[stem]+1)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// writeReport writes graph.json, graph.dot and stats.txt into dir
func writeReport(dir string, r *report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	outputs := []struct {
		file  string
		write func(io.Writer) error
	}{
		{"graph.json", func(w io.Writer) error { return export.WriteJSON(w, r.Graph) }},
		{"graph.dot", func(w io.Writer) error { return export.WriteDOT(w, r.Graph) }},
		{"stats.txt", func(w io.Writer) error { return export.WriteSummary(w, r.Result.Stats, r.Result.Warnings) }},
	}

	for _, o := range outputs {
		if err := writeFile(filepath.Join(dir, o.file), o.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
