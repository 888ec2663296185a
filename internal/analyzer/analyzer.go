// Package analyzer runs the dependency inference pipeline over one OpenAPI
// document: normalize, extract fields, match, assemble and compute
// statistics.
package analyzer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prasenjit/go-depgraph/internal/extractor"
	"github.com/prasenjit/go-depgraph/internal/graph"
	"github.com/prasenjit/go-depgraph/internal/hints"
	"github.com/prasenjit/go-depgraph/internal/matcher"
	"github.com/prasenjit/go-depgraph/internal/models"
	"github.com/prasenjit/go-depgraph/internal/parser"
	"github.com/prasenjit/go-depgraph/internal/stats"
	"github.com/prasenjit/go-depgraph/internal/verify"
)

// Options tunes the pipeline
type Options struct {
	EdgeConfidenceThreshold float64
	MaxExtractionDepth      int
}

// DefaultOptions returns the default tuning
func DefaultOptions() Options {
	return Options{
		EdgeConfidenceThreshold: graph.DefaultThreshold,
		MaxExtractionDepth:      extractor.DefaultMaxDepth,
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.EdgeConfidenceThreshold < 0 || o.EdgeConfidenceThreshold > 1 {
		return fmt.Errorf("edge confidence threshold must be within [0, 1], got %v", o.EdgeConfidenceThreshold)
	}
	if o.MaxExtractionDepth < 1 {
		return fmt.Errorf("max extraction depth must be positive, got %d", o.MaxExtractionDepth)
	}
	return nil
}

// Result is the outcome of one analysis. Warnings are non-fatal. Hints are
// ordering suggestions outside Graph and Stats.
type Result struct {
	Operations   []*models.Operation
	Produces     map[string][]models.FieldRef
	Consumes     map[string][]models.FieldRef
	Graph        *graph.Graph
	Stats        *models.GraphStats
	Hints        []models.Hint
	Warnings     []models.Warning
	Observations []models.Observation
}

// TruncatedFields returns how many branches hit the extraction depth bound
func (r *Result) TruncatedFields() int {
	return models.CountWarnings(r.Warnings, models.WarningExtractionDepthExceeded)
}

// Analyzer runs the pipeline. It holds no per-run state and may be shared
// between goroutines.
type Analyzer struct {
	opts       Options
	logger     *slog.Logger
	normalizer *parser.Normalizer
	extractor  *extractor.Extractor
	matcher    *matcher.Matcher
}

// New creates an analyzer. A nil logger discards output.
func New(opts Options, logger *slog.Logger) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{
		opts:       opts,
		logger:     logger,
		normalizer: parser.NewNormalizer(),
		extractor:  extractor.New(opts.MaxExtractionDepth),
		matcher:    matcher.New(),
	}, nil
}

// Options returns the options the analyzer was created with
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze infers the dependency graph of a decoded document. A malformed
// document fails with a *parser.MalformedSpecError and no partial result.
func (a *Analyzer) Analyze(doc map[string]any) (*Result, error) {
	ops, warnings, err := a.normalizer.Normalize(doc)
	if err != nil {
		var malformed *parser.MalformedSpecError
		if errors.As(err, &malformed) {
			a.logger.Debug("document rejected", "location", malformed.Location, "reason", malformed.Reason)
		}
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	a.logger.Debug("normalized document", "operations", len(ops))

	res := &Result{
		Operations: ops,
		Produces:   make(map[string][]models.FieldRef, len(ops)),
		Consumes:   make(map[string][]models.FieldRef, len(ops)),
		Warnings:   warnings,
	}

	var producers, consumers []models.FieldRef
	for _, op := range ops {
		produced, w := a.extractor.Produces(op)
		res.Warnings = append(res.Warnings, w...)
		consumed, w := a.extractor.Consumes(op)
		res.Warnings = append(res.Warnings, w...)

		res.Produces[op.ID] = produced
		res.Consumes[op.ID] = consumed
		producers = append(producers, produced...)
		consumers = append(consumers, consumed...)
	}
	a.logger.Debug("extracted fields", "producers", len(producers), "consumers", len(consumers))

	matches := a.matcher.MatchFields(producers, consumers)
	a.logger.Debug("matched fields", "matches", len(matches))

	b := graph.NewBuilder(a.opts.EdgeConfidenceThreshold)
	for _, op := range ops {
		b.AddNode(op.ID)
	}
	b.AddMatches(matches)
	res.Graph = b.Build()
	res.Stats = stats.Compute(res.Graph)
	res.Hints = hints.Infer(ops)

	res.Observations = a.observeExamples(ops, res.Graph)

	if len(res.Warnings) > 0 {
		a.logger.Warn("graph built with warnings",
			"warnings", len(res.Warnings),
			"truncated", res.TruncatedFields(),
		)
	}
	a.logger.Debug("graph built",
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
		"cycles", len(res.Stats.Cycles),
		"hints", len(res.Hints),
	)

	return res, nil
}

// observeExamples checks edges against the response examples embedded in the
// document
func (a *Analyzer) observeExamples(ops []*models.Operation, g *graph.Graph) []models.Observation {
	var observations []models.Observation
	for _, op := range ops {
		for _, code := range op.ResponseCodes() {
			example, ok := op.ResponseExamples[code]
			if !ok {
				continue
			}
			obs, err := verify.ObserveValue(g, op.ID, example)
			if err != nil {
				a.logger.Debug("skipping response example", "operation", op.ID, "status", code, "error", err)
				continue
			}
			observations = append(observations, obs...)
		}
	}
	return observations
}
