package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// WriteJSON writes the document as indented JSON
func WriteJSON(w io.Writer, doc *models.GraphDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// WriteDOT writes the document as a Graphviz digraph. Edges are labelled with
// their confidence; edges confirmed by an observation are drawn bold. Hint
// edges are dotted, grey and labelled with their hint kinds.
func WriteDOT(w io.Writer, doc *models.GraphDocument) error {
	var b strings.Builder

	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontname=\"Helvetica\"];\n")

	for _, n := range doc.Nodes {
		label := n.ID
		if n.Method != "" {
			label = n.Method + " " + n.Path
		}
		attrs := []string{"label=" + strconv.Quote(label)}
		if n.Interesting {
			attrs = append(attrs, "style=filled", "fillcolor=\"#e8f0fe\"")
		}
		fmt.Fprintf(&b, "  %s [%s];\n", strconv.Quote(n.ID), strings.Join(attrs, ", "))
	}

	for _, e := range doc.Edges {
		if e.IsHint() {
			fmt.Fprintf(&b, "  %s -> %s [label=%s, style=dotted, color=gray, tooltip=%s];\n",
				strconv.Quote(e.Source), strconv.Quote(e.Target),
				strconv.Quote(hintKinds(e.Hints)), strconv.Quote(hintTooltip(e.Hints)))
			continue
		}
		attrs := []string{fmt.Sprintf("label=\"%.2f\"", e.Confidence)}
		if len(e.Matches) > 0 {
			attrs = append(attrs, "tooltip="+strconv.Quote(matchTooltip(e.Matches)))
		}
		if e.Verified {
			attrs = append(attrs, "style=bold")
		} else if e.Confidence < 0.6 {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", strconv.Quote(e.Source), strconv.Quote(e.Target), strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write dot: %w", err)
	}
	return nil
}

func matchTooltip(matches []models.FieldMatchDoc) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("%s -> %s (%s)", m.ProducerPath, m.ConsumerPath, m.Reason)
	}
	return strings.Join(parts, "\n")
}

func hintKinds(hints []models.Hint) string {
	kinds := make([]string, 0, len(hints))
	for _, h := range hints {
		kinds = append(kinds, string(h.Kind))
	}
	return strings.Join(kinds, ",")
}

func hintTooltip(hints []models.Hint) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = fmt.Sprintf("%s: %s", h.Kind, h.Reason)
	}
	return strings.Join(parts, "\n")
}

// WriteSummary writes a plain-text report of graph statistics and warnings
func WriteSummary(w io.Writer, stats *models.GraphStats, warnings []models.Warning) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "GRAPH")
	fmt.Fprintf(tw, "  Operations\t%d\n", stats.NodeCount)
	fmt.Fprintf(tw, "  Dependencies\t%d\n", stats.EdgeCount)
	fmt.Fprintf(tw, "  Density\t%.4f\n", stats.Density)
	fmt.Fprintf(tw, "  Acyclic\t%t\n", stats.IsDAG)
	fmt.Fprintf(tw, "  Cycles\t%d\n", len(stats.Cycles))
	fmt.Fprintf(tw, "  Strongly connected components\t%d (%d non-trivial)\n",
		len(stats.Components), len(stats.NonTrivialComponents()))
	fmt.Fprintf(tw, "  Roots / leaves / isolated\t%d / %d / %d\n",
		len(stats.Roots), len(stats.Leaves), len(stats.Isolated))
	if stats.IsDAG {
		fmt.Fprintf(tw, "  Longest chain\t%d\n", max(len(stats.LongestPath)-1, 0))
	}

	fmt.Fprintln(tw, "\nDEGREES")
	fmt.Fprintf(tw, "  Average in / out\t%.2f / %.2f\n", stats.AvgInDegree, stats.AvgOutDegree)
	fmt.Fprintf(tw, "  Max in / out\t%d / %d\n", stats.MaxInDegree, stats.MaxOutDegree)
	fmt.Fprintln(tw, "  OPERATION\tIN\tOUT")
	for _, d := range stats.Degrees {
		fmt.Fprintf(tw, "  %s\t%d\t%d\n", d.Node, d.InDegree, d.OutDegree)
	}

	if len(stats.Cycles) > 0 {
		fmt.Fprintln(tw, "\nCYCLES")
		for i, c := range stats.Cycles {
			fmt.Fprintf(tw, "  %d.\t%s -> %s\n", i+1, strings.Join(c, " -> "), c[0])
		}
	}

	if len(stats.TopologicalOrder) > 0 {
		fmt.Fprintln(tw, "\nEXECUTION ORDER")
		for i, id := range stats.TopologicalOrder {
			fmt.Fprintf(tw, "  %d.\t%s\n", i+1, id)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(tw, "\nWARNINGS (%d, %d fields truncated)\n", len(warnings),
			models.CountWarnings(warnings, models.WarningExtractionDepthExceeded))
		for _, warning := range warnings {
			fmt.Fprintf(tw, "  %s\n", warning)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
