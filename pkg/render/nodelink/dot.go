package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pkgcompare/pkg/record"
)

// Options configures dependency diagram rendering.
type Options struct {
	// Ranges labels each edge with the declared version range.
	Ranges bool

	// Peers includes peer dependencies as dashed edges.
	Peers bool
}

// ToDOT converts the dependency data of records to Graphviz DOT. Each
// compared package becomes a filled node labelled name@version; its
// dependencies become plain nodes. Dependencies shared by several compared
// packages appear once, which makes overlap between candidates visible.
//
// Records without dependency data contribute their node only.
func ToDOT(records []record.PackageRecord, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	selected := make(map[string]bool, len(records))
	for _, r := range records {
		selected[r.Name] = true
		label := r.Name
		if r.Version != "" {
			label += "@" + r.Version
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=\"#d9f2ef\", penwidth=2];\n", r.Name, label)
	}

	deps := map[string]bool{}
	for _, r := range records {
		for name := range r.Dependencies {
			deps[name] = true
		}
		if opts.Peers {
			for name := range r.PeerDependencies {
				deps[name] = true
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		if !selected[name] {
			fmt.Fprintf(&buf, "  %q;\n", name)
		}
	}

	buf.WriteString("\n")
	for _, r := range records {
		writeEdges(&buf, r.Name, r.Dependencies, opts.Ranges, nil)
		if opts.Peers {
			writeEdges(&buf, r.Name, r.PeerDependencies, opts.Ranges, []string{"style=dashed"})
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeEdges(buf *bytes.Buffer, from string, deps map[string]string, ranges bool, extra []string) {
	for _, to := range slices.Sorted(maps.Keys(deps)) {
		attrs := slices.Clone(extra)
		if ranges && deps[to] != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", deps[to]))
		}
		if len(attrs) == 0 {
			fmt.Fprintf(buf, "  %q -> %q;\n", from, to)
			continue
		}
		fmt.Fprintf(buf, "  %q -> %q [%s];\n", from, to, strings.Join(attrs, ", "))
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// pixel one so browsers scale the diagram consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
