package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgcompare/pkg/compare"
	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	pkgio "github.com/matzehuels/pkgcompare/pkg/io"
	"github.com/matzehuels/pkgcompare/pkg/render"
	"github.com/matzehuels/pkgcompare/pkg/render/nodelink"
)

// Output formats of the compare command.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

type compareOpts struct {
	format string
	output string
	graph  string
	peers  bool
}

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var opts compareOpts

	cmd := &cobra.Command{
		Use:   "compare <package>...",
		Short: "Compare npm packages by size, downloads and dependencies",
		Long: `Compare fetches the registry details of every package, then enriches the
selection with bundle sizes, download counts and dependency ranges.

A package whose details cannot be fetched is skipped; a dimension that
fails for one package is reported without affecting the others.`,
		Example: `  pkgcompare compare lodash underscore ramda
  pkgcompare compare axios got --format markdown -o comparison.md
  pkgcompare compare react preact --graph deps.svg`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completePackages,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompare(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: text, markdown, json, yaml (default from -o extension, else text)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "write a dependency diagram (.svg or .dot)")
	cmd.Flags().BoolVar(&opts.peers, "peers", false, "include peer dependencies in the diagram")

	return cmd
}

func (c *CLI) runCompare(ctx context.Context, stdout, stderr io.Writer, names []string, opts compareOpts) error {
	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	ws, err := c.newWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, stderr, fmt.Sprintf("Fetching %d packages...", len(names)))
	spinner.Start()

	selected := 0
	for _, name := range dedupe(names) {
		if _, err := ws.Select(ctx, name); err == nil {
			selected++
		}
	}
	if selected > 0 {
		spinner.Update("Loading sizes, downloads and dependencies...")
		ws.Wait()
	}
	spinner.Stop()

	if err := ctx.Err(); err != nil {
		return err
	}
	printNotifications(stderr, ws.Notifications().Recent())
	if selected == 0 {
		return pkgerrors.New(pkgerrors.ErrCodeNotFound, "none of the requested packages could be fetched")
	}
	prog.done(fmt.Sprintf("Compared %d packages", selected))

	report := ws.Report()
	if err := writeReport(stdout, report, format, opts.output); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(stderr, opts.output)
	}

	if opts.graph != "" {
		if err := writeGraph(ctx, report, opts.graph, opts.peers); err != nil {
			return err
		}
		printFile(stderr, opts.graph)
	}
	return nil
}

// resolveFormat picks the output format from the flag or the output file
// extension.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			return formatJSON, nil
		case ".yaml", ".yml":
			return formatYAML, nil
		case ".md", ".markdown":
			return formatMarkdown, nil
		}
		return formatText, nil
	}
	switch format {
	case formatText, formatMarkdown, formatJSON, formatYAML:
		return format, nil
	case "md":
		return formatMarkdown, nil
	case "yml":
		return formatYAML, nil
	}
	return "", pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "unknown format %q (want text, markdown, json or yaml)", format)
}

func writeReport(stdout io.Writer, report compare.Report, format, output string) error {
	var buf bytes.Buffer
	switch format {
	case formatJSON:
		if err := pkgio.WriteJSON(report, &buf); err != nil {
			return err
		}
	case formatYAML:
		if err := pkgio.WriteYAML(report, &buf); err != nil {
			return err
		}
	case formatMarkdown:
		md := render.Markdown(report)
		if output == "" {
			styled, err := render.RenderMarkdown(md, 100, "")
			if err != nil {
				return err
			}
			md = styled
		}
		buf.WriteString(md)
	default:
		buf.WriteString(textReport(report))
	}

	if output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

// textReport renders cards followed by the three panels.
func textReport(report compare.Report) string {
	parts := []string{
		render.Cards(report.Merged()),
		render.Panel(report.Size),
		render.Panel(report.Versions),
		render.Panel(report.Downloads),
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func writeGraph(ctx context.Context, report compare.Report, path string, peers bool) error {
	dot := nodelink.ToDOT(report.Merged(), nodelink.Options{Ranges: true, Peers: peers})

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		data = []byte(dot)
	case ".svg":
		svg, err := nodelink.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		data = svg
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "unsupported graph format %q (want .svg or .dot)", filepath.Ext(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// dedupe drops repeated names, keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// completePackages completes package names from the registry search.
func (c *CLI) completePackages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ws, err := c.newWorkspace(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer ws.Close()

	if err := ws.Search(cmd.Context(), toComplete); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range ws.Suggestions().Items {
		if !slices.Contains(args, name) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
