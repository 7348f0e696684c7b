package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/matzehuels/pkgcompare/pkg/compare"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// Markdown renders a report as a markdown document: an overview table,
// then one section per dimension, then any failures.
func Markdown(r compare.Report) string {
	merged := r.Merged()

	var b strings.Builder
	b.WriteString("# Package comparison\n\n")
	if len(merged) == 0 {
		b.WriteString("_No packages selected._\n")
		return b.String()
	}

	b.WriteString("| Package | Version | License | Author | Created | Updated |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, p := range merged {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(p.Name), cell(p.Version), cell(p.DisplayLicense()), cell(p.DisplayAuthor()),
			Date(p.CreatedAt), Date(p.ModifiedAt))
	}

	for _, p := range merged {
		if p.Description == "" && len(p.Keywords) == 0 && p.Repository == "" {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", p.Name)
		if p.Description != "" {
			b.WriteString(p.Description + "\n\n")
		}
		if kw := markdownKeywords(p); kw != "" {
			b.WriteString("Keywords: " + kw + "\n\n")
		}
		if p.Repository != "" {
			fmt.Fprintf(&b, "Repository: <%s>\n", p.Repository)
		}
	}

	fmt.Fprintf(&b, "\n## %s\n\n", Title(record.DimensionSize))
	b.WriteString("| Package | Minified | Gzip | With deps |\n|---|---:|---:|---:|\n")
	for _, p := range merged {
		if p.Size == nil {
			fmt.Fprintf(&b, "| %s | – | – | – |\n", cell(p.Name))
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(p.Name), KB(p.Size.Minified), KB(p.Size.Gzip), KB(p.Size.TotalWithDependencies))
	}

	fmt.Fprintf(&b, "\n## %s\n\n", Title(record.DimensionDownloads))
	b.WriteString("| Package | Weekly | Monthly | Total |\n|---|---:|---:|---:|\n")
	for _, p := range merged {
		if p.Downloads == nil {
			fmt.Fprintf(&b, "| %s | – | – | – |\n", cell(p.Name))
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(p.Name), Count(p.Downloads.Weekly), Count(p.Downloads.Monthly), Count(p.Downloads.Total))
	}

	fmt.Fprintf(&b, "\n## %s\n", Title(record.DimensionVersion))
	for _, p := range merged {
		if !p.HasDependencyData() {
			continue
		}
		fmt.Fprintf(&b, "\n**%s** %s\n", p.Name, p.Version)
		writeDeps(&b, "Dependencies", p.Dependencies)
		writeDeps(&b, "Peer dependencies", p.PeerDependencies)
		if len(p.Dependencies) == 0 && len(p.PeerDependencies) == 0 {
			b.WriteString("\n_No dependencies_\n")
		}
	}

	if failures := r.Failures(); len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, dim := range slices.Sorted(maps.Keys(failures)) {
			for _, name := range slices.Sorted(maps.Keys(failures[dim])) {
				fmt.Fprintf(&b, "- %s\n", failures[dim][name])
			}
		}
	}
	return b.String()
}

func writeDeps(b *strings.Builder, title string, deps map[string]string) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n\n", title)
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		fmt.Fprintf(b, "- `%s`: `%s`\n", name, deps[name])
	}
}

func markdownKeywords(p record.PackageRecord) string {
	shown, rest := p.KeywordSummary(CardKeywords)
	if len(shown) == 0 {
		return ""
	}
	out := "`" + strings.Join(shown, "` `") + "`"
	if rest > 0 {
		out += fmt.Sprintf(" +%d", rest)
	}
	return out
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderMarkdown renders md for the terminal. An empty style picks a
// light or dark theme from the terminal background; width 0 disables
// wrapping.
func RenderMarkdown(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("init markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
