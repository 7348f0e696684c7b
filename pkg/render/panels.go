package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

const barWidth = 30

var dimensionTitles = map[record.Dimension]string{
	record.DimensionSize:      "Bundle size",
	record.DimensionVersion:   "Versions & dependencies",
	record.DimensionDownloads: "Downloads",
}

// Title returns the heading of the panel for dim.
func Title(dim record.Dimension) string {
	if t, ok := dimensionTitles[dim]; ok {
		return t
	}
	return string(dim)
}

// Panel renders s with the view matching its dimension.
func Panel(s panel.State) string {
	switch s.Dimension {
	case record.DimensionSize:
		return SizePanel(s)
	case record.DimensionVersion:
		return VersionPanel(s)
	case record.DimensionDownloads:
		return DownloadsPanel(s)
	}
	return ""
}

func header(s panel.State) string {
	h := styleHeading.Render(Title(s.Dimension))
	if s.Loading {
		h += styleDim.Render("  loading…")
	}
	return h
}

// footer lists the packages whose fetch failed.
func footer(s panel.State) string {
	if len(s.Failed) == 0 {
		return ""
	}
	var lines []string
	for _, name := range slices.Sorted(maps.Keys(s.Failed)) {
		lines = append(lines, styleError.Render("✗ "+s.Failed[name]))
	}
	return strings.Join(lines, "\n")
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

// SizePanel renders minified, gzip and total-with-dependencies sizes and a
// bar chart of minified versus gzip size.
func SizePanel(s panel.State) string {
	var withData []record.PackageRecord
	for _, r := range s.Records {
		if r.Size != nil {
			withData = append(withData, r)
		}
	}
	if len(withData) == 0 {
		return join(header(s), emptyNote(s), footer(s))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleDim).
		Headers("Package", "Minified", "Gzip", "With deps")
	var largest int64
	for _, r := range withData {
		t.Row(r.Name, KB(r.Size.Minified), KB(r.Size.Gzip), KB(r.Size.TotalWithDependencies))
		largest = max(largest, r.Size.Minified)
	}

	width := nameWidth(withData)
	var chart []string
	for _, r := range withData {
		name := lipgloss.NewStyle().Width(width).Render(r.Name)
		chart = append(chart,
			name+" "+styleBarMin.Render(bar(r.Size.Minified, largest, barWidth))+" "+styleDim.Render(KB(r.Size.Minified)),
			strings.Repeat(" ", width)+" "+styleBarGzip.Render(bar(r.Size.Gzip, largest, barWidth))+" "+styleDim.Render(KB(r.Size.Gzip)),
		)
	}
	legend := styleBarMin.Render("█ minified") + "  " + styleBarGzip.Render("█ gzip")

	return join(header(s), t.Render(), strings.Join(chart, "\n")+"\n"+legend, footer(s))
}

// DownloadsPanel renders weekly, monthly and total downloads and a bar
// chart of weekly downloads.
func DownloadsPanel(s panel.State) string {
	var withData []record.PackageRecord
	for _, r := range s.Records {
		if r.Downloads != nil {
			withData = append(withData, r)
		}
	}
	if len(withData) == 0 {
		return join(header(s), emptyNote(s), footer(s))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleDim).
		Headers("Package", "Weekly", "Monthly", "Total")
	var largest int64
	for _, r := range withData {
		d := r.Downloads
		t.Row(r.Name, Count(d.Weekly), Count(d.Monthly), Count(d.Total))
		largest = max(largest, d.Weekly)
	}

	width := nameWidth(withData)
	var chart []string
	for _, r := range withData {
		name := lipgloss.NewStyle().Width(width).Render(r.Name)
		chart = append(chart, name+" "+styleBarMin.Render(bar(r.Downloads.Weekly, largest, barWidth))+" "+styleDim.Render(Compact(r.Downloads.Weekly)))
	}

	return join(header(s), t.Render(), styleDim.Render("Weekly downloads")+"\n"+strings.Join(chart, "\n"), footer(s))
}

// VersionPanel renders each package's latest version with its dependency
// and peer dependency ranges. Empty sections are omitted.
func VersionPanel(s panel.State) string {
	var blocks []string
	for _, r := range s.Records {
		if !r.HasDependencyData() {
			continue
		}
		blocks = append(blocks, versionBlock(r))
	}
	if len(blocks) == 0 {
		return join(header(s), emptyNote(s), footer(s))
	}
	return join(header(s), strings.Join(blocks, "\n\n"), footer(s))
}

func versionBlock(r record.PackageRecord) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(r.Name) + styleDim.Render(" v"+r.Version))
	section := func(title string, deps map[string]string) {
		if len(deps) == 0 {
			return
		}
		b.WriteString("\n" + styleValue.Render(title+":"))
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			fmt.Fprintf(&b, "\n  %s: %s", name, styleDim.Render(deps[name]))
		}
	}
	section("Dependencies", r.Dependencies)
	section("Peer dependencies", r.PeerDependencies)
	if len(r.Dependencies) == 0 && len(r.PeerDependencies) == 0 {
		b.WriteString("\n" + styleDim.Render("No dependencies"))
	}
	return b.String()
}

func emptyNote(s panel.State) string {
	if s.Loading {
		return ""
	}
	if len(s.Records) == 0 {
		return styleDim.Render("No packages selected.")
	}
	return ""
}

func nameWidth(records []record.PackageRecord) int {
	w := 0
	for _, r := range records {
		w = max(w, lipgloss.Width(r.Name))
	}
	return w
}
