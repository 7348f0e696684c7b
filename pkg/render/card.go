package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pkgcompare/pkg/record"
)

// CardKeywords is the number of keywords a card lists before "+N".
const CardKeywords = 5

// Card renders the base fields of rec as a bordered card. Weekly downloads
// are shown when rec carries download data.
func Card(rec record.PackageRecord) string {
	var b strings.Builder

	title := styleTitle.Render(rec.Name)
	if rec.Version != "" {
		title += styleDim.Render(" v" + rec.Version)
	}
	b.WriteString(title + "\n")
	if rec.Description != "" {
		b.WriteString(styleValue.Render(rec.Description) + "\n")
	}
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(styleLabel.Render(label) + value + "\n")
	}
	row("Author", styleValue.Render(rec.DisplayAuthor()))

	license := rec.DisplayLicense()
	if rec.License != "" && !rec.LicenseIsSPDX() {
		license += styleDim.Render(" (non-SPDX)")
	}
	row("License", styleValue.Render(license))

	if kw := keywordLine(rec); kw != "" {
		row("Keywords", kw)
	}
	row("Created", styleValue.Render(Date(rec.CreatedAt)))
	row("Updated", styleValue.Render(Date(rec.ModifiedAt)))
	if rec.Downloads != nil {
		row("Downloads", styleValue.Render(Count(rec.Downloads.Weekly)+"/week"))
	}
	if rec.Repository != "" {
		row("Repo", styleLink.Render(rec.Repository))
	}

	return styleCard.Render(strings.TrimRight(b.String(), "\n"))
}

func keywordLine(rec record.PackageRecord) string {
	shown, rest := rec.KeywordSummary(CardKeywords)
	if len(shown) == 0 {
		return ""
	}
	parts := make([]string, 0, len(shown)+1)
	for _, k := range shown {
		parts = append(parts, styleKeyword.Render(k))
	}
	if rest > 0 {
		parts = append(parts, styleDim.Render(fmt.Sprintf("+%d", rest)))
	}
	return strings.Join(parts, " ")
}

// Cards renders one card per record, stacked vertically.
func Cards(records []record.PackageRecord) string {
	if len(records) == 0 {
		return styleDim.Render("No packages selected.")
	}
	cards := make([]string, len(records))
	for i, r := range records {
		cards[i] = Card(r)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}
