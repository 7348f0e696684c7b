// Package render turns comparison data into terminal and markdown views.
//
// # Cards
//
// [Card] renders the base fields of one selected package: name and version,
// description, author (falling back to "Unknown"), license (falling back to
// "No license"), the first five keywords with a "+N" remainder, creation
// and update dates, weekly downloads once known, and the repository link.
//
// # Panels
//
// [SizePanel], [VersionPanel] and [DownloadsPanel] render one panel state
// each. Sizes are shown in KB with two decimals next to a bar chart of
// minified versus gzip size; download counts use thousands separators and
// compact K/M bar labels. Packages a panel failed to enrich are listed with
// their failure message rather than hidden.
//
// # Markdown
//
// [Markdown] renders a whole report as markdown, suitable for files or for
// terminal display through [RenderMarkdown], which uses glamour.
//
// Dependency diagrams live in the [nodelink] subpackage.
//
// [nodelink]: github.com/matzehuels/pkgcompare/pkg/render/nodelink
package render
