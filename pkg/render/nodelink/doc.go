// Package nodelink renders the dependency ranges of compared packages as a
// node-link diagram.
//
// Compared packages are highlighted boxes; their direct dependencies are
// plain boxes, shared between candidates where two packages depend on the
// same thing. Peer dependencies are optional dashed edges.
//
//	dot := nodelink.ToDOT(report.Merged(), nodelink.Options{Ranges: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools. SVG rendering runs in-process through [github.com/goccy/go-graphviz].
package nodelink
