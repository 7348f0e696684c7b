// Package pkg provides the libraries behind pkgcompare, a side-by-side
// comparison of npm packages.
//
// # Overview
//
// A comparison starts from a selection of packages fetched from the npm
// registry. Three panels enrich that selection independently: bundle size
// from bundlephobia, download counts from the npm downloads API, and
// dependency ranges from the registry. A failure in one panel, or for one
// package within a panel, never hides the results of the others; it is
// published as a notification instead.
//
// # Architecture
//
//	search query ──> [search] ──> suggestion
//	                                  ↓
//	            [integrations/npm] FetchPackage
//	                                  ↓
//	                        [selection] Manager
//	                 ↓                ↓                 ↓
//	        [panel] size      [panel] versions   [panel] downloads
//	                 ↓                ↓                 ↓
//	               [compare] Report ──> [render] / [io] / API
//
// # Main Packages
//
// ## Domain
//
// [record] - The PackageRecord shared by every panel, with the dimension
// constants and SPDX/PURL helpers.
//
// [selection] - The ordered, de-duplicated set of selected packages.
// Subscribers receive a snapshot on every change.
//
// [panel] - A generic comparison panel. Each selection change starts a
// concurrent batch; results from superseded batches are discarded, and
// per-package failures are recorded without failing the batch.
//
// [search] - The paged suggestion list with fuzzy highlighting.
//
// [notify] - The notification center that collects per-package failures.
//
// [compare] - A Workspace wiring clients, selection, panels and
// notifications into one session.
//
// ## External Integrations
//
// [integrations] - The shared JSON client plus npm registry, npm downloads
// and bundlephobia clients.
//
// [httputil] - DNS-caching transport and per-host circuit breakers.
//
// ## Output
//
// [render] - Terminal cards and panels, and Markdown reports.
//
// [render/nodelink] - Dependency diagrams using Graphviz.
//
// [io] - JSON and YAML export.
//
// ## Infrastructure
//
// [config] - TOML, .env and environment configuration.
//
// [errors] - Error codes and the per-package fetch error.
//
// [observability] - Hooks for upstream requests and panel batches.
//
// [buildinfo] - Version information and the User-Agent.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test ./pkg/panel/...              # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [record]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/record
// [selection]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/selection
// [panel]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/panel
// [search]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/search
// [notify]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/notify
// [compare]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/compare
// [integrations]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/integrations
// [integrations/npm]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/integrations/npm
// [httputil]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/httputil
// [render]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/io
// [config]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/pkgcompare/pkg/buildinfo
package pkg
