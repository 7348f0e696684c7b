// Package panel implements the comparison panels.
//
// A [Panel] owns one dimension of the comparison (bundle size, versions and
// dependencies, or downloads). It reacts to selection changes by fetching
// its dimension for every selected package and enriching its own copies of
// the records. Panels never share records with each other or with the
// selection.
//
// # Batches
//
// [Panel.Refresh] runs one batch: a fetch per package, concurrently, with a
// configurable limit. The batch settles only after every fetch has
// settled; a failing package never cancels its siblings. A failure is
// wrapped in a [errors.PackageFetchError], published as a notification, and
// leaves that package unenriched in this panel.
//
// Every batch takes a sequence number. A batch commits its results only if
// no newer batch started while it ran, so a slow, stale batch can never
// overwrite a newer one.
//
// # Result Reuse
//
// Results are memoized in memory for the life of the panel, keyed per
// dimension (name@version for sizes, name otherwise). A selection change
// therefore only fetches packages that were added. Entries for packages that
// leave the selection are dropped. [Panel.RefetchOne] bypasses the memo.
//
// [errors.PackageFetchError]: github.com/matzehuels/pkgcompare/pkg/errors.PackageFetchError
package panel
