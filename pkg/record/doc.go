// Package record defines PackageRecord, the shared shape every other
// package reads and writes.
//
// A record is created from registry metadata when a package is selected.
// The three comparison dimensions (bundle size, download counts, and the
// dependency maps of the latest version) are optional fields populated by
// the comparison panels on their own copies; see [PackageRecord.Clone].
//
// The record name is the merge key across all data sources and is kept
// exactly as the user selected it (case preserved).
package record
