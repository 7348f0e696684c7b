package panel

import (
	"context"
	"maps"

	"github.com/matzehuels/pkgcompare/pkg/integrations/bundlephobia"
	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// SizeFetcher is implemented by [bundlephobia.Client].
type SizeFetcher interface {
	FetchSize(ctx context.Context, name, version string) (*record.Size, error)
}

// DownloadsFetcher is implemented by downloads.Client.
type DownloadsFetcher interface {
	Fetch(ctx context.Context, name string) (*record.Downloads, error)
}

// ManifestFetcher is implemented by [npm.Client].
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, name string) (*npm.Manifest, error)
}

// SizePanel compares bundle sizes.
type SizePanel = Panel[*record.Size]

// VersionPanel compares latest versions and dependency ranges.
type VersionPanel = Panel[*npm.Manifest]

// DownloadsPanel compares download counts.
type DownloadsPanel = Panel[*record.Downloads]

// NewSize creates the size panel. Sizes are memoized per name@version, so
// a version refresh of a selected package fetches again.
func NewSize(f SizeFetcher, opts Options) *SizePanel {
	return New(Kind[*record.Size]{
		Dimension: record.DimensionSize,
		Fetch: func(ctx context.Context, rec record.PackageRecord) (*record.Size, error) {
			return f.FetchSize(ctx, rec.Name, rec.Version)
		},
		Apply: func(rec *record.PackageRecord, v *record.Size) {
			s := *v
			rec.Size = &s
		},
		Key: func(rec record.PackageRecord) string {
			return bundlephobia.Specifier(rec.Name, rec.Version)
		},
	}, opts)
}

// NewVersions creates the version and dependency panel. The fetched latest
// version replaces the panel's copy of the version.
func NewVersions(f ManifestFetcher, opts Options) *VersionPanel {
	return New(Kind[*npm.Manifest]{
		Dimension: record.DimensionVersion,
		Fetch: func(ctx context.Context, rec record.PackageRecord) (*npm.Manifest, error) {
			return f.FetchManifest(ctx, rec.Name)
		},
		Apply: func(rec *record.PackageRecord, m *npm.Manifest) {
			if m.Version != "" {
				rec.Version = m.Version
			}
			rec.Dependencies = cloneOrEmpty(m.Dependencies)
			rec.PeerDependencies = cloneOrEmpty(m.PeerDependencies)
		},
	}, opts)
}

// NewDownloads creates the downloads panel.
func NewDownloads(f DownloadsFetcher, opts Options) *DownloadsPanel {
	return New(Kind[*record.Downloads]{
		Dimension: record.DimensionDownloads,
		Fetch: func(ctx context.Context, rec record.PackageRecord) (*record.Downloads, error) {
			return f.Fetch(ctx, rec.Name)
		},
		Apply: func(rec *record.PackageRecord, v *record.Downloads) {
			d := *v
			rec.Downloads = &d
		},
	}, opts)
}

func cloneOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
