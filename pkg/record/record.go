package record

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/github/go-spdx/v2/spdxexp"
	packageurl "github.com/package-url/packageurl-go"
)

// Dimension identifies which kind of data a fetch was responsible for.
// It names the failed dimension in notifications and errors.
type Dimension string

const (
	DimensionPackage     Dimension = "package"
	DimensionSuggestions Dimension = "suggestions"
	DimensionSize        Dimension = "size"
	DimensionDownloads   Dimension = "download"
	DimensionVersion     Dimension = "version"
)

const (
	unknownAuthor = "Unknown"
	noLicense     = "No license"
)

// PackageRecord is the unified view of one selected package.
//
// Base fields are filled by the registry detail fetch when the package is
// selected. Size, Downloads and the dependency maps are independently
// optional: each is populated by a different comparison panel on its own
// copy of the record, so a record may be complete in one dimension and
// absent in another.
type PackageRecord struct {
	Name        string       `json:"name" yaml:"name"`
	Version     string       `json:"version" yaml:"version"`
	Description string       `json:"description" yaml:"description"`
	License     string       `json:"license" yaml:"license"`
	Author      string       `json:"author" yaml:"author"`
	Repository  string       `json:"repository,omitempty" yaml:"repository,omitempty"`
	Keywords    []string     `json:"keywords" yaml:"keywords"`
	Maintainers []Maintainer `json:"maintainers" yaml:"maintainers"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"createdAt"`
	ModifiedAt  time.Time    `json:"modifiedAt" yaml:"modifiedAt"`

	Size             *Size             `json:"size,omitempty" yaml:"size,omitempty"`
	Downloads        *Downloads        `json:"downloads,omitempty" yaml:"downloads,omitempty"`
	Dependencies     map[string]string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty" yaml:"peerDependencies,omitempty"`
}

// Maintainer is a registry maintainer entry.
type Maintainer struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Size holds bundle sizes in bytes.
type Size struct {
	Minified              int64 `json:"minified" yaml:"minified"`
	Gzip                  int64 `json:"gzip" yaml:"gzip"`
	TotalWithDependencies int64 `json:"totalWithDependencies" yaml:"totalWithDependencies"`
}

// Downloads holds download counts.
type Downloads struct {
	Weekly  int64 `json:"weekly" yaml:"weekly"`
	Monthly int64 `json:"monthly" yaml:"monthly"`
	Total   int64 `json:"total" yaml:"total"`
}

// Clone returns a deep copy of r. Panels enrich clones so they never
// alias the selection's canonical records.
func (r PackageRecord) Clone() PackageRecord {
	c := r
	c.Keywords = slices.Clone(r.Keywords)
	c.Maintainers = slices.Clone(r.Maintainers)
	c.Dependencies = maps.Clone(r.Dependencies)
	c.PeerDependencies = maps.Clone(r.PeerDependencies)
	if r.Size != nil {
		s := *r.Size
		c.Size = &s
	}
	if r.Downloads != nil {
		d := *r.Downloads
		c.Downloads = &d
	}
	return c
}

// DisplayAuthor returns the author or "Unknown".
func (r PackageRecord) DisplayAuthor() string {
	if a := strings.TrimSpace(r.Author); a != "" {
		return a
	}
	return unknownAuthor
}

// DisplayLicense returns the license or "No license".
func (r PackageRecord) DisplayLicense() string {
	if l := strings.TrimSpace(r.License); l != "" {
		return l
	}
	return noLicense
}

// KeywordSummary returns at most n keywords and the number left out.
func (r PackageRecord) KeywordSummary(n int) (shown []string, rest int) {
	if n < 0 {
		n = 0
	}
	if len(r.Keywords) <= n {
		return r.Keywords, 0
	}
	return r.Keywords[:n], len(r.Keywords) - n
}

// LicenseIsSPDX reports whether the license is a valid SPDX expression.
func (r PackageRecord) LicenseIsSPDX() bool {
	if strings.TrimSpace(r.License) == "" {
		return false
	}
	ok, _ := spdxexp.ValidateLicenses([]string{r.License})
	return ok
}

// PURL returns the package URL for the record's name and version,
// e.g. "pkg:npm/lodash@4.17.21".
func (r PackageRecord) PURL() string {
	namespace, name := SplitScope(r.Name)
	return packageurl.NewPackageURL(packageurl.TypeNPM, namespace, name, r.Version, nil, "").ToString()
}

// HasDependencyData reports whether the version panel resolved this record.
func (r PackageRecord) HasDependencyData() bool {
	return r.Dependencies != nil || r.PeerDependencies != nil
}

// SplitScope splits "@scope/name" into ("@scope", "name").
// Unscoped names return an empty scope.
func SplitScope(pkg string) (scope, name string) {
	if strings.HasPrefix(pkg, "@") {
		if s, n, ok := strings.Cut(pkg, "/"); ok {
			return s, n
		}
	}
	return "", pkg
}

// Names returns the names of records in order.
func Names(records []PackageRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

// CloneAll deep-copies a record slice.
func CloneAll(records []PackageRecord) []PackageRecord {
	out := make([]PackageRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Index returns the position of name in records, or -1.
func Index(records []PackageRecord, name string) int {
	return slices.IndexFunc(records, func(r PackageRecord) bool { return r.Name == name })
}
