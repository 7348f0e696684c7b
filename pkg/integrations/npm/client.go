package npm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/integrations"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

const (
	// PageSize is the number of names requested per search page.
	PageSize = 20

	// MinQueryLength is the shortest trimmed query that reaches the registry.
	MinQueryLength = 3
)

// ErrQueryTooShort is returned by [Client.Search] for queries shorter than
// [MinQueryLength] characters. No request is made.
var ErrQueryTooShort = errors.New("search query too short")

// SearchPage is one page of search results in registry ranking order.
type SearchPage struct {
	Query string
	Page  int
	Names []string
	Total int
}

// HasMore reports whether another page may exist. The registry does not
// say so directly: a full page implies there could be more.
func (p *SearchPage) HasMore() bool {
	return len(p.Names) == PageSize
}

// Manifest is the dependency view of a package's latest version.
type Manifest struct {
	Version          string
	Dependencies     map[string]string
	PeerDependencies map[string]string
}

// Client talks to the npm registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a registry client on top of a shared HTTP client.
// An empty baseURL uses [DefaultBaseURL].
func NewClient(shared *integrations.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  shared,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NormalizeQuery trims surrounding whitespace from a search query.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// QueryTooShort reports whether q is below the search threshold.
func QueryTooShort(q string) bool {
	return len([]rune(NormalizeQuery(q))) < MinQueryLength
}

// Search returns one page of package names matching query. Pages are
// 1-based; values below 1 are treated as 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchPage, error) {
	query = NormalizeQuery(query)
	if QueryTooShort(query) {
		return nil, ErrQueryTooShort
	}
	page = max(page, 1)

	params := url.Values{}
	params.Set("text", query)
	params.Set("size", strconv.Itoa(PageSize))
	params.Set("from", strconv.Itoa((page-1)*PageSize))

	var data searchResponse
	if err := c.Get(ctx, c.baseURL+"/-/v1/search?"+params.Encode(), &data); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data.Objects))
	for _, obj := range data.Objects {
		if obj.Package.Name != "" {
			names = append(names, obj.Package.Name)
		}
	}
	return &SearchPage{Query: query, Page: page, Names: names, Total: data.Total}, nil
}

// FetchPackage fetches the registry document for name and maps its latest
// version onto a base record. The record's Name is name exactly as given.
func (c *Client) FetchPackage(ctx context.Context, name string) (*record.PackageRecord, error) {
	data, err := c.document(ctx, name)
	if err != nil {
		return nil, err
	}

	latest := data.DistTags.Latest
	v, ok := data.Versions[latest]
	if latest == "" || !ok {
		return nil, &integrations.NotFoundError{Name: name, Version: latest}
	}

	maintainers := extractMaintainers(v.Maintainers)
	if len(maintainers) == 0 {
		maintainers = extractMaintainers(data.Maintainers)
	}

	rec := &record.PackageRecord{
		Name:        name,
		Version:     latest,
		Description: integrations.ExtractField(v.Description, ""),
		License:     extractLicense(v.License, v.Licenses),
		Author:      integrations.ExtractField(v.Author, "name"),
		Repository:  integrations.NormalizeRepoURL(integrations.ExtractField(v.Repository, "url")),
		Keywords:    extractKeywords(v.Keywords),
		Maintainers: maintainers,
		CreatedAt:   parseTime(data.Time["created"]),
		ModifiedAt:  parseTime(data.Time["modified"]),
	}
	return rec, nil
}

// FetchManifest re-reads the registry document for name and returns the
// latest version with its dependency ranges. Absent maps are returned empty.
func (c *Client) FetchManifest(ctx context.Context, name string) (*Manifest, error) {
	data, err := c.document(ctx, name)
	if err != nil {
		return nil, err
	}

	latest := data.DistTags.Latest
	v, ok := data.Versions[latest]
	if latest == "" || !ok {
		return nil, &integrations.NotFoundError{Name: name, Version: latest}
	}

	return &Manifest{
		Version:          latest,
		Dependencies:     extractRanges(v.Dependencies),
		PeerDependencies: extractRanges(v.PeerDependencies),
	}, nil
}

func (c *Client) document(ctx context.Context, name string) (*registryResponse, error) {
	if err := pkgerrors.ValidateNpmPackageName(name); err != nil {
		return nil, err
	}

	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+url.PathEscape(name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", &integrations.NotFoundError{Name: name}, err)
		}
		return nil, err
	}
	return &data, nil
}

func extractLicense(license, legacy any) string {
	if s := integrations.ExtractField(license, "type"); s != "" {
		return s
	}
	// Legacy documents publish "licenses": [{type, url}].
	if list, ok := legacy.([]any); ok && len(list) > 0 {
		return integrations.ExtractField(list[0], "type")
	}
	return ""
}

// extractMaintainers accepts both {name, email} objects and the legacy
// "Name <email>" strings.
func extractMaintainers(v any) []record.Maintainer {
	list, _ := v.([]any)
	out := make([]record.Maintainer, 0, len(list))
	for _, item := range list {
		switch m := item.(type) {
		case map[string]any:
			name, _ := m["name"].(string)
			email, _ := m["email"].(string)
			out = append(out, record.Maintainer{Name: name, Email: email})
		case string:
			name, email, _ := strings.Cut(m, "<")
			out = append(out, record.Maintainer{
				Name:  strings.TrimSpace(name),
				Email: strings.TrimSuffix(strings.TrimSpace(email), ">"),
			})
		}
	}
	return out
}

// extractRanges returns a name to range map. Anything that is not an
// object of strings yields an empty map.
func extractRanges(v any) map[string]string {
	out := map[string]string{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for name, rng := range m {
		if s, ok := rng.(string); ok {
			out[name] = s
		}
	}
	return out
}

func extractKeywords(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, k := range val {
			if s, ok := k.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		// Some old packages publish a single comma separated string.
		out := []string{}
		for _, k := range strings.Split(val, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	return []string{}
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type searchResponse struct {
	Objects []struct {
		Package struct {
			Name string `json:"name"`
		} `json:"package"`
	} `json:"objects"`
	Total int `json:"total"`
}

type registryResponse struct {
	Name        string                    `json:"name"`
	DistTags    distTags                  `json:"dist-tags"`
	Versions    map[string]versionDetails `json:"versions"`
	Time        map[string]any            `json:"time"`
	Maintainers any                       `json:"maintainers"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Description      any `json:"description"`
	License          any `json:"license"`
	Licenses         any `json:"licenses"`
	Author           any `json:"author"`
	Repository       any `json:"repository"`
	Keywords         any `json:"keywords"`
	Maintainers      any `json:"maintainers"`
	Dependencies     any `json:"dependencies"`
	PeerDependencies any `json:"peerDependencies"`
}
