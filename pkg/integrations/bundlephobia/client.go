// Package bundlephobia provides an HTTP client for the bundlephobia size API.
//
// Sizes are reported in bytes: the minified bundle, the gzipped bundle, and
// the approximate size of the package together with its dependencies (the
// sum of every dependencySizes entry).
package bundlephobia

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/integrations"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// DefaultBaseURL is the public bundlephobia service.
const DefaultBaseURL = "https://bundlephobia.com"

// userHeader identifies this tool to bundlephobia, which asks API
// consumers to do so.
const userHeader = "X-Bundlephobia-User"

// Client fetches bundle sizes.
type Client struct {
	*integrations.Client
	baseURL string
	headers map[string]string
}

// NewClient creates a bundle size client. An empty baseURL uses
// [DefaultBaseURL].
func NewClient(shared *integrations.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  shared,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: map[string]string{userHeader: "pkgcompare"},
	}
}

// Specifier formats the name@version package specifier bundlephobia expects.
// An empty version asks for the latest.
func Specifier(name, version string) string {
	if version == "" {
		return name
	}
	return name + "@" + version
}

// FetchSize returns the bundle size of name at version.
func (c *Client) FetchSize(ctx context.Context, name, version string) (*record.Size, error) {
	if err := pkgerrors.ValidateNpmPackageName(name); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/size?package=%s", c.baseURL, url.QueryEscape(Specifier(name, version)))

	var data sizeResponse
	if err := c.GetWithHeaders(ctx, endpoint, c.headers, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", &integrations.NotFoundError{Name: name, Version: version}, err)
		}
		return nil, err
	}

	return &record.Size{
		Minified:              data.Size,
		Gzip:                  data.Gzip,
		TotalWithDependencies: data.dependencyTotal(),
	}, nil
}

type sizeResponse struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Size            int64  `json:"size"`
	Gzip            int64  `json:"gzip"`
	DependencyCount int    `json:"dependencyCount"`
	DependencySizes []struct {
		Name            string `json:"name"`
		ApproximateSize int64  `json:"approximateSize"`
	} `json:"dependencySizes"`
}

func (r sizeResponse) dependencyTotal() int64 {
	var total int64
	for _, d := range r.DependencySizes {
		total += d.ApproximateSize
	}
	return total
}
