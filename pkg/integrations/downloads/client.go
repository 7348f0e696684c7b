// Package downloads provides an HTTP client for the npm download counts API.
//
// [Client.Fetch] issues three requests per package concurrently: the
// last-week and last-month point totals, and a daily range from a fixed
// start date to today whose values are summed into the all-time total.
// All three settle before Fetch returns; if any fails, the package's
// download data as a whole is reported as failed.
package downloads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/integrations"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// DefaultBaseURL is the public npm download counts API.
const DefaultBaseURL = "https://api.npmjs.org"

// DefaultStart is the first day included in the all-time total.
const DefaultStart = "2010-01-01"

const dateLayout = "2006-01-02"

// Client fetches download statistics.
type Client struct {
	*integrations.Client
	baseURL string
	start   string
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithStart sets the first day (YYYY-MM-DD) of the all-time range.
func WithStart(date string) Option {
	return func(c *Client) {
		if date != "" {
			c.start = date
		}
	}
}

// WithClock sets the clock used to compute "today" for the range request.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a download stats client. An empty baseURL uses
// [DefaultBaseURL].
func NewClient(shared *integrations.Client, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		Client:  shared,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		start:   DefaultStart,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateStart checks that date is a YYYY-MM-DD day.
func ValidateStart(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "invalid downloads start date %q", date)
	}
	return nil
}

// Range returns the "start:today" period used for the all-time total.
func (c *Client) Range() string {
	return c.start + ":" + c.now().UTC().Format(dateLayout)
}

// Fetch returns weekly, monthly and all-time downloads for name. Missing
// numeric fields default to 0.
func (c *Client) Fetch(ctx context.Context, name string) (*record.Downloads, error) {
	if err := pkgerrors.ValidateNpmPackageName(name); err != nil {
		return nil, err
	}

	var (
		weekly, monthly pointResponse
		total           rangeResponse
	)

	var g errgroup.Group
	g.Go(func() error {
		return c.Get(ctx, fmt.Sprintf("%s/downloads/point/last-week/%s", c.baseURL, name), &weekly)
	})
	g.Go(func() error {
		return c.Get(ctx, fmt.Sprintf("%s/downloads/point/last-month/%s", c.baseURL, name), &monthly)
	})
	g.Go(func() error {
		return c.Get(ctx, fmt.Sprintf("%s/downloads/range/%s/%s", c.baseURL, c.Range(), name), &total)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &record.Downloads{
		Weekly:  weekly.Downloads,
		Monthly: monthly.Downloads,
		Total:   total.sum(),
	}, nil
}

type pointResponse struct {
	Downloads int64  `json:"downloads"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Package   string `json:"package"`
}

type rangeResponse struct {
	Downloads []struct {
		Downloads int64  `json:"downloads"`
		Day       string `json:"day"`
	} `json:"downloads"`
}

func (r rangeResponse) sum() int64 {
	var total int64
	for _, d := range r.Downloads {
		total += d.Downloads
	}
	return total
}
