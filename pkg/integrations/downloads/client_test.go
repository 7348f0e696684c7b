package downloads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pkgcompare/pkg/integrations"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC) }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]Option{WithClock(fixedNow)}, opts...)
	return NewClient(integrations.NewClient(server.Client(), nil), server.URL, opts...)
}

func TestFetch(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/downloads/point/last-week/"):
			w.Write([]byte(`{"downloads": 1200, "package": "lodash"}`))
		case strings.HasPrefix(r.URL.Path, "/downloads/point/last-month/"):
			w.Write([]byte(`{"downloads": 5000, "package": "lodash"}`))
		case r.URL.Path == "/downloads/range/2010-01-01:2024-03-15/lodash":
			w.Write([]byte(`{"downloads": [{"day":"2024-03-13","downloads":5},{"day":"2024-03-14","downloads":7},{"day":"2024-03-15","downloads":3}]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	got, err := client.Fetch(context.Background(), "lodash")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got.Weekly != 1200 || got.Monthly != 5000 {
		t.Errorf("weekly/monthly = %d/%d", got.Weekly, got.Monthly)
	}
	if got.Total != 15 {
		t.Errorf("Total = %d, want 15", got.Total)
	}
	if len(paths) != 3 {
		t.Errorf("made %d requests, want 3", len(paths))
	}
}

func TestFetchMissingFieldsDefaultToZero(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	got, err := client.Fetch(context.Background(), "brand-new")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got.Weekly != 0 || got.Monthly != 0 || got.Total != 0 {
		t.Errorf("got %+v, want zeros", got)
	}
}

func TestFetchAnySubFetchFailureFailsPackage(t *testing.T) {
	tests := []struct {
		name    string
		failing string
	}{
		{"weekly", "/downloads/point/last-week/"},
		{"monthly", "/downloads/point/last-month/"},
		{"range", "/downloads/range/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(r.URL.Path, tt.failing) {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				if strings.HasPrefix(r.URL.Path, "/downloads/range/") {
					w.Write([]byte(`{"downloads": [{"day":"2024-03-15","downloads":1}]}`))
					return
				}
				w.Write([]byte(`{"downloads": 1}`))
			})

			got, err := client.Fetch(context.Background(), "axios")
			if !errors.Is(err, integrations.ErrNetwork) {
				t.Fatalf("Fetch() error = %v, want ErrNetwork", err)
			}
			if got != nil {
				t.Errorf("Fetch() = %+v, want nil on failure", got)
			}
		})
	}
}

func TestFetchScopedName(t *testing.T) {
	var rangePath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/downloads/range/") {
			rangePath = r.URL.Path
			w.Write([]byte(`{"downloads": []}`))
			return
		}
		w.Write([]byte(`{"downloads": 10}`))
	}, WithStart("2020-01-01"))

	if _, err := client.Fetch(context.Background(), "@babel/core"); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if rangePath != "/downloads/range/2020-01-01:2024-03-15/@babel/core" {
		t.Errorf("range path = %q", rangePath)
	}
}

func TestRange(t *testing.T) {
	c := NewClient(integrations.NewClient(nil, nil), "", WithClock(fixedNow))
	if got := c.Range(); got != "2010-01-01:2024-03-15" {
		t.Errorf("Range() = %q", got)
	}

	// "today" is a UTC calendar day.
	late := func() time.Time {
		return time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	}
	c = NewClient(integrations.NewClient(nil, nil), "", WithClock(late), WithStart("2015-06-01"))
	if got := c.Range(); got != "2015-06-01:2024-03-16" {
		t.Errorf("Range() = %q", got)
	}
}

func TestValidateStart(t *testing.T) {
	if err := ValidateStart("2010-01-01"); err != nil {
		t.Errorf("ValidateStart(valid) = %v", err)
	}
	for _, bad := range []string{"", "2010/01/01", "yesterday", "2010-13-01"} {
		if err := ValidateStart(bad); err == nil {
			t.Errorf("ValidateStart(%q) = nil, want error", bad)
		}
	}
}
