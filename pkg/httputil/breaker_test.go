package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func get(t *testing.T, client *http.Client, rawURL string) (int, error) {
	t.Helper()
	resp, err := client.Get(rawURL)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return u.Host
}

func TestBreakers_TripsAfterConsecutiveServerErrors(t *testing.T) {
	var calls atomic.Int32
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	breakers := NewBreakers()
	client := &http.Client{Transport: breakers.Wrap(failing.Client().Transport)}

	for i := range tripThreshold {
		status, err := get(t, client, failing.URL)
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
		if status != http.StatusBadGateway {
			t.Fatalf("request %d: status = %d, want 502", i, status)
		}
	}

	_, err := get(t, client, failing.URL)
	if !errors.Is(err, ErrUpstreamDown) {
		t.Fatalf("expected ErrUpstreamDown once tripped, got %v", err)
	}
	if got := calls.Load(); got != tripThreshold {
		t.Errorf("server saw %d calls, want %d", got, tripThreshold)
	}

	// Other hosts keep working.
	status, err := get(t, client, healthy.URL)
	if err != nil || status != http.StatusOK {
		t.Fatalf("healthy host: status=%d err=%v", status, err)
	}

	states := breakers.State()
	if states[hostOf(t, failing.URL)] != "open" {
		t.Errorf("failing host state = %q, want open", states[hostOf(t, failing.URL)])
	}
	if states[hostOf(t, healthy.URL)] != "closed" {
		t.Errorf("healthy host state = %q, want closed", states[hostOf(t, healthy.URL)])
	}
}

func TestBreakers_SuccessResetsFailureRun(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	breakers := NewBreakers()
	client := &http.Client{Transport: breakers.Wrap(server.Client().Transport)}

	run := func(n int) {
		fail.Store(true)
		for range n {
			if _, err := get(t, client, server.URL); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	run(tripThreshold - 1)
	fail.Store(false)
	if _, err := get(t, client, server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	run(tripThreshold - 1)

	if got := breakers.State()[hostOf(t, server.URL)]; got != "closed" {
		t.Errorf("state = %q, want closed", got)
	}
}

func TestBreakers_CanceledRequestsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	breakers := NewBreakers()
	client := &http.Client{Transport: breakers.Wrap(server.Client().Transport)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := range tripThreshold * 2 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		_, err = client.Do(req)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("request %d: err = %v, want context.Canceled", i, err)
		}
	}

	if got := breakers.State()[hostOf(t, server.URL)]; got != "closed" {
		t.Errorf("state = %q, want closed", got)
	}
	if status, err := get(t, client, server.URL); err != nil || status != http.StatusOK {
		t.Errorf("after cancellations: status=%d err=%v", status, err)
	}
}

func TestBreakers_ClientErrorsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	breakers := NewBreakers()
	client := &http.Client{Transport: breakers.Wrap(server.Client().Transport)}

	for range tripThreshold * 2 {
		status, err := get(t, client, server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", status)
		}
	}
	if got := breakers.Hosts(); len(got) != 1 {
		t.Errorf("Hosts() = %v, want one host", got)
	}
}

func TestTransport_CloseIsIdempotent(t *testing.T) {
	tr := NewTransport()
	tr.Close()
	tr.Close()
}
