package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrUpstreamDown is returned while a host's circuit breaker is open.
var ErrUpstreamDown = errors.New("upstream unavailable")

// tripThreshold is the number of consecutive failures that opens a breaker.
const tripThreshold = 5

// errServerStatus marks a 5xx response as a breaker failure. It never leaves
// this package: the response itself is handed back to the caller.
var errServerStatus = errors.New("server error status")

// Breakers holds one circuit breaker per upstream host.
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// NewBreakers creates an empty breaker set. Breakers are created lazily
// the first time a host is seen.
func NewBreakers() *Breakers {
	return &Breakers{breakers: make(map[string]*circuit.Breaker)}
}

func (b *Breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if breaker, ok := b.breakers[host]; ok {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ConsecutiveTripFunc(tripThreshold),
	})
	b.breakers[host] = breaker
	return breaker
}

// State reports "open" or "closed" for every host seen so far.
func (b *Breakers) State() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, breaker := range b.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// Hosts returns the hosts seen so far in sorted order.
func (b *Breakers) Hosts() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hosts := make([]string, 0, len(b.breakers))
	for host := range b.breakers {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Wrap returns a RoundTripper that routes every request through the
// breaker for its host. A nil base uses [http.DefaultTransport].
func (b *Breakers) Wrap(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &breakerTransport{base: base, breakers: b}
}

type breakerTransport struct {
	base     http.RoundTripper
	breakers *Breakers
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	breaker := t.breakers.get(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var (
		resp      *http.Response
		abandoned error
	)
	err := breaker.Call(func() error {
		var rtErr error
		resp, rtErr = t.base.RoundTrip(req)
		if rtErr != nil {
			// A caller giving up says nothing about the host.
			if req.Context().Err() != nil {
				abandoned = rtErr
				return nil
			}
			return rtErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	}, 0)

	switch {
	case abandoned != nil:
		return nil, abandoned
	case err == nil, errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, circuit.ErrBreakerOpen):
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	default:
		return nil, err
	}
}
