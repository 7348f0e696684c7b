package httputil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/dnscache"
)

const dnsRefreshInterval = 5 * time.Minute

// Transport is an [http.Transport] that resolves hosts through a DNS cache.
type Transport struct {
	*http.Transport

	resolver *dnscache.Resolver
	stop     chan struct{}
	once     sync.Once
}

// NewTransport creates a Transport with connection pooling suited to a small
// number of upstream hosts. Call Close to stop the DNS refresh loop.
func NewTransport() *Transport {
	t := &Transport{
		resolver: &dnscache.Resolver{},
		stop:     make(chan struct{}),
	}
	go t.refresh()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	t.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := t.resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var lastErr error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, fmt.Errorf("failed to dial any resolved IP for %s: %w", host, lastErr)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return t
}

func (t *Transport) refresh() {
	ticker := time.NewTicker(dnsRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.resolver.Refresh(true)
		case <-t.stop:
			return
		}
	}
}

// Close stops the DNS refresh loop and closes idle connections.
// It is safe to call more than once.
func (t *Transport) Close() {
	t.once.Do(func() {
		close(t.stop)
		t.CloseIdleConnections()
	})
}
