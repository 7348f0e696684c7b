// Package httputil provides HTTP plumbing shared by the upstream clients.
//
// # Overview
//
// This package provides infrastructure used by every upstream API client:
//
//   - [NewTransport]: an [http.Transport] whose dialer resolves hosts through
//     a refreshing DNS cache
//   - [Breakers]: a per-host circuit breaker wrapped around a RoundTripper
//
// # Circuit Breaking
//
// Requests are never retried. Instead, each upstream host gets its own
// breaker that trips after five consecutive failures (transport errors or
// 5xx responses). While a breaker is open, requests to that host fail fast
// with [ErrUpstreamDown]; other hosts are unaffected. The breaker half-opens
// on an exponential backoff schedule starting at 30 seconds.
//
//	breakers := httputil.NewBreakers()
//	client := &http.Client{Transport: breakers.Wrap(httputil.NewTransport())}
//	fmt.Println(breakers.State()) // map[registry.npmjs.org:closed]
//
// # DNS Caching
//
// [NewTransport] resolves hosts via [dnscache.Resolver], refreshed every
// five minutes until [Transport.Close] is called. Comparing many packages
// hits the same three hosts repeatedly, so lookups are amortized.
//
// [dnscache.Resolver]: https://pkg.go.dev/github.com/rs/dnscache#Resolver
package httputil
