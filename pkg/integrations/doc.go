// Package integrations provides HTTP clients for the upstream package APIs.
//
// # Overview
//
// This package contains low-level API clients for the three public
// providers a comparison draws on. Each provider has its own subpackage:
//
//   - [npm]: npm registry search and package documents
//   - [downloads]: npm download statistics
//   - [bundlephobia]: bundle size analysis
//
// # Client Pattern
//
// All upstream clients follow a consistent pattern:
//
//	client := npm.NewClient(shared, npm.DefaultBaseURL)
//	rec, err := client.FetchPackage(ctx, "lodash")
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by every
// upstream client: default headers, JSON decoding, instrumentation through
// [observability.HTTP], and a single error taxonomy:
//
//   - [FetchError] wraps [ErrNetwork] for transport failures and non-2xx
//     responses, and [ErrMalformed] for bodies that fail to decode
//   - [NotFoundError] unwraps to [ErrNotFound]
//
// Nothing is cached and nothing is retried. Fail-fast behavior for an
// unhealthy host comes from the transport (see [httputil.Breakers]).
//
// [npm]: github.com/matzehuels/pkgcompare/pkg/integrations/npm
// [downloads]: github.com/matzehuels/pkgcompare/pkg/integrations/downloads
// [bundlephobia]: github.com/matzehuels/pkgcompare/pkg/integrations/bundlephobia
// [observability.HTTP]: github.com/matzehuels/pkgcompare/pkg/observability.HTTP
// [httputil.Breakers]: github.com/matzehuels/pkgcompare/pkg/httputil.Breakers
package integrations
