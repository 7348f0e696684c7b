// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package searches the npm registry (https://registry.npmjs.org) and
// reads package documents for the packages a user selects.
//
// # Usage
//
//	shared := integrations.NewClient(nil, nil)
//	client := npm.NewClient(shared, npm.DefaultBaseURL)
//
//	page, err := client.Search(ctx, "react", 1)
//	fmt.Println(page.Names, page.HasMore())
//
//	rec, err := client.FetchPackage(ctx, "react")
//	fmt.Println(rec.Name, rec.Version, rec.DisplayLicense())
//
// # Search
//
// [Client.Search] requests [PageSize] names per page. Queries shorter than
// [MinQueryLength] characters after trimming return [ErrQueryTooShort]
// without touching the network.
//
// # Package Documents
//
// [Client.FetchPackage] reads the version tagged "latest" in dist-tags and
// maps it onto a [record.PackageRecord]. Fields that upstream publishes in
// more than one shape (author, repository, license, keywords, maintainers)
// are normalized; missing optional fields become empty values.
//
// [Client.FetchManifest] re-reads the same document for the version panel
// and returns only the latest version and its dependency ranges.
//
// [record.PackageRecord]: github.com/matzehuels/pkgcompare/pkg/record.PackageRecord
package npm
