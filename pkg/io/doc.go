// Package io exports comparison reports as JSON or YAML.
//
// # Document Format
//
// An export is a single document listing every compared package in
// selection order, with the size, download and dependency data of all
// three panels merged onto the package:
//
//	{
//	  "tool": "pkgcompare/v1.2.0",
//	  "generatedAt": "2024-06-01T12:00:00Z",
//	  "packages": [
//	    {
//	      "purl": "pkg:npm/lodash@4.17.21",
//	      "name": "lodash",
//	      "version": "4.17.21",
//	      "license": "MIT",
//	      "size": {"minified": 71000, "gzip": 25000, "totalWithDependencies": 71000},
//	      "downloads": {"weekly": 45000000, "monthly": 190000000, "total": 9000000000},
//	      "dependencies": {}
//	    }
//	  ],
//	  "failures": {"size": {"flaky": "Failed to fetch size data for flaky"}}
//	}
//
// A dimension a panel could not fetch is omitted from the package and
// listed under failures instead.
//
// # Usage
//
//	err := io.WriteJSON(ws.Report(), os.Stdout)
//	err = io.Export(ws.Report(), "comparison.yaml")
//
// [Export] picks the encoding from the file extension (.json, .yaml, .yml).
package io
