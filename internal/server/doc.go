// Package server exposes a comparison workspace over a local HTTP API.
//
// Routes:
//
//	GET    /healthz                           liveness and upstream circuit state
//	GET    /api/search?q=&page=               suggestion list up to page
//	GET    /api/selection                     selected packages
//	POST   /api/selection                     {"name": "lodash"} selects a package
//	DELETE /api/selection/{name}              removes a package
//	GET    /api/panels/{size|versions|downloads}
//	POST   /api/panels/size/{name}/refetch    re-fetches one package's size
//	GET    /api/report?format=json|yaml|markdown
//	GET    /api/notifications                 recent notifications
//	GET    /api/events                        websocket event stream
//
// Scoped package names in paths must escape the slash ("@babel%2Fcore").
//
// The event stream sends one JSON object per change, with a "type" of
// "selection", "panel" or "notification".
package server
