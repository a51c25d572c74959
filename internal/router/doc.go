// Package router fans calendar queries out across the accounts that serve
// the requested calendars and merges the per-account answers.
//
// A request naming one calendar with one account in scope takes the direct
// path and fails loudly. Every other request is resolved through the
// registry into a routing map, one sub-request per account runs
// concurrently, and a failing account is reported as a warning while the
// others still contribute.
package router
