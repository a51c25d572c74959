// Package registry builds a deduplicated, permission-ranked view of the
// calendars reachable from a set of Google accounts and resolves calendar
// names and IDs to the account that should serve them.
//
// A calendar shared with several accounts appears once, with every account's
// access listed in enumeration order. The preferred account is the one with
// the highest access role; the first account wins ties.
//
// Snapshots are cached per account set for a TTL (DefaultTTL by default).
// Concurrent callers for the same account set share one fetch. The cache is a
// best-effort view: changes made on the server are only seen after the TTL
// expires or after ClearCache or Reset.
package registry
