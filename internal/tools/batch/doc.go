// Package batch provides helpers for tools that act on several items at once.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Processing items in order with per-item error capture
//   - Formatting batch results, including routing warnings, as JSON
package batch
