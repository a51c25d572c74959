// Package common provides shared utilities for the MCP tool implementations:
// argument parsing and the instrumentation wrapper every tool handler is
// registered through.
package common
