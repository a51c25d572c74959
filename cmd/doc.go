// Package cmd implements the command-line interface for multical.
//
// This package provides the following commands:
//   - serve: Start the MCP server with the multi-account calendar tools
//   - accounts: Add, list and remove the Google accounts multical queries
//   - calendars: Print the unified calendar list of all accounts
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// All commands read the YAML configuration given by --config.
package cmd
