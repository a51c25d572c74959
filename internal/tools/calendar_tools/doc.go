// Package calendar_tools provides MCP (Model Context Protocol) tools for Google
// Calendar across several Google accounts.
//
// Calendars are addressed by name or ID. Read tools resolve each calendar to
// the account with the best access to it and merge the answers; write tools
// require an account with writer or owner access. Every tool accepts an
// optional "accounts" argument restricting which accounts are consulted.
// Write tools are only registered when the server is not read-only.
package calendar_tools
