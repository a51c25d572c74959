// Package google provides OAuth2 configuration and token management for the
// Google Calendar API.
//
// Tokens are persisted per account by the account store and cached in an
// in-memory mcp-oauth token store. Refreshed tokens are written back to both,
// so a restarted server keeps working without re-authorization.
package google
