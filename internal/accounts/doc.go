// Package accounts persists the Google accounts multical serves and their
// OAuth tokens in a SQLite database.
//
// Accounts are returned in the order they were added. That order is the
// enumeration order the registry uses to break ties between accounts with the
// same access role and to pick the fallback for the "primary" alias.
package accounts
