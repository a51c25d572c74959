// Package resources provides read-only MCP resources describing the
// configured accounts and the unified calendar list.
//
// Resources carry the same data as the calendar_list_calendars tool as JSON,
// for clients that attach context without calling tools:
//
//   - multical://accounts lists the accounts in query order
//   - multical://calendars lists every calendar once, with the account that
//     serves it and every account that can see it
package resources
