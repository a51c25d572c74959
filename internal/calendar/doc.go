// Package calendar is the per-account Google Calendar client used by the
// registry and the router: it lists calendars, queries free/busy, lists and
// searches events and performs event writes. Every call opens a
// google.calendar.<operation> span.
//
// Example usage:
//
//	client, err := calendar.NewClientForAccount(ctx, "jane@example.com", tokenProvider)
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, calendar.EventQuery{
//	    CalendarID: "primary",
//	    TimeMin:    time.Now(),
//	    TimeMax:    time.Now().AddDate(0, 0, 7),
//	})
package calendar
