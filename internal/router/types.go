package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/registry"
)

// Kind is the operation a route serves.
type Kind string

const (
	KindFreeBusy Kind = "freebusy"
	KindSearch   Kind = "search"
	KindList     Kind = "list"
)

// EmptyStrategy is what a route does when no calendar resolved.
type EmptyStrategy int

const (
	// EmptyNotFound answers with a notFound entry per requested calendar.
	EmptyNotFound EmptyStrategy = iota
	// EmptyFail returns a *NoCalendarsError.
	EmptyFail
)

// Strategy returns the empty-result strategy of the kind.
func (k Kind) Strategy() EmptyStrategy {
	if k == KindFreeBusy {
		return EmptyNotFound
	}
	return EmptyFail
}

// Client is the per-account calendar capability the router needs.
type Client interface {
	registry.CalendarLister
	QueryFreeBusy(ctx context.Context, req calendar.FreeBusyRequest) (map[string]calendar.FreeBusyCalendar, error)
	ListEvents(ctx context.Context, q calendar.EventQuery) ([]calendar.EventSummary, error)
}

// Account is an account ID and its client.
type Account struct {
	ID     string
	Client Client
}

// RegistryAccounts converts accounts for registry calls.
func RegistryAccounts(accounts []Account) []registry.Account {
	res := make([]registry.Account, len(accounts))
	for i, a := range accounts {
		res[i] = registry.Account{ID: a.ID, Client: a.Client}
	}
	return res
}

// ErrCalendarNotFound is returned on the direct path when the calendar
// reference does not resolve.
var ErrCalendarNotFound = errors.New("calendar not found")

// NoCalendarsError is returned by search and list routes when none of the
// requested calendars resolved. Available lists the calendars that exist.
type NoCalendarsError struct {
	Requested []string
	Available []string
}

func (e *NoCalendarsError) Error() string {
	msg := fmt.Sprintf("none of the requested calendars were found: %s", strings.Join(e.Requested, ", "))
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(". Available calendars: %s", strings.Join(e.Available, ", "))
	}
	return msg
}

// FreeBusyQuery asks for busy periods of several calendars.
type FreeBusyQuery struct {
	Calendars          []string
	TimeMin            time.Time
	TimeMax            time.Time
	RestrictToAccounts []string
}

// FreeBusyResult maps every requested calendar reference to its answer.
type FreeBusyResult struct {
	Calendars map[string]calendar.FreeBusyCalendar `json:"calendars"`
	Accounts  []string                             `json:"accounts,omitempty"`
	Warnings  []string                             `json:"warnings,omitempty"`
}

// EventsQuery lists or searches events across calendars.
type EventsQuery struct {
	Calendars          []string
	TimeMin            time.Time
	TimeMax            time.Time
	Query              string
	MaxResults         int64
	RestrictToAccounts []string
}

// TaggedEvent is an event with the account and calendar it came from.
type TaggedEvent struct {
	calendar.EventSummary
	AccountID  string `json:"accountId"`
	CalendarID string `json:"calendarId"`
}

// EventsResult is the merged answer of a search or list route.
type EventsResult struct {
	Events   []TaggedEvent `json:"events"`
	Accounts []string      `json:"accounts,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}
