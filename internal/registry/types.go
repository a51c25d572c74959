package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/multical/internal/calendar"
)

// AccessRole is an account's permission level on a calendar.
type AccessRole string

const (
	RoleOwner          AccessRole = "owner"
	RoleWriter         AccessRole = "writer"
	RoleReader         AccessRole = "reader"
	RoleFreeBusyReader AccessRole = "freeBusyReader"
)

// Rank orders roles: owner 4, writer 3, reader 2, freeBusyReader 1.
// Unknown roles rank 0.
func (r AccessRole) Rank() int {
	switch r {
	case RoleOwner:
		return 4
	case RoleWriter:
		return 3
	case RoleReader:
		return 2
	case RoleFreeBusyReader:
		return 1
	default:
		return 0
	}
}

// CanWrite reports whether the role allows modifying events.
func (r AccessRole) CanWrite() bool {
	return r == RoleOwner || r == RoleWriter
}

// Operation selects the role gating applied during resolution.
type Operation int

const (
	// Read resolves to the preferred account regardless of its role.
	Read Operation = iota
	// Write resolves only if the preferred account is owner or writer.
	Write
)

func (o Operation) String() string {
	if o == Write {
		return "write"
	}
	return "read"
}

// PrimaryPolicy decides how the "primary" alias is resolved when several
// accounts are in scope and no calendar carries that literal ID.
type PrimaryPolicy int

const (
	// PrimaryFallback resolves to the first account, reported as owner.
	PrimaryFallback PrimaryPolicy = iota
	// PrimaryStrict returns ErrAmbiguousPrimary.
	PrimaryStrict
)

// ParsePrimaryPolicy parses "fallback" or "strict". Empty means fallback.
func ParsePrimaryPolicy(s string) (PrimaryPolicy, error) {
	switch s {
	case "", "fallback":
		return PrimaryFallback, nil
	case "strict":
		return PrimaryStrict, nil
	default:
		return PrimaryFallback, fmt.Errorf("invalid primary policy %q, expected fallback or strict", s)
	}
}

func (p PrimaryPolicy) String() string {
	if p == PrimaryStrict {
		return "strict"
	}
	return "fallback"
}

// PrimaryAlias is the calendar reference for an account's own calendar.
const PrimaryAlias = "primary"

// ErrAmbiguousPrimary is returned under PrimaryStrict when "primary" could
// refer to more than one account.
var ErrAmbiguousPrimary = errors.New(`calendar "primary" is ambiguous`)

// CalendarLister enumerates the calendars visible to one account.
type CalendarLister interface {
	ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error)
}

// Account is an account ID together with its calendar client.
// Slices of accounts are ordered; the order is the enumeration order.
type Account struct {
	ID     string
	Client CalendarLister
}

// CalendarAccess is one account's view of one calendar.
type CalendarAccess struct {
	AccountID       string     `json:"accountId"`
	AccessRole      AccessRole `json:"accessRole"`
	Primary         bool       `json:"primary,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	SummaryOverride string     `json:"summaryOverride,omitempty"`
}

// UnifiedCalendar is one calendar with every account that can see it.
type UnifiedCalendar struct {
	CalendarID       string           `json:"calendarId"`
	Accounts         []CalendarAccess `json:"accounts"`
	PreferredAccount string           `json:"preferredAccount"`
	DisplayName      string           `json:"displayName"`
}

// Preferred returns the access entry of the preferred account.
func (u UnifiedCalendar) Preferred() CalendarAccess {
	for _, a := range u.Accounts {
		if a.AccountID == u.PreferredAccount {
			return a
		}
	}
	return CalendarAccess{}
}

// Resolution is a calendar reference resolved to a concrete calendar and
// the account that serves it.
type Resolution struct {
	CalendarID  string     `json:"calendarId"`
	AccountID   string     `json:"accountId"`
	AccessRole  AccessRole `json:"accessRole"`
	DisplayName string     `json:"displayName,omitempty"`
}

// ResolveOptions tune ResolveCalendarsToAccounts.
type ResolveOptions struct {
	// RestrictToAccounts limits resolution to these account IDs when non-empty.
	RestrictToAccounts []string
}

// FilterAccounts returns the accounts whose ID is in ids, keeping their order.
// An empty ids returns accounts unchanged.
func FilterAccounts(accounts []Account, ids []string) []Account {
	return FilterByID(accounts, ids, func(a Account) string { return a.ID })
}

// FilterByID returns the items whose ID is in ids, keeping their order. An
// empty ids returns items unchanged.
func FilterByID[T any](items []T, ids []string, id func(T) string) []T {
	if len(ids) == 0 {
		return items
	}
	allowed := make(map[string]bool, len(ids))
	for _, v := range ids {
		allowed[v] = true
	}
	var res []T
	for _, item := range items {
		if allowed[id(item)] {
			res = append(res, item)
		}
	}
	return res
}
