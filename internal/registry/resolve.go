package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/multical/internal/logging"
)

// ResolveCalendar resolves a calendar name or ID to a calendar and account.
//
// "primary" resolves directly to the only account when there is one. With
// several accounts a calendar with that literal ID is looked up, and if none
// serves op the primary policy applies. A reference containing "@" is treated
// as a calendar ID. Anything else is matched as a name, trying in order:
// summaryOverride, display name and summary, each exact before
// case-insensitive. The first tier with a match wins.
func (r *Registry) ResolveCalendar(ctx context.Context, nameOrID string, accounts []Account, op Operation) (Resolution, bool, error) {
	if nameOrID == "" || len(accounts) == 0 {
		return Resolution{}, false, nil
	}

	if nameOrID == PrimaryAlias {
		return r.resolvePrimary(ctx, accounts, op)
	}

	if strings.Contains(nameOrID, "@") {
		cal, ok, err := r.lookup(ctx, nameOrID, accounts)
		if err != nil || !ok {
			return Resolution{}, false, err
		}
		return resolution(cal, op)
	}

	calendars, err := r.UnifiedCalendars(ctx, accounts)
	if err != nil {
		return Resolution{}, false, err
	}
	cal, ok := matchName(calendars, nameOrID)
	if !ok {
		return Resolution{}, false, nil
	}
	return resolution(cal, op)
}

func (r *Registry) resolvePrimary(ctx context.Context, accounts []Account, op Operation) (Resolution, bool, error) {
	if len(accounts) == 1 {
		return Resolution{
			CalendarID: PrimaryAlias,
			AccountID:  accounts[0].ID,
			AccessRole: RoleOwner,
		}, true, nil
	}

	access, ok, err := r.AccountForCalendar(ctx, PrimaryAlias, accounts, op)
	if err != nil {
		return Resolution{}, false, err
	}
	if ok {
		return Resolution{
			CalendarID: PrimaryAlias,
			AccountID:  access.AccountID,
			AccessRole: access.AccessRole,
		}, true, nil
	}

	if r.primaryPolicy == PrimaryStrict {
		return Resolution{}, false, fmt.Errorf("%w across %d accounts", ErrAmbiguousPrimary, len(accounts))
	}

	r.logger.Debug("primary calendar is ambiguous, using first account",
		"accounts", len(accounts))
	return Resolution{
		CalendarID: PrimaryAlias,
		AccountID:  accounts[0].ID,
		AccessRole: RoleOwner,
	}, true, nil
}

func resolution(cal UnifiedCalendar, op Operation) (Resolution, bool, error) {
	access, ok, err := gate(cal, op)
	if err != nil || !ok {
		return Resolution{}, false, err
	}
	return Resolution{
		CalendarID:  cal.CalendarID,
		AccountID:   access.AccountID,
		AccessRole:  access.AccessRole,
		DisplayName: cal.DisplayName,
	}, true, nil
}

type nameMatcher func(cal UnifiedCalendar, name string) bool

var nameTiers = []nameMatcher{
	func(c UnifiedCalendar, n string) bool {
		return anyAccess(c, func(a CalendarAccess) bool { return a.SummaryOverride == n })
	},
	func(c UnifiedCalendar, n string) bool {
		return anyAccess(c, func(a CalendarAccess) bool {
			return a.SummaryOverride != "" && strings.EqualFold(a.SummaryOverride, n)
		})
	},
	func(c UnifiedCalendar, n string) bool { return c.DisplayName == n },
	func(c UnifiedCalendar, n string) bool {
		return c.DisplayName != "" && strings.EqualFold(c.DisplayName, n)
	},
	func(c UnifiedCalendar, n string) bool {
		return anyAccess(c, func(a CalendarAccess) bool { return a.Summary == n })
	},
	func(c UnifiedCalendar, n string) bool {
		return anyAccess(c, func(a CalendarAccess) bool {
			return a.Summary != "" && strings.EqualFold(a.Summary, n)
		})
	},
}

func anyAccess(c UnifiedCalendar, pred func(CalendarAccess) bool) bool {
	for _, a := range c.Accounts {
		if pred(a) {
			return true
		}
	}
	return false
}

func matchName(calendars []UnifiedCalendar, name string) (UnifiedCalendar, bool) {
	for _, matches := range nameTiers {
		for _, c := range calendars {
			if matches(c, name) {
				return c, true
			}
		}
	}
	return UnifiedCalendar{}, false
}

// RoutingMap groups resolved calendars by the account that serves them.
// Accounts keep the order in which they were first added.
type RoutingMap struct {
	order     []string
	calendars map[string][]string
	resolved  map[string]Resolution
}

// NewRoutingMap returns an empty routing map.
func NewRoutingMap() *RoutingMap {
	return &RoutingMap{
		calendars: make(map[string][]string),
		resolved:  make(map[string]Resolution),
	}
}

// Add records that ref resolved to res. A calendar is listed at most once
// per account.
func (m *RoutingMap) Add(ref string, res Resolution) {
	m.resolved[ref] = res

	ids, ok := m.calendars[res.AccountID]
	if !ok {
		m.order = append(m.order, res.AccountID)
	}
	for _, id := range ids {
		if id == res.CalendarID {
			return
		}
	}
	m.calendars[res.AccountID] = append(ids, res.CalendarID)
}

// Accounts returns the account IDs in the map.
func (m *RoutingMap) Accounts() []string {
	return m.order
}

// Calendars returns the calendar IDs routed to accountID.
func (m *RoutingMap) Calendars(accountID string) []string {
	return m.calendars[accountID]
}

// Resolved returns what ref resolved to.
func (m *RoutingMap) Resolved(ref string) (Resolution, bool) {
	res, ok := m.resolved[ref]
	return res, ok
}

// Len returns the number of accounts in the map.
func (m *RoutingMap) Len() int {
	return len(m.order)
}

// Empty reports whether nothing was resolved.
func (m *RoutingMap) Empty() bool {
	return len(m.order) == 0
}

// ResolveCalendarsToAccounts resolves each reference for reading and groups
// the results by account. References that do not resolve are skipped and
// reported as warnings.
func (r *Registry) ResolveCalendarsToAccounts(ctx context.Context, refs []string, accounts []Account, opts ResolveOptions) (*RoutingMap, []string, error) {
	scoped := FilterAccounts(accounts, opts.RestrictToAccounts)
	routing := NewRoutingMap()
	var warnings []string

	for _, ref := range refs {
		res, ok, err := r.ResolveCalendar(ctx, ref, scoped, Read)
		if errors.Is(err, ErrAmbiguousPrimary) {
			warnings = append(warnings, fmt.Sprintf(`Calendar "%s" is ambiguous across %d accounts`, ref, len(scoped)))
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			r.logger.Debug("calendar reference not resolved", logging.Calendar(ref))
			warnings = append(warnings, fmt.Sprintf(`Calendar "%s" not found on any account`, ref))
			continue
		}
		routing.Add(ref, res)
	}

	return routing, warnings, nil
}
