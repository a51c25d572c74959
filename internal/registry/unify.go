package registry

import (
	"github.com/teemow/multical/internal/calendar"
)

// unify folds per-account calendar lists into unified calendars. lists[i]
// belongs to accounts[i]. Calendars keep first-seen order.
func unify(accounts []Account, lists [][]calendar.CalendarInfo) []UnifiedCalendar {
	var order []string
	byID := make(map[string][]CalendarAccess)

	for i, acc := range accounts {
		for _, cal := range lists[i] {
			if cal.ID == "" {
				continue
			}
			existing, seen := byID[cal.ID]
			if !seen {
				order = append(order, cal.ID)
			}
			if hasAccount(existing, acc.ID) {
				continue
			}
			byID[cal.ID] = append(existing, CalendarAccess{
				AccountID:       acc.ID,
				AccessRole:      AccessRole(cal.AccessRole),
				Primary:         cal.Primary,
				Summary:         cal.Summary,
				SummaryOverride: cal.SummaryOverride,
			})
		}
	}

	unified := make([]UnifiedCalendar, 0, len(order))
	for _, id := range order {
		unified = append(unified, newUnifiedCalendar(id, byID[id]))
	}
	return unified
}

func hasAccount(accesses []CalendarAccess, accountID string) bool {
	for _, a := range accesses {
		if a.AccountID == accountID {
			return true
		}
	}
	return false
}

func newUnifiedCalendar(id string, accesses []CalendarAccess) UnifiedCalendar {
	preferred := accesses[0]
	for _, a := range accesses[1:] {
		if a.AccessRole.Rank() > preferred.AccessRole.Rank() {
			preferred = a
		}
	}

	return UnifiedCalendar{
		CalendarID:       id,
		Accounts:         accesses,
		PreferredAccount: preferred.AccountID,
		DisplayName:      displayName(accesses, preferred),
	}
}

func displayName(accesses []CalendarAccess, preferred CalendarAccess) string {
	for _, a := range accesses {
		if a.Primary && a.SummaryOverride != "" {
			return a.SummaryOverride
		}
	}
	if preferred.SummaryOverride != "" {
		return preferred.SummaryOverride
	}
	return preferred.Summary
}
