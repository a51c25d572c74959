package router

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/logging"
	"github.com/teemow/multical/internal/registry"
)

// Router dispatches calendar queries to the accounts that serve them.
type Router struct {
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a router resolving calendars through reg.
func New(reg *registry.Registry, opts ...Option) *Router {
	r := &Router{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")
	return r
}

// Registry returns the registry used for resolution.
func (r *Router) Registry() *registry.Registry {
	return r.registry
}

// route is a resolved multi-account request.
type route struct {
	kind     Kind
	routing  *registry.RoutingMap
	clients  map[string]Client
	warnings []string
}

func (r *Router) resolve(ctx context.Context, kind Kind, accounts []Account, refs, restrict []string) (*route, error) {
	routing, warnings, err := r.registry.ResolveCalendarsToAccounts(ctx, refs, RegistryAccounts(accounts),
		registry.ResolveOptions{RestrictToAccounts: restrict})
	if err != nil {
		return nil, err
	}

	clients := make(map[string]Client, len(accounts))
	for _, a := range accounts {
		clients[a.ID] = a.Client
	}
	return &route{kind: kind, routing: routing, clients: clients, warnings: warnings}, nil
}

// fanOut runs do once per routed account concurrently. A failing account
// adds a warning and does not affect the others. Warnings keep routing order.
func (r *Router) fanOut(ctx context.Context, rt *route, do func(ctx context.Context, i int, client Client, calendarIDs []string) ([]string, error)) []string {
	accountIDs := rt.routing.Accounts()
	r.metrics.RecordRouterFanout(ctx, string(rt.kind), len(accountIDs))

	failures := make([]string, len(accountIDs))
	var g errgroup.Group
	for i, accountID := range accountIDs {
		calendarIDs := rt.routing.Calendars(accountID)
		g.Go(func() error {
			client := rt.clients[accountID]
			if client == nil {
				failures[i] = failureWarning(accountID, calendarIDs, fmt.Errorf("no calendar client"))
				r.metrics.RecordRouterSubrequestFailure(ctx, string(rt.kind))
				return nil
			}

			failed, err := do(ctx, i, client, calendarIDs)
			if err != nil {
				failures[i] = failureWarning(accountID, failed, err)
				r.metrics.RecordRouterSubrequestFailure(ctx, string(rt.kind))
				r.logger.Warn("account sub-request failed",
					logging.Account(accountID),
					logging.Calendars(failed),
					logging.Operation(string(rt.kind)),
					logging.Err(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	warnings := slices.Clone(rt.warnings)
	for _, f := range failures {
		if f != "" {
			warnings = append(warnings, f)
		}
	}
	return warnings
}

func failureWarning(accountID string, calendarIDs []string, err error) string {
	return fmt.Sprintf(`Account "%s" failed for calendar(s) %s: %v`, accountID, strings.Join(calendarIDs, ", "), err)
}

// participating returns the routed accounts when there is more than one.
func participating(rt *route) []string {
	if rt.routing.Len() > 1 {
		return rt.routing.Accounts()
	}
	return nil
}

// direct resolves a single reference against a single account. An
// unresolved reference containing "@" is used verbatim.
func (r *Router) direct(ctx context.Context, account Account, ref string) (string, error) {
	res, ok, err := r.registry.ResolveCalendar(ctx, ref, RegistryAccounts([]Account{account}), registry.Read)
	if err != nil {
		return "", err
	}
	if ok {
		return res.CalendarID, nil
	}
	if strings.Contains(ref, "@") {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %s", ErrCalendarNotFound, ref)
}

func scope(accounts []Account, restrict []string) []Account {
	return registry.FilterByID(accounts, restrict, func(a Account) string { return a.ID })
}

func finishSpan(span trace.Span, accounts, warnings int, err error) {
	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrAccounts, accounts),
		attribute.Int(instrumentation.SpanAttrWarnings, warnings),
	)
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()
}

// FreeBusy returns busy periods for every requested calendar. A calendar no
// account could answer for gets a notFound entry.
func (r *Router) FreeBusy(ctx context.Context, accounts []Account, q FreeBusyQuery) (result *FreeBusyResult, err error) {
	if len(q.Calendars) == 0 {
		return nil, fmt.Errorf("at least one calendar is required")
	}

	ctx, span := instrumentation.StartRouterSpan(ctx, string(KindFreeBusy), q.Calendars)
	defer func() {
		if result != nil {
			finishSpan(span, len(result.Accounts), len(result.Warnings), err)
		} else {
			finishSpan(span, 0, 0, err)
		}
	}()

	scoped := scope(accounts, q.RestrictToAccounts)
	if len(scoped) == 1 && len(q.Calendars) == 1 {
		return r.freeBusyDirect(ctx, scoped[0], q)
	}

	rt, err := r.resolve(ctx, KindFreeBusy, accounts, q.Calendars, q.RestrictToAccounts)
	if err != nil {
		return nil, err
	}

	if rt.routing.Empty() {
		empty := &FreeBusyResult{Calendars: make(map[string]calendar.FreeBusyCalendar, len(q.Calendars)), Warnings: rt.warnings}
		for _, ref := range q.Calendars {
			empty.Calendars[ref] = notFound()
		}
		return empty, nil
	}

	responses := make([]map[string]calendar.FreeBusyCalendar, rt.routing.Len())
	warnings := r.fanOut(ctx, rt, func(ctx context.Context, i int, client Client, calendarIDs []string) ([]string, error) {
		resp, err := client.QueryFreeBusy(ctx, calendar.FreeBusyRequest{
			TimeMin:     q.TimeMin,
			TimeMax:     q.TimeMax,
			CalendarIDs: calendarIDs,
		})
		if err != nil {
			return calendarIDs, err
		}
		responses[i] = resp
		return nil, nil
	})

	result = &FreeBusyResult{
		Calendars: make(map[string]calendar.FreeBusyCalendar, len(q.Calendars)),
		Accounts:  participating(rt),
		Warnings:  warnings,
	}
	for _, ref := range q.Calendars {
		calendarID := ref
		if res, ok := rt.routing.Resolved(ref); ok {
			calendarID = res.CalendarID
		}
		result.Calendars[ref] = mergeFreeBusy(responses, calendarID)
	}
	return result, nil
}

func (r *Router) freeBusyDirect(ctx context.Context, account Account, q FreeBusyQuery) (*FreeBusyResult, error) {
	ref := q.Calendars[0]
	calendarID, err := r.direct(ctx, account, ref)
	if err != nil {
		return nil, err
	}

	resp, err := account.Client.QueryFreeBusy(ctx, calendar.FreeBusyRequest{
		TimeMin:     q.TimeMin,
		TimeMax:     q.TimeMax,
		CalendarIDs: []string{calendarID},
	})
	if err != nil {
		return nil, err
	}

	return &FreeBusyResult{
		Calendars: map[string]calendar.FreeBusyCalendar{
			ref: mergeFreeBusy([]map[string]calendar.FreeBusyCalendar{resp}, calendarID),
		},
	}, nil
}

// mergeFreeBusy picks the answer for calendarID: the first error-free one,
// else the first one, else notFound.
func mergeFreeBusy(responses []map[string]calendar.FreeBusyCalendar, calendarID string) calendar.FreeBusyCalendar {
	var chosen *calendar.FreeBusyCalendar
	for _, resp := range responses {
		entry, ok := resp[calendarID]
		if !ok {
			continue
		}
		if !entry.HasErrors() {
			if entry.Busy == nil {
				entry.Busy = []calendar.TimeRange{}
			}
			return entry
		}
		if chosen == nil {
			chosen = &entry
		}
	}
	if chosen != nil {
		return *chosen
	}
	return notFound()
}

func notFound() calendar.FreeBusyCalendar {
	return calendar.FreeBusyCalendar{
		Busy:   []calendar.TimeRange{},
		Errors: []calendar.FreeBusyError{{Reason: calendar.ReasonNotFound}},
	}
}

// Events lists (KindList) or searches (KindSearch) events across the
// requested calendars. Events are tagged with their source and sorted by
// start, timed start before all-day date, using string comparison.
func (r *Router) Events(ctx context.Context, kind Kind, accounts []Account, q EventsQuery) (result *EventsResult, err error) {
	if kind != KindList && kind != KindSearch {
		return nil, fmt.Errorf("unsupported event route kind: %s", kind)
	}
	if kind == KindSearch && q.Query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if len(q.Calendars) == 0 {
		return nil, fmt.Errorf("at least one calendar is required")
	}

	ctx, span := instrumentation.StartRouterSpan(ctx, string(kind), q.Calendars)
	defer func() {
		if result != nil {
			finishSpan(span, len(result.Accounts), len(result.Warnings), err)
		} else {
			finishSpan(span, 0, 0, err)
		}
	}()

	query := func(calendarID string) calendar.EventQuery {
		eq := calendar.EventQuery{
			CalendarID: calendarID,
			TimeMin:    q.TimeMin,
			TimeMax:    q.TimeMax,
			MaxResults: q.MaxResults,
		}
		if kind == KindSearch {
			eq.Query = q.Query
		}
		return eq
	}

	scoped := scope(accounts, q.RestrictToAccounts)
	if len(scoped) == 1 && len(q.Calendars) == 1 {
		account := scoped[0]
		calendarID, err := r.direct(ctx, account, q.Calendars[0])
		if err != nil {
			return nil, err
		}
		events, err := account.Client.ListEvents(ctx, query(calendarID))
		if err != nil {
			return nil, err
		}
		return &EventsResult{Events: tag(events, account.ID, calendarID)}, nil
	}

	rt, err := r.resolve(ctx, kind, accounts, q.Calendars, q.RestrictToAccounts)
	if err != nil {
		return nil, err
	}

	if rt.routing.Empty() {
		return nil, r.noCalendars(ctx, scoped, q.Calendars)
	}

	perAccount := make([][]TaggedEvent, rt.routing.Len())
	accountIDs := rt.routing.Accounts()
	warnings := r.fanOut(ctx, rt, func(ctx context.Context, i int, client Client, calendarIDs []string) ([]string, error) {
		var failed []string
		var firstErr error
		for _, calendarID := range calendarIDs {
			events, err := client.ListEvents(ctx, query(calendarID))
			if err != nil {
				failed = append(failed, calendarID)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			perAccount[i] = append(perAccount[i], tag(events, accountIDs[i], calendarID)...)
		}
		return failed, firstErr
	})

	var merged []TaggedEvent
	for _, events := range perAccount {
		merged = append(merged, events...)
	}
	sortEvents(merged)
	if q.MaxResults > 0 && int64(len(merged)) > q.MaxResults {
		merged = merged[:q.MaxResults]
	}
	if merged == nil {
		merged = []TaggedEvent{}
	}

	return &EventsResult{
		Events:   merged,
		Accounts: participating(rt),
		Warnings: warnings,
	}, nil
}

func (r *Router) noCalendars(ctx context.Context, accounts []Account, requested []string) error {
	e := &NoCalendarsError{Requested: requested}
	calendars, err := r.registry.UnifiedCalendars(ctx, RegistryAccounts(accounts))
	if err != nil {
		return e
	}
	for _, c := range calendars {
		e.Available = append(e.Available, c.DisplayName+" ("+c.CalendarID+")")
	}
	return e
}

func tag(events []calendar.EventSummary, accountID, calendarID string) []TaggedEvent {
	tagged := make([]TaggedEvent, len(events))
	for i, e := range events {
		tagged[i] = TaggedEvent{EventSummary: e, AccountID: accountID, CalendarID: calendarID}
	}
	return tagged
}

func sortEvents(events []TaggedEvent) {
	slices.SortStableFunc(events, func(a, b TaggedEvent) int {
		return strings.Compare(a.Start.SortKey(), b.Start.SortKey())
	})
}
