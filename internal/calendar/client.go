package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/multical/internal/google"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/logging"
)

// Client wraps the Google Calendar service for one account.
type Client struct {
	svc     *calendar.Service
	account string
	metrics *instrumentation.Metrics
}

// NewClientForAccount creates a Calendar client that authenticates as account
// using tokens from provider.
func NewClientForAccount(ctx context.Context, account string, provider google.TokenProvider) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	ts, err := provider.TokenSource(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	return NewClientWithOptions(ctx, account, option.WithHTTPClient(google.HTTPClient(ctx, ts)))
}

// NewClientWithOptions creates a Calendar client from raw API client options,
// e.g. option.WithEndpoint for a test server.
func NewClientWithOptions(ctx context.Context, account string, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, account: account}, nil
}

// WithMetrics makes the client record google_api_operations_total.
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// Account returns the account this client is associated with
func (c *Client) Account() string {
	return c.account
}

// observe opens a google.calendar.<op> span and returns a func that closes it
// and records the operation metric.
func (c *Client) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs, attribute.String(instrumentation.SpanAttrAccount, logging.AnonymizeEmail(c.account)))
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, op, attrs...)

	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, time.Since(start))
	}
}

// ListCalendars lists all calendars on the account's calendar list.
func (c *Client) ListCalendars(ctx context.Context) (calendars []CalendarInfo, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationListCalendars)
	defer func() { done(err) }()

	err = c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, entry := range page.Items {
			calendars = append(calendars, toCalendarInfo(entry))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// QueryFreeBusy returns busy periods keyed by calendar ID.
func (c *Client) QueryFreeBusy(ctx context.Context, req FreeBusyRequest) (result map[string]FreeBusyCalendar, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationFreeBusy,
		attribute.StringSlice(instrumentation.SpanAttrCalendars, req.CalendarIDs))
	defer func() { done(err) }()

	items := make([]*calendar.FreeBusyRequestItem, len(req.CalendarIDs))
	for i, id := range req.CalendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	resp, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: req.TimeMin.Format(time.RFC3339),
		TimeMax: req.TimeMax.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	result = make(map[string]FreeBusyCalendar, len(resp.Calendars))
	for id, cal := range resp.Calendars {
		fb := FreeBusyCalendar{Busy: []TimeRange{}}
		for _, busy := range cal.Busy {
			start, _ := time.Parse(time.RFC3339, busy.Start)
			end, _ := time.Parse(time.RFC3339, busy.End)
			fb.Busy = append(fb.Busy, TimeRange{Start: start, End: end})
		}
		for _, e := range cal.Errors {
			fb.Errors = append(fb.Errors, FreeBusyError{Domain: e.Domain, Reason: e.Reason})
		}
		result[id] = fb
	}
	return result, nil
}

var errEnoughEvents = errors.New("max results reached")

// ListEvents lists expanded event instances of one calendar ordered by start
// time, following nextPageToken until MaxResults (if set) is reached.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) (events []EventSummary, err error) {
	op := instrumentation.OperationList
	if q.Query != "" {
		op = instrumentation.OperationSearch
	}
	ctx, done := c.observe(ctx, op, attribute.String(instrumentation.SpanAttrCalendar, q.CalendarID))
	defer func() { done(err) }()

	call := c.svc.Events.List(q.CalendarID).
		SingleEvents(true).
		OrderBy("startTime")
	if !q.TimeMin.IsZero() {
		call = call.TimeMin(q.TimeMin.Format(time.RFC3339))
	}
	if !q.TimeMax.IsZero() {
		call = call.TimeMax(q.TimeMax.Format(time.RFC3339))
	}
	if q.Query != "" {
		call = call.Q(q.Query)
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(q.MaxResults)
	}

	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			events = append(events, toEventSummary(event))
			if q.MaxResults > 0 && int64(len(events)) >= q.MaxResults {
				return errEnoughEvents
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnoughEvents) {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (summary *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationGet, attribute.String(instrumentation.SpanAttrCalendar, calendarID))
	defer func() { done(err) }()

	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	s := toEventSummary(event)
	return &s, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (summary *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationCreate, attribute.String(instrumentation.SpanAttrCalendar, calendarID))
	defer func() { done(err) }()

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		EventType:   input.EventType,
		Start:       toEventDateTime(input.Start, input.AllDay, input.TimeZone),
		End:         toEventDateTime(input.End, input.AllDay, input.TimeZone),
		Recurrence:  input.Recurrence,
	}
	if len(input.Attendees) > 0 {
		event.Attendees = toAttendees(input.Attendees)
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s := toEventSummary(created)
	return &s, nil
}

// UpdateEvent updates an existing event. Zero fields of input are left unchanged.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, input EventInput) (summary *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationUpdate, attribute.String(instrumentation.SpanAttrCalendar, calendarID))
	defer func() { done(err) }()

	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if input.Location != "" {
		existing.Location = input.Location
	}
	if input.EventType != "" {
		existing.EventType = input.EventType
	}
	if !input.Start.IsZero() {
		existing.Start = toEventDateTime(input.Start, input.AllDay, input.TimeZone)
	}
	if !input.End.IsZero() {
		existing.End = toEventDateTime(input.End, input.AllDay, input.TimeZone)
	}
	if len(input.Attendees) > 0 {
		existing.Attendees = toAttendees(input.Attendees)
	}
	if len(input.Recurrence) > 0 {
		existing.Recurrence = input.Recurrence
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s := toEventSummary(updated)
	return &s, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) (err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationDelete, attribute.String(instrumentation.SpanAttrCalendar, calendarID))
	defer func() { done(err) }()

	if err = c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
