// Package calendartest provides an in-process fake of the Google Calendar API
// v3 for tests. It serves the calendar list, free/busy and events endpoints
// for a single account; start one server per account to model several.
package calendartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Endpoint names accepted by FailWith and Calls.
const (
	EndpointCalendarList = "calendarList"
	EndpointFreeBusy     = "freeBusy"
	EndpointEvents       = "events"
)

// Server is a fake Google Calendar API server.
type Server struct {
	*httptest.Server

	mu        sync.RWMutex
	calendars []*calendar.CalendarListEntry
	events    map[string]map[string]*calendar.Event // calendarID -> eventID -> event
	busy      map[string][]*calendar.TimePeriod
	failures  map[string]int
	calls     map[string]int
	nextID    int
}

// NewServer starts a fake Calendar API server. Close it when done.
func NewServer() *Server {
	s := &Server{
		events:   make(map[string]map[string]*calendar.Event),
		busy:     make(map[string][]*calendar.TimePeriod),
		failures: make(map[string]int),
		calls:    make(map[string]int),
		nextID:   1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	s.Server = httptest.NewServer(mux)
	return s
}

// Options returns client options that point a calendar.Service at s.
func (s *Server) Options() []option.ClientOption {
	return []option.ClientOption{
		option.WithHTTPClient(s.Client()),
		option.WithEndpoint(s.URL + "/"),
	}
}

// AddCalendar adds an entry to the account's calendar list.
func (s *Server) AddCalendar(entry *calendar.CalendarListEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendars = append(s.calendars, entry)
}

// AddEvent adds a pre-configured event. An empty ID is generated.
func (s *Server) AddEvent(calendarID string, event *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Id == "" {
		event.Id = fmt.Sprintf("event%d", s.nextID)
		s.nextID++
	}
	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = event
}

// SetBusy sets the busy periods reported by freeBusy for calendarID.
func (s *Server) SetBusy(calendarID string, periods ...*calendar.TimePeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[calendarID] = periods
}

// FailWith makes every request to endpoint fail with the given HTTP status.
// A status of 0 clears the failure.
func (s *Server) FailWith(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, endpoint)
		return
	}
	s.failures[endpoint] = status
}

// Calls returns how many requests endpoint has received.
func (s *Server) Calls(endpoint string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[endpoint]
}

// GetEvents returns all events of a calendar sorted by ID.
func (s *Server) GetEvents(calendarID string) []*calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		events = append(events, evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Id < events[j].Id })
	return events
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	var endpoint string
	switch {
	case strings.HasSuffix(path, "/users/me/calendarList"):
		endpoint = EndpointCalendarList
	case strings.HasSuffix(path, "/freeBusy"):
		endpoint = EndpointFreeBusy
	case strings.Contains(path, "/calendars/") && strings.Contains(path, "/events"):
		endpoint = EndpointEvents
	default:
		writeError(w, http.StatusNotFound, "unsupported endpoint")
		return
	}

	s.mu.Lock()
	s.calls[endpoint]++
	status := s.failures[endpoint]
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, "injected failure")
		return
	}

	switch endpoint {
	case EndpointCalendarList:
		s.listCalendars(w)
	case EndpointFreeBusy:
		s.queryFreeBusy(w, r)
	default:
		s.handleEvents(w, r)
	}
}

func (s *Server) listCalendars(w http.ResponseWriter) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, &calendar.CalendarList{
		Kind:  "calendar#calendarList",
		Items: s.calendars,
	})
}

func (s *Server) knownCalendar(id string) bool {
	for _, c := range s.calendars {
		if c.Id == id {
			return true
		}
	}
	_, ok := s.events[id]
	return ok
}

func (s *Server) queryFreeBusy(w http.ResponseWriter, r *http.Request) {
	var req calendar.FreeBusyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &calendar.FreeBusyResponse{
		Kind:      "calendar#freeBusy",
		TimeMin:   req.TimeMin,
		TimeMax:   req.TimeMax,
		Calendars: make(map[string]calendar.FreeBusyCalendar, len(req.Items)),
	}
	for _, item := range req.Items {
		periods, hasBusy := s.busy[item.Id]
		if !hasBusy && !s.knownCalendar(item.Id) {
			resp.Calendars[item.Id] = calendar.FreeBusyCalendar{
				Busy:   []*calendar.TimePeriod{},
				Errors: []*calendar.Error{{Domain: "global", Reason: "notFound"}},
			}
			continue
		}
		if periods == nil {
			periods = []*calendar.TimePeriod{}
		}
		resp.Calendars[item.Id] = calendar.FreeBusyCalendar{Busy: periods}
	}

	writeJSON(w, resp)
}

// handleEvents routes /calendars/{calendarId}/events[/{eventId}].
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path[strings.Index(r.URL.Path, "/calendars/")+len("/calendars/"):]
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[1] != "events" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", parts))
		return
	}
	calendarID := parts[0]

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		s.listEvents(w, r, calendarID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.insertEvent(w, r, calendarID)
	case len(parts) == 3 && r.Method == http.MethodGet:
		s.getEvent(w, calendarID, parts[2])
	case len(parts) == 3 && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		s.updateEvent(w, r, calendarID, parts[2])
	case len(parts) == 3 && r.Method == http.MethodDelete:
		s.deleteEvent(w, calendarID, parts[2])
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func startKey(e *calendar.Event) string {
	if e.Start == nil {
		return ""
	}
	if e.Start.DateTime != "" {
		return e.Start.DateTime
	}
	return e.Start.Date
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request, calendarID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.knownCalendar(calendarID) {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	query := r.URL.Query()
	timeMin := query.Get("timeMin")
	timeMax := query.Get("timeMax")
	q := strings.ToLower(query.Get("q"))

	var events []*calendar.Event
	for _, evt := range s.events[calendarID] {
		key := startKey(evt)
		// All-day dates sort before a same-day timestamp; keep them.
		if timeMin != "" && key < timeMin && !strings.HasPrefix(timeMin, key) {
			continue
		}
		if timeMax != "" && key >= timeMax {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(evt.Summary+" "+evt.Description+" "+evt.Location), q) {
			continue
		}
		events = append(events, evt)
	}

	sort.Slice(events, func(i, j int) bool {
		if ki, kj := startKey(events[i]), startKey(events[j]); ki != kj {
			return ki < kj
		}
		return events[i].Id < events[j].Id
	})

	startIdx, _ := strconv.Atoi(query.Get("pageToken"))
	pageSize := len(events)
	if v, err := strconv.Atoi(query.Get("maxResults")); err == nil && v > 0 {
		pageSize = v
	}
	startIdx = min(startIdx, len(events))
	endIdx := min(startIdx+pageSize, len(events))

	resp := &calendar.Events{
		Kind:    "calendar#events",
		Summary: calendarID,
		Items:   events[startIdx:endIdx],
	}
	if endIdx < len(events) {
		resp.NextPageToken = strconv.Itoa(endIdx)
	}

	writeJSON(w, resp)
}

func (s *Server) insertEvent(w http.ResponseWriter, r *http.Request, calendarID string) {
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event.Id = fmt.Sprintf("event%d", s.nextID)
	s.nextID++
	event.Status = "confirmed"
	event.Created = time.Now().UTC().Format(time.RFC3339)
	event.Updated = event.Created
	event.HtmlLink = "https://calendar.google.com/event?eid=" + event.Id

	if s.events[calendarID] == nil {
		s.events[calendarID] = make(map[string]*calendar.Event)
	}
	s.events[calendarID][event.Id] = &event

	writeJSON(w, &event)
}

func (s *Server) getEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event := s.events[calendarID][eventID]
	if event == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, calendarID, eventID string) {
	var updates calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.events[calendarID][eventID]
	if existing == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	updates.Id = eventID
	updates.Created = existing.Created
	updates.Updated = time.Now().UTC().Format(time.RFC3339)
	updates.HtmlLink = existing.HtmlLink
	s.events[calendarID][eventID] = &updates

	writeJSON(w, &updates)
}

func (s *Server) deleteEvent(w http.ResponseWriter, calendarID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.events[calendarID][eventID] == nil {
		writeError(w, http.StatusGone, "Resource has been deleted")
		return
	}
	delete(s.events[calendarID], eventID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error body in the shape googleapi.CheckResponse parses.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
