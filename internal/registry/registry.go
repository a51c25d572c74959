package registry

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/logging"
)

// DefaultTTL is how long a snapshot is served from cache.
const DefaultTTL = 5 * time.Minute

// Registry caches unified calendar snapshots per account set.
type Registry struct {
	ttl           time.Duration
	now           func() time.Time
	logger        *slog.Logger
	metrics       *instrumentation.Metrics
	primaryPolicy PrimaryPolicy

	mu         sync.Mutex
	cache      map[string]cacheEntry
	pending    *singleflight.Group
	generation uint64
}

type cacheEntry struct {
	calendars []UnifiedCalendar
	created   time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL sets the cache TTL. Non-positive values disable caching.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.ttl = ttl }
}

// WithClock sets the clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithPrimaryPolicy sets how an ambiguous "primary" alias is resolved.
func WithPrimaryPolicy(p PrimaryPolicy) Option {
	return func(r *Registry) { r.primaryPolicy = p }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
		cache:   make(map[string]cacheEntry),
		pending: &singleflight.Group{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "registry")
	return r
}

// PrimaryPolicy returns the configured primary policy.
func (r *Registry) PrimaryPolicy() PrimaryPolicy {
	return r.primaryPolicy
}

// cacheKey is the sorted, comma-joined set of account IDs.
func cacheKey(accounts []Account) string {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	slices.Sort(ids)
	return strings.Join(ids, ",")
}

// UnifiedCalendars returns the deduplicated calendars visible to accounts.
//
// A fresh cached snapshot is returned without network access. Otherwise every
// account is listed in parallel; an account that fails contributes nothing.
// Concurrent callers with the same account set share one fetch. The fetch is
// not tied to ctx: a caller whose ctx ends gets ctx.Err() while the fetch
// completes and populates the cache for the others.
//
// The returned slice is shared and must not be modified.
func (r *Registry) UnifiedCalendars(ctx context.Context, accounts []Account) ([]UnifiedCalendar, error) {
	key := cacheKey(accounts)

	r.mu.Lock()
	if entry, ok := r.cache[key]; ok && r.now().Sub(entry.created) < r.ttl {
		r.mu.Unlock()
		r.metrics.RecordRegistryLookup(ctx, instrumentation.CacheHit)
		return entry.calendars, nil
	}
	group, generation := r.pending, r.generation
	r.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := group.DoChan(key, func() (interface{}, error) {
		return r.fetch(fetchCtx, key, generation, accounts), nil
	})

	select {
	case res := <-ch:
		result := instrumentation.CacheMiss
		if res.Shared {
			result = instrumentation.CacheCoalesced
		}
		r.metrics.RecordRegistryLookup(ctx, result)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]UnifiedCalendar), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) fetch(ctx context.Context, key string, generation uint64, accounts []Account) []UnifiedCalendar {
	ctx, span := instrumentation.StartSpan(ctx, "registry.fetch",
		attribute.Int(instrumentation.SpanAttrAccounts, len(accounts)))
	defer span.End()

	lists := make([][]calendar.CalendarInfo, len(accounts))
	var g errgroup.Group
	for i, acc := range accounts {
		g.Go(func() error {
			if acc.Client == nil {
				r.logger.Warn("account has no calendar client", logging.Account(acc.ID))
				r.metrics.RecordAccountFetchFailure(ctx, acc.ID)
				return nil
			}
			cals, err := acc.Client.ListCalendars(ctx)
			if err != nil {
				r.logger.Warn("failed to list calendars for account",
					logging.Account(acc.ID),
					logging.Err(err))
				r.metrics.RecordAccountFetchFailure(ctx, acc.ID)
				return nil
			}
			lists[i] = cals
			return nil
		})
	}
	_ = g.Wait()

	unified := unify(accounts, lists)
	instrumentation.SetSpanSuccess(span)

	r.mu.Lock()
	if r.generation == generation {
		r.cache[key] = cacheEntry{calendars: unified, created: r.now()}
	}
	r.mu.Unlock()

	r.logger.Debug("calendar registry refreshed",
		"accounts", len(accounts),
		"calendars", len(unified))
	return unified
}

// ClearCache drops all cached snapshots. In-flight fetches still complete
// and are shared with their waiters.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cacheEntry)
}

// Reset drops cached snapshots and pending fetches. Fetches started before
// the reset do not write their result to the cache.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cacheEntry)
	r.pending = &singleflight.Group{}
	r.generation++
}

// FreshSnapshots returns the number of cached snapshots still within the TTL.
func (r *Registry) FreshSnapshots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, entry := range r.cache {
		if r.now().Sub(entry.created) < r.ttl {
			n++
		}
	}
	return n
}

// lookup returns the unified calendar with the given ID.
func (r *Registry) lookup(ctx context.Context, calendarID string, accounts []Account) (UnifiedCalendar, bool, error) {
	calendars, err := r.UnifiedCalendars(ctx, accounts)
	if err != nil {
		return UnifiedCalendar{}, false, err
	}
	for _, c := range calendars {
		if c.CalendarID == calendarID {
			return c, true, nil
		}
	}
	return UnifiedCalendar{}, false, nil
}

// AccountForCalendar returns the access that serves calendarID for op.
// For Read it is the preferred account. For Write it is the preferred account
// only if that account can write; no other account is considered.
func (r *Registry) AccountForCalendar(ctx context.Context, calendarID string, accounts []Account, op Operation) (CalendarAccess, bool, error) {
	cal, ok, err := r.lookup(ctx, calendarID, accounts)
	if err != nil || !ok {
		return CalendarAccess{}, false, err
	}
	return gate(cal, op)
}

func gate(cal UnifiedCalendar, op Operation) (CalendarAccess, bool, error) {
	preferred := cal.Preferred()
	if op == Write && !preferred.AccessRole.CanWrite() {
		return CalendarAccess{}, false, nil
	}
	return preferred, true, nil
}

// AccountsForCalendar returns every account's access to calendarID, or nil
// if no account sees it.
func (r *Registry) AccountsForCalendar(ctx context.Context, calendarID string, accounts []Account) ([]CalendarAccess, error) {
	cal, ok, err := r.lookup(ctx, calendarID, accounts)
	if err != nil || !ok {
		return nil, err
	}
	return slices.Clone(cal.Accounts), nil
}
