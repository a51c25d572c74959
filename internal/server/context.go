package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/multical/internal/accounts"
	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/logging"
	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/router"
)

// ErrUnknownAccount is returned by Client for an account that is not loaded.
var ErrUnknownAccount = errors.New("unknown account")

// CalendarClient is everything the tools call on one account. *calendar.Client
// implements it.
type CalendarClient interface {
	router.Client
	GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.EventSummary, error)
	CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, input calendar.EventInput) (*calendar.EventSummary, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// ClientFactory creates the client for a configured account.
type ClientFactory func(ctx context.Context, accountID string) (CalendarClient, error)

// AccountSource lists the configured accounts in priority order.
type AccountSource interface {
	List(ctx context.Context) ([]accounts.Account, error)
}

// ServerContext holds the configured accounts, their clients and the shared
// registry and router for the MCP server.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	source   AccountSource
	factory  ClientFactory
	registry *registry.Registry
	router   *router.Router
	logger   *slog.Logger

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	accounts []router.Account
	clients  map[string]CalendarClient
	loaded   bool
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics sets the metrics recorder used by tools and the router.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger for tool invocations.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = al }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logger }
}

// NewServerContext creates a server context. Accounts are loaded on first use
// or by ReloadAccounts.
func NewServerContext(ctx context.Context, source AccountSource, factory ClientFactory, reg *registry.Registry, opts ...Option) (*ServerContext, error) {
	if source == nil {
		return nil, fmt.Errorf("account source cannot be nil")
	}
	if factory == nil {
		return nil, fmt.Errorf("client factory cannot be nil")
	}
	if reg == nil {
		reg = registry.New()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		source:   source,
		factory:  factory,
		registry: reg,
		logger:   slog.Default(),
		clients:  make(map[string]CalendarClient),
	}
	for _, opt := range opts {
		opt(sc)
	}

	sc.router = router.New(reg, router.WithLogger(sc.logger), router.WithMetrics(sc.metrics))
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Registry returns the calendar registry.
func (sc *ServerContext) Registry() *registry.Registry {
	return sc.registry
}

// Router returns the multi-account router.
func (sc *ServerContext) Router() *router.Router {
	return sc.router
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Accounts returns the configured accounts in priority order, loading them on
// first use.
func (sc *ServerContext) Accounts(ctx context.Context) ([]router.Account, error) {
	sc.mu.RLock()
	if sc.loaded {
		accs := sc.accounts
		sc.mu.RUnlock()
		return accs, nil
	}
	sc.mu.RUnlock()

	if err := sc.ReloadAccounts(ctx); err != nil {
		return nil, err
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.accounts, nil
}

// AccountsLoaded reports whether accounts have been loaded and how many.
func (sc *ServerContext) AccountsLoaded() (int, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.accounts), sc.loaded
}

// ReloadAccounts re-reads the account list and recreates the clients. An
// account whose client cannot be created is skipped. The registry is reset
// because its cached views belong to the previous account set.
func (sc *ServerContext) ReloadAccounts(ctx context.Context) error {
	list, err := sc.source.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	accs := make([]router.Account, 0, len(list))
	clients := make(map[string]CalendarClient, len(list))
	for _, a := range list {
		client, err := sc.factory(sc.ctx, a.ID)
		if err != nil {
			logging.WithAccount(sc.logger, a.ID).Warn("skipping account", logging.Err(err))
			continue
		}
		accs = append(accs, router.Account{ID: a.ID, Client: client})
		clients[a.ID] = client
	}

	sc.mu.Lock()
	sc.accounts = accs
	sc.clients = clients
	sc.loaded = true
	sc.mu.Unlock()

	sc.registry.Reset()
	sc.logger.Info("accounts loaded", slog.Int("count", len(accs)))
	return nil
}

// RefreshRegistry reloads the accounts and warms the registry cache for them.
func (sc *ServerContext) RefreshRegistry(ctx context.Context) error {
	if err := sc.ReloadAccounts(ctx); err != nil {
		return err
	}
	accs, err := sc.Accounts(ctx)
	if err != nil {
		return err
	}
	calendars, err := sc.registry.UnifiedCalendars(ctx, router.RegistryAccounts(accs))
	if err != nil {
		return fmt.Errorf("failed to warm calendar registry: %w", err)
	}
	sc.logger.Debug("calendar registry refreshed", slog.Int("calendars", len(calendars)))
	return nil
}

// Client returns the client of a loaded account.
func (sc *ServerContext) Client(ctx context.Context, accountID string) (CalendarClient, error) {
	if _, err := sc.Accounts(ctx); err != nil {
		return nil, err
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	client, ok := sc.clients[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	return client, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
