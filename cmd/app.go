package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"

	"github.com/teemow/multical/internal/accounts"
	"github.com/teemow/multical/internal/calendar"
	"github.com/teemow/multical/internal/config"
	"github.com/teemow/multical/internal/google"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/registry"
	"github.com/teemow/multical/internal/server"
)

// app holds the configuration and account store shared by the commands that
// talk to Google.
type app struct {
	config *config.Config
	store  *accounts.Store
	cache  storage.TokenStore
	logger *slog.Logger

	stopCache func()
}

// openApp loads the configuration file and opens the account database.
func openApp(logger *slog.Logger) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return openAppWithConfig(cfg, logger)
}

func openAppWithConfig(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(cfg.Database); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := accounts.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	cache := memory.New()
	return &app{
		config:    cfg,
		store:     store,
		cache:     cache,
		logger:    logger,
		stopCache: cache.Stop,
	}, nil
}

// Close releases the account database and the token cache.
func (a *app) Close() error {
	a.stopCache()
	return a.store.Close()
}

// tokenProvider returns a provider refreshing stored account tokens with the
// configured OAuth client.
func (a *app) tokenProvider() *google.StoreTokenProvider {
	oauthConfig := google.OAuthConfig(a.config.Google.ClientID, a.config.Google.ClientSecret)
	return google.NewStoreTokenProvider(oauthConfig, a.store, a.cache, a.logger)
}

// clientFactory creates one calendar client per account.
func (a *app) clientFactory(metrics *instrumentation.Metrics) server.ClientFactory {
	provider := a.tokenProvider()
	return func(ctx context.Context, accountID string) (server.CalendarClient, error) {
		client, err := calendar.NewClientForAccount(ctx, accountID, provider)
		if err != nil {
			return nil, err
		}
		return client.WithMetrics(metrics), nil
	}
}

// newRegistry builds the calendar registry from the configuration.
func (a *app) newRegistry(metrics *instrumentation.Metrics) *registry.Registry {
	return registry.New(
		registry.WithTTL(a.config.Registry.TTL),
		registry.WithPrimaryPolicy(a.config.PrimaryPolicy()),
		registry.WithLogger(a.logger),
		registry.WithMetrics(metrics),
	)
}

// newServerContext wires the account store, the client factory and the
// registry into a server context. A non-empty only restricts the served
// accounts to those IDs.
func (a *app) newServerContext(ctx context.Context, only []string, metrics *instrumentation.Metrics, auditLogger *instrumentation.AuditLogger) (*server.ServerContext, error) {
	var source server.AccountSource = a.store
	if len(only) > 0 {
		source = accountFilter{source: a.store, ids: only}
	}
	return server.NewServerContext(ctx, source, a.clientFactory(metrics), a.newRegistry(metrics),
		server.WithLogger(a.logger),
		server.WithMetrics(metrics),
		server.WithAuditLogger(auditLogger),
	)
}

// accountFilter lists only the accounts of source whose ID is in ids, in
// source order.
type accountFilter struct {
	source server.AccountSource
	ids    []string
}

func (f accountFilter) List(ctx context.Context) ([]accounts.Account, error) {
	all, err := f.source.List(ctx)
	if err != nil {
		return nil, err
	}
	return registry.FilterByID(all, f.ids, func(a accounts.Account) string { return a.ID }), nil
}
