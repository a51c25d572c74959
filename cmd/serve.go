package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/multical/internal/config"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/logging"
	"github.com/teemow/multical/internal/resources"
	"github.com/teemow/multical/internal/scheduler"
	"github.com/teemow/multical/internal/server"
	"github.com/teemow/multical/internal/tools/calendar_tools"
)

// serveFlags holds the serve command line flags. They take precedence over
// the configuration file and environment variables.
type serveFlags struct {
	debug              bool
	transport          string
	httpAddr           string
	yolo               bool
	googleClientID     string
	googleClientSecret string
	disableStreaming   bool
	metricsEnabled     bool
	metricsAddr        string
	registryRefresh    string
	primaryPolicy      string
	accounts           string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide multi-account
Google Calendar tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (creating, updating and deleting events).

Accounts:
  Accounts are managed with 'multical accounts add|list|remove'. Automatic token
  refresh needs --google-client-id and --google-client-secret flags OR the
  GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars OR the google section of
  the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if err := applyServeFlags(cmd, cfg, flags); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(ctx, cfg, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&flags.yolo, "yolo", false, "Enable write operations (create, update and delete events). Default is read-only mode.")
	cmd.Flags().StringVar(&flags.googleClientID, "google-client-id", "", "Google OAuth Client ID for automatic token refresh. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&flags.googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret for automatic token refresh. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&flags.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (HTTP transport only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().StringVar(&flags.registryRefresh, "registry-refresh", "", "Cron schedule for re-reading the calendar lists of all accounts (e.g. '@every 15m'). Empty disables it.")
	cmd.Flags().StringVar(&flags.primaryPolicy, "primary-policy", "", "How 'primary' resolves with several accounts: fallback (first account) or strict (error)")
	cmd.Flags().StringVar(&flags.accounts, "accounts", "", "Comma-separated list of account IDs to serve. Defaults to all stored accounts.")

	return cmd
}

// applyServeFlags overrides cfg with the flags the user set explicitly.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, flags serveFlags) error {
	changed := cmd.Flags().Changed

	if changed("transport") {
		cfg.Server.Transport = flags.transport
	}
	if changed("http-addr") {
		cfg.Server.HTTPAddr = flags.httpAddr
	}
	if changed("yolo") {
		cfg.Server.Yolo = flags.yolo
	}
	if changed("metrics-addr") {
		cfg.Server.MetricsAddr = flags.metricsAddr
	}
	if changed("google-client-id") {
		cfg.Google.ClientID = flags.googleClientID
	}
	if changed("google-client-secret") {
		cfg.Google.ClientSecret = flags.googleClientSecret
	}
	if changed("registry-refresh") {
		cfg.Registry.Refresh = flags.registryRefresh
	}
	if changed("primary-policy") {
		cfg.Registry.PrimaryPolicy = flags.primaryPolicy
	}

	return cfg.Validate()
}

// newLogger returns the process logger. Logs always go to stderr so they
// never mix with the stdio transport.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(ctx context.Context, cfg *config.Config, flags serveFlags) error {
	logger := newLogger(flags.debug)
	slog.SetDefault(logger)

	transport := cfg.Server.Transport
	metricsEnabled := flags.metricsEnabled || os.Getenv("METRICS_ENABLED") == "true"

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	if transport != config.TransportStdio && metricsEnabled && provider.PrometheusEnabled() {
		metricsServer, err := startMetricsServer(cfg.Server.MetricsAddr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	a, err := openAppWithConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("error closing account database", logging.Err(err))
		}
	}()

	var (
		metrics     *instrumentation.Metrics
		auditLogger *instrumentation.AuditLogger
	)
	if provider.Enabled() {
		metrics = provider.Metrics()
		auditLogger = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	serverContext, err := a.newServerContext(ctx, parseCommaSeparatedList(flags.accounts), metrics, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if err := serverContext.ReloadAccounts(ctx); err != nil {
		logger.Warn("failed to load accounts", logging.Err(err))
	} else if n, _ := serverContext.AccountsLoaded(); n == 0 {
		logger.Warn("no Google accounts configured, add one with 'multical accounts add'")
	} else {
		logger.Info("accounts loaded", "count", n)
	}

	if cfg.Registry.Refresh != "" {
		refresher, err := scheduler.New(cfg.Registry.Refresh, serverContext.RefreshRegistry, logger)
		if err != nil {
			return err
		}
		refresher.Start()
		defer refresher.Stop()
	}

	mcpSrv := mcpserver.NewMCPServer("multical", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	// readOnly is the inverse of yolo
	readOnly := !cfg.Server.Yolo
	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(ctx, mcpSrv, serverContext, cfg.Server.HTTPAddr, flags.disableStreaming, metrics, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.ListenAddr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register Calendar tools: %w", err)
	}
	if err := resources.RegisterCalendarResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, disableStreaming bool, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	healthChecker := server.NewHealthChecker(sc)
	httpServer := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             addr,
		DisableStreaming: disableStreaming,
		HealthChecker:    healthChecker,
		Metrics:          metrics,
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	logger.Info("streamable HTTP server starting",
		"addr", addr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", strings.Join([]string{"/healthz", "/readyz", "/healthz/detailed"}, ","))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
