// Package server provides the MCP server context and the auxiliary HTTP
// servers of the multical application.
//
// # Key Components
//
// ServerContext owns the configured Google accounts and one calendar client
// per account. It shares a single calendar registry and router between all
// tool handlers, and resets the registry whenever the account set is
// reloaded so no cached view outlives the accounts it was built from.
//
// HealthChecker serves Kubernetes style probes:
//   - /healthz: liveness
//   - /readyz: readiness, failing until accounts are loaded or during shutdown
//   - /healthz/detailed: uptime and number of loaded accounts
//
// HTTPServer serves the MCP server over the streamable HTTP transport at /mcp,
// next to the health endpoints.
//
// MetricsServer exposes the Prometheus registry on a dedicated port.
package server
