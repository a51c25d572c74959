// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the multical MCP server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//   - registry_cache_lookups_total{result="hit|miss|coalesced"}
//   - registry_account_fetch_failures_total
//   - router_fanout_accounts{kind}, router_subrequest_failures_total{kind}
//
// # Tracing
//
// Spans are named tool.<name>, google.calendar.<operation>, registry.fetch
// and router.<kind>.
//
// # Configuration
//
// Configuration is read from the environment by DefaultConfig:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: multical)
//   - METRICS_DETAILED_LABELS (default: false)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// Example:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordRegistryLookup(ctx, instrumentation.CacheHit)
package instrumentation
