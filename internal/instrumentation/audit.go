package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/multical/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// Accounts holds the account identifiers (usually emails) the call touched,
// either because the caller restricted routing to them or because the router
// fanned out to them. They are PII and are hashed unless the audit logger is
// configured to include PII.
type ToolInvocation struct {
	Tool string

	Accounts  []string
	Calendars []string
	Operation string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	Warnings  int

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithAccounts records the accounts involved in the call.
func (ti *ToolInvocation) WithAccounts(accounts ...string) *ToolInvocation {
	ti.Accounts = append(ti.Accounts, accounts...)
	return ti
}

// WithCalendars records the calendar references the call asked for.
func (ti *ToolInvocation) WithCalendars(calendars ...string) *ToolInvocation {
	ti.Calendars = append(ti.Calendars, calendars...)
	return ti
}

// WithOperation sets the calendar operation (list, freebusy, create, ...).
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithWarnings records how many partial-failure warnings the call produced.
func (ti *ToolInvocation) WithWarnings(n int) *ToolInvocation {
	ti.Warnings = n
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the invocation. Account identifiers
// are replaced by their anonymized form unless includePII is set.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
		logging.Status(ti.Status()),
	}

	if len(ti.Accounts) > 0 {
		accounts := make([]string, len(ti.Accounts))
		for i, a := range ti.Accounts {
			if includePII {
				accounts[i] = a
			} else {
				accounts[i] = logging.AnonymizeEmail(a)
			}
		}
		attrs = append(attrs, slog.String("accounts", strings.Join(accounts, ",")))
		if !includePII {
			attrs = append(attrs, slog.String("account_domains", accountDomains(ti.Accounts)))
		}
	}
	if len(ti.Calendars) > 0 {
		attrs = append(attrs, slog.Int("calendars", len(ti.Calendars)))
	}
	if ti.Operation != "" {
		attrs = append(attrs, logging.Operation(ti.Operation))
	}
	if ti.Warnings > 0 {
		attrs = append(attrs, slog.Int("warnings", ti.Warnings))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if includePII && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

func accountDomains(accounts []string) string {
	seen := make(map[string]bool, len(accounts))
	var domains []string
	for _, a := range accounts {
		d := ExtractUserDomain(a)
		if !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	return strings.Join(domains, ",")
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes accounts.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation writes one audit record for ti.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
