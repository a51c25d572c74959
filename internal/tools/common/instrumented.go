package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

// RecordRouting attaches the accounts a routed call touched and the number of
// warnings it produced to the current tool invocation, if any.
func RecordRouting(ctx context.Context, accounts []string, warnings int) {
	ti, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation)
	if !ok {
		return
	}
	ti.Accounts = append(ti.Accounts[:0], accounts...)
	ti.WithWarnings(warnings)
}

// InstrumentedToolHandler wraps a tool handler with a tool span, metrics and
// audit logging. operation is the calendar operation the tool performs.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", instrumentation.OperationList, sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		args := request.GetArguments()
		accounts, _ := GetAccountsFromArgs(args)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			attribute.String(instrumentation.SpanAttrOperation, operation),
			attribute.StringSlice(instrumentation.SpanAttrAccounts, accounts))
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithOperation(operation).
			WithAccounts(accounts...)
		if calendars, err := GetCalendarsFromArgs(args, "calendars"); err == nil {
			invocation.WithCalendars(calendars...)
		} else if cal := GetStringArg(args, "calendar", ""); cal != "" {
			invocation.WithCalendars(cal)
		}

		result, err := handler(context.WithValue(ctx, invocationKey{}, invocation), request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			span.SetAttributes(attribute.Bool("mcp.tool_error", true))
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}
		if invocation.Warnings > 0 {
			span.SetAttributes(attribute.Int(instrumentation.SpanAttrWarnings, invocation.Warnings))
		}

		account := ""
		if len(invocation.Accounts) == 1 {
			account = invocation.Accounts[0]
		}
		metrics.RecordToolInvocationWithAccount(ctx, toolName, status, account, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}
