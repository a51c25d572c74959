package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/multical/internal/accounts"
	"github.com/teemow/multical/internal/instrumentation"
	"github.com/teemow/multical/internal/server"
)

type noAccounts struct{}

func (noAccounts) List(context.Context) ([]accounts.Account, error) { return nil, nil }

func newServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	factory := func(context.Context, string) (server.CalendarClient, error) {
		return nil, errors.New("no clients in this test")
	}
	sc, err := server.NewServerContext(context.Background(), noAccounts{}, factory, nil, opts...)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", instrumentation.OperationList, sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc := newServerContext(t)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	wrapped := InstrumentedToolHandler("test_tool", instrumentation.OperationList, sc, handler)
	_, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	sc := newServerContext(t)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("error message"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", instrumentation.OperationList, sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected result.IsError to be true")
	}
}

func TestInstrumentedToolHandler_AuditRecord(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := instrumentation.NewAuditLoggerWithConfig(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true, IncludePII: true},
	)

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	sc := newServerContext(t, server.WithMetrics(metrics), server.WithAuditLogger(auditLogger))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		RecordRouting(ctx, []string{"jane@work.example", "jane@home.example"}, 1)
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := InstrumentedToolHandler("calendar_query_freebusy", instrumentation.OperationFreeBusy, sc, handler)
	_, err = wrapped(context.Background(), newRequest(map[string]interface{}{
		"calendars": []interface{}{"Work", "Team"},
	}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse audit record %q: %v", buf.String(), err)
	}

	expected := map[string]interface{}{
		"tool":      "calendar_query_freebusy",
		"operation": "freebusy",
		"accounts":  "jane@work.example,jane@home.example",
		"calendars": float64(2),
		"warnings":  float64(1),
		"success":   true,
	}
	for key, want := range expected {
		if record[key] != want {
			t.Errorf("audit %s = %v, expected %v", key, record[key], want)
		}
	}
}

func TestRecordRouting_WithoutInvocation(t *testing.T) {
	// Must be a no-op outside an instrumented handler.
	RecordRouting(context.Background(), []string{"a@example.com"}, 2)
}
