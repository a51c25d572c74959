package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewCronLogger_WithNil(t *testing.T) {
	adapter := NewCronLogger(nil)
	if adapter == nil {
		t.Fatal("NewCronLogger returned nil")
	}
	if adapter.Logger() == nil {
		t.Error("adapter logger should not be nil when created with nil")
	}
}

func TestCronLogger_InfoIsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	NewCronLogger(logger).Info("wake", "now", "12:00")
	if buf.Len() != 0 {
		t.Errorf("Info() should log at debug level, got %q", buf.String())
	}
}

func TestCronLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewCronLogger(logger).Error(errors.New("boom"), "job failed", "entry", 1)

	out := buf.String()
	for _, want := range []string{"level=ERROR", "job failed", "error=boom", "entry=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Error() output %q missing %q", out, want)
		}
	}
}
