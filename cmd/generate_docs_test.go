package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"calendar_list_calendars", "Calendar Registry Tools"},
		{"calendar_resolve", "Calendar Registry Tools"},
		{"calendar_query_freebusy", "Scheduling Tools"},
		{"calendar_list_events", "Event Tools"},
		{"calendar_delete_event", "Event Tools"},
		{"gmail_list_threads", "Other"},
		{"calendar", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getCategoryFromToolName(tt.name))
		})
	}
}

func TestToolsMarkdown(t *testing.T) {
	markdown, err := toolsMarkdown(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(markdown, "# MCP Tools Reference"))
	assert.Contains(t, markdown, "- [Calendar Registry Tools](#calendar-registry-tools)")
	assert.Contains(t, markdown, "## Scheduling Tools")

	// Write tools are documented even though the server defaults to read-only.
	for _, name := range []string{
		"calendar_list_calendars",
		"calendar_resolve",
		"calendar_query_freebusy",
		"calendar_list_events",
		"calendar_search_events",
		"calendar_export_ics",
		"calendar_get_event",
		"calendar_create_event",
		"calendar_update_event",
		"calendar_delete_event",
	} {
		assert.Contains(t, markdown, "### "+name+"\n")
	}
	assert.Contains(t, markdown, "`accounts`")
}

func TestVersionCommand(t *testing.T) {
	old := version
	version = "1.2.3"
	t.Cleanup(func() { version = old })

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "multical version 1.2.3\n", out.String())
}
