package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/multical/internal/tools/batch"
)

// GetAccountsFromArgs returns the account IDs the caller restricted routing
// to, or nil to use every configured account. "accounts" may be a string, a
// comma-separated string or an array of strings. A missing or empty
// argument means no restriction; any other value that names no account is
// an error.
func GetAccountsFromArgs(args map[string]interface{}) ([]string, error) {
	raw, ok := args["accounts"]
	if !ok || raw == nil || raw == "" {
		return nil, nil
	}
	ids, err := batch.ParseStringOrArray(raw, "accounts")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				accounts = append(accounts, part)
			}
		}
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("accounts must name at least one account")
	}
	return accounts, nil
}

// WithStringOrArray declares a tool argument that accepts a string or an
// array of strings. Options such as mcp.Description and mcp.Required apply
// as they do for mcp.WithString.
func WithStringOrArray(name string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return func(t *mcp.Tool) {
		schema := map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		}
		for _, opt := range opts {
			opt(schema)
		}
		if required, ok := schema["required"].(bool); ok {
			delete(schema, "required")
			if required {
				t.InputSchema.Required = append(t.InputSchema.Required, name)
			}
		}
		if t.InputSchema.Properties == nil {
			t.InputSchema.Properties = make(map[string]any)
		}
		t.InputSchema.Properties[name] = schema
	}
}

// GetCalendarsFromArgs parses a required list of calendar names or IDs.
func GetCalendarsFromArgs(args map[string]interface{}, key string) ([]string, error) {
	return batch.ParseStringOrArray(args[key], key)
}

// GetStringArg returns a string argument or def when it is missing or empty.
func GetStringArg(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// GetBoolArg returns a boolean argument or false.
func GetBoolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// GetIntArg returns a numeric argument or def. JSON numbers arrive as float64.
func GetIntArg(args map[string]interface{}, key string, def int64) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return def
	}
}

// GetTimeArg parses an RFC 3339 argument. A missing optional argument yields
// the zero time.
func GetTimeArg(args map[string]interface{}, key string, required bool) (time.Time, error) {
	s, _ := args[key].(string)
	if s == "" {
		if required {
			return time.Time{}, fmt.Errorf("%s is required", key)
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format (expected RFC3339): %w", key, err)
	}
	return t, nil
}
