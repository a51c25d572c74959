package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/multical/internal/router"
	"github.com/teemow/multical/internal/server"
)

const (
	AccountsURI  = "multical://accounts"
	CalendarsURI = "multical://calendars"
)

// accountInfo is the JSON form of one configured account.
type accountInfo struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// RegisterCalendarResources registers the account and calendar resources.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	accountsResource := mcp.NewResource(
		AccountsURI,
		"Configured Accounts",
		mcp.WithResourceDescription("Google accounts multical queries, in query order"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(accountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccounts(ctx, request, sc)
	})

	calendarsResource := mcp.NewResource(
		CalendarsURI,
		"Unified Calendar List",
		mcp.WithResourceDescription("Every calendar visible to any account, with the account that serves it"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendars(ctx, request, sc)
	})

	return nil
}

func handleAccounts(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	accts, err := sc.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	infos := make([]accountInfo, 0, len(accts))
	for i, a := range accts {
		infos = append(infos, accountInfo{ID: a.ID, Position: i + 1})
	}
	return jsonContents(request.Params.URI, infos)
}

func handleCalendars(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	accts, err := sc.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	calendars, err := sc.Registry().UnifiedCalendars(ctx, router.RegistryAccounts(accts))
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return jsonContents(request.Params.URI, calendars)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
