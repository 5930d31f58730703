package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"blockpad/internal/domain"
	"blockpad/internal/editor"
	"blockpad/internal/service"
)

// NotificationMethod carries editor events to connected clients.
const NotificationMethod = "notifications/blockpad"

// Server is the MCP server for blockpad.
// It exposes tools, resources, and prompts so AI agents can edit pages.
type Server struct {
	mcp    *server.MCPServer
	pages  *service.PageService
	editor *editor.Controller
	sync   *service.SyncService
	log    zerolog.Logger
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Pages   *service.PageService
	Editor  *editor.Controller
	Sync    *service.SyncService
	Logger  zerolog.Logger
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		pages:  deps.Pages,
		editor: deps.Editor,
		sync:   deps.Sync,
		log:    deps.Logger.With().Str("component", "mcp").Logger(),
	}

	s.mcp = server.NewMCPServer(
		"blockpad-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPageTools()
	s.registerBlockTools()
	s.registerSessionTools()
	s.registerContentTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info().Msg("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Emit forwards an editor or service event to every connected client.
func (s *Server) Emit(_ context.Context, event string, data any) {
	s.mcp.SendNotificationToAllClients(NotificationMethod, map[string]any{
		"event": event,
		"data":  data,
	})
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolvePage makes the editor work on the pageId argument, opening it if
// needed. Without the argument the already open page is used.
func (s *Server) resolvePage(ctx context.Context, args map[string]any) (string, error) {
	pageID := argString(args, "pageId")
	if pageID == "" {
		if open := s.editor.PageID(); open != "" {
			return open, nil
		}
		return "", fmt.Errorf("no pageId provided and no page open (use open_page first)")
	}
	if pageID == s.editor.PageID() {
		return pageID, nil
	}
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		return "", err
	}
	if err := s.editor.Open(ctx, pageID); err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	return pageID, nil
}

// blockForTool returns the block named by the blockId argument on the open page.
func (s *Server) blockForTool(args map[string]any) (domain.Block, error) {
	blockID := argString(args, "blockId")
	if blockID == "" {
		return domain.Block{}, fmt.Errorf("blockId is required")
	}
	return s.editor.Block(blockID)
}
