package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpad/internal/commands"
	"blockpad/internal/editor"
)

var sessionKeys = []string{editor.KeyEnter, editor.KeyBackspace, editor.KeyArrowUp, editor.KeyArrowDown, editor.KeyEscape}

func (s *Server) registerSessionTools() {
	// ── focus_block ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("focus_block",
		mcp.WithDescription("Start editing a block. The session buffer takes the block's text."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleFocusBlock)

	// ── type_text ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("type_text",
		mcp.WithDescription("Replace the focused block's text. A '/' opens the slash-command menu filtered by what follows it."),
		mcp.WithString("text", mcp.Description("The full new text of the focused block"), mcp.Required()),
	), s.handleTypeText)

	// ── press_key ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Send a key to the session: Enter, Backspace, ArrowUp, ArrowDown or Escape"),
		mcp.WithString("key", mcp.Description("Key name"), mcp.Required()),
		mcp.WithBoolean("shift", mcp.Description("Whether Shift is held (optional)")),
	), s.handlePressKey)

	// ── select_command ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_command",
		mcp.WithDescription("Pick a candidate from the open slash-command menu by index"),
		mcp.WithNumber("index", mcp.Description("Zero-based candidate index"), mcp.Required()),
	), s.handleSelectCommand)

	// ── session_state ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("session_state",
		mcp.WithDescription("Show the focused block, buffer and slash-command menu"),
	), s.handleSessionState)

	// ── slash_commands ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("slash_commands",
		mcp.WithDescription("Show which slash commands match a query without touching any block"),
		mcp.WithString("query", mcp.Description("Text after the slash, e.g. 'head' (optional)")),
	), s.handleSlashCommands)
}

type sessionResult struct {
	Outcome *editor.Outcome `json:"outcome,omitempty"`
	Session editor.Snapshot `json:"session"`
}

func (s *Server) sessionResult(out *editor.Outcome) (*mcp.CallToolResult, error) {
	snap, err := s.editor.Session()
	if err != nil {
		return nil, err
	}
	return jsonResult(sessionResult{Outcome: out, Session: snap})
}

func (s *Server) handleFocusBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	if err := s.editor.Focus(blockID); err != nil {
		return nil, err
	}
	return s.sessionResult(nil)
}

func (s *Server) handleTypeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.editor.Input(req.GetString("text", "")); err != nil {
		return nil, err
	}
	return s.sessionResult(nil)
}

func (s *Server) handlePressKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	key := argString(args, "key")
	if !isSessionKey(key) {
		return nil, fmt.Errorf("key must be one of %s, got %q", strings.Join(sessionKeys, ", "), key)
	}
	out, err := s.editor.Key(editor.KeyEvent{Key: key, Shift: argBool(args, "shift")})
	if err != nil {
		return nil, err
	}
	return s.sessionResult(&out)
}

func (s *Server) handleSelectCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i, err := argInt(req.GetArguments(), "index")
	if err != nil {
		return nil, err
	}
	out, err := s.editor.Select(i)
	if err != nil {
		return nil, err
	}
	return s.sessionResult(&out)
}

func (s *Server) handleSessionState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.sessionResult(nil)
}

func (s *Server) handleSlashCommands(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimPrefix(req.GetString("query", ""), "/")
	menu := commands.Filter("/"+query, commands.Catalog())
	if menu.Candidates == nil {
		menu.Candidates = commands.Catalog()[:0]
	}
	return jsonResult(menu)
}

func isSessionKey(key string) bool {
	for _, k := range sessionKeys {
		if k == key {
			return true
		}
	}
	return false
}
