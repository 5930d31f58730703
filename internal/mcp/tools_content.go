package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerContentTools() {
	// ── tables ─────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("table_add_row",
		mcp.WithDescription("Append an empty row to a table block"),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
	), s.handleTableAddRow)

	s.mcp.AddTool(mcp.NewTool("table_add_column",
		mcp.WithDescription("Append an empty column to a table block"),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
	), s.handleTableAddColumn)

	s.mcp.AddTool(mcp.NewTool("table_set_cell",
		mcp.WithDescription("Set one cell of a table block. Row 0 is the header row."),
		mcp.WithString("blockId", mcp.Description("Table block ID"), mcp.Required()),
		mcp.WithNumber("row", mcp.Description("Zero-based row"), mcp.Required()),
		mcp.WithNumber("col", mcp.Description("Zero-based column"), mcp.Required()),
		mcp.WithString("value", mcp.Description("Cell text"), mcp.Required()),
	), s.handleTableSetCell)

	// ── typed setters ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_checked",
		mcp.WithDescription("Tick or untick a todo block"),
		mcp.WithString("blockId", mcp.Description("Todo block ID"), mcp.Required()),
		mcp.WithBoolean("checked", mcp.Description("New state"), mcp.Required()),
	), s.handleSetChecked)

	s.mcp.AddTool(mcp.NewTool("set_code",
		mcp.WithDescription("Set the source of a code block"),
		mcp.WithString("blockId", mcp.Description("Code block ID"), mcp.Required()),
		mcp.WithString("code", mcp.Description("Source text"), mcp.Required()),
		mcp.WithString("language", mcp.Description("javascript, typescript, python, html, css, json or sql (optional)")),
	), s.handleSetCode)

	s.mcp.AddTool(mcp.NewTool("set_url",
		mcp.WithDescription("Set the source URL of an image or pdf block"),
		mcp.WithString("blockId", mcp.Description("Image or pdf block ID"), mcp.Required()),
		mcp.WithString("url", mcp.Description("Source URL"), mcp.Required()),
	), s.handleSetURL)

	s.mcp.AddTool(mcp.NewTool("set_video",
		mcp.WithDescription("Set the video of a video block. YouTube links are converted to embed links."),
		mcp.WithString("blockId", mcp.Description("Video block ID"), mcp.Required()),
		mcp.WithString("url", mcp.Description("Video URL"), mcp.Required()),
		mcp.WithBoolean("autoplay", mcp.Description("Start playing automatically (optional)")),
	), s.handleSetVideo)
}

// blockResult returns the block as it is now on the open page.
func (s *Server) blockResult(id string) (*mcp.CallToolResult, error) {
	b, err := s.editor.Block(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(b)
}

func (s *Server) handleTableAddRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blockForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.editor.TableAddRow(b.ID); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}

func (s *Server) handleTableAddColumn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blockForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.editor.TableAddColumn(b.ID); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}

func (s *Server) handleTableSetCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	row, err := argInt(args, "row")
	if err != nil {
		return nil, err
	}
	col, err := argInt(args, "col")
	if err != nil {
		return nil, err
	}
	if err := s.editor.TableSetCell(b.ID, row, col, argString(args, "value")); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}

func (s *Server) handleSetChecked(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	if err := s.editor.SetChecked(b.ID, argBool(args, "checked")); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}

func (s *Server) handleSetCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	if err := s.editor.SetCode(b.ID, argString(args, "code"), argString(args, "language")); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}

func (s *Server) handleSetURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	url := argString(args, "url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if err := s.editor.SetURL(b.ID, url); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}

func (s *Server) handleSetVideo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	url := argString(args, "url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if err := s.editor.SetVideo(b.ID, url, argBool(args, "autoplay")); err != nil {
		return nil, err
	}
	return s.blockResult(b.ID)
}
