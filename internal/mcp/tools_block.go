package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpad/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a page in display order, optionally filtered by type"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a block. It is appended after the last block unless order is given."),
		mcp.WithString("type",
			mcp.Description("Block type: paragraph, heading, todo, code, image, video, pdf, table"),
			mcp.Required(),
		),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to the open page)")),
		mcp.WithNumber("order", mcp.Description("Sort position (optional)")),
		mcp.WithString("content", mcp.Description(`Initial content as JSON, e.g. {"text":"Hello","headingLevel":2} (optional)`)),
	), s.handleCreateBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Patch a block. Content fields are merged into the existing content; other fields are kept. To change the block type, use a slash command through type_text and press_key."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Content fields to set, as JSON (optional)")),
		mcp.WithNumber("order", mcp.Description("New sort position (optional)")),
	), s.handleUpdateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block from the open page"),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Swap a block with its neighbour above or below"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("up or down"), mcp.Required()),
	), s.handleMoveBlock)

	// ── reorder_block ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_block",
		mcp.WithDescription("Give a block a new sort position"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("order", mcp.Description("New sort position"), mcp.Required()),
	), s.handleReorderBlock)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if _, err := s.resolvePage(ctx, args); err != nil {
		return nil, err
	}
	blocks, err := s.editor.Blocks()
	if err != nil {
		return nil, err
	}
	filter := domain.BlockType(argString(args, "type"))
	out := make([]domain.Block, 0, len(blocks))
	for _, b := range blocks {
		if filter == "" || b.Type == filter {
			out = append(out, b)
		}
	}
	return jsonResult(out)
}

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType := argString(args, "type")
	if blockType == "" {
		return nil, fmt.Errorf("type is required")
	}
	if _, err := s.resolvePage(ctx, args); err != nil {
		return nil, err
	}
	content, err := argContent(args)
	if err != nil {
		return nil, err
	}
	var order *float64
	if o, ok := argNumber(args, "order"); ok {
		order = &o
	}
	b, err := s.editor.CreateBlock(domain.BlockType(blockType), order, content)
	if err != nil {
		return nil, err
	}
	return jsonResult(b)
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	var patch domain.BlockPatch
	if patch.Content, err = argContent(args); err != nil {
		return nil, err
	}
	if o, ok := argNumber(args, "order"); ok {
		patch.Order = &o
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("nothing to update: pass content or order")
	}
	if err := s.editor.UpdateBlock(b.ID, patch); err != nil {
		return nil, err
	}
	updated, err := s.editor.Block(b.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(updated)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.blockForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	focus, err := s.editor.DeleteBlock(b.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"deleted": b.ID, "focusId": focus})
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	var up bool
	switch dir := argString(args, "direction"); dir {
	case "up":
		up = true
	case "down":
	default:
		return nil, fmt.Errorf("direction must be up or down, got %q", dir)
	}
	moved, err := s.editor.Move(b.ID, up)
	if err != nil {
		return nil, err
	}
	if !moved {
		return textResult(fmt.Sprintf("Block %s is already at the edge", b.ID)), nil
	}
	blocks, err := s.editor.Blocks()
	if err != nil {
		return nil, err
	}
	return jsonResult(blocks)
}

func (s *Server) handleReorderBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.blockForTool(args)
	if err != nil {
		return nil, err
	}
	order, ok := argNumber(args, "order")
	if !ok {
		return nil, fmt.Errorf("order is required")
	}
	if err := s.editor.Reorder(b.ID, order); err != nil {
		return nil, err
	}
	blocks, err := s.editor.Blocks()
	if err != nil {
		return nil, err
	}
	return jsonResult(blocks)
}
