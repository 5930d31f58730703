package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages in the workspace, oldest first"),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page and open it in the editor"),
		mcp.WithString("title",
			mcp.Description("Page title (1-255 characters after trimming)"),
			mcp.Required(),
		),
		mcp.WithString("parentId",
			mcp.Description("Parent page ID (optional)"),
		),
	), s.handleCreatePage)

	// ── rename_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_page",
		mcp.WithDescription("Change the title of a page"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleRenamePage)

	// ── set_page_appearance ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_page_appearance",
		mcp.WithDescription("Set the icon and cover image of a page. Omitted fields are kept; an empty string clears one."),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithString("iconUrl", mcp.Description("Icon image URL (optional)")),
		mcp.WithString("coverUrl", mcp.Description("Cover image URL (optional)")),
	), s.handleSetPageAppearance)

	// ── delete_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page and every block on it"),
		mcp.WithString("pageId", mcp.Description("ID of the page"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	// ── open_page ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_page",
		mcp.WithDescription("Open a page in the editor. Block and session tools default to the open page."),
		mcp.WithString("pageId",
			mcp.Description("ID of the page to open"),
			mcp.Required(),
		),
	), s.handleOpenPage)
}

func boolPtr(v bool) *bool { return &v }

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(pages)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var parentID *string
	if pid := argString(args, "parentId"); pid != "" {
		parentID = &pid
	}
	page, err := s.pages.CreatePage(ctx, argString(args, "title"), parentID)
	if err != nil {
		return nil, err
	}
	if err := s.editor.Open(ctx, page.ID); err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return jsonResult(page)
}

func (s *Server) handleRenamePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	page, err := s.pages.RenamePage(ctx, pageID, req.GetString("title", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(page)
}

func (s *Server) handleSetPageAppearance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID := argString(args, "pageId")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	optional := func(key string) *string {
		if _, ok := args[key]; !ok {
			return nil
		}
		v := argString(args, key)
		return &v
	}
	page, err := s.pages.UpdateAppearance(ctx, pageID, optional("iconUrl"), optional("coverUrl"))
	if err != nil {
		return nil, err
	}
	return jsonResult(page)
}

func (s *Server) handleDeletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	if err := s.pages.DeletePage(ctx, pageID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Deleted page %s", pageID)), nil
}

func (s *Server) handleOpenPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if argString(args, "pageId") == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	pageID, err := s.resolvePage(ctx, args)
	if err != nil {
		return nil, err
	}
	state, err := s.pages.GetPageState(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return jsonResult(state)
}
