package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"blockpad/internal/commands"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_page",
		mcp.WithPromptDescription("Draft a structured page (headings, todos, code, tables) on a topic using the block tools"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the page is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("pageId",
			mcp.ArgumentDescription("Existing page to fill (optional; a new page is created otherwise)"),
		),
	), s.handleOutlinePrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	start := fmt.Sprintf(`1. Create a page with create_page titled "%s".`, topic)
	if pageID := req.Params.Arguments["pageId"]; pageID != "" {
		start = fmt.Sprintf("1. Open page %s with open_page and read its blocks.", pageID)
	}

	var menu strings.Builder
	for _, c := range commands.Catalog() {
		fmt.Fprintf(&menu, "   - /%s: %s\n", c.ID, c.Description)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline a page about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write an outline about "%s" as blocks. Follow these steps:

%s
2. Add a level-1 heading with create_block (type "heading", content {"text": ..., "headingLevel": 1}).
3. For each section add a level-2 heading followed by paragraphs.
4. Put action items in todo blocks, code samples in code blocks (set_code) and comparisons in a table block (table_add_row, table_add_column, table_set_cell).
5. Finish with list_blocks and fix anything out of order with move_block.

You can also type like a user: focus_block, type_text with a "/" command, then press_key Enter. Available commands:
%s`, topic, start, menu.String()),
				},
			},
		},
	}, nil
}
