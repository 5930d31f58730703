// Package commands holds the slash-command catalog and the filter that turns
// typed text into a visible menu.
package commands

import "blockpad/internal/domain"

var catalog = []domain.Command{
	{ID: "paragraph", Label: "Text", TargetType: domain.BlockTypeParagraph, Description: "Just start writing with plain text."},
	{ID: "heading1", Label: "Heading 1", TargetType: domain.BlockTypeHeading, HeadingLevel: 1, Description: "Big section heading."},
	{ID: "heading2", Label: "Heading 2", TargetType: domain.BlockTypeHeading, HeadingLevel: 2, Description: "Medium section heading."},
	{ID: "heading3", Label: "Heading 3", TargetType: domain.BlockTypeHeading, HeadingLevel: 3, Description: "Small section heading."},
	{ID: "todo", Label: "To-do list", TargetType: domain.BlockTypeTodo, Description: "Track tasks with a to-do list."},
	{ID: "code", Label: "Code", TargetType: domain.BlockTypeCode, Description: "Capture a code snippet."},
	{ID: "image", Label: "Image", TargetType: domain.BlockTypeImage, Description: "Upload or embed with a link."},
	{ID: "video", Label: "Video", TargetType: domain.BlockTypeVideo, Description: "Embed a video."},
	{ID: "table", Label: "Table", TargetType: domain.BlockTypeTable, Description: "Create a table."},
	{ID: "pdf", Label: "PDF", TargetType: domain.BlockTypePDF, Description: "Upload a PDF file."},
}

// Catalog returns the built-in commands in menu order. The slice is a copy.
func Catalog() []domain.Command {
	return append([]domain.Command(nil), catalog...)
}

// Lookup finds a command by id.
func Lookup(id string) (domain.Command, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Command{}, false
}
