// Package schema defines the per-type content shape of blocks: defaults for
// new blocks, the patch applied when a block changes type, and input checks.
package schema

import "blockpad/internal/domain"

// DefaultLanguage is the language given to new code blocks.
const DefaultLanguage = "javascript"

// Descriptor captures how the editor treats a block type.
type Descriptor struct {
	Type domain.BlockType
	// EditsText is true when the session buffer maps onto content.text.
	EditsText bool
	// BackspaceDeletes is true when Backspace on an empty buffer removes the block.
	BackspaceDeletes bool
}

// Describe is the single dispatch point over block types. Unknown types are
// treated as paragraphs.
func Describe(t domain.BlockType) Descriptor {
	switch t {
	case domain.BlockTypeParagraph:
		return Descriptor{Type: t, EditsText: true, BackspaceDeletes: true}
	case domain.BlockTypeHeading, domain.BlockTypeTodo:
		return Descriptor{Type: t, EditsText: true}
	case domain.BlockTypeCode, domain.BlockTypeImage, domain.BlockTypeVideo,
		domain.BlockTypePDF, domain.BlockTypeTable:
		return Descriptor{Type: t}
	default:
		return Descriptor{Type: domain.BlockTypeParagraph, EditsText: true, BackspaceDeletes: true}
	}
}

// TemplateTable is the grid a fresh table block starts with.
func TemplateTable() [][]string {
	return [][]string{
		{"Header 1", "Header 2"},
		{"", ""},
	}
}

// DefaultContent returns fully populated content for a new block of type t.
// headingLevel only matters for headings; 0 means level 1.
func DefaultContent(t domain.BlockType, headingLevel int) domain.Content {
	switch t {
	case domain.BlockTypeHeading:
		if headingLevel < 1 || headingLevel > 3 {
			headingLevel = 1
		}
		return domain.Content{Text: domain.Str(""), HeadingLevel: domain.Int(headingLevel)}
	case domain.BlockTypeTodo:
		return domain.Content{Text: domain.Str(""), Checked: domain.Bool(false)}
	case domain.BlockTypeCode:
		return domain.Content{Code: domain.Str(""), Language: domain.Str(DefaultLanguage)}
	case domain.BlockTypeImage, domain.BlockTypePDF:
		return domain.Content{URL: domain.Str("")}
	case domain.BlockTypeVideo:
		return domain.Content{VideoURL: domain.Str(""), Autoplay: domain.Bool(false)}
	case domain.BlockTypeTable:
		return domain.Content{Table: TemplateTable()}
	default:
		return domain.Content{Text: domain.Str("")}
	}
}

// DefaultPatchForType returns only the fields a block needs when it is turned
// into type t. It never sets text, so typed text survives the change.
func DefaultPatchForType(t domain.BlockType) domain.Content {
	switch t {
	case domain.BlockTypeTodo:
		return domain.Content{Checked: domain.Bool(false)}
	case domain.BlockTypeCode:
		return domain.Content{Code: domain.Str(""), Language: domain.Str(DefaultLanguage)}
	case domain.BlockTypeImage, domain.BlockTypePDF:
		return domain.Content{URL: domain.Str("")}
	case domain.BlockTypeVideo:
		return domain.Content{VideoURL: domain.Str(""), Autoplay: domain.Bool(false)}
	case domain.BlockTypeTable:
		return domain.Content{Table: TemplateTable()}
	default:
		return domain.Content{}
	}
}
