package domain

import (
	"context"
	"time"
)

type BlockType string

const (
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeHeading   BlockType = "heading"
	BlockTypeTodo      BlockType = "todo"
	BlockTypeCode      BlockType = "code"
	BlockTypeImage     BlockType = "image"
	BlockTypeVideo     BlockType = "video"
	BlockTypePDF       BlockType = "pdf"
	BlockTypeTable     BlockType = "table"
)

// BlockTypes lists every block type in catalog order.
var BlockTypes = []BlockType{
	BlockTypeParagraph,
	BlockTypeHeading,
	BlockTypeTodo,
	BlockTypeCode,
	BlockTypeImage,
	BlockTypeVideo,
	BlockTypePDF,
	BlockTypeTable,
}

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	for _, k := range BlockTypes {
		if k == t {
			return true
		}
	}
	return false
}

type Block struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Type      BlockType `json:"type"`
	Order     float64   `json:"order"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share content slices with the store.
func (b Block) Clone() Block {
	b.Content = b.Content.Clone()
	return b
}

// BlockPatch is the partial update sent to a persistence backend.
// Nil fields are left untouched.
type BlockPatch struct {
	Type    *BlockType `json:"type,omitempty"`
	Content *Content   `json:"content,omitempty"`
	Order   *float64   `json:"order,omitempty"`
}

// IsEmpty reports whether the patch carries no change.
func (p BlockPatch) IsEmpty() bool {
	return p.Type == nil && p.Content == nil && p.Order == nil
}

// BlockStore is the durable side of blocks. Backends assign timestamps;
// the block ID is chosen by the caller.
type BlockStore interface {
	CreateBlock(ctx context.Context, b *Block) error
	ListBlocks(ctx context.Context, pageID string) ([]Block, error)
	UpdateBlock(ctx context.Context, id string, patch BlockPatch) error
	DeleteBlock(ctx context.Context, id string) error
	DeleteBlocksByPage(ctx context.Context, pageID string) error
}

// Backend is a complete persistence adapter for pages and blocks.
type Backend interface {
	BlockStore
	PageStore
	Close() error
}
