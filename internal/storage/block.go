package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blockpad/internal/domain"
)

const blockColumns = `id, page_id, type, sort_order, content, created_at, updated_at`

// BlockStore implements domain.BlockStore on a SQL database.
type BlockStore struct {
	db *DB
}

func NewBlockStore(db *DB) *BlockStore {
	return &BlockStore{db: db}
}

func (s *BlockStore) CreateBlock(ctx context.Context, b *domain.Block) error {
	content, err := json.Marshal(b.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.PageID, string(b.Type), b.Order, string(content), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// ListBlocks returns the page's blocks by order, oldest first on ties.
func (s *BlockStore) ListBlocks(ctx context.Context, pageID string) ([]domain.Block, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT `+blockColumns+` FROM blocks WHERE page_id = ? ORDER BY sort_order ASC, created_at ASC`),
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// UpdateBlock applies patch in a read-modify-write transaction. Content is
// merged shallowly into the stored record.
func (s *BlockStore) UpdateBlock(ctx context.Context, id string, patch domain.BlockPatch) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		typ   string
		order float64
		raw   string
	)
	err = tx.QueryRowContext(ctx, s.db.rebind(
		`SELECT type, sort_order, content FROM blocks WHERE id = ?`+s.db.forUpdate()), id,
	).Scan(&typ, &order, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("block", id)
	}
	if err != nil {
		return fmt.Errorf("read block: %w", err)
	}

	var content domain.Content
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return fmt.Errorf("decode content of %s: %w", id, err)
	}
	if patch.Type != nil {
		typ = string(*patch.Type)
	}
	if patch.Order != nil {
		order = *patch.Order
	}
	if patch.Content != nil {
		content = content.Merge(*patch.Content)
	}
	encoded, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`UPDATE blocks SET type = ?, sort_order = ?, content = ?, updated_at = ? WHERE id = ?`),
		typ, order, string(encoded), time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return tx.Commit()
}

func (s *BlockStore) DeleteBlock(ctx context.Context, id string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM blocks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *BlockStore) DeleteBlocksByPage(ctx context.Context, pageID string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM blocks WHERE page_id = ?`), pageID)
	if err != nil {
		return fmt.Errorf("delete page blocks: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (*domain.Block, error) {
	var (
		b   domain.Block
		typ string
		raw string
	)
	if err := row.Scan(&b.ID, &b.PageID, &typ, &b.Order, &raw, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Type = domain.BlockType(typ)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &b.Content); err != nil {
			return nil, fmt.Errorf("decode content of %s: %w", b.ID, err)
		}
	}
	return &b, nil
}
