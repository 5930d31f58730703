package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blockpad/internal/domain"
)

const pageColumns = `id, title, parent_id, icon_url, cover_url, created_at, updated_at`

// PageStore implements domain.PageStore on a SQL database.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

func (s *PageStore) CreatePage(ctx context.Context, p *domain.Page) error {
	now := time.Now().UTC()
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Title, nullString(p.ParentID), p.IconURL, p.CoverURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (s *PageStore) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	row := s.db.conn.QueryRowContext(ctx, s.db.rebind(
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`), id)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("page", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *PageStore) ListPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func (s *PageStore) UpdatePage(ctx context.Context, p *domain.Page) error {
	now := time.Now().UTC()
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`UPDATE pages SET title = ?, parent_id = ?, icon_url = ?, cover_url = ?, updated_at = ? WHERE id = ?`),
		p.Title, nullString(p.ParentID), p.IconURL, p.CoverURL, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFound("page", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

func (s *PageStore) DeletePage(ctx context.Context, id string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(`DELETE FROM pages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

func scanPage(row rowScanner) (*domain.Page, error) {
	var (
		p      domain.Page
		parent sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Title, &parent, &p.IconURL, &p.CoverURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		p.ParentID = &parent.String
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
