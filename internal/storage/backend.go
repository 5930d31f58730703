package storage

import "blockpad/internal/domain"

// Backend is the SQL persistence adapter for pages and blocks.
type Backend struct {
	*BlockStore
	*PageStore
	db *DB
}

var _ domain.Backend = (*Backend)(nil)

func NewBackend(db *DB) *Backend {
	return &Backend{BlockStore: NewBlockStore(db), PageStore: NewPageStore(db), db: db}
}

func (b *Backend) DB() *DB { return b.db }

func (b *Backend) Close() error { return b.db.Close() }
