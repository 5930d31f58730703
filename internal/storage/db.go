package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Dialect names a supported SQL engine.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DB wraps a database/sql pool together with the dialect it speaks.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	log     zerolog.Logger
}

// OpenSQLite opens (or creates) the SQLite file at dbPath.
func OpenSQLite(dbPath string, logger zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(DialectSQLite, dbPath, logger)
}

// Open connects to dsn with the driver for dialect and applies migrations.
func Open(dialect Dialect, dsn string, logger zerolog.Logger) (*DB, error) {
	driver, dsn, err := driverDSN(dialect, dsn)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	}

	db := &DB{
		conn:    conn,
		dialect: dialect,
		log:     logger.With().Str("component", "storage").Str("dialect", string(dialect)).Logger(),
	}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db.log.Debug().Msg("database ready")
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites ? placeholders into the dialect's form.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate is the row-lock suffix for read-modify-write selects.
func (db *DB) forUpdate() string {
	if db.dialect == DialectSQLite {
		return ""
	}
	return " FOR UPDATE"
}

func (db *DB) migrate() error {
	var migrations []string
	switch db.dialect {
	case DialectSQLite:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS pages (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				parent_id TEXT,
				icon_url TEXT NOT NULL DEFAULT '',
				cover_url TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS blocks (
				id TEXT PRIMARY KEY,
				page_id TEXT NOT NULL REFERENCES pages(id),
				type TEXT NOT NULL DEFAULT 'paragraph',
				sort_order REAL NOT NULL DEFAULT 0,
				content TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_blocks_page ON blocks(page_id, sort_order)`,
		}
	case DialectPostgres:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS pages (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				parent_id TEXT,
				icon_url TEXT NOT NULL DEFAULT '',
				cover_url TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS blocks (
				id TEXT PRIMARY KEY,
				page_id TEXT NOT NULL REFERENCES pages(id),
				type TEXT NOT NULL DEFAULT 'paragraph',
				sort_order DOUBLE PRECISION NOT NULL DEFAULT 0,
				content TEXT NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_blocks_page ON blocks(page_id, sort_order)`,
		}
	case DialectMySQL:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS pages (
				id VARCHAR(64) PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				parent_id VARCHAR(64) NULL,
				icon_url TEXT NOT NULL,
				cover_url TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL
			) DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS blocks (
				id VARCHAR(64) PRIMARY KEY,
				page_id VARCHAR(64) NOT NULL,
				type VARCHAR(32) NOT NULL,
				sort_order DOUBLE NOT NULL,
				content LONGTEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				INDEX idx_blocks_page (page_id, sort_order),
				FOREIGN KEY (page_id) REFERENCES pages(id)
			) DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported dialect: %s", db.dialect)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
