package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/eblog/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// FileName is the SQLite database file inside the base directory.
const FileName = "eblog.db"

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Init initializes the SQLite database at baseDir/eblog.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.eblog.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the DSN apply to every pooled connection. _txlock=immediate
	// makes BeginTx take the write lock up front, which serializes the
	// counter read-and-increment across concurrent creators.
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: posts, sequence counter, full-text index
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS posts (
		  sequence_id  INTEGER PRIMARY KEY,
		  internal_id  TEXT NOT NULL UNIQUE,
		  title        TEXT NOT NULL CHECK (length(trim(title)) > 0),
		  content      TEXT NOT NULL CHECK (length(trim(content)) > 0),
		  author       TEXT NOT NULL,
		  tags_json    TEXT NOT NULL DEFAULT '[]',
		  published    INTEGER NOT NULL DEFAULT 1,
		  slug         TEXT,
		  created_at   INTEGER NOT NULL,
		  updated_at   INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_posts_slug
		ON posts(slug)
		WHERE slug IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_posts_created
		ON posts(created_at DESC, sequence_id DESC);

		CREATE TABLE IF NOT EXISTS counters (
		  name  TEXT PRIMARY KEY,
		  value INTEGER NOT NULL
		);

		INSERT OR IGNORE INTO counters(name, value)
		SELECT 'posts', COALESCE(MAX(sequence_id), 0) FROM posts;

		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
		  title, content,
		  content='posts', content_rowid='sequence_id',
		  tokenize='porter unicode61'
		);

		CREATE TRIGGER IF NOT EXISTS posts_fts_ai AFTER INSERT ON posts BEGIN
		  INSERT INTO posts_fts(rowid, title, content)
		  VALUES (new.sequence_id, new.title, new.content);
		END;

		CREATE TRIGGER IF NOT EXISTS posts_fts_ad AFTER DELETE ON posts BEGIN
		  INSERT INTO posts_fts(posts_fts, rowid, title, content)
		  VALUES ('delete', old.sequence_id, old.title, old.content);
		END;

		CREATE TRIGGER IF NOT EXISTS posts_fts_au AFTER UPDATE OF title, content ON posts BEGIN
		  INSERT INTO posts_fts(posts_fts, rowid, title, content)
		  VALUES ('delete', old.sequence_id, old.title, old.content);
		  INSERT INTO posts_fts(rowid, title, content)
		  VALUES (new.sequence_id, new.title, new.content);
		END;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// Ping checks that the store answers queries.
func Ping(ctx context.Context, db *sql.DB) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return storeErr(err)
	}
	return nil
}
