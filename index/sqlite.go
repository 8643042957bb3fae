package index

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/mwantia/grove/data"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteCache stores index snapshots in an embedded SQLite database
// instead of the JSON cache file. Useful for large collections where
// rewriting one monolithic file per store becomes the bottleneck.
type SQLiteCache struct {
	db   *sql.DB
	root string
}

// NewSQLiteCache opens (or creates) the cache database at dbPath.
// Document paths are resolved against root on load.
func NewSQLiteCache(dbPath, root string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("grove: open cache db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("grove: open cache db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS grove_meta (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS grove_documents (
		id    TEXT PRIMARY KEY,
		attrs TEXT NOT NULL,
		doc   TEXT
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("grove: init cache db: %w", err)
	}

	return &SQLiteCache{db: db, root: root}, nil
}

// Close releases the database handle.
func (sc *SQLiteCache) Close() error {
	return sc.db.Close()
}

// Store replaces the persisted snapshot inside one transaction, so a
// concurrent Load sees either the old or the new collection.
func (sc *SQLiteCache) Store(ctx context.Context, snap *Snapshot) error {
	tx, err := sc.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("grove: store cache: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM grove_documents"); err != nil {
		return fmt.Errorf("grove: store cache: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO grove_meta (name, value) VALUES ('scheme', ?)",
		snap.Scheme); err != nil {
		return fmt.Errorf("grove: store cache: %w", err)
	}

	for _, doc := range snap.Docs {
		attrs, err := doc.Attrs.Canonical()
		if err != nil {
			return fmt.Errorf("grove: store cache: %w", err)
		}

		var docRaw any
		if doc.Doc != nil {
			raw, err := data.Canonical(map[string]any(doc.Doc))
			if err != nil {
				return fmt.Errorf("grove: store cache: %w", err)
			}
			docRaw = string(raw)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO grove_documents (id, attrs, doc) VALUES (?, ?, ?)",
			doc.ID, string(attrs), docRaw); err != nil {
			return fmt.Errorf("grove: store cache: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("grove: store cache: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot in identifier order.
func (sc *SQLiteCache) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := sc.db.QueryRowContext(ctx,
		"SELECT value FROM grove_meta WHERE name = 'scheme'").Scan(&snap.Scheme)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("grove: load cache: %w", err)
	}

	rows, err := sc.db.QueryContext(ctx,
		"SELECT id, attrs, doc FROM grove_documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("grove: load cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       string
			attrsRaw string
			docRaw   sql.NullString
		)
		if err := rows.Scan(&id, &attrsRaw, &docRaw); err != nil {
			return nil, fmt.Errorf("grove: load cache: %w", err)
		}

		doc := &Document{
			ID:     id,
			Path:   filepath.Join(sc.root, filepath.FromSlash(id)),
			Source: sc.root,
		}
		if doc.Attrs, err = parseStoredAttrs(attrsRaw); err != nil {
			return nil, err
		}
		if docRaw.Valid {
			m, err := parseStoredAttrs(docRaw.String)
			if err != nil {
				return nil, err
			}
			doc.Doc = data.Doc(m)
		}

		snap.Docs = append(snap.Docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grove: load cache: %w", err)
	}
	return snap, nil
}

func parseStoredAttrs(raw string) (data.Attrs, error) {
	m, err := data.ParseObject([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("grove: load cache: %w", err)
	}
	return data.Attrs(m), nil
}
