package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage is a SQLite storage backend.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// init creates the necessary tables.
func (s *SQLiteStorage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			revision INTEGER PRIMARY KEY,
			data TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			name TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_item_id ON comments(item_id);
	`)
	return err
}

// SaveSnapshot persists a content tree revision.
func (s *SQLiteStorage) SaveSnapshot(snap *Snapshot) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (revision, data, saved_at)
		VALUES (?, ?, ?)
	`, snap.Revision, string(snap.Data), snap.SavedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// LoadLatest retrieves the most recent snapshot.
func (s *SQLiteStorage) LoadLatest() (*Snapshot, error) {
	var snap Snapshot
	var data, savedAt string

	err := s.db.QueryRow(`
		SELECT revision, data, saved_at FROM snapshots
		ORDER BY revision DESC LIMIT 1
	`).Scan(&snap.Revision, &data, &savedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.Data = []byte(data)
	if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		snap.SavedAt = t
	}
	return &snap, nil
}

// AppendComment adds a comment to an item's thread.
func (s *SQLiteStorage) AppendComment(c *Comment) error {
	_, err := s.db.Exec(`
		INSERT INTO comments (id, item_id, name, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.ItemID, c.Name, c.Message, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ListComments gets an item's comments in insertion order. Comment IDs are
// ULIDs, so ordering by ID is chronological.
func (s *SQLiteStorage) ListComments(itemID string) ([]*Comment, error) {
	rows, err := s.db.Query(`
		SELECT id, item_id, name, message, created_at
		FROM comments WHERE item_id = ? ORDER BY id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanComments(rows)
}

// Clear removes all data.
func (s *SQLiteStorage) Clear() error {
	_, err := s.db.Exec(`DELETE FROM snapshots; DELETE FROM comments;`)
	return err
}

// BeginTransaction starts an atomic operation.
func (s *SQLiteStorage) BeginTransaction() (Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &sqliteTransaction{tx: tx}, nil
}

// sqliteTransaction wraps a database transaction.
type sqliteTransaction struct {
	tx *sql.Tx
}

func (t *sqliteTransaction) SaveSnapshot(snap *Snapshot) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO snapshots (revision, data, saved_at)
		VALUES (?, ?, ?)
	`, snap.Revision, string(snap.Data), snap.SavedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (t *sqliteTransaction) AppendComment(c *Comment) error {
	_, err := t.tx.Exec(`
		INSERT INTO comments (id, item_id, name, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.ItemID, c.Name, c.Message, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

// Close closes the storage backend.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// scanComments reads comment rows into a slice.
func scanComments(rows *sql.Rows) ([]*Comment, error) {
	var out []*Comment
	for rows.Next() {
		var c Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ItemID, &c.Name, &c.Message, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			c.CreatedAt = t
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
