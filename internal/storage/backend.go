// Package storage implements persistence backends for the content tree
// and per-item comment threads.
package storage

import (
	"encoding/json"
	"time"
)

// Snapshot is one persisted revision of the content tree.
type Snapshot struct {
	Revision int64           `json:"revision"`
	Data     json.RawMessage `json:"data"`
	SavedAt  time.Time       `json:"savedAt"`
}

// Comment is one entry of a per-item comment thread.
type Comment struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}

// Backend defines the interface for storage backends.
type Backend interface {
	// SaveSnapshot persists a content tree revision.
	SaveSnapshot(s *Snapshot) error

	// LoadLatest retrieves the most recent snapshot, or nil when none
	// has been saved.
	LoadLatest() (*Snapshot, error)

	// AppendComment adds a comment to an item's thread.
	AppendComment(c *Comment) error

	// ListComments gets an item's comments in insertion order.
	ListComments(itemID string) ([]*Comment, error)

	// Clear removes all data.
	Clear() error

	// BeginTransaction starts an atomic operation.
	BeginTransaction() (Transaction, error)

	// Close closes the storage backend.
	Close() error
}

// Transaction represents an atomic storage operation.
type Transaction interface {
	// SaveSnapshot persists a revision within the transaction.
	SaveSnapshot(s *Snapshot) error

	// AppendComment adds a comment within the transaction.
	AppendComment(c *Comment) error

	// Commit completes the transaction.
	Commit() error

	// Rollback cancels the transaction.
	Rollback() error
}
