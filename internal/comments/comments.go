// Package comments implements the per-item comment gateway. The credential
// gating writes lives server-side; it is never embedded in client code.
package comments

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/folio-sh/folio/internal/storage"
)

// MaxMessageLen bounds a single comment message.
const MaxMessageLen = 4000

// Gateway lists and appends comments for media items.
type Gateway interface {
	List(itemID string) ([]*storage.Comment, error)
	Append(itemID, name, message string) (*storage.Comment, error)
}

// StoreGateway is a Gateway backed by a storage backend. Comment IDs are
// ULIDs, so lexicographic order is chronological.
type StoreGateway struct {
	backend storage.Backend
}

// NewStoreGateway creates a gateway over a storage backend.
func NewStoreGateway(backend storage.Backend) *StoreGateway {
	return &StoreGateway{backend: backend}
}

// List gets an item's comments in insertion order.
func (g *StoreGateway) List(itemID string) ([]*storage.Comment, error) {
	if itemID == "" {
		return nil, fmt.Errorf("empty item id")
	}
	return g.backend.ListComments(itemID)
}

// Append validates and stores a new comment, returning the stored entry.
func (g *StoreGateway) Append(itemID, name, message string) (*storage.Comment, error) {
	if itemID == "" {
		return nil, fmt.Errorf("empty item id")
	}
	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)
	if name == "" {
		name = "Anonymous"
	}
	if message == "" {
		return nil, fmt.Errorf("empty message")
	}
	if len(message) > MaxMessageLen {
		return nil, fmt.Errorf("message exceeds %d bytes", MaxMessageLen)
	}

	c := &storage.Comment{
		ID:        ulid.Make().String(),
		ItemID:    itemID,
		Name:      name,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := g.backend.AppendComment(c); err != nil {
		return nil, err
	}
	return c, nil
}
