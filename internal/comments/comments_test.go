package comments

import (
	"strings"
	"testing"

	"github.com/folio-sh/folio/internal/storage"
)

// TestAppendAndList verifies the basic comment flow
func TestAppendAndList(t *testing.T) {
	g := NewStoreGateway(storage.NewMemoryStorage())

	stored, err := g.Append("photo-1", "Ada", "Lovely shot")
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if stored.ID == "" {
		t.Error("Expected generated comment ID")
	}
	if stored.Name != "Ada" || stored.Message != "Lovely shot" {
		t.Errorf("Stored = %+v", stored)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("Expected timestamp")
	}

	thread, err := g.List("photo-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(thread) != 1 || thread[0].ID != stored.ID {
		t.Errorf("Thread = %v", thread)
	}
}

// TestAppendAnonymousDefault verifies the blank-name fallback
func TestAppendAnonymousDefault(t *testing.T) {
	g := NewStoreGateway(storage.NewMemoryStorage())
	stored, err := g.Append("photo-1", "   ", "hi")
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if stored.Name != "Anonymous" {
		t.Errorf("Name = %q", stored.Name)
	}
}

// TestAppendValidation verifies message constraints
func TestAppendValidation(t *testing.T) {
	g := NewStoreGateway(storage.NewMemoryStorage())

	if _, err := g.Append("", "A", "msg"); err == nil {
		t.Error("Expected error for empty item ID")
	}
	if _, err := g.Append("photo-1", "A", "   "); err == nil {
		t.Error("Expected error for whitespace-only message")
	}
	if _, err := g.Append("photo-1", "A", strings.Repeat("x", MaxMessageLen+1)); err == nil {
		t.Error("Expected error for oversized message")
	}
	if _, err := g.Append("photo-1", "A", strings.Repeat("x", MaxMessageLen)); err != nil {
		t.Errorf("Max-length message rejected: %v", err)
	}
}

// TestCommentIDsChronological verifies IDs sort in creation order
func TestCommentIDsChronological(t *testing.T) {
	g := NewStoreGateway(storage.NewMemoryStorage())
	var prev string
	for i := 0; i < 5; i++ {
		c, err := g.Append("photo-1", "A", "msg")
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if prev != "" && c.ID < prev {
			t.Errorf("IDs out of order: %q < %q", c.ID, prev)
		}
		prev = c.ID
	}
}
