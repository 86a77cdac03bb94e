package storage

import (
	"sync"
)

// MemoryStorage is an in-memory storage backend.
type MemoryStorage struct {
	latest   *Snapshot
	comments map[string][]*Comment // itemID -> thread
	mu       sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		comments: make(map[string][]*Comment),
	}
}

// SaveSnapshot persists a revision to memory. Only the latest revision is
// retained.
func (m *MemoryStorage) SaveSnapshot(s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.latest = &cp
	return nil
}

// LoadLatest retrieves the most recent snapshot.
func (m *MemoryStorage) LoadLatest() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return nil, nil
	}
	cp := *m.latest
	return &cp, nil
}

// AppendComment adds a comment to an item's thread.
func (m *MemoryStorage) AppendComment(c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.comments[c.ItemID] = append(m.comments[c.ItemID], &cp)
	return nil
}

// ListComments gets an item's comments in insertion order.
func (m *MemoryStorage) ListComments(itemID string) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	thread := m.comments[itemID]
	out := make([]*Comment, len(thread))
	for i, c := range thread {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

// Clear removes all data.
func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest = nil
	m.comments = make(map[string][]*Comment)
	return nil
}

// BeginTransaction starts an atomic operation. The memory backend buffers
// writes and applies them on Commit.
func (m *MemoryStorage) BeginTransaction() (Transaction, error) {
	return &memoryTransaction{backend: m}, nil
}

// Close closes the storage backend.
func (m *MemoryStorage) Close() error {
	return nil
}

// memoryTransaction buffers operations until Commit.
type memoryTransaction struct {
	backend  *MemoryStorage
	snapshot *Snapshot
	comments []*Comment
	done     bool
}

func (t *memoryTransaction) SaveSnapshot(s *Snapshot) error {
	cp := *s
	t.snapshot = &cp
	return nil
}

func (t *memoryTransaction) AppendComment(c *Comment) error {
	cp := *c
	t.comments = append(t.comments, &cp)
	return nil
}

func (t *memoryTransaction) Commit() error {
	if t.done {
		return nil
	}
	t.done = true

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if t.snapshot != nil {
		t.backend.latest = t.snapshot
	}
	for _, c := range t.comments {
		t.backend.comments[c.ItemID] = append(t.backend.comments[c.ItemID], c)
	}
	return nil
}

func (t *memoryTransaction) Rollback() error {
	t.done = true
	t.snapshot = nil
	t.comments = nil
	return nil
}
