// Package store owns the current content tree: an explicit value swapped
// atomically on commit, never a free-floating mutable global.
package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/storage"
)

// Watcher is notified after each successful commit with the new root and
// its revision.
type Watcher func(root content.Node, revision int64)

// Store holds the current content tree. Readers always see either the
// pre-commit or post-commit tree, never an intermediate state: commits
// build a new root with structural sharing and swap the reference under
// the lock. Last commit wins; there is no version check.
type Store struct {
	root      content.Node
	revision  int64
	backend   storage.Backend
	watchers  []Watcher
	verbosity int
	mu        sync.RWMutex
}

// NewStore creates a store with an empty root record.
func NewStore() *Store {
	return &Store{root: content.Record{}}
}

// SetBackend sets the storage backend for persistence.
func (s *Store) SetBackend(backend storage.Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = backend
}

// SetVerbosity sets the verbosity level for commit logging.
func (s *Store) SetVerbosity(level int) {
	s.verbosity = level
}

// Current returns the current root and revision. The returned tree must be
// treated as immutable; editing goes through an edit session.
func (s *Store) Current() (content.Node, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, s.revision
}

// Watch registers a callback invoked after each successful commit.
func (s *Store) Watch(w Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, w)
}

// Replace commits a new root. The snapshot is persisted first; on a
// persistence failure the in-memory tree stays unchanged so no work is
// lost. Returns the new revision.
func (s *Store) Replace(newRoot content.Node) (int64, error) {
	data, err := content.ToJSON(newRoot)
	if err != nil {
		return 0, fmt.Errorf("encode tree: %w", err)
	}

	s.mu.Lock()
	rev := s.revision + 1
	backend := s.backend
	verbosity := s.verbosity

	if backend != nil {
		snap := &storage.Snapshot{Revision: rev, Data: data, SavedAt: time.Now()}
		if err := backend.SaveSnapshot(snap); err != nil {
			s.mu.Unlock()
			return 0, err
		}
	}

	s.root = newRoot
	s.revision = rev
	watchers := make([]Watcher, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	if verbosity >= 2 {
		log.Printf("[v2] Content committed: revision=%d bytes=%d", rev, len(data))
	}

	for _, w := range watchers {
		w(newRoot, rev)
	}
	return rev, nil
}

// Persist writes the current tree to the backend without bumping the
// revision. Backs the explicit save operation.
func (s *Store) Persist() error {
	s.mu.RLock()
	root := s.root
	rev := s.revision
	backend := s.backend
	s.mu.RUnlock()

	if backend == nil {
		return nil
	}
	data, err := content.ToJSON(root)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return backend.SaveSnapshot(&storage.Snapshot{Revision: rev, Data: data, SavedAt: time.Now()})
}

// Load replaces the in-memory tree with the latest persisted snapshot.
// A missing snapshot leaves the store unchanged.
func (s *Store) Load() error {
	s.mu.RLock()
	backend := s.backend
	s.mu.RUnlock()

	if backend == nil {
		return nil
	}

	snap, err := backend.LoadLatest()
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	root, err := content.FromJSON(snap.Data)
	if err != nil {
		return fmt.Errorf("decode snapshot %d: %w", snap.Revision, err)
	}

	s.mu.Lock()
	s.root = root
	s.revision = snap.Revision
	verbosity := s.verbosity
	s.mu.Unlock()

	if verbosity >= 1 {
		log.Printf("[v1] Content loaded: revision=%d", snap.Revision)
	}
	return nil
}

// Seed sets the in-memory tree without persisting, used for the static
// startup source before any commit happens. Watchers are notified so
// mounted pages rebuild their collections.
func (s *Store) Seed(root content.Node) {
	s.mu.Lock()
	s.root = root
	watchers := make([]Watcher, len(s.watchers))
	copy(watchers, s.watchers)
	rev := s.revision
	s.mu.Unlock()

	for _, w := range watchers {
		w(root, rev)
	}
}
