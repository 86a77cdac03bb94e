package store

import (
	"errors"
	"testing"

	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/storage"
)

// failingBackend rejects every snapshot save.
type failingBackend struct {
	*storage.MemoryStorage
}

func (f *failingBackend) SaveSnapshot(*storage.Snapshot) error {
	return errors.New("disk full")
}

// TestReplaceBumpsRevision verifies commits advance the revision counter
func TestReplaceBumpsRevision(t *testing.T) {
	s := NewStore()
	s.SetBackend(storage.NewMemoryStorage())

	root := content.Record{"title": content.String("v1")}
	rev, err := s.Replace(root)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if rev != 1 {
		t.Errorf("First revision = %d", rev)
	}

	rev, err = s.Replace(content.Record{"title": content.String("v2")})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if rev != 2 {
		t.Errorf("Second revision = %d", rev)
	}

	current, currentRev := s.Current()
	if currentRev != 2 {
		t.Errorf("Current revision = %d", currentRev)
	}
	if current.(content.Record)["title"] != content.String("v2") {
		t.Errorf("Current tree = %v", current)
	}
}

// TestReplaceNotifiesWatchers verifies watcher callbacks fire per commit
func TestReplaceNotifiesWatchers(t *testing.T) {
	s := NewStore()
	var gotRev int64
	var gotRoot content.Node
	s.Watch(func(root content.Node, revision int64) {
		gotRoot = root
		gotRev = revision
	})

	root := content.Record{"x": content.Number(1)}
	if _, err := s.Replace(root); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if gotRev != 1 {
		t.Errorf("Watcher revision = %d", gotRev)
	}
	if !content.Equal(gotRoot, root) {
		t.Errorf("Watcher root = %v", gotRoot)
	}
}

// TestReplacePersistenceFailure verifies a failed save loses nothing
func TestReplacePersistenceFailure(t *testing.T) {
	s := NewStore()
	s.SetBackend(&failingBackend{storage.NewMemoryStorage()})

	seeded := content.Record{"title": content.String("kept")}
	s.Seed(seeded)

	fired := false
	s.Watch(func(content.Node, int64) { fired = true })

	_, err := s.Replace(content.Record{"title": content.String("lost")})
	if err == nil {
		t.Fatal("Expected persistence error")
	}

	current, rev := s.Current()
	if rev != 0 {
		t.Errorf("Revision advanced on failure: %d", rev)
	}
	if !content.Equal(current, seeded) {
		t.Errorf("In-memory tree changed on failure: %v", current)
	}
	if fired {
		t.Error("Watchers must not fire on a failed commit")
	}
}

// TestLoadRestoresSnapshot verifies startup restore from the backend
func TestLoadRestoresSnapshot(t *testing.T) {
	backend := storage.NewMemoryStorage()

	first := NewStore()
	first.SetBackend(backend)
	if _, err := first.Replace(content.Record{"title": content.String("persisted")}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	second := NewStore()
	second.SetBackend(backend)
	if err := second.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	root, rev := second.Current()
	if rev != 1 {
		t.Errorf("Loaded revision = %d", rev)
	}
	if root.(content.Record)["title"] != content.String("persisted") {
		t.Errorf("Loaded tree = %v", root)
	}
}

// TestLoadWithoutSnapshot verifies a fresh backend leaves the store alone
func TestLoadWithoutSnapshot(t *testing.T) {
	s := NewStore()
	s.SetBackend(storage.NewMemoryStorage())
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	root, rev := s.Current()
	if rev != 0 {
		t.Errorf("Revision = %d", rev)
	}
	if len(root.(content.Record)) != 0 {
		t.Errorf("Root = %v", root)
	}
}

// TestSeedDoesNotPersist verifies seeding skips the backend
func TestSeedDoesNotPersist(t *testing.T) {
	backend := storage.NewMemoryStorage()
	s := NewStore()
	s.SetBackend(backend)

	notified := false
	s.Watch(func(content.Node, int64) { notified = true })
	s.Seed(content.Record{"title": content.String("seeded")})

	if !notified {
		t.Error("Seed should notify watchers")
	}
	if snap, _ := backend.LoadLatest(); snap != nil {
		t.Error("Seed must not write to the backend")
	}
	if _, rev := s.Current(); rev != 0 {
		t.Errorf("Seed bumped the revision to %d", rev)
	}
}

// TestPersistKeepsRevision verifies an explicit save reuses the revision
func TestPersistKeepsRevision(t *testing.T) {
	backend := storage.NewMemoryStorage()
	s := NewStore()
	s.SetBackend(backend)
	s.Seed(content.Record{"title": content.String("draftless")})

	if err := s.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	snap, err := backend.LoadLatest()
	if err != nil || snap == nil {
		t.Fatalf("Snapshot missing: %v", err)
	}
	if snap.Revision != 0 {
		t.Errorf("Persist bumped revision to %d", snap.Revision)
	}
	if _, rev := s.Current(); rev != 0 {
		t.Errorf("In-memory revision = %d", rev)
	}
}
