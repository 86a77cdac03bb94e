package editor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/path"
)

func sampleTree() content.Record {
	return content.Record{
		"about": content.Record{
			"bio":  content.String("hello"),
			"tags": content.List{content.String("go"), content.String("web")},
		},
		"photos": content.List{
			content.Record{"id": content.String("p1"), "title": content.String("One")},
			content.Record{"id": content.String("p2"), "title": content.String("Two")},
		},
		"stories": content.List{},
	}
}

// TestLookup verifies path resolution across records and lists
func TestLookup(t *testing.T) {
	tree := sampleTree()

	node, err := Lookup(tree, path.MustParse("photos.1.title"))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if node != content.String("Two") {
		t.Errorf("Lookup = %v", node)
	}

	root, err := Lookup(tree, path.MustParse(""))
	if err != nil {
		t.Fatalf("Root lookup failed: %v", err)
	}
	if !content.Equal(root, tree) {
		t.Error("Root lookup should return the tree itself")
	}
}

// TestLookupErrors verifies every miss maps to path-not-found
func TestLookupErrors(t *testing.T) {
	tree := sampleTree()
	misses := []string{"missing", "about.missing", "photos.9", "about.bio.deeper", "photos.0.id.x"}
	for _, raw := range misses {
		_, err := Lookup(tree, path.MustParse(raw))
		if err == nil {
			t.Errorf("Lookup(%q) should fail", raw)
			continue
		}
		if err.Code != CodePathNotFound {
			t.Errorf("Lookup(%q) code = %q, want %q", raw, err.Code, CodePathNotFound)
		}
	}
}

// TestBeginEditCopiesDraft verifies draft edits never touch the tree
func TestBeginEditCopiesDraft(t *testing.T) {
	tree := sampleTree()
	sess, err := BeginEdit(tree, path.MustParse("photos.0"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}

	if err := sess.SetField("title", content.String("Changed")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	got := tree["photos"].(content.List)[0].(content.Record)["title"]
	if got != content.String("One") {
		t.Errorf("Draft edit leaked into tree: %v", got)
	}
}

// TestSetFieldKindMismatch verifies no silent type coercion
func TestSetFieldKindMismatch(t *testing.T) {
	sess, err := BeginEdit(sampleTree(), path.MustParse("photos.0"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}

	err = sess.SetField("title", content.Number(7))
	if err == nil {
		t.Fatal("Expected validation error for kind change")
	}
	var editErr *EditError
	if !errors.As(err, &editErr) || editErr.Code != CodeValidation {
		t.Errorf("Expected %q error, got %v", CodeValidation, err)
	}

	// New fields may take any kind
	if err := sess.SetField("rating", content.Number(5)); err != nil {
		t.Errorf("New field rejected: %v", err)
	}
}

// TestCommitWithoutChanges verifies an untouched commit is value-equal
func TestCommitWithoutChanges(t *testing.T) {
	tree := sampleTree()
	sess, err := BeginEdit(tree, path.MustParse("about"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}

	newRoot, err := sess.Commit(tree)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !content.Equal(tree, newRoot) {
		t.Error("Commit of an unchanged draft must be value-equal to the input")
	}
}

// TestCommitStructuralSharing verifies off-path subtrees keep identity
func TestCommitStructuralSharing(t *testing.T) {
	tree := sampleTree()
	sess, err := BeginEdit(tree, path.MustParse("photos.0"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	if err := sess.SetField("title", content.String("Renamed")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	newRoot, err := sess.Commit(tree)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	newRec := newRoot.(content.Record)

	// The untouched sibling subtree is shared, not copied.
	oldAbout := reflect.ValueOf(tree["about"]).Pointer()
	newAbout := reflect.ValueOf(newRec["about"]).Pointer()
	if oldAbout != newAbout {
		t.Error("Off-path subtree was copied instead of shared")
	}

	// The second photo is off the path too.
	oldP2 := reflect.ValueOf(tree["photos"].(content.List)[1]).Pointer()
	newP2 := reflect.ValueOf(newRec["photos"].(content.List)[1]).Pointer()
	if oldP2 != newP2 {
		t.Error("Off-path list element was copied instead of shared")
	}

	// The spine was rebuilt.
	oldPhotos := reflect.ValueOf(tree["photos"]).Pointer()
	newPhotos := reflect.ValueOf(newRec["photos"]).Pointer()
	if oldPhotos == newPhotos {
		t.Error("On-path ancestor list was not copied")
	}

	// Old tree unchanged.
	if tree["photos"].(content.List)[0].(content.Record)["title"] != content.String("One") {
		t.Error("Commit mutated the input tree")
	}
	if newRec["photos"].(content.List)[0].(content.Record)["title"] != content.String("Renamed") {
		t.Error("Commit lost the edit")
	}
}

// TestCommitAppend verifies the append sentinel adds to the target list
func TestCommitAppend(t *testing.T) {
	tree := sampleTree()
	defaults := content.Record{"id": content.String(""), "title": content.String("")}
	sess, err := BeginEdit(tree, path.MustParse("photos.+"), defaults)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	if !sess.IsNew {
		t.Error("Append session should be marked new")
	}
	if err := sess.SetField("id", content.String("p3")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	newRoot, err := sess.Commit(tree)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	oldPhotos := tree["photos"].(content.List)
	newPhotos := newRoot.(content.Record)["photos"].(content.List)
	if len(oldPhotos) != 2 {
		t.Errorf("Input tree grew: %d photos", len(oldPhotos))
	}
	if len(newPhotos) != 3 {
		t.Fatalf("Expected 3 photos after append, got %d", len(newPhotos))
	}
	if newPhotos[2].(content.Record)["id"] != content.String("p3") {
		t.Errorf("Appended record = %v", newPhotos[2])
	}
}

// TestBeginEditAppendNonList verifies appends require a list parent
func TestBeginEditAppendNonList(t *testing.T) {
	if _, err := BeginEdit(sampleTree(), path.MustParse("about.+"), nil); err == nil {
		t.Error("Expected error appending to a record")
	}
}

// TestAddRemoveListItemOrdering verifies list edits preserve order
func TestAddRemoveListItemOrdering(t *testing.T) {
	tree := sampleTree()
	sess, err := BeginEdit(tree, path.MustParse("about"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}

	tagsPath := path.MustParse("tags")
	if err := sess.AddListItem(tagsPath, content.String("http")); err != nil {
		t.Fatalf("AddListItem failed: %v", err)
	}
	if err := sess.RemoveListItem(tagsPath, 0); err != nil {
		t.Fatalf("RemoveListItem failed: %v", err)
	}

	tags := sess.Draft.(content.Record)["tags"].(content.List)
	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(tags))
	}
	if tags[0] != content.String("web") || tags[1] != content.String("http") {
		t.Errorf("tags = %v", tags)
	}
}

// TestAddListItemNilDefault verifies the empty-string default
func TestAddListItemNilDefault(t *testing.T) {
	sess, err := BeginEdit(sampleTree(), path.MustParse("about"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	if err := sess.AddListItem(path.MustParse("tags"), nil); err != nil {
		t.Fatalf("AddListItem failed: %v", err)
	}
	tags := sess.Draft.(content.Record)["tags"].(content.List)
	if tags[len(tags)-1] != content.String("") {
		t.Errorf("Expected empty string default, got %v", tags[len(tags)-1])
	}
}

// TestRemoveListItemOutOfRange verifies the silent no-op contract
func TestRemoveListItemOutOfRange(t *testing.T) {
	sess, err := BeginEdit(sampleTree(), path.MustParse("about"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	before := sess.Draft.Clone()

	for _, idx := range []int{-1, 2, 99} {
		if err := sess.RemoveListItem(path.MustParse("tags"), idx); err != nil {
			t.Errorf("RemoveListItem(%d) should be a no-op, got %v", idx, err)
		}
	}
	if !content.Equal(before, sess.Draft) {
		t.Error("Out-of-range removal changed the draft")
	}
}

// TestDiscard verifies a discarded session leaves the tree alone
func TestDiscard(t *testing.T) {
	tree := sampleTree()
	sess, err := BeginEdit(tree, path.MustParse("photos.0"), nil)
	if err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	if err := sess.SetField("title", content.String("ignore")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	sess.Discard()

	if tree["photos"].(content.List)[0].(content.Record)["title"] != content.String("One") {
		t.Error("Discard leaked changes into the tree")
	}
}
