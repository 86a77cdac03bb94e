package gallery

import (
	"testing"

	"github.com/folio-sh/folio/internal/content"
)

func testCollection() []MediaItem {
	return []MediaItem{
		{ID: "a", Title: "Alpine Lake", Categories: []string{"Nature"}, SortKey: "2024-03"},
		{ID: "b", Title: "City Night", Categories: []string{"Urban"}, SortKey: "2024-02"},
		{ID: "c", Title: "Forest Walk", Categories: []string{"Nature", "Travel"}, SortKey: "2024-01"},
		{ID: "d", Title: "Old Harbor", Categories: []string{"Travel"}, SortKey: "2023-12"},
	}
}

// TestFilterSubset verifies filtering is a pure subset of the collection
func TestFilterSubset(t *testing.T) {
	coll := testCollection()

	nature := Filter(coll, "Nature")
	if len(nature) != 2 {
		t.Fatalf("Expected 2 Nature items, got %d", len(nature))
	}
	for _, m := range nature {
		if !m.HasCategory("Nature") {
			t.Errorf("Item %q leaked into Nature facet", m.ID)
		}
	}

	if got := Filter(coll, CategoryAll); len(got) != len(coll) {
		t.Errorf("All facet dropped items: %d of %d", len(got), len(coll))
	}

	if got := Filter(coll, "Nonexistent"); len(got) != 0 {
		t.Errorf("Unknown facet matched %d items", len(got))
	}
}

// TestFilterIdempotent verifies reapplying a facet is a no-op
func TestFilterIdempotent(t *testing.T) {
	coll := testCollection()
	once := Filter(coll, "Travel")
	twice := Filter(once, "Travel")
	if len(once) != len(twice) {
		t.Fatalf("Second filter changed size: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("Second filter reordered: %q vs %q", once[i].ID, twice[i].ID)
		}
	}
}

// TestMultiCategoryMembership verifies items appear under each category
func TestMultiCategoryMembership(t *testing.T) {
	coll := testCollection()
	for _, facet := range []string{"Nature", "Travel"} {
		found := false
		for _, m := range Filter(coll, facet) {
			if m.ID == "c" {
				found = true
			}
		}
		if !found {
			t.Errorf("Multi-category item missing from %q facet", facet)
		}
	}
}

// TestVocabulary verifies the sorted union with the All sentinel first
func TestVocabulary(t *testing.T) {
	vocab := Vocabulary(testCollection())
	want := []string{CategoryAll, "Nature", "Travel", "Urban"}
	if len(vocab) != len(want) {
		t.Fatalf("vocabulary = %v", vocab)
	}
	for i := range want {
		if vocab[i] != want[i] {
			t.Errorf("vocabulary[%d] = %q, want %q", i, vocab[i], want[i])
		}
	}
}

// TestVocabularyDeclaredFacets verifies zero-match declared facets survive
func TestVocabularyDeclaredFacets(t *testing.T) {
	vocab := Vocabulary(testCollection(), "Macro", "", CategoryAll)
	found := false
	for _, c := range vocab {
		if c == "Macro" {
			found = true
		}
	}
	if !found {
		t.Errorf("Declared facet missing: %v", vocab)
	}
	// The sentinel must not be duplicated.
	count := 0
	for _, c := range vocab {
		if c == CategoryAll {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Sentinel appears %d times in %v", count, vocab)
	}
}

// TestItemFromRecord verifies field fallbacks and normalization
func TestItemFromRecord(t *testing.T) {
	rec := content.Record{
		"title":    content.String("Dune"),
		"image":    content.String("/img/dune.jpg"),
		"order":    content.String("5"),
		"category": content.String("Nature"),
	}
	item := ItemFromRecord(rec, "fallback-3")

	if item.ID != "fallback-3" {
		t.Errorf("ID = %q", item.ID)
	}
	if item.Src != "/img/dune.jpg" {
		t.Errorf("Src fallback to image failed: %q", item.Src)
	}
	if item.SortKey != "5" {
		t.Errorf("SortKey fallback to order failed: %q", item.SortKey)
	}
	if len(item.Categories) != 1 || item.Categories[0] != "Nature" {
		t.Errorf("Categories = %v", item.Categories)
	}
}

// TestItemFromRecordUncategorized verifies the default facet
func TestItemFromRecordUncategorized(t *testing.T) {
	item := ItemFromRecord(content.Record{"title": content.String("x")}, "id")
	if len(item.Categories) != 1 || item.Categories[0] != "Uncategorized" {
		t.Errorf("Categories = %v", item.Categories)
	}
}

// TestCollectionFromList verifies newest-first ordering and skipping
func TestCollectionFromList(t *testing.T) {
	list := content.List{
		content.Record{"id": content.String("old"), "date": content.String("2022-01-01")},
		content.String("not a record"),
		content.Record{"id": content.String("new"), "date": content.String("2024-01-01")},
	}
	items := CollectionFromList(list)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ID != "new" || items[1].ID != "old" {
		t.Errorf("Order = %q, %q", items[0].ID, items[1].ID)
	}
}
