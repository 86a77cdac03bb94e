// Package gallery implements the faceted media gallery: category
// filtering, incremental reveal, and a modal viewer with looping
// navigation.
package gallery

import (
	"fmt"
	"sort"

	"github.com/folio-sh/folio/internal/content"
)

// CategoryAll is the sentinel facet that matches every item.
const CategoryAll = "All"

// MediaItem is one displayable unit: a photo or a story entry.
type MediaItem struct {
	ID          string   `json:"id"`
	Src         string   `json:"src"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Title       string   `json:"title"`
	Categories  []string `json:"categories"`
	SortKey     string   `json:"sortKey,omitempty"`
	Description string   `json:"description,omitempty"`
}

// HasCategory reports whether the item carries the given category.
func (m MediaItem) HasCategory(c string) bool {
	for _, mc := range m.Categories {
		if mc == c {
			return true
		}
	}
	return false
}

// ItemFromRecord builds a MediaItem from a content record, normalizing the
// legacy single-category form into a one-element set. Records without an
// explicit category get the "Uncategorized" facet so the set is never
// empty.
func ItemFromRecord(rec content.Record, fallbackID string) MediaItem {
	item := MediaItem{
		ID:          content.FieldString(rec, "id"),
		Src:         content.FieldString(rec, "src"),
		Thumbnail:   content.FieldString(rec, "thumbnail"),
		Title:       content.FieldString(rec, "title"),
		SortKey:     content.FieldString(rec, "date"),
		Description: content.FieldString(rec, "description"),
		Categories:  content.Categories(rec),
	}
	if item.Src == "" {
		item.Src = content.FieldString(rec, "image")
	}
	if item.SortKey == "" {
		item.SortKey = content.FieldString(rec, "order")
	}
	if item.ID == "" {
		item.ID = fallbackID
	}
	if len(item.Categories) == 0 {
		item.Categories = []string{"Uncategorized"}
	}
	return item
}

// CollectionFromList builds a media collection from a content list,
// skipping non-record entries. Items are ordered by SortKey descending
// (newest first), with the original position as tiebreaker.
func CollectionFromList(list content.List) []MediaItem {
	items := make([]MediaItem, 0, len(list))
	for i, node := range list {
		rec, ok := node.(content.Record)
		if !ok {
			continue
		}
		items = append(items, ItemFromRecord(rec, fmt.Sprintf("item-%d", i)))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortKey > items[j].SortKey
	})
	return items
}

// Filter returns the subset of collection matching the selected category.
// CategoryAll passes everything. Filtering is a pure subset operation, so
// reapplying it to its own output is a no-op.
func Filter(collection []MediaItem, category string) []MediaItem {
	if category == CategoryAll {
		return collection
	}
	filtered := make([]MediaItem, 0, len(collection))
	for _, m := range collection {
		if m.HasCategory(category) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Vocabulary derives the category facets for a collection: the union of
// all category sets, sorted lexicographically, with CategoryAll first.
// Facets matching zero items stay selectable, so declared extra facets may
// be appended by the caller before deriving.
func Vocabulary(collection []MediaItem, declared ...string) []string {
	seen := make(map[string]struct{})
	for _, m := range collection {
		for _, c := range m.Categories {
			seen[c] = struct{}{}
		}
	}
	for _, c := range declared {
		if c != "" && c != CategoryAll {
			seen[c] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen)+1)
	for c := range seen {
		vocab = append(vocab, c)
	}
	sort.Strings(vocab)
	return append([]string{CategoryAll}, vocab...)
}
