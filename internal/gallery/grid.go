package gallery

import (
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultEagerWindow is the number of items rendered eagerly before lazy
// reveal takes over.
const DefaultEagerWindow = 12

// FilterState is the gallery's facet selection and reveal cursor.
type FilterState struct {
	SelectedCategory string `json:"selectedCategory"`
	Query            string `json:"query,omitempty"`
	EagerWindow      int    `json:"eagerWindow"`
}

// ViewerState is the modal viewer's position: Closed, or Open at an index
// into the filtered collection.
type ViewerState struct {
	Open  bool `json:"open"`
	Index int  `json:"index"`
}

// RevealState tracks one lazily-rendered item's media fetch.
type RevealState int

const (
	RevealNotRequested RevealState = iota
	RevealRequested                // within the proximity threshold, fetch started
	RevealLoaded                   // fetch finished
	RevealBroken                   // fetch failed; treated as loaded to avoid retry storms
)

// Grid is one gallery instance: a media collection plus filter, reveal,
// and viewer state. Reveal transitions are monotonic for the lifetime of
// the instance. Safe for use from multiple handler goroutines.
type Grid struct {
	items  []MediaItem
	state  FilterState
	viewer ViewerState
	reveal map[string]RevealState
	mu     sync.Mutex
}

// NewGrid creates a grid over a collection with the default filter state.
func NewGrid(items []MediaItem, eagerWindow int) *Grid {
	if eagerWindow <= 0 {
		eagerWindow = DefaultEagerWindow
	}
	return &Grid{
		items:  items,
		state:  FilterState{SelectedCategory: CategoryAll, EagerWindow: eagerWindow},
		reveal: make(map[string]RevealState),
	}
}

// SetItems replaces the collection, re-initializing filter and viewer
// state. Used when a CMS commit swaps the underlying content.
func (g *Grid) SetItems(items []MediaItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	eager := g.state.EagerWindow
	g.items = items
	g.state = FilterState{SelectedCategory: CategoryAll, EagerWindow: eager}
	g.viewer = ViewerState{}
	g.reveal = make(map[string]RevealState)
}

// Select changes the selected category. The reveal cursor resets to the
// eager window and an open viewer closes, since the open item may no
// longer be in the filtered set. Selecting a facet with zero matches is
// allowed; the grid just reports an empty filtered set.
func (g *Grid) Select(category string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if category == g.state.SelectedCategory {
		return
	}
	g.state.SelectedCategory = category
	g.viewer = ViewerState{}
}

// Search sets the fuzzy title query. An empty query disables search.
// Like a facet change, it closes the viewer.
func (g *Grid) Search(query string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if query == g.state.Query {
		return
	}
	g.state.Query = query
	g.viewer = ViewerState{}
}

// State returns a copy of the current filter state.
func (g *Grid) State() FilterState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Filtered returns the items visible under the current facet and query.
func (g *Grid) Filtered() []MediaItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filteredLocked()
}

func (g *Grid) filteredLocked() []MediaItem {
	filtered := Filter(g.items, g.state.SelectedCategory)
	if g.state.Query == "" {
		return filtered
	}
	matched := make([]MediaItem, 0, len(filtered))
	for _, m := range filtered {
		if fuzzy.MatchFold(g.state.Query, m.Title) {
			matched = append(matched, m)
		}
	}
	return matched
}

// Empty reports whether the current filtered set has no items; the caller
// renders an explicit empty state rather than treating this as an error.
func (g *Grid) Empty() bool {
	return len(g.Filtered()) == 0
}

// Vocabulary derives the selectable facets for the grid's collection.
func (g *Grid) Vocabulary(declared ...string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Vocabulary(g.items, declared...)
}

// Eager returns the eagerly-rendered prefix of the filtered collection.
func (g *Grid) Eager() []MediaItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	filtered := g.filteredLocked()
	if len(filtered) <= g.state.EagerWindow {
		return filtered
	}
	return filtered[:g.state.EagerWindow]
}

// RequestReveal records that an item entered the proximity threshold and
// its media fetch started. The transition is monotonic: once requested an
// item never reverts, and repeat requests are no-ops.
func (g *Grid) RequestReveal(itemID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reveal[itemID] == RevealNotRequested {
		g.reveal[itemID] = RevealRequested
	}
}

// FinishReveal records the outcome of an item's media fetch. A failed
// fetch marks the item broken-but-loaded so the grid never hangs on one
// bad item and never retries it.
func (g *Grid) FinishReveal(itemID string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s := g.reveal[itemID]; s == RevealLoaded || s == RevealBroken {
		return
	}
	if ok {
		g.reveal[itemID] = RevealLoaded
	} else {
		g.reveal[itemID] = RevealBroken
	}
}

// Revealed reports whether an item's media has been requested.
func (g *Grid) Revealed(itemID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reveal[itemID] != RevealNotRequested
}

// Has reports whether the grid's collection contains an item.
func (g *Grid) Has(itemID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.items {
		if m.ID == itemID {
			return true
		}
	}
	return false
}

// Viewer returns a copy of the viewer state.
func (g *Grid) Viewer() ViewerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewer
}

// OpenAt opens the viewer at an index into the filtered collection.
// Returns false (and stays closed) when the index is out of range.
func (g *Grid) OpenAt(index int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.filteredLocked()) {
		return false
	}
	g.viewer = ViewerState{Open: true, Index: index}
	return true
}

// Next advances the viewer, wrapping from the last item to the first.
// A no-op while closed.
func (g *Grid) Next() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.viewer.Open {
		return
	}
	n := len(g.filteredLocked())
	if n == 0 {
		g.viewer = ViewerState{}
		return
	}
	g.viewer.Index = (g.viewer.Index + 1) % n
}

// Previous steps the viewer back, wrapping from the first item to the
// last. A no-op while closed.
func (g *Grid) Previous() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.viewer.Open {
		return
	}
	n := len(g.filteredLocked())
	if n == 0 {
		g.viewer = ViewerState{}
		return
	}
	g.viewer.Index = (g.viewer.Index - 1 + n) % n
}

// Close closes the viewer unconditionally.
func (g *Grid) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewer = ViewerState{}
}

// Current returns the item the viewer is open at, if any.
func (g *Grid) Current() (MediaItem, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.viewer.Open {
		return MediaItem{}, false
	}
	filtered := g.filteredLocked()
	if g.viewer.Index >= len(filtered) {
		// The filtered set shrank under the viewer; close it.
		g.viewer = ViewerState{}
		return MediaItem{}, false
	}
	return filtered[g.viewer.Index], true
}
