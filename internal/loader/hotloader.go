package loader

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called with the result of re-reading the content
// directory after a change settles.
type ReloadFunc func()

// HotLoader watches the content directory and triggers a reload when
// content.json or a story file changes. Events are debounced so one save
// producing several writes reloads once.
type HotLoader struct {
	dir      string
	watcher  *fsnotify.Watcher
	reload   ReloadFunc
	debounce time.Duration

	timer *time.Timer
	mu    sync.Mutex
	done  chan struct{}
}

// NewHotLoader creates a hot loader for the given content directory.
func NewHotLoader(dir string, reload ReloadFunc) (*HotLoader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	h := &HotLoader{
		dir:      dir,
		watcher:  watcher,
		reload:   reload,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	// The stories subdirectory may not exist yet; ignore that.
	watcher.Add(filepath.Join(dir, "stories"))

	go h.run()
	return h, nil
}

// run processes watcher events until Stop.
func (h *HotLoader) run() {
	for {
		select {
		case <-h.done:
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			// A stories directory created after startup joins the watch
			// set, otherwise its files never trigger reloads.
			if event.Has(fsnotify.Create) && event.Name == filepath.Join(h.dir, "stories") {
				h.watcher.Add(event.Name)
				h.scheduleReload()
				continue
			}
			if !relevant(event) {
				continue
			}
			h.scheduleReload()
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("content watcher error: %v", err)
		}
	}
}

// relevant filters events down to content files being written or moved
// into place. Editors save via rename, so Create counts too.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == "content.json" || strings.HasSuffix(name, ".md")
}

// scheduleReload resets the debounce timer.
func (h *HotLoader) scheduleReload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.debounce, h.reload)
}

// Stop ends watching and releases the watcher.
func (h *HotLoader) Stop() {
	close(h.done)
	h.watcher.Close()

	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()
}
