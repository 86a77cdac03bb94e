package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/folio-sh/folio/internal/comments"
	"github.com/folio-sh/folio/internal/config"
	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/loader"
	"github.com/folio-sh/folio/internal/mcp"
	"github.com/folio-sh/folio/internal/protocol"
	"github.com/folio-sh/folio/internal/rules"
	"github.com/folio-sh/folio/internal/session"
	"github.com/folio-sh/folio/internal/storage"
	"github.com/folio-sh/folio/internal/store"
)

// Server is the main folio server.
type Server struct {
	config       *config.Config
	store        *store.Store
	sessions     *session.Manager
	backend      storage.Backend
	comments     comments.Gateway
	rules        *rules.Engine
	hotLoader    *loader.HotLoader
	httpEndpoint *HTTPEndpoint
	wsEndpoint   *WebSocketEndpoint
	httpServer   *http.Server
	cleanupDone  chan struct{}
}

// New creates a server with the given configuration.
func New(cfg *config.Config) (*Server, error) {
	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	contentStore := store.NewStore()
	contentStore.SetBackend(backend)
	contentStore.SetVerbosity(cfg.Verbosity())

	ruleEngine, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		backend.Close()
		return nil, err
	}

	s := &Server{
		config:      cfg,
		store:       contentStore,
		sessions:    session.NewManager(cfg.Session.Timeout.Duration()),
		backend:     backend,
		comments:    comments.NewStoreGateway(backend),
		rules:       ruleEngine,
		cleanupDone: make(chan struct{}),
	}

	s.wsEndpoint = NewWebSocketEndpoint(cfg)
	s.httpEndpoint = NewHTTPEndpoint(s)

	// Broadcast commits to every live connection and remount their grids.
	contentStore.Watch(func(root content.Node, revision int64) {
		s.wsEndpoint.UpdateRoot(root)
		data, err := content.ToJSON(root)
		if err != nil {
			cfg.Log(0, "Broadcast skipped, encode failed: %v", err)
			return
		}
		msg, err := protocol.NewMessage(protocol.MsgContent, protocol.ContentMessage{
			Revision: revision,
			Tree:     data,
		})
		if err != nil {
			return
		}
		s.wsEndpoint.Broadcast(msg)
	})

	if err := s.loadContent(); err != nil {
		s.closeResources()
		return nil, err
	}

	if cfg.Content.HotReload {
		hl, err := loader.NewHotLoader(cfg.Content.Dir, s.reloadContent)
		if err != nil {
			cfg.Log(0, "Content watching disabled: %v", err)
		} else {
			s.hotLoader = hl
		}
	}

	return s, nil
}

// loadContent initializes the tree: the latest persisted snapshot wins
// over the static content directory, which seeds fresh installs.
func (s *Server) loadContent() error {
	if err := s.store.Load(); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if _, rev := s.store.Current(); rev > 0 {
		return nil
	}

	root, err := loader.LoadTree(s.config.Content.Dir)
	if err != nil {
		return fmt.Errorf("load content dir: %w", err)
	}
	s.store.Seed(root)
	return nil
}

// reloadContent re-reads the content directory after the hot loader
// settles. Disk content only seeds; it never overwrites committed
// revisions.
func (s *Server) reloadContent() {
	if _, rev := s.store.Current(); rev > 0 {
		s.config.Log(1, "Content dir changed but committed revisions exist; skipping reload")
		return
	}
	root, err := loader.LoadTree(s.config.Content.Dir)
	if err != nil {
		log.Printf("Content reload failed: %v", err)
		return
	}
	s.store.Seed(root)
	s.config.Log(1, "Content reloaded from %s", s.config.Content.Dir)
}

// openBackend constructs the configured storage backend.
func openBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Type {
	case "", "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		return storage.NewSQLiteStorage(cfg.Storage.Path)
	case "postgresql", "postgres":
		return storage.NewPostgresStorage(cfg.Storage.URL)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

// Store exposes the content store for command-line tooling.
func (s *Server) Store() *store.Store {
	return s.store
}

// Binding returns an MCP binding over this server's store.
func (s *Server) Binding() *mcp.Binding {
	return mcp.NewBinding(s.store, s.rules, s.comments)
}

// Handler returns the root HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpEndpoint
}

// Start begins serving and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.httpEndpoint,
	}

	log.Printf("folio listening on http://%s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// StartCleanupWorker periodically expires idle sessions.
func (s *Server) StartCleanupWorker(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.cleanupDone:
				return
			case <-ticker.C:
				if n := s.sessions.CleanupExpired(); n > 0 {
					s.config.Log(1, "Expired %d idle sessions", n)
				}
			}
		}
	}()
}

// Shutdown stops the server and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.cleanupDone)

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.hotLoader != nil {
		s.hotLoader.Stop()
	}
	s.rules.Close()
	if s.backend != nil {
		s.backend.Close()
	}
}
