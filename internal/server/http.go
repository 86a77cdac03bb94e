package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/editor"
	"github.com/folio-sh/folio/internal/gallery"
	"github.com/folio-sh/folio/internal/path"
	"github.com/folio-sh/folio/internal/protocol"
	"github.com/folio-sh/folio/internal/rules"
	"github.com/folio-sh/folio/internal/session"
)

// sessionHeader carries the editor session ID on authenticated requests.
const sessionHeader = "X-Folio-Session"

// HTTPEndpoint handles HTTP requests.
type HTTPEndpoint struct {
	server *Server
	mux    *http.ServeMux
}

// NewHTTPEndpoint creates a new HTTP endpoint.
func NewHTTPEndpoint(s *Server) *HTTPEndpoint {
	h := &HTTPEndpoint{
		server: s,
		mux:    http.NewServeMux(),
	}
	h.setupRoutes()
	return h
}

// setupRoutes configures HTTP routes.
func (h *HTTPEndpoint) setupRoutes() {
	h.mux.HandleFunc("/", h.handleRoot)
	h.mux.HandleFunc("/api/auth", h.handleAuth)
	h.mux.HandleFunc("/api/content", h.handleContent)
	h.mux.HandleFunc("/api/save", h.requireSession(h.handleSave))
	h.mux.HandleFunc("/api/edit/", h.requireSession(h.handleEdit))
	h.mux.HandleFunc("/api/gallery/", h.handleGallery)
	h.mux.HandleFunc("/api/comments/", h.handleComments)
	h.mux.HandleFunc("/ws", h.handleWebSocket)
}

// ServeHTTP implements http.Handler.
func (h *HTTPEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleRoot serves the static site.
func (h *HTTPEndpoint) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.serveStatic(w, r, strings.TrimPrefix(r.URL.Path, "/"))
}

// serveStatic serves a static file from the configured site directory.
func (h *HTTPEndpoint) serveStatic(w http.ResponseWriter, r *http.Request, p string) {
	if p == "" {
		p = "index.html"
	}

	dir := h.server.config.Server.Dir
	if dir == "" {
		http.NotFound(w, r)
		return
	}

	// http.ServeFile uses content sniffing, which fails for CSS.
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeFile(w, r, filepath.Join(dir, filepath.Clean("/"+p)))
}

// handleWebSocket handles live channel upgrade requests.
func (h *HTTPEndpoint) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	root, _ := h.server.store.Current()
	h.server.wsEndpoint.HandleWebSocket(w, r, root)
}

// handleAuth gates the editor behind the shared secret: on success the
// caller gets a session ID kept for the lifetime of the tab.
func (h *HTTPEndpoint) handleAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		h.writeError(w, "method-not-allowed", "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "bad-request", "Invalid JSON", http.StatusBadRequest)
		return
	}

	secret := h.server.config.Auth.Secret
	if secret == "" {
		h.writeError(w, "unauthorized", "Editing is disabled", http.StatusForbidden)
		return
	}
	if subtle.ConstantTimeCompare([]byte(body.Secret), []byte(secret)) != 1 {
		h.writeError(w, "unauthorized", "Wrong secret", http.StatusUnauthorized)
		return
	}

	sess := h.server.sessions.Create()
	h.server.config.Log(1, "Editor session created: %s", sess.ID)
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]string{"sessionId": sess.ID}})
}

// sessionHandler is a handler that runs with a validated session.
type sessionHandler func(http.ResponseWriter, *http.Request, *session.Session)

// requireSession wraps a handler with the session check and hands the
// validated session through, so handlers never look it up again.
func (h *HTTPEndpoint) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(sessionHeader)
		sess, ok := h.server.sessions.Get(id)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			h.writeError(w, "unauthorized", "Missing or expired session", http.StatusUnauthorized)
			return
		}
		sess.Touch()
		next(w, r, sess)
	}
}

// handleContent returns the current tree and revision.
func (h *HTTPEndpoint) handleContent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	root, rev := h.server.store.Current()
	data, err := content.ToJSON(root)
	if err != nil {
		h.writeError(w, "internal", err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(protocol.ContentMessage{Revision: rev, Tree: data})
}

// handleSave persists the current tree: the pass-through write behind the
// CMS save button.
func (h *HTTPEndpoint) handleSave(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		h.writeError(w, "method-not-allowed", "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.server.store.Persist(); err != nil {
		h.writeError(w, "persistence", err.Error(), http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]bool{"success": true}})
}

// handleEdit dispatches editor operations: /api/edit/begin, field,
// list/add, list/remove, commit, discard.
func (h *HTTPEndpoint) handleEdit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		h.writeError(w, "method-not-allowed", "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	op := strings.TrimPrefix(r.URL.Path, "/api/edit/")

	switch op {
	case "begin":
		h.handleBeginEdit(w, r, sess)
	case "field":
		h.handleSetField(w, r, sess)
	case "list/add":
		h.handleListOp(w, r, sess, true)
	case "list/remove":
		h.handleListOp(w, r, sess, false)
	case "commit":
		h.handleCommit(w, r, sess)
	case "discard":
		sess.ClearEdit()
		json.NewEncoder(w).Encode(protocol.Response{Result: map[string]bool{"success": true}})
	default:
		h.writeError(w, "not-found", "Unknown edit operation", http.StatusNotFound)
	}
}

func (h *HTTPEndpoint) handleBeginEdit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var msg protocol.BeginEditMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, "bad-request", "Invalid JSON", http.StatusBadRequest)
		return
	}

	p, err := path.Parse(msg.Path)
	if err != nil {
		h.writeError(w, "path-not-found", err.Error(), http.StatusBadRequest)
		return
	}

	var defaults content.Record
	if len(msg.Defaults) > 0 {
		node, err := content.FromJSON(msg.Defaults)
		if err != nil {
			h.writeError(w, "bad-request", err.Error(), http.StatusBadRequest)
			return
		}
		rec, ok := node.(content.Record)
		if !ok {
			h.writeError(w, "bad-request", "defaults must be a record", http.StatusBadRequest)
			return
		}
		defaults = rec
	}

	root, _ := h.server.store.Current()
	edit, err := editor.BeginEdit(root, p, defaults)
	if err != nil {
		h.writeEditError(w, err)
		return
	}

	sess.SetEdit(edit)
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]any{
		"draft":  content.ToValue(edit.Draft),
		"inputs": editor.DescribeDraft(edit.Draft),
		"isNew":  edit.IsNew,
	}})
}

func (h *HTTPEndpoint) handleSetField(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	edit, ok := sess.Edit()
	if !ok {
		h.writeError(w, "not-found", "No open edit session", http.StatusConflict)
		return
	}

	var msg protocol.SetFieldMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, "bad-request", "Invalid JSON", http.StatusBadRequest)
		return
	}

	value, err := content.FromJSON(msg.Value)
	if err != nil {
		h.writeError(w, "bad-request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := edit.SetField(msg.Field, value); err != nil {
		h.writeEditError(w, err)
		return
	}
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]any{
		"inputs": editor.DescribeDraft(edit.Draft),
	}})
}

func (h *HTTPEndpoint) handleListOp(w http.ResponseWriter, r *http.Request, sess *session.Session, add bool) {
	edit, ok := sess.Edit()
	if !ok {
		h.writeError(w, "not-found", "No open edit session", http.StatusConflict)
		return
	}

	var msg protocol.ListItemMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, "bad-request", "Invalid JSON", http.StatusBadRequest)
		return
	}

	fieldPath, err := path.Parse(msg.Path)
	if err != nil {
		h.writeError(w, "path-not-found", err.Error(), http.StatusBadRequest)
		return
	}

	if add {
		var def content.Node
		if len(msg.Default) > 0 {
			if def, err = content.FromJSON(msg.Default); err != nil {
				h.writeError(w, "bad-request", err.Error(), http.StatusBadRequest)
				return
			}
		}
		err = edit.AddListItem(fieldPath, def)
	} else {
		err = edit.RemoveListItem(fieldPath, msg.Index)
	}
	if err != nil {
		h.writeEditError(w, err)
		return
	}
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]any{
		"draft": content.ToValue(edit.Draft),
	}})
}

func (h *HTTPEndpoint) handleCommit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	edit, ok := sess.Edit()
	if !ok {
		h.writeError(w, "not-found", "No open edit session", http.StatusConflict)
		return
	}

	// The validation hook runs outside the schema-agnostic editor. The
	// record kind is the collection the path roots in.
	if rec, ok := edit.Draft.(content.Record); ok {
		if err := h.server.rules.Validate(recordKind(edit.TargetPath), rec); err != nil {
			var verr *rules.ValidationError
			if errors.As(err, &verr) {
				h.writeError(w, "validation", verr.Reason, http.StatusUnprocessableEntity)
			} else {
				h.writeError(w, "internal", err.Error(), http.StatusInternalServerError)
			}
			return
		}
	}

	root, _ := h.server.store.Current()
	newRoot, err := edit.Commit(root)
	if err != nil {
		h.writeEditError(w, err)
		return
	}

	rev, err := h.server.store.Replace(newRoot)
	if err != nil {
		// The tree is unchanged and the draft stays open; nothing lost.
		h.writeError(w, "persistence", err.Error(), http.StatusBadGateway)
		return
	}

	sess.ClearEdit()
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]int64{"revision": rev}})
}

// handleGallery computes the filtered view of a top-level collection:
// GET /api/gallery/{collection}?category=...&q=...
func (h *HTTPEndpoint) handleGallery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	name := strings.TrimPrefix(r.URL.Path, "/api/gallery/")
	root, _ := h.server.store.Current()

	rec, ok := root.(content.Record)
	if !ok {
		h.writeError(w, "not-found", "No collections", http.StatusNotFound)
		return
	}
	list, ok := rec[name].(content.List)
	if !ok {
		h.writeError(w, "not-found", "Unknown collection: "+name, http.StatusNotFound)
		return
	}

	grid := gallery.NewGrid(gallery.CollectionFromList(list), h.server.config.Content.EagerWindow)
	if c := r.URL.Query().Get("category"); c != "" {
		grid.Select(c)
	}
	if q := r.URL.Query().Get("q"); q != "" {
		grid.Search(q)
	}

	filtered := grid.Filtered()
	json.NewEncoder(w).Encode(protocol.Response{Result: map[string]any{
		"items":      filtered,
		"vocabulary": grid.Vocabulary(),
		"empty":      len(filtered) == 0,
		"eager":      grid.Eager(),
	}})
}

// handleComments serves an item's comment thread:
// GET/POST /api/comments/{itemID}
func (h *HTTPEndpoint) handleComments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	itemID := strings.TrimPrefix(r.URL.Path, "/api/comments/")
	if itemID == "" {
		h.writeError(w, "not-found", "Missing item ID", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		thread, err := h.server.comments.List(itemID)
		if err != nil {
			h.writeError(w, "internal", err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(protocol.Response{Result: thread})

	case http.MethodPost:
		var body struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeError(w, "bad-request", "Invalid JSON", http.StatusBadRequest)
			return
		}
		c, err := h.server.comments.Append(itemID, body.Name, body.Message)
		if err != nil {
			h.writeError(w, "bad-request", err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(protocol.Response{Result: c})

	default:
		h.writeError(w, "method-not-allowed", "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeError writes an error response with a one-word code.
func (h *HTTPEndpoint) writeError(w http.ResponseWriter, code, description string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(protocol.Response{Error: description, Result: protocol.ErrorMessage{
		Code:        code,
		Description: description,
	}})
}

// writeEditError maps an editor error to a response, preserving its code.
func (h *HTTPEndpoint) writeEditError(w http.ResponseWriter, err error) {
	var editErr *editor.EditError
	if errors.As(err, &editErr) {
		status := http.StatusBadRequest
		switch editErr.Code {
		case editor.CodePathNotFound:
			status = http.StatusNotFound
		case editor.CodeValidation:
			status = http.StatusUnprocessableEntity
		case editor.CodePersistence:
			status = http.StatusBadGateway
		}
		h.writeError(w, string(editErr.Code), editErr.Reason, status)
		return
	}
	h.writeError(w, "internal", err.Error(), http.StatusInternalServerError)
}

// recordKind names the collection a target path roots in, e.g.
// "photos.2" -> "photos". Used to select validation rules.
func recordKind(p path.Path) string {
	for _, seg := range p.Segments {
		if name, ok := seg.GetField(); ok {
			return name
		}
	}
	return ""
}

// unmarshalData decodes a message payload.
func unmarshalData(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
