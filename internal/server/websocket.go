// Package server implements the folio server's HTTP and live channel
// surface.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/folio-sh/folio/internal/config"
	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/gallery"
	"github.com/folio-sh/folio/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-origin enforcement is the proxy's job
	},
}

// wsConn is one live channel connection: the socket, its outgoing queue,
// and the per-connection gallery grids whose reveal state it reports into.
type wsConn struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	grids  map[string]*gallery.Grid
	mu     sync.Mutex
	closed bool
}

// enqueue queues data for the writer. Reports false when the queue is
// full; a closed connection swallows the message, since its teardown is
// already underway.
func (c *wsConn) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// teardown closes the queue and the socket exactly once. The closed flag
// keeps concurrent enqueues off the closed channel.
func (c *wsConn) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}

// WebSocketEndpoint handles live channel connections.
type WebSocketEndpoint struct {
	config      *config.Config
	connections map[string]*wsConn
	mu          sync.RWMutex
}

// NewWebSocketEndpoint creates a new live channel endpoint.
func NewWebSocketEndpoint(cfg *config.Config) *WebSocketEndpoint {
	return &WebSocketEndpoint{
		config:      cfg,
		connections: make(map[string]*wsConn),
	}
}

// Log logs a message via the config.
func (ws *WebSocketEndpoint) Log(level int, format string, args ...interface{}) {
	ws.config.Log(level, format, args...)
}

// HandleWebSocket upgrades a request and runs the connection until it
// closes. root is the content tree the connection's grids mount over.
func (ws *WebSocketEndpoint) HandleWebSocket(w http.ResponseWriter, r *http.Request, root content.Node) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.Log(0, "WebSocket upgrade failed: %v", err)
		return
	}

	c := &wsConn{
		id:    generateConnectionID(),
		conn:  conn,
		send:  make(chan []byte, 64),
		grids: buildGrids(root, ws.config.Content.EagerWindow),
	}

	ws.mu.Lock()
	ws.connections[c.id] = c
	ws.mu.Unlock()

	ws.Log(1, "WebSocket connected: conn=%s", c.id)

	go c.writePump()
	ws.readPump(c)
}

// readPump processes incoming messages until the connection closes.
func (ws *WebSocketEndpoint) readPump(c *wsConn) {
	defer ws.disconnect(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		msgs, _, err := protocol.ParseMessages(data)
		if err != nil {
			ws.Log(2, "Bad live channel payload from %s: %v", c.id, err)
			continue
		}
		for _, msg := range msgs {
			ws.handleMessage(c, msg)
		}
	}
}

// handleMessage dispatches one live channel message. Only reveal
// reporting comes in on this channel; editing goes through /api.
func (ws *WebSocketEndpoint) handleMessage(c *wsConn, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgReveal:
		var rm protocol.RevealMessage
		if err := unmarshalData(msg.Data, &rm); err != nil {
			return
		}
		if g := c.gridFor(rm.ItemID); g != nil {
			g.RequestReveal(rm.ItemID)
			ws.Log(3, "Reveal requested: conn=%s item=%s", c.id, rm.ItemID)
		}
	case protocol.MsgRevealDone:
		var rm protocol.RevealMessage
		if err := unmarshalData(msg.Data, &rm); err != nil {
			return
		}
		// A failed fetch still counts as done; the item renders broken
		// rather than retrying.
		if g := c.gridFor(rm.ItemID); g != nil {
			g.FinishReveal(rm.ItemID, rm.OK)
		}
	}
}

// gridFor finds the connection's grid containing an item.
func (c *wsConn) gridFor(itemID string) *gallery.Grid {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.grids {
		if g.Has(itemID) {
			return g
		}
	}
	return nil
}

// setRoot swaps the grids after a content change. Reveal state resets with
// the new collection; grid instances do not outlive their content.
func (c *wsConn) setRoot(root content.Node, eagerWindow int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grids = buildGrids(root, eagerWindow)
}

// writePump sends queued messages until the queue closes.
func (c *wsConn) writePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// disconnect removes a connection and releases its socket.
func (ws *WebSocketEndpoint) disconnect(c *wsConn) {
	ws.mu.Lock()
	if _, ok := ws.connections[c.id]; !ok {
		ws.mu.Unlock()
		return
	}
	delete(ws.connections, c.id)
	ws.mu.Unlock()

	c.teardown()
	ws.Log(1, "WebSocket disconnected: conn=%s", c.id)
}

// Broadcast queues a message for every live connection. Slow consumers
// are dropped rather than blocking the commit path.
func (ws *WebSocketEndpoint) Broadcast(msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		ws.Log(0, "Broadcast encode failed: %v", err)
		return
	}

	ws.mu.RLock()
	conns := make([]*wsConn, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(data) {
			go ws.disconnect(c)
		}
	}
}

// UpdateRoot rebuilds every connection's grids over a new tree.
func (ws *WebSocketEndpoint) UpdateRoot(root content.Node) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	for _, c := range ws.connections {
		c.setRoot(root, ws.config.Content.EagerWindow)
	}
}

// ConnectionCount returns the number of live connections.
func (ws *WebSocketEndpoint) ConnectionCount() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.connections)
}

// buildGrids mounts one grid per top-level list in the content tree.
func buildGrids(root content.Node, eagerWindow int) map[string]*gallery.Grid {
	grids := make(map[string]*gallery.Grid)
	rec, ok := root.(content.Record)
	if !ok {
		return grids
	}
	for name, node := range rec {
		list, ok := node.(content.List)
		if !ok {
			continue
		}
		grids[name] = gallery.NewGrid(gallery.CollectionFromList(list), eagerWindow)
	}
	return grids
}

// generateConnectionID creates a unique connection identifier.
func generateConnectionID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
