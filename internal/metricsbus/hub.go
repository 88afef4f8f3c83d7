// Package metricsbus broadcasts periodic cache statistics snapshots to
// connected WebSocket clients, following the register/unregister/
// broadcast-channel hub pattern used by perkeep's search package
// (pkg/search/websocket.go) but built on gorilla/websocket rather than a
// hand-rolled frame codec.
package metricsbus

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // local dev/demo tool, not internet-facing
}

// Snapshot is the JSON payload broadcast to every connected client and
// served plainly from /api/stats.
type Snapshot struct {
	Mode       string      `json:"mode"`
	Primary    cache.Stats `json:"primary"`
	Comparison *cache.Stats `json:"comparison,omitempty"`
	Timestamp  int64       `json:"timestamp_unix_ms"`
}

// Hub owns the set of connected WebSocket clients and periodically polls
// a CacheLayer, broadcasting a Snapshot to all of them.
type Hub struct {
	layer *cache.LayerPointer
	log   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Snapshot

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

// NewHub constructs a Hub over layer. Call Run in its own goroutine.
func NewHub(layer *cache.LayerPointer, log *zap.Logger) *Hub {
	return &Hub{
		layer:      layer,
		log:        log,
		clients:    make(map[*websocket.Conn]chan Snapshot),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run drives the hub's registration bookkeeping and periodic broadcast
// loop until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			h.mu.Lock()
			for conn, ch := range h.clients {
				close(ch)
				conn.Close()
			}
			h.clients = nil
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			ch := make(chan Snapshot, 4)
			h.clients[conn] = ch
			h.mu.Unlock()
			go h.writeLoop(conn, ch)

		case conn := <-h.unregister:
			h.mu.Lock()
			if ch, ok := h.clients[conn]; ok {
				close(ch)
				delete(h.clients, conn)
			}
			h.mu.Unlock()

		case <-ticker.C:
			snap := h.snapshot()
			h.mu.Lock()
			for _, ch := range h.clients {
				select {
				case ch <- snap:
				default: // slow client: drop this tick rather than block the hub
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) snapshot() Snapshot {
	layer := h.layer.Load()
	snap := Snapshot{
		Mode:      layer.Mode().String(),
		Primary:   layer.PrimaryStats(),
		Timestamp: time.Now().UnixMilli(),
	}
	if cmp, ok := layer.ComparisonStats(); ok {
		snap.Comparison = &cmp
	}
	return snap
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch chan Snapshot) {
	defer conn.Close()
	for snap := range ch {
		if err := conn.WriteJSON(snap); err != nil {
			h.log.Debug("websocket write failed, dropping client", zap.Error(err))
			h.unregister <- conn
			return
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and
// registers it with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.register <- conn
}

// ServeStatsJSON handles GET /api/stats with a single plain-JSON snapshot.
func (h *Hub) ServeStatsJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.snapshot())
}
