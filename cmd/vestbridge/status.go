package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// Status WebSocket: hub + per-client pumps
// ============================================================================
//
// An optional observability surface for desktop overlays and debugging UIs:
//   - "status_init" snapshot on connect (link state + per-category counters)
//   - "link_state" on every daemon link transition
//   - "event_emitted" for each event accepted by the bridge
//
// The hub fans serialized frames out to clients with per-client write pumps
// so one slow client cannot block the others; clients that cannot keep up
// are disconnected. Messages are JSON text frames: {type, ts, data}.
//
// ============================================================================

// statusSnapshot is the `data` payload of "status_init".
type statusSnapshot struct {
	LinkState  string            `json:"link_state"`
	Emitted    map[string]uint64 `json:"emitted"`
	Suppressed map[string]uint64 `json:"suppressed"`
}

// linkStateData is the `data` payload of "link_state".
type linkStateData struct {
	State string `json:"state"`
}

// statusEnvelope is the wire envelope for status frames.
type statusEnvelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

func encodeStatusFrame(typ string, data any) ([]byte, error) {
	now := time.Now()
	return json.Marshal(statusEnvelope{Type: typ, Ts: &now, Data: data})
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, 128),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		clients:    make(map[*Client]struct{}),
		sendBuf:    32,
	}
}

// Run processes hub events until ctx is canceled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("status hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("status client connected", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients first; removing while ranging would
			// mutate the map under our own iteration.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		// Closing send signals writePump to exit.
		safeCloseChan(c.send)

		h.logger.Info("status client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// BroadcastBytes enqueues a pre-serialized frame for fanout. Never blocks;
// drops the frame if the hub queue is full.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("status hub broadcast queue full, dropping frame", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte

	remoteAddr string
	logger     *slog.Logger
}

func newStatusClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	statusWriteWait  = 5 * time.Second
	statusPongWait   = 30 * time.Second
	statusPingPeriod = 20 * time.Second
)

// writePump writes frames from the send queue to the websocket. Exits on
// write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(statusPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(statusWriteWait))
			if !ok {
				// Hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Info("status writePump exiting", "remote_addr", c.remoteAddr, "error", err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(statusWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Info("status writePump exiting (ping)", "remote_addr", c.remoteAddr, "error", err)
				}
				return
			}
		}
	}
}

// readPump discards inbound messages; it exists to detect disconnects and
// service control frames, then unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(statusPongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(statusPongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, _, err := c.conn.ReadMessage(); err != nil {
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
	}
}

// ============================================================================
// StatusServer - HTTP wiring + bridge/link notifications
// ============================================================================

type StatusServer struct {
	logger *slog.Logger
	hub    *Hub
	bridge *Bridge
	link   *DaemonLink
}

// NewStatusServer wires the hub to the bridge and the link. Register the
// listeners before the bridge starts processing events.
func NewStatusServer(bridge *Bridge, link *DaemonLink, logger *slog.Logger) *StatusServer {
	s := &StatusServer{
		logger: logger,
		hub:    NewHub(logger),
		bridge: bridge,
		link:   link,
	}

	link.SetStateListener(func(state LinkState) {
		s.broadcastFrame("link_state", linkStateData{State: state.String()})
	})
	bridge.SetEmitListener(func(ev WireEvent) {
		s.broadcastFrame("event_emitted", ev)
	})

	return s
}

func (s *StatusServer) Hub() *Hub { return s.hub }

func (s *StatusServer) broadcastFrame(typ string, data any) {
	frame, err := encodeStatusFrame(typ, data)
	if err != nil {
		s.logger.Error("encode status frame failed", "type", typ, "error", err)
		return
	}
	s.hub.BroadcastBytes(frame)
}

var statusUpgrader = websocket.Upgrader{
	// Loopback-only observability endpoint; origin checks belong to any
	// future non-local deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatusWS upgrades the connection, registers the client, and sends
// the initial snapshot before broadcast frames start flowing to it.
func (s *StatusServer) handleStatusWS(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := statusUpgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("status ws upgrade failed", "error", err)
			return
		}

		c := newStatusClient(s.hub, conn, r.RemoteAddr, s.logger)

		emitted, suppressed := s.bridge.Counters()
		snap := statusSnapshot{
			LinkState:  s.link.State().String(),
			Emitted:    emitted,
			Suppressed: suppressed,
		}
		if frame, err := encodeStatusFrame("status_init", snap); err == nil {
			c.send <- frame
		}

		s.hub.register <- c

		go c.writePump(ctx)
		go c.readPump(ctx)
	}
}

// runStatusServer serves the status websocket until ctx is canceled, then
// shuts the HTTP server down gracefully.
func runStatusServer(ctx context.Context, port int, s *StatusServer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/status", s.handleStatusWS(ctx))

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}

	logger.Info("status server listening", "addr", srv.Addr, "path", "/ws/status")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
