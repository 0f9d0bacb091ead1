package websocket

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/discovery"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer
	maxMessageSize = 512
	// Buffered events per client
	sendBuffer = 256
)

// HubConfig contains configuration for the WebSocket hub
type HubConfig struct {
	// BroadcastProgress also delivers events of scans that named no client
	// to every connected client
	BroadcastProgress    bool
	BroadcastConnections bool
	AllowedOrigins       []string
	Username             string
	Password             string
}

// Hub maintains the set of active clients and routes scan events to them
type Hub struct {
	// Registered clients, grouped by client id
	clients map[string]map[*Client]struct{}

	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	config   *HubConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	stats HubStats
}

// HubStats tracks WebSocket hub statistics
type HubStats struct {
	TotalConnections   int64
	ActiveConnections  int64
	TotalMessages      int64
	DroppedMessages    int64
	LastConnectionTime time.Time
	LastDisconnectTime time.Time
}

// NewHub creates a new WebSocket hub
func NewHub(config *HubConfig, logger *zap.Logger) *Hub {
	if config == nil {
		config = &HubConfig{}
	}

	h := &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		broadcast:  make(chan Event, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		config:     config,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run handles client registration and event delivery until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket hub")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Notify forwards a scan event to the subscribers of its client id
func (h *Hub) Notify(ev discovery.Event) {
	if ev.ClientID == "" && !h.config.BroadcastProgress {
		return
	}

	h.BroadcastEvent(Event{
		Type:      EventTypeScanProgress,
		Timestamp: ev.Timestamp,
		Data:      ev,
		ClientID:  ev.ClientID,
	})
}

// BroadcastEvent queues an event for delivery without blocking the caller
func (h *Hub) BroadcastEvent(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.mu.Lock()
		h.stats.DroppedMessages++
		h.mu.Unlock()
		h.logger.Warn("Broadcast channel full, dropping event",
			zap.String("event_type", string(event.Type)))
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.clients[client.ID]
	if !ok {
		group = make(map[*Client]struct{})
		h.clients[client.ID] = group
	}
	group[client] = struct{}{}

	h.stats.TotalConnections++
	h.stats.ActiveConnections++
	h.stats.LastConnectionTime = time.Now()

	h.logger.Info("Client connected",
		zap.String("client_id", client.ID),
		zap.String("client_ip", client.IP),
		zap.Int64("active_connections", h.stats.ActiveConnections))

	h.sendLocked(client, Event{
		Type:      EventTypeConnection,
		Timestamp: time.Now(),
		Data: ConnectionEvent{
			Action:   "connected",
			ClientID: client.ID,
			Message:  fmt.Sprintf("Client %s connected", client.ID),
		},
		ClientID: client.ID,
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.removeLocked(client) {
		h.stats.LastDisconnectTime = time.Now()
		h.logger.Info("Client disconnected",
			zap.String("client_id", client.ID),
			zap.Int64("active_connections", h.stats.ActiveConnections))

		if h.config.BroadcastConnections {
			go h.BroadcastEvent(Event{
				Type:      EventTypeConnection,
				Timestamp: time.Now(),
				Data: ConnectionEvent{
					Action:   "disconnected",
					ClientID: client.ID,
					Message:  fmt.Sprintf("Client %s disconnected", client.ID),
				},
			})
		}
	}
}

// removeLocked drops client and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(client *Client) bool {
	group, ok := h.clients[client.ID]
	if !ok {
		return false
	}
	if _, ok := group[client]; !ok {
		return false
	}

	delete(group, client)
	if len(group) == 0 {
		delete(h.clients, client.ID)
	}
	close(client.Send)
	h.stats.ActiveConnections--
	return true
}

// deliver sends event to its addressed client, or to everyone when it is
// not addressed
func (h *Hub) deliver(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if event.ClientID != "" {
		for client := range h.clients[event.ClientID] {
			h.sendLocked(client, event)
		}
		return
	}

	for _, group := range h.clients {
		for client := range group {
			h.sendLocked(client, event)
		}
	}
}

// sendLocked enqueues event for client; a client whose buffer is full is
// disconnected. h.mu must be held.
func (h *Hub) sendLocked(client *Client, event Event) {
	select {
	case client.Send <- event:
		h.stats.TotalMessages++
	default:
		h.logger.Warn("Client send channel full, closing connection",
			zap.String("client_id", client.ID))
		h.removeLocked(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, group := range h.clients {
		for client := range group {
			h.removeLocked(client)
		}
	}
}

// HandleWebSocket upgrades the request and registers the client. The
// client id comes from the client_id query parameter so scan requests
// carrying the same id are routed to this socket.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="piiscan"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if id == "" {
		id = uuid.New().String()
	}

	client := &Client{
		ID:          id,
		Conn:        conn,
		Send:        make(chan Event, sendBuffer),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.handleClientWrite(client)
	go h.handleClientRead(client)
}

// handleClientWrite handles writing messages to the client
func (h *Hub) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(event); err != nil {
				h.logger.Error("Failed to write WebSocket message",
					zap.String("client_id", client.ID),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientRead handles reading messages from the client
func (h *Hub) handleClientRead(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error",
					zap.String("client_id", client.ID),
					zap.Error(err))
			}
			return
		}

		if msg.Type == "ping" {
			h.BroadcastEvent(Event{
				Type:      EventTypePong,
				Timestamp: time.Now(),
				Data:      map[string]string{"message": "pong"},
				ClientID:  client.ID,
			})
		}
	}
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// checkOrigin accepts any origin when none are configured
func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// authorized checks basic auth when credentials are configured
func (h *Hub) authorized(r *http.Request) bool {
	if h.config.Username == "" && h.config.Password == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.config.Password)) == 1
	return userOK && passOK
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
