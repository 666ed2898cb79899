// Package websocket pushes mentorship events to connected users.
package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
	"github.com/mentorlink/go-mentorship-backend/pkg/metrics"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// client is one websocket connection of a user
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan domain.Event

	done      chan struct{}
	closeOnce sync.Once
}

// Hub tracks the open connections of every user and fans events out to them.
// A user may hold several connections at once.
type Hub struct {
	metrics  *metrics.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader

	sendBuffer   int
	pingInterval time.Duration
	pongWait     time.Duration

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	closed  bool

	wg sync.WaitGroup
}

// NewHub creates a Hub. Origins listed in allowedOrigins may connect from a
// browser; an empty list or "*" allows any origin. m may be nil.
func NewHub(cfg config.NotificationsConfig, allowedOrigins []string, m *metrics.Metrics, logger *zap.Logger) *Hub {
	cfg.SetDefaults()
	ping := time.Duration(cfg.PingIntervalSeconds) * time.Second

	return &Hub{
		metrics: m,
		logger:  logger.Named("notifications"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		sendBuffer:   cfg.SendBuffer,
		pingInterval: ping,
		pongWait:     ping * 10 / 9,
		clients:      make(map[string]map[*client]struct{}),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}

// ServeWS upgrades an authenticated request. It must run behind the auth middleware.
func (h *Hub) ServeWS(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	h.HandleConnection(c.Writer, c.Request, userID)
}

// HandleConnection upgrades the request and serves events for userID until
// the client goes away or the hub is closed.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID string) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "notifications unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.Debug("Failed to upgrade connection", zap.Error(err))
		return
	}

	c := h.newClient(conn, userID)
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	h.wg.Add(2)
	go c.writePump()
	go c.readPump()
}

func (h *Hub) newClient(conn *websocket.Conn, userID string) *client {
	return &client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan domain.Event, h.sendBuffer),
		done:   make(chan struct{}),
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
	h.metrics.ConnectionOpened()
	h.logger.Debug("Client connected", zap.String("user_id", c.userID), zap.Int("connections", len(conns)))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	h.metrics.ConnectionClosed()
	h.logger.Debug("Client disconnected", zap.String("user_id", c.userID))
}

// Notify queues event on every connection of userID. It never blocks: a
// connection whose queue is full is closed and the event is dropped for it.
func (h *Hub) Notify(userID string, event domain.Event) {
	var slow []*client

	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- event:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.metrics.NotificationDropped()
		h.logger.Warn("Dropping slow notification client",
			zap.String("user_id", userID),
			zap.String("event", string(event.Type)),
		)
		c.close()
	}
}

// Connections returns the number of open connections of userID
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client and waits for their goroutines to exit.
// Later connection attempts are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, conns := range h.clients {
		for c := range conns {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
	h.wg.Wait()
}

// close detaches the client and tells writePump to hang up.
// It is safe to call from any goroutine, any number of times.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.remove(c)
	})
}

// readPump consumes control frames. Clients are not expected to send data.
// It returns once writePump has closed the connection.
func (c *client) readPump() {
	defer c.hub.wg.Done()
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("Unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only writer of the connection
func (c *client) writePump() {
	defer c.hub.wg.Done()
	defer func() { _ = c.conn.Close() }()
	defer c.close()

	ticker := time.NewTicker(c.hub.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}
