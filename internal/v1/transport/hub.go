package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duskward/relay/internal/v1/auth"
	"github.com/duskward/relay/internal/v1/logging"
	"github.com/duskward/relay/internal/v1/metrics"
	"github.com/duskward/relay/internal/v1/ratelimit"
	"github.com/duskward/relay/internal/v1/relay"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// rejectFlushGrace bounds how long a rejected client's connection is
// kept open after admission fails, giving writePump a chance to flush
// the priority SetLoginResponse/SetDisconnect frames before Close.
const rejectFlushGrace = 250 * time.Millisecond

// Hub implements relay.Transport over gorilla/websocket: one gin route
// that upgrades, reads a login frame, and on acceptance hands the
// connection's pumps to the shared relay.Manager for the rest of its
// lifetime.
type Hub struct {
	mu      sync.Mutex
	clients map[relay.PlayerID]*Client
	nextID  uint32

	manager *relay.Manager
	limiter *ratelimit.Limiter
	issuer  *auth.Issuer

	allowedOrigins []string

	server  *http.Server
	started bool
}

// NewHub builds a Hub. manager is attached separately via SetManager,
// since relay.NewManager itself requires a Transport — issuer may be
// nil to skip minting reconnect tokens.
func NewHub(limiter *ratelimit.Limiter, issuer *auth.Issuer, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[relay.PlayerID]*Client),
		limiter:        limiter,
		issuer:         issuer,
		allowedOrigins: allowedOrigins,
	}
}

// SetManager completes the Hub<->Manager wiring. Must be called before
// StartListening.
func (h *Hub) SetManager(m *relay.Manager) {
	h.manager = m
}

// OutboxFor implements relay.Transport.
func (h *Hub) OutboxFor(id relay.PlayerID) relay.UpdateBuilder {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return nil
	}
	return c.outbox
}

// SetDataForAllClients implements relay.Transport.
func (h *Hub) SetDataForAllClients(fn func(id relay.PlayerID, b relay.UpdateBuilder)) {
	h.mu.Lock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		fn(c.id, c.outbox)
	}
}

// IsStarted implements relay.Transport.
func (h *Hub) IsStarted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// StartListening implements relay.Transport: it builds a minimal gin
// engine exposing only the websocket upgrade route and serves it in
// the background.
func (h *Hub) StartListening(port int) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return fmt.Errorf("transport already started")
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/ws", h.ServeWs)
	h.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	h.started = true
	h.mu.Unlock()

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.GetLogger().Sugar().Errorw("websocket listener stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Stop implements relay.Transport: shuts the HTTP server down and
// closes every active connection.
func (h *Hub) Stop() error {
	h.mu.Lock()
	server := h.server
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.started = false
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ServeWs upgrades the connection, reads the client's login frame, and
// either routes it to the shared manager for the life of the
// connection or rejects it and closes after a short flush grace
// period.
func (h *Hub) ServeWs(c *gin.Context) {
	remoteAddr := c.ClientIP()

	if err := validateOrigin(c.Request, h.allowedOrigins); err != nil {
		metrics.WebSocketEvents.WithLabelValues("upgrade_error", "origin_rejected").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}

	if h.limiter != nil && !h.limiter.CheckLogin(c.Request.Context(), remoteAddr) {
		metrics.WebSocketEvents.WithLabelValues("upgrade_error", "rate_limited").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		metrics.WebSocketEvents.WithLabelValues("upgrade_error", "failed").Inc()
		return
	}

	id := relay.PlayerID(atomic.AddUint32(&h.nextID, 1))
	client := newClient(conn, h, id)

	if err := h.acceptLogin(c.Request.Context(), client, remoteAddr); err != nil {
		logging.GetLogger().Sugar().Debugw("login frame rejected", "playerId", id, "remoteAddr", remoteAddr, "error", err)
		client.Close()
		return
	}
}

// acceptLogin reads exactly one frame off the freshly-upgraded
// connection, treats it as the login bid, registers the client, and
// asks the manager to evaluate admission. On success it starts the
// read/write pumps and hands the connection over for the rest of its
// lifetime; on rejection it flushes the manager's synchronous reject
// response before closing.
func (h *Hub) acceptLogin(ctx context.Context, client *Client, remoteAddr string) error {
	client.conn.SetReadLimit(maxMessageSize)
	messageType, data, err := client.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read login frame: %w", err)
	}
	if messageType != websocket.TextMessage {
		return fmt.Errorf("login frame must be a text message")
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return fmt.Errorf("decode login frame: %w", err)
	}
	if frame.Event != eventLogin {
		return fmt.Errorf("first frame must be %q, got %q", eventLogin, frame.Event)
	}
	req, err := decodeLogin(frame.Payload)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	go client.writePump()

	accept := h.manager.OnLoginRequest(ctx, client.id, remoteAddr, req)
	metrics.WebSocketEvents.WithLabelValues("login", statusLabel(accept)).Inc()

	if !accept {
		time.AfterFunc(rejectFlushGrace, func() {
			h.removeClient(client.id)
			client.Close()
		})
		return nil
	}

	if h.issuer != nil {
		if token, err := h.issuer.Issue(strconv.Itoa(int(client.id)), req.Username); err == nil {
			frame, encErr := encodeFrame("sessionToken", sessionTokenWire{Token: token})
			if encErr == nil {
				client.deliver(frame, true)
			}
		}
	}

	metrics.IncSession()
	go client.readPump()
	return nil
}

// Kick is the admin-surface entry point for forcibly disconnecting a
// connected player: it asks the manager to notify and remove the
// session, then closes the underlying connection after the same
// rejectFlushGrace period acceptLogin uses so the disconnect frame has
// time to reach the client first.
func (h *Hub) Kick(id relay.PlayerID, reason relay.DisconnectReason) bool {
	if h.manager == nil {
		return false
	}
	if !h.manager.KickPlayer(context.Background(), id, reason) {
		return false
	}
	h.mu.Lock()
	client, ok := h.clients[id]
	h.mu.Unlock()
	if ok {
		time.AfterFunc(rejectFlushGrace, func() {
			h.removeClient(id)
			client.Close()
		})
	}
	return true
}

func (h *Hub) handleClientGone(id relay.PlayerID) {
	h.removeClient(id)
	metrics.DecSession()
	ctx := context.Background()
	if h.manager != nil {
		h.manager.OnClientDisconnect(ctx, id)
	}
}

func (h *Hub) removeClient(id relay.PlayerID) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

func statusLabel(accept bool) string {
	if accept {
		return "accepted"
	}
	return "rejected"
}

type sessionTokenWire struct {
	Token string `json:"token"`
}
