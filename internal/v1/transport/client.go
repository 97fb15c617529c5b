package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/duskward/relay/internal/v1/logging"
	"github.com/duskward/relay/internal/v1/metrics"
	"github.com/duskward/relay/internal/v1/relay"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// wsConnection is the subset of *websocket.Conn the Client depends on,
// narrowed so a fake can stand in for tests without a real socket.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
}

// Client owns one player's websocket connection: the read/write pumps,
// and the outboundBuilder that turns relay.UpdateBuilder calls into
// frames on the pumps' channels.
type Client struct {
	conn   wsConnection
	hub    *Hub
	id     relay.PlayerID
	outbox *outboundBuilder

	send         chan []byte
	prioritySend chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn wsConnection, hub *Hub, id relay.PlayerID) *Client {
	c := &Client{
		conn:         conn,
		hub:          hub,
		id:           id,
		send:         make(chan []byte, sendBufferSize),
		prioritySend: make(chan []byte, sendBufferSize),
		closed:       make(chan struct{}),
	}
	c.outbox = newOutboundBuilder(c)
	return c
}

// deliver enqueues an encoded frame onto the priority or normal
// channel, dropping it (with a metric) if that channel is full rather
// than blocking the caller's goroutine.
func (c *Client) deliver(frame Frame, priority bool) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logEncodeError(frame.Event, err)
		return
	}
	ch := c.send
	status := "normal"
	if priority {
		ch = c.prioritySend
		status = "priority"
	}
	select {
	case ch <- data:
	case <-c.closed:
	default:
		metrics.WebSocketEvents.WithLabelValues("send_dropped", status).Inc()
	}
}

func (c *Client) logEncodeError(event string, err error) {
	metrics.WebSocketEvents.WithLabelValues("encode_error", "error").Inc()
	logging.GetLogger().Sugar().Warnw("failed to encode outbound frame", "event", event, "playerId", c.id, "error", err)
}

// readPump decodes inbound frames and routes them until the
// connection errors or closes, then tells the Hub to run the
// disconnect path.
func (c *Client) readPump() {
	defer func() {
		c.hub.handleClientGone(c.id)
		c.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			metrics.WebSocketEvents.WithLabelValues("read_error", "closed").Inc()
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			metrics.WebSocketEvents.WithLabelValues("decode_error", "error").Inc()
			continue
		}

		msg, ok, err := decodeInbound(frame)
		if err != nil {
			metrics.WebSocketEvents.WithLabelValues("decode_error", "error").Inc()
			continue
		}
		if !ok {
			continue
		}

		ctx := context.Background()
		if err := c.hub.manager.Route(ctx, c.id, msg); err != nil {
			logging.GetLogger().Sugar().Debugw("route failed", "playerId", c.id, "event", frame.Event, "error", err)
		}
	}
}

// writePump flushes prioritySend ahead of send on every iteration, so
// a login/disconnect/scene-replay frame never waits behind a backlog
// of ordinary position updates.
func (c *Client) writePump() {
	defer c.Close()
	for {
		select {
		case data, ok := <-c.prioritySend:
			if !ok {
				return
			}
			if !c.write(data) {
				return
			}
			continue
		default:
		}

		select {
		case data, ok := <-c.prioritySend:
			if !ok {
				return
			}
			if !c.write(data) {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if !c.write(data) {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Client) write(data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		metrics.WebSocketEvents.WithLabelValues("write_error", "error").Inc()
		return false
	}
	return true
}

// Close shuts the connection down, safe to call more than once and
// from more than one goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}
