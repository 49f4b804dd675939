package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wombocombo/game-server/internal/logging"
	"github.com/wombocombo/game-server/internal/metrics"
)

const (
	// maxInboundBytes caps a single inbound frame.
	maxInboundBytes = 16 * 1024
	// maxQueuedBytes caps outbound backpressure; overflow drops the connection.
	maxQueuedBytes = 64 * 1024
	// idleTimeout closes connections that stop sending frames.
	idleTimeout = 120 * time.Second

	writeWait = 10 * time.Second

	// sendQueueLen must be large enough that the byte budget, not the queue
	// length, is the binding backpressure limit even for minimum-size frames
	// (a pong is ~15 bytes; 64 KiB / 15 < 4096).
	sendQueueLen = 4096
)

// conn is one admitted WebSocket connection. tombstoned is guarded by the hub
// lock; the send queue accounting by the conn's own mutex.
type conn struct {
	hub        *Hub
	ws         *websocket.Conn
	roomID     string
	playerID   string
	playerName string

	// tombstoned means close-time cleanup already happened (or must not
	// happen, after a reconnect displacement).
	tombstoned bool

	mu        sync.Mutex
	closed    bool
	queued    int
	send      chan []byte
	closeOnce sync.Once
}

func newConn(hub *Hub, ws *websocket.Conn, roomID, playerID, playerName string) *conn {
	return &conn{
		hub:        hub,
		ws:         ws,
		roomID:     roomID,
		playerID:   playerID,
		playerName: playerName,
		send:       make(chan []byte, sendQueueLen),
	}
}

// enqueue queues one serialized frame for delivery. Exceeding the
// backpressure budget, or a full queue, force-closes the connection; any
// frames still in flight are dropped.
func (c *conn) enqueue(data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.queued+len(data) > maxQueuedBytes {
		c.closed = true
		c.mu.Unlock()
		logging.Warn(context.Background(), "outbound backpressure exceeded, dropping connection",
			zap.String("player_id", c.playerID), zap.String("room_id", c.roomID))
		c.shutdown(true)
		return
	}

	select {
	case c.send <- data:
		c.queued += len(data)
		c.mu.Unlock()
	default:
		c.closed = true
		c.mu.Unlock()
		c.shutdown(true)
	}
}

// close stops the connection. Graceful close drains the queue and sends a
// close frame; force close tears the socket down immediately.
func (c *conn) close(force bool) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.shutdown(force)
}

func (c *conn) shutdown(force bool) {
	c.closeOnce.Do(func() { close(c.send) })
	if force {
		_ = c.ws.Close()
	}
}

// readPump processes inbound frames until the connection dies, then runs the
// departure sequence.
func (c *conn) readPump() {
	defer func() {
		c.hub.handleClose(c)
		c.close(true)
		metrics.ActiveConnections.Dec()
	}()

	c.ws.SetReadLimit(maxInboundBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(idleTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(idleTimeout))
		c.hub.handleMessage(c, data)
	}
}

// writePump serializes all writes to the socket. Closing the send channel
// makes it drain remaining frames, emit a close frame, and shut the socket.
func (c *conn) writePump() {
	defer c.ws.Close()

	for data := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
		c.mu.Lock()
		c.queued -= len(data)
		c.mu.Unlock()
	}
	_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

// mustMarshal serializes an outbound frame. Frames are plain structs of
// primitives, so failure is a programming error.
func mustMarshal(frame any) []byte {
	data, err := json.Marshal(frame)
	if err != nil {
		logging.Error(context.Background(), "failed to marshal outbound frame", zap.Error(err))
		return []byte(`{"type":"error","code":500,"message":"Internal error"}`)
	}
	return data
}
