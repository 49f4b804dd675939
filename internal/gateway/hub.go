// Package gateway owns the network edge: WebSocket admission, the connection
// registry, inbound dispatch, and the tick loop. A single mutex serializes
// every mutation of rooms, the room registry, and the connection map, so the
// game package runs as if driven by one event loop.
package gateway

import (
	"context"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wombocombo/game-server/internal/auth"
	"github.com/wombocombo/game-server/internal/game"
	"github.com/wombocombo/game-server/internal/logging"
	"github.com/wombocombo/game-server/internal/metrics"
	"github.com/wombocombo/game-server/internal/protocol"
	"github.com/wombocombo/game-server/internal/ratelimit"
)

// connKey identifies a connection. At most one open connection exists per key.
type connKey struct {
	roomID   string
	playerID string
}

// Hub coordinates all rooms and live connections.
type Hub struct {
	mu       sync.Mutex
	registry *game.Registry
	conns    map[connKey]*conn

	// serverTick counts timer firings since boot, reported in /info and in
	// the connected frame.
	serverTick int64

	tickRate int
	verifier *auth.Verifier // nil in dev mode
	limiter  *ratelimit.Limiter
	upgrader websocket.Upgrader
}

// NewHub creates a hub. verifier may be nil, which enables dev mode admission
// with random ephemeral player ids.
func NewHub(registry *game.Registry, tickRate int, verifier *auth.Verifier, limiter *ratelimit.Limiter) *Hub {
	return &Hub{
		registry: registry,
		conns:    make(map[connKey]*conn),
		tickRate: tickRate,
		verifier: verifier,
		limiter:  limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are game builds, not browsers; origin is not enforced.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// DevMode reports whether admission runs without token verification.
func (h *Hub) DevMode() bool {
	return h.verifier == nil
}

// ServeWs runs the admission pipeline and upgrades qualifying requests.
func (h *Hub) ServeWs(c *gin.Context) {
	roomID := c.Param("roomCode")
	if roomID == "" {
		metrics.AdmissionRejects.WithLabelValues("missing_room_code").Inc()
		c.String(http.StatusBadRequest, "Missing room code in path")
		return
	}

	if !h.limiter.CheckWebSocket(c) {
		return
	}

	playerID, playerName, ok := h.admitIdentity(c)
	if !ok {
		return
	}

	h.mu.Lock()
	room, err := h.registry.GetOrCreate(roomID)
	if err != nil {
		h.mu.Unlock()
		metrics.AdmissionRejects.WithLabelValues("max_rooms").Inc()
		c.String(http.StatusServiceUnavailable, "Server at max room capacity")
		return
	}

	// Reconnect: the new socket displaces the old one. The old socket is
	// tombstoned so its close handler does nothing, then force-closed.
	if _, exists := room.Player(playerID); exists {
		key := connKey{roomID: roomID, playerID: playerID}
		if prior, ok := h.conns[key]; ok {
			prior.tombstoned = true
			delete(h.conns, key)
			prior.close(true)
		}
		room.Displace(playerID)
		logging.Info(c.Request.Context(), "reconnect displaced previous connection",
			zap.String("room_id", roomID), zap.String("player_id", playerID))
	}

	if room.IsFull() {
		h.mu.Unlock()
		metrics.AdmissionRejects.WithLabelValues("room_full").Inc()
		c.String(http.StatusForbidden, "Room is full")
		return
	}
	if room.State() == game.StateFinished {
		h.mu.Unlock()
		metrics.AdmissionRejects.WithLabelValues("room_finished").Inc()
		c.String(http.StatusForbidden, "Room is finished")
		return
	}
	h.mu.Unlock()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	h.handleOpen(ws, roomID, playerID, playerName)
}

// admitIdentity resolves the player identity from the token, or mints an
// ephemeral one in dev mode. On failure it writes the 401 response.
func (h *Hub) admitIdentity(c *gin.Context) (playerID, playerName string, ok bool) {
	if h.verifier == nil {
		name := c.Query("name")
		if name == "" {
			name = "Player"
		}
		return randomPlayerID(), name, true
	}

	claims, err := h.verifier.Verify(c.Query("token"))
	if err != nil {
		metrics.AdmissionRejects.WithLabelValues("invalid_token").Inc()
		c.String(http.StatusUnauthorized, "Invalid or expired token")
		return "", "", false
	}
	name := claims.Username
	if name == "" {
		name = "Player"
	}
	return claims.Sub, name, true
}

// handleOpen runs the post-upgrade join sequence: register the handle, bind
// the room's dispatcher, insert the player, and emit the three opening frames
// in order.
func (h *Hub) handleOpen(ws *websocket.Conn, roomID, playerID, playerName string) {
	cn := newConn(h, ws, roomID, playerID, playerName)
	metrics.ActiveConnections.Inc()
	go cn.writePump()

	h.mu.Lock()
	room, ok := h.registry.Get(roomID)
	if !ok {
		// The room was swept between upgrade and open.
		cn.tombstoned = true
		h.mu.Unlock()
		cn.enqueue(mustMarshal(protocol.NewError(500, "Room disappeared")))
		cn.close(false)
		metrics.ActiveConnections.Dec()
		return
	}

	h.conns[connKey{roomID: roomID, playerID: playerID}] = cn
	room.SetSender(h.roomSender(roomID))

	player := game.NewPlayer(playerID, playerName)
	if err := room.AddPlayer(player); err != nil {
		cn.tombstoned = true
		delete(h.conns, connKey{roomID: roomID, playerID: playerID})
		h.mu.Unlock()
		cn.enqueue(mustMarshal(protocol.NewError(403, "Could not join room")))
		cn.close(false)
		metrics.ActiveConnections.Dec()
		return
	}

	cn.enqueue(mustMarshal(protocol.NewConnected(playerID, h.serverTick)))
	room.BroadcastExcept(playerID, protocol.NewPlayerJoined(playerID, playerName))
	room.Broadcast(room.LobbyState())

	h.refreshGauges()
	h.mu.Unlock()

	logging.Info(context.Background(), "player joined",
		zap.String("room_id", roomID),
		zap.String("player_id", playerID),
		zap.String("player_name", playerName))

	go cn.readPump()
}

// roomSender binds a room's outbound dispatch to the connection map. Called
// with the hub lock held, as is the returned sender.
func (h *Hub) roomSender(roomID string) game.Sender {
	return func(playerID string, frame any) {
		if cn, ok := h.conns[connKey{roomID: roomID, playerID: playerID}]; ok {
			cn.enqueue(mustMarshal(frame))
		}
	}
}

// handleClose runs the departure sequence for a closed connection. Tombstoned
// connections were already cleaned up by their displacer.
func (h *Hub) handleClose(cn *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cn.tombstoned {
		return
	}
	cn.tombstoned = true
	delete(h.conns, connKey{roomID: cn.roomID, playerID: cn.playerID})

	room, ok := h.registry.Get(cn.roomID)
	if !ok {
		return
	}
	if room.RemovePlayer(cn.playerID) {
		room.Broadcast(protocol.NewPlayerLeft(cn.playerID))
		if !room.IsEmpty() {
			room.Broadcast(room.LobbyState())
		}
	}
	if n := h.registry.Sweep(); n > 0 {
		logging.Debug(context.Background(), "swept finished rooms", zap.Int("count", n))
	}
	h.refreshGauges()

	logging.Info(context.Background(), "player left",
		zap.String("room_id", cn.roomID),
		zap.String("player_id", cn.playerID))
}

// RunTicker drives the simulation until ctx is cancelled. Each firing updates
// every playing room once with the nominal dt; missed firings coalesce.
func (h *Hub) RunTicker(ctx context.Context) {
	interval := time.Duration(1000/h.tickRate) * time.Millisecond
	dt := 1.0 / float64(h.tickRate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info(ctx, "tick loop started",
		zap.Int("tick_rate", h.tickRate),
		zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			h.mu.Lock()
			h.serverTick++
			for _, room := range h.registry.Rooms() {
				room.Update(dt)
			}
			h.mu.Unlock()
			metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}

// Shutdown gracefully closes every live connection, letting queued frames
// drain.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for _, cn := range h.conns {
		conns = append(conns, cn)
	}
	h.mu.Unlock()

	for _, cn := range conns {
		cn.close(false)
	}
	return nil
}

// Stats snapshots the counters reported by /info.
func (h *Hub) Stats() (roomsActive, roomsPlaying, playersOnline int, tick int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	roomsActive, roomsPlaying, playersOnline = h.registry.Stats()
	return roomsActive, roomsPlaying, playersOnline, h.serverTick
}

func (h *Hub) refreshGauges() {
	active, playing, players := h.registry.Stats()
	metrics.ActiveRooms.Set(float64(active))
	metrics.PlayingRooms.Set(float64(playing))
	metrics.PlayersOnline.Set(float64(players))
}

const playerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomPlayerID mints an ephemeral 8-char dev mode identity.
func randomPlayerID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = playerIDAlphabet[rand.IntN(len(playerIDAlphabet))]
	}
	return string(b)
}
