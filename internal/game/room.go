package game

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wombocombo/game-server/internal/logging"
	"github.com/wombocombo/game-server/internal/protocol"
)

// RoomState is the lifecycle phase of a room.
type RoomState string

const (
	StateWaiting  RoomState = "waiting"
	StatePlaying  RoomState = "playing"
	StateFinished RoomState = "finished"
)

var (
	ErrRoomFull        = errors.New("game: room is full")
	ErrRoomFinished    = errors.New("game: room is finished")
	ErrDuplicatePlayer = errors.New("game: player already in room")
)

// MaxChatRunes caps a single chat message.
const MaxChatRunes = 200

// spawnPositions are cycled through as players enter a running game.
var spawnPositions = [4][2]float64{
	{200, GroundY},
	{400, GroundY},
	{600, GroundY},
	{800, GroundY},
}

// Sender delivers one outbound frame to one player's connection. The frame is
// a protocol struct; delivery is best effort and must not block.
type Sender func(playerID string, frame any)

// Room is a single game session. The insertion-order slice shadows the player
// map so snapshots and spawn assignment are deterministic.
type Room struct {
	id         string
	state      RoomState
	players    map[string]*Player
	order      []string
	tick       int64
	nextSpawn  int
	maxPlayers int
	send       Sender
}

// NewRoom creates a room in the WAITING state.
func NewRoom(id string, maxPlayers int) *Room {
	return &Room{
		id:         id,
		state:      StateWaiting,
		players:    make(map[string]*Player),
		maxPlayers: maxPlayers,
	}
}

func (r *Room) ID() string       { return r.id }
func (r *Room) State() RoomState { return r.state }
func (r *Room) Tick() int64      { return r.tick }
func (r *Room) Len() int         { return len(r.players) }
func (r *Room) IsEmpty() bool    { return len(r.players) == 0 }
func (r *Room) IsFull() bool     { return len(r.players) >= r.maxPlayers }
func (r *Room) MaxPlayers() int  { return r.maxPlayers }

// Player returns a member by id.
func (r *Room) Player(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// SetSender (re)binds the outbound dispatcher. Rebound on every join so the
// room always delivers through the live gateway.
func (r *Room) SetSender(send Sender) {
	r.send = send
}

// AddPlayer admits a player. In a running game the newcomer is spawned
// immediately at the next spawn point; no game_start is re-broadcast.
func (r *Room) AddPlayer(p *Player) error {
	if r.state == StateFinished {
		return ErrRoomFinished
	}
	if r.IsFull() {
		return ErrRoomFull
	}
	if _, exists := r.players[p.ID]; exists {
		return ErrDuplicatePlayer
	}

	r.players[p.ID] = p
	r.order = append(r.order, p.ID)

	if r.state == StatePlaying {
		pos := spawnPositions[r.nextSpawn%len(spawnPositions)]
		p.Spawn(pos[0], pos[1])
		r.nextSpawn++
	}
	return nil
}

// RemovePlayer drops a member. An emptied room becomes FINISHED, which makes
// it eligible for the registry sweep.
func (r *Room) RemovePlayer(id string) bool {
	if !r.Displace(id) {
		return false
	}
	if len(r.players) == 0 {
		r.state = StateFinished
	}
	return true
}

// Displace removes a player as part of a reconnect takeover. Unlike
// RemovePlayer it never finishes the room: the same identity is re-admitted
// immediately after, so a momentarily empty room must stay joinable.
func (r *Room) Displace(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// SetReady updates a lobby ready flag and broadcasts the change. The game
// auto-starts only from here; a room that reaches the start condition by a
// not-ready player leaving stays in the lobby.
func (r *Room) SetReady(id string, ready bool) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	p.Ready = ready
	r.Broadcast(protocol.NewPlayerReadyState(id, ready))

	if r.state == StateWaiting && len(r.players) >= 2 && r.allReady() {
		r.startGame()
	}
}

func (r *Room) allReady() bool {
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// startGame transitions WAITING -> PLAYING, spawns everyone in join order,
// and announces the round.
func (r *Room) startGame() {
	r.state = StatePlaying
	r.tick = 0
	r.nextSpawn = 0

	spawns := make([]protocol.SpawnPoint, 0, len(r.order))
	for _, id := range r.order {
		pos := spawnPositions[r.nextSpawn%len(spawnPositions)]
		r.players[id].Spawn(pos[0], pos[1])
		r.nextSpawn++
		spawns = append(spawns, protocol.SpawnPoint{PlayerID: id, X: pos[0], Y: pos[1]})
	}

	logging.Info(context.Background(), "game started",
		zap.String("room_id", r.id),
		zap.Int("players", len(r.players)))

	r.Broadcast(protocol.GameStartFrame{
		Type:        protocol.TypeGameStart,
		Round:       1,
		MapData:     protocol.MapData{Width: MapWidth, Height: MapHeight, GroundY: GroundY},
		SpawnPoints: spawns,
	})
}

// HandleChat relays a chat line to the whole room, truncated to the cap.
// Empty messages are rejected upstream by the codec.
func (r *Room) HandleChat(id, text string) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	r.Broadcast(protocol.NewChat(id, p.Name, protocol.TruncateChat(text, MaxChatRunes)))
}

// QueueInput stores a player's latest input frame for the next tick.
func (r *Room) QueueInput(id string, tick int64, actions []string) {
	if p, ok := r.players[id]; ok {
		p.QueueInput(tick, actions)
	}
}

// Update advances the simulation by one fixed step and broadcasts the
// resulting snapshot. No-op outside PLAYING.
func (r *Room) Update(dt float64) {
	if r.state != StatePlaying {
		return
	}
	r.tick++
	for _, id := range r.order {
		r.players[id].Step(dt)
	}
	r.Broadcast(r.GameState())
}

// Broadcast sends a frame to every current member.
func (r *Room) Broadcast(frame any) {
	for _, id := range r.order {
		r.send(id, frame)
	}
}

// BroadcastExcept sends a frame to everyone but one member.
func (r *Room) BroadcastExcept(exceptID string, frame any) {
	for _, id := range r.order {
		if id != exceptID {
			r.send(id, frame)
		}
	}
}

// SendTo sends a frame to a single member.
func (r *Room) SendTo(id string, frame any) {
	if _, ok := r.players[id]; ok {
		r.send(id, frame)
	}
}

// LobbyState builds the full lobby snapshot.
func (r *Room) LobbyState() protocol.LobbyStateFrame {
	players := make([]protocol.LobbyPlayer, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		players = append(players, protocol.LobbyPlayer{
			ID:          p.ID,
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Ready:       p.Ready,
		})
	}
	return protocol.LobbyStateFrame{
		Type:       protocol.TypeLobbyState,
		RoomID:     r.id,
		State:      string(r.state),
		MaxPlayers: r.maxPlayers,
		Players:    players,
	}
}

// GameState builds the per-tick world snapshot. Spatial values are rounded to
// one decimal so the wire format is stable.
func (r *Room) GameState() protocol.GameStateFrame {
	players := make([]protocol.GamePlayer, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		players = append(players, protocol.GamePlayer{
			ID:     p.ID,
			X:      round1(p.X),
			Y:      round1(p.Y),
			VX:     round1(p.VX),
			VY:     round1(p.VY),
			Health: p.Health,
			State:  p.State,
			Facing: p.Facing,
		})
	}
	return protocol.NewGameState(r.tick, players)
}
