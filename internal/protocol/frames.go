// Package protocol defines the JSON frame catalogue spoken on the WebSocket
// channel and the codec for inbound frames. Everything here is pure; frames
// are built as plain structs and serialized once at the broadcast site.
package protocol

// Outbound frame types.
const (
	TypeConnected        = "connected"
	TypeError            = "error"
	TypePong             = "pong"
	TypePlayerJoined     = "player_joined"
	TypePlayerLeft       = "player_left"
	TypePlayerReadyState = "player_ready_state"
	TypeChatMessage      = "chat_message"
	TypeLobbyState       = "lobby_state"
	TypeGameStart        = "game_start"
	TypeGameState        = "game_state"
)

// Inbound frame types.
const (
	TypePing         = "ping"
	TypePlayerReady  = "player_ready"
	TypeChatInbound  = "chat_message"
	TypePlayerInput  = "player_input"
	TypePlayerAction = "player_action"
	TypeBuyItem      = "buy_item"
)

// ErrorFrame reports a protocol-level problem to the offending connection.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewError builds a standard error frame.
func NewError(code int, message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Code: code, Message: message}
}

// ConnectedFrame is the first frame a joiner receives.
type ConnectedFrame struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id"`
	ServerTick int64  `json:"server_tick"`
}

// NewConnected builds the post-join acknowledgement.
func NewConnected(playerID string, serverTick int64) ConnectedFrame {
	return ConnectedFrame{Type: TypeConnected, PlayerID: playerID, ServerTick: serverTick}
}

// PongFrame answers a ping.
type PongFrame struct {
	Type string `json:"type"`
}

// NewPong builds a pong frame.
func NewPong() PongFrame {
	return PongFrame{Type: TypePong}
}

// PlayerJoinedFrame announces a new room member to everyone else.
type PlayerJoinedFrame struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// NewPlayerJoined builds a join announcement.
func NewPlayerJoined(playerID, playerName string) PlayerJoinedFrame {
	return PlayerJoinedFrame{Type: TypePlayerJoined, PlayerID: playerID, PlayerName: playerName}
}

// PlayerLeftFrame announces a departure.
type PlayerLeftFrame struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// NewPlayerLeft builds a departure announcement.
func NewPlayerLeft(playerID string) PlayerLeftFrame {
	return PlayerLeftFrame{Type: TypePlayerLeft, PlayerID: playerID}
}

// PlayerReadyStateFrame mirrors a lobby ready toggle to the whole room.
type PlayerReadyStateFrame struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Ready    bool   `json:"ready"`
}

// NewPlayerReadyState builds a ready-state broadcast.
func NewPlayerReadyState(playerID string, ready bool) PlayerReadyStateFrame {
	return PlayerReadyStateFrame{Type: TypePlayerReadyState, PlayerID: playerID, Ready: ready}
}

// ChatFrame carries a chat line to the whole room.
type ChatFrame struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
}

// NewChat builds a chat broadcast.
func NewChat(playerID, playerName, message string) ChatFrame {
	return ChatFrame{Type: TypeChatMessage, PlayerID: playerID, PlayerName: playerName, Message: message}
}

// LobbyPlayer is one entry in a lobby snapshot.
type LobbyPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Ready       bool   `json:"ready"`
}

// LobbyStateFrame is the full lobby snapshot.
type LobbyStateFrame struct {
	Type       string        `json:"type"`
	RoomID     string        `json:"room_id"`
	State      string        `json:"state"`
	MaxPlayers int           `json:"max_players"`
	Players    []LobbyPlayer `json:"players"`
}

// MapData describes the playfield sent with game_start.
type MapData struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	GroundY float64 `json:"ground_y"`
}

// SpawnPoint is one player's starting position.
type SpawnPoint struct {
	PlayerID string  `json:"player_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// GameStartFrame kicks off a round.
type GameStartFrame struct {
	Type        string       `json:"type"`
	Round       int          `json:"round"`
	MapData     MapData      `json:"map_data"`
	SpawnPoints []SpawnPoint `json:"spawn_points"`
}

// GamePlayer is one entry in a game_state snapshot. Spatial fields are
// rounded to one decimal before the frame is built, so serialization is
// stable across floating-point rounding differences.
type GamePlayer struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Health int     `json:"health"`
	State  string  `json:"state"`
	Facing string  `json:"facing"`
}

// GameStateFrame is the per-tick world snapshot.
type GameStateFrame struct {
	Type     string       `json:"type"`
	Tick     int64        `json:"tick"`
	TimeLeft float64      `json:"time_left"`
	Players  []GamePlayer `json:"players"`
	Enemies  []any        `json:"enemies"`
	Items    []any        `json:"items"`
}

// NewGameState builds a snapshot frame with the enemies/items arrays present
// but empty, so they serialize as [] rather than null.
func NewGameState(tick int64, players []GamePlayer) GameStateFrame {
	if players == nil {
		players = []GamePlayer{}
	}
	return GameStateFrame{
		Type:     TypeGameState,
		Tick:     tick,
		TimeLeft: 0.0,
		Players:  players,
		Enemies:  []any{},
		Items:    []any{},
	}
}
