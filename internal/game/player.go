// Package game holds the authoritative session state: players, rooms, and the
// room registry. Nothing in this package is safe for concurrent use; the
// gateway serializes every mutation behind a single lock so rooms behave as if
// they were owned by one event loop.
package game

// Physics constants, px and seconds. The y axis grows downward.
const (
	MoveSpeed    = 200.0
	JumpVelocity = -450.0
	Gravity      = 900.0
	GroundY      = 500.0
	MapWidth     = 1280.0
	MapHeight    = 720.0

	// A player counts as grounded within this distance of the ground line.
	groundEpsilon = 0.1

	defaultMaxHealth = 100
)

// Visual state tags carried in game snapshots.
const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateJumping = "jumping"
	StateFalling = "falling"
	StateDead    = "dead"
)

// Action tokens recognized in the input buffer.
const (
	ActionLeft  = "left"
	ActionRight = "right"
	ActionJump  = "jump"
)

// Player is one participant in a room.
type Player struct {
	ID          string
	Name        string
	DisplayName string
	Ready       bool

	X, Y      float64
	VX, VY    float64
	Health    int
	MaxHealth int
	State     string
	Facing    string

	inputBuffer   []string
	lastInputTick int64
}

// NewPlayer creates a lobby player. Position is meaningless until Spawn.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		DisplayName: name,
		Y:           GroundY,
		Health:      defaultMaxHealth,
		MaxHealth:   defaultMaxHealth,
		State:       StateIdle,
		Facing:      "right",
	}
}

// QueueInput replaces the pending action buffer with the client's latest
// frame. Later frames within the same tick overwrite earlier ones.
func (p *Player) QueueInput(tick int64, actions []string) {
	p.inputBuffer = actions
	p.lastInputTick = tick
}

// Spawn places the player at a spawn point and resets combat state.
func (p *Player) Spawn(x, y float64) {
	p.X, p.Y = x, y
	p.VX, p.VY = 0, 0
	p.Health = p.MaxHealth
	p.State = StateIdle
}

// OnGround reports whether the player can jump.
func (p *Player) OnGround() bool {
	return p.Y >= GroundY-groundEpsilon
}

// Step advances the player by one fixed simulation step.
func (p *Player) Step(dt float64) {
	if p.Health <= 0 {
		p.State = StateDead
		p.VX = 0
		p.inputBuffer = nil
		return
	}

	// Horizontal intent is recomputed each tick; the last action on an axis
	// wins. Jump only fires from the ground.
	p.VX = 0
	for _, action := range p.inputBuffer {
		switch action {
		case ActionLeft:
			p.VX = -MoveSpeed
			p.Facing = "left"
		case ActionRight:
			p.VX = MoveSpeed
			p.Facing = "right"
		case ActionJump:
			if p.OnGround() {
				p.VY = JumpVelocity
			}
		}
	}

	p.VY += Gravity * dt
	p.X += p.VX * dt
	p.Y += p.VY * dt

	if p.Y >= GroundY {
		p.Y = GroundY
		p.VY = 0
	}
	if p.X < 0 {
		p.X = 0
	} else if p.X > MapWidth {
		p.X = MapWidth
	}

	switch {
	case !p.OnGround():
		if p.VY < 0 {
			p.State = StateJumping
		} else {
			p.State = StateFalling
		}
	case p.VX > groundEpsilon || p.VX < -groundEpsilon:
		p.State = StateRunning
	default:
		p.State = StateIdle
	}

	p.inputBuffer = nil
}
