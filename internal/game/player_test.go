package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const dt = 0.05 // 20 ticks per second

func TestPlayerStep_GroundedFixedPoint(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(200, GroundY)

	for i := 0; i < 5; i++ {
		p.Step(dt)
	}

	assert.Equal(t, 200.0, p.X)
	assert.Equal(t, GroundY, p.Y)
	assert.Equal(t, 0.0, p.VX)
	assert.Equal(t, 0.0, p.VY)
	assert.Equal(t, StateIdle, p.State)
}

func TestPlayerStep_Jump(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(200, GroundY)

	p.QueueInput(1, []string{ActionJump})
	p.Step(dt)

	// Jump sets vy to -450, gravity pulls 45 back, integration moves the
	// player up by 405*dt.
	assert.InDelta(t, -405.0, p.VY, 1e-9)
	assert.InDelta(t, 479.75, p.Y, 1e-9)
	assert.Equal(t, StateJumping, p.State)

	// The arc peaks and the player falls back to the ground.
	landed := false
	for i := 0; i < 25; i++ {
		p.Step(dt)
		if p.Y == GroundY && p.VY == 0 {
			landed = true
			break
		}
	}
	assert.True(t, landed, "player should land within 25 ticks")
	assert.Equal(t, StateIdle, p.State)
}

func TestPlayerStep_JumpIgnoredMidair(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(200, GroundY)

	p.QueueInput(1, []string{ActionJump})
	p.Step(dt)
	vyAfterJump := p.VY

	p.QueueInput(2, []string{ActionJump})
	p.Step(dt)

	// Midair jump has no effect; gravity keeps integrating.
	assert.InDelta(t, vyAfterJump+Gravity*dt, p.VY, 1e-9)
}

func TestPlayerStep_HorizontalMovement(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(200, GroundY)

	p.QueueInput(1, []string{ActionRight})
	p.Step(dt)
	assert.InDelta(t, 210.0, p.X, 1e-9)
	assert.Equal(t, "right", p.Facing)
	assert.Equal(t, StateRunning, p.State)

	// Input buffer cleared after the step; the player coasts to a stop.
	p.Step(dt)
	assert.InDelta(t, 210.0, p.X, 1e-9)
	assert.Equal(t, StateIdle, p.State)
}

func TestPlayerStep_LastHorizontalActionWins(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(200, GroundY)

	p.QueueInput(1, []string{ActionLeft, ActionRight})
	p.Step(dt)

	assert.InDelta(t, 210.0, p.X, 1e-9)
	assert.Equal(t, "right", p.Facing)
}

func TestPlayerStep_ClampedToMapEdges(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(5, GroundY)

	p.QueueInput(1, []string{ActionLeft})
	p.Step(dt)
	assert.Equal(t, 0.0, p.X)

	p.Spawn(MapWidth-5, GroundY)
	p.QueueInput(2, []string{ActionRight})
	p.Step(dt)
	assert.Equal(t, MapWidth, p.X)
}

func TestPlayerStep_DeadShortCircuit(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Spawn(200, GroundY)
	p.Health = 0

	p.QueueInput(1, []string{ActionRight, ActionJump})
	p.Step(dt)

	assert.Equal(t, StateDead, p.State)
	assert.Equal(t, 0.0, p.VX)
	assert.Equal(t, 200.0, p.X)
	assert.Equal(t, GroundY, p.Y)

	// The buffered input was discarded, not deferred.
	p.Health = p.MaxHealth
	p.Step(dt)
	assert.Equal(t, 200.0, p.X)
}

func TestPlayerSpawn_ResetsCombatState(t *testing.T) {
	p := NewPlayer("p1", "Alice")
	p.Health = 0
	p.State = StateDead
	p.VX, p.VY = 50, -100

	p.Spawn(400, GroundY)

	assert.Equal(t, 400.0, p.X)
	assert.Equal(t, GroundY, p.Y)
	assert.Equal(t, 0.0, p.VX)
	assert.Equal(t, 0.0, p.VY)
	assert.Equal(t, p.MaxHealth, p.Health)
	assert.Equal(t, StateIdle, p.State)
}
