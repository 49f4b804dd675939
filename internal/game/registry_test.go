package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate_CapEnforced(t *testing.T) {
	reg := NewRegistry(2, 4)

	r1, err := reg.GetOrCreate("r1")
	require.NoError(t, err)
	_, err = reg.GetOrCreate("r2")
	require.NoError(t, err)

	// New room at the cap is refused; existing rooms still resolve.
	_, err = reg.GetOrCreate("r3")
	assert.ErrorIs(t, err, ErrCapacity)

	again, err := reg.GetOrCreate("r1")
	require.NoError(t, err)
	assert.Same(t, r1, again)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistrySweep_EvictsEmptyFinishedOnly(t *testing.T) {
	reg := NewRegistry(10, 4)

	finished, err := reg.GetOrCreate("finished")
	require.NoError(t, err)
	finished.SetSender(func(string, any) {})
	require.NoError(t, finished.AddPlayer(NewPlayer("p1", "Alice")))
	finished.RemovePlayer("p1")
	require.Equal(t, StateFinished, finished.State())

	waiting, err := reg.GetOrCreate("waiting")
	require.NoError(t, err)
	waiting.SetSender(func(string, any) {})
	require.NoError(t, waiting.AddPlayer(NewPlayer("p2", "Bob")))

	// A freshly created empty room is still WAITING and survives the sweep.
	_, err = reg.GetOrCreate("empty-waiting")
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Sweep())
	_, ok := reg.Get("finished")
	assert.False(t, ok)
	_, ok = reg.Get("waiting")
	assert.True(t, ok)
	_, ok = reg.Get("empty-waiting")
	assert.True(t, ok)
}

func TestRegistryStats(t *testing.T) {
	reg := NewRegistry(10, 4)

	for i, ready := range []bool{true, false} {
		room, err := reg.GetOrCreate(fmt.Sprintf("r%d", i))
		require.NoError(t, err)
		room.SetSender(func(string, any) {})
		require.NoError(t, room.AddPlayer(NewPlayer(fmt.Sprintf("a%d", i), "A")))
		require.NoError(t, room.AddPlayer(NewPlayer(fmt.Sprintf("b%d", i), "B")))
		if ready {
			room.SetReady(fmt.Sprintf("a%d", i), true)
			room.SetReady(fmt.Sprintf("b%d", i), true)
		}
	}

	active, playing, players := reg.Stats()
	assert.Equal(t, 2, active)
	assert.Equal(t, 1, playing)
	assert.Equal(t, 4, players)
}
