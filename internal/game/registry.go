package game

import (
	"errors"
	"math"
)

// ErrCapacity is returned when creating a room would exceed the global cap.
var ErrCapacity = errors.New("game: server at max room capacity")

// Registry owns every live room. Like Room, it relies on the gateway's lock
// for serialization.
type Registry struct {
	rooms             map[string]*Room
	maxRooms          int
	maxPlayersPerRoom int
}

// NewRegistry creates an empty registry with the given caps.
func NewRegistry(maxRooms, maxPlayersPerRoom int) *Registry {
	return &Registry{
		rooms:             make(map[string]*Room),
		maxRooms:          maxRooms,
		maxPlayersPerRoom: maxPlayersPerRoom,
	}
}

// GetOrCreate returns the room with the given id, creating it when absent.
// Creation is refused at the room cap; lookups of existing rooms always
// succeed regardless of the cap.
func (reg *Registry) GetOrCreate(id string) (*Room, error) {
	if room, ok := reg.rooms[id]; ok {
		return room, nil
	}
	if len(reg.rooms) >= reg.maxRooms {
		return nil, ErrCapacity
	}
	room := NewRoom(id, reg.maxPlayersPerRoom)
	reg.rooms[id] = room
	return room, nil
}

// Get returns an existing room.
func (reg *Registry) Get(id string) (*Room, bool) {
	room, ok := reg.rooms[id]
	return room, ok
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	return len(reg.rooms)
}

// Rooms returns a snapshot of all live rooms.
func (reg *Registry) Rooms() []*Room {
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Sweep evicts every room that is both empty and finished. Runs after every
// connection close. Returns the number of rooms evicted.
func (reg *Registry) Sweep() int {
	evicted := 0
	for id, room := range reg.rooms {
		if room.IsEmpty() && room.State() == StateFinished {
			delete(reg.rooms, id)
			evicted++
		}
	}
	return evicted
}

// Stats summarizes the registry for /info and metrics.
func (reg *Registry) Stats() (roomsActive, roomsPlaying, playersOnline int) {
	roomsActive = len(reg.rooms)
	for _, room := range reg.rooms {
		if room.State() == StatePlaying {
			roomsPlaying++
		}
		playersOnline += room.Len()
	}
	return
}

// round1 rounds to one decimal place for snapshot emission.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
