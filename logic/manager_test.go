package logic

import (
	"testing"
	"time"

	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOccupant(id, toon string) Occupant {
	return Occupant{
		Player: model.LobbyPlayer{
			ConnectionID: id,
			Name:         "player_" + id,
			ToonID:       toon,
			InElevator:   true,
			ElevatorID:   1,
		},
		Conn: &model.Connection{ID: id},
	}
}

func TestStartGameCreatesFloorOneRoom(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	manager := NewRoomManager(testConfig(), util.NewSeededRand(5), broadcaster)

	room := manager.StartGame(1, []Occupant{testOccupant("a", "pebble"), testOccupant("b", "finn")})
	require.NotNil(t, room)
	defer room.Destroy()

	start, ok := broadcaster.lastOfType(model.EventGameStart)
	require.True(t, ok)
	state := start.Data.(model.GameStatePayload)
	assert.Equal(t, room.ID, state.RoomID)
	assert.Equal(t, 1, state.Floor)
	assert.Len(t, state.Machines, 4)
	assert.Len(t, state.Twisteds, 1)
	require.Len(t, state.Players, 2)

	byID := map[string]model.RoomPlayer{}
	for _, p := range state.Players {
		byID[p.ConnectionID] = p
	}
	assert.Equal(t, 2, byID["a"].MaxHealth, "mains get two hearts")
	assert.Equal(t, 3, byID["b"].MaxHealth)
	for _, p := range state.Players {
		assert.True(t, p.IsAlive)
		assert.False(t, p.ReachedElevator)
		assert.Equal(t, floorSpawn, p.Position)
	}

	found, ok := manager.GetRoom(room.ID)
	assert.True(t, ok)
	assert.Same(t, room, found)
	assert.Equal(t, 1, manager.ActiveRooms())
}

func TestStartGameWithNoOccupants(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	manager := NewRoomManager(testConfig(), util.NewSeededRand(5), broadcaster)
	assert.Nil(t, manager.StartGame(2, nil))
	assert.Equal(t, 0, manager.ActiveRooms())
}

func TestDestroyRoomIsIdempotent(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	manager := NewRoomManager(testConfig(), util.NewSeededRand(5), broadcaster)

	var destroyCount int
	manager.SetOnDestroyed(func(string, []string) { destroyCount++ })

	room := manager.StartGame(1, []Occupant{testOccupant("a", "finn")})
	require.NotNil(t, room)

	manager.DestroyRoom(room.ID)
	manager.DestroyRoom(room.ID)
	room.Destroy()

	assert.Equal(t, 1, destroyCount)
	_, ok := manager.GetRoom(room.ID)
	assert.False(t, ok, "destroyed room is removed from the index")
	assert.Equal(t, 0, manager.ActiveRooms())
}

// Tearing down a live room from outside must not touch state the room
// goroutine owns, even mid panic with its countdown ticker armed.
func TestDestroyRunningRoomDuringPanic(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	manager := NewRoomManager(testConfig(), util.NewSeededRand(5), broadcaster)

	destroyed := make(chan struct{})
	manager.SetOnDestroyed(func(string, []string) { close(destroyed) })

	room := manager.StartGame(1, []Occupant{testOccupant("a", "finn")})
	require.NotNil(t, room)

	start, ok := broadcaster.lastOfType(model.EventGameStart)
	require.True(t, ok)
	for _, m := range start.Data.(model.GameStatePayload).Machines {
		room.FillMachine(m.ID)
	}
	require.Eventually(t, func() bool {
		return len(broadcaster.ofType(model.EventPanicMode)) == 1
	}, time.Second, 5*time.Millisecond)

	manager.DestroyRoom(room.ID)
	select {
	case <-destroyed:
	case <-time.After(time.Second):
		t.Fatal("room was not destroyed")
	}
	_, found := manager.GetRoom(room.ID)
	assert.False(t, found)
	manager.DestroyRoom(room.ID)
}

func TestRoomIDsAreUnique(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	manager := NewRoomManager(testConfig(), util.NewSeededRand(5), broadcaster)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		room := manager.StartGame(1, []Occupant{testOccupant("a", "finn")})
		require.NotNil(t, room)
		assert.False(t, seen[room.ID])
		seen[room.ID] = true
		room.Destroy()
	}
}
