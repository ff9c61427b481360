package core

import (
	"sync"
	"testing"

	"github.com/dandyworld/dandy-world-server/logic"
	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.Event
}

func (b *recordingBroadcaster) JoinChannel(string, *model.Connection)           {}
func (b *recordingBroadcaster) LeaveChannel(string, string)                     {}
func (b *recordingBroadcaster) MoveToChannel(string, string, *model.Connection) {}
func (b *recordingBroadcaster) CloseChannel(string)                             {}

func (b *recordingBroadcaster) Unicast(_ *model.Connection, event model.Event) {
	b.record(event)
}

func (b *recordingBroadcaster) Broadcast(_ string, event model.Event) {
	b.record(event)
}

func (b *recordingBroadcaster) BroadcastExcept(_ string, _ string, event model.Event) {
	b.record(event)
}

func (b *recordingBroadcaster) record(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) ofType(eventType string) []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []model.Event
	for _, e := range b.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func newTestLobby(t *testing.T) (*Lobby, *recordingBroadcaster, *model.Config) {
	t.Helper()
	config := model.DefaultConfig()
	broadcaster := &recordingBroadcaster{}
	lobby := NewLobby(&config, util.NewSeededRand(42), broadcaster)
	t.Cleanup(func() {
		lobby.mu.Lock()
		for id, cd := range lobby.countdowns {
			cd.cancel()
			delete(lobby.countdowns, id)
		}
		lobby.mu.Unlock()
	})
	return lobby, broadcaster, &config
}

func joinTestPlayer(lobby *Lobby, id string) *model.Connection {
	conn := &model.Connection{ID: id}
	lobby.Join(conn, "player_"+id, "finn")
	return conn
}

// detachCountdown stops the countdown goroutine but leaves the countdown
// registered, so tests can drive ticks deterministically.
func detachCountdown(lobby *Lobby, elevatorID int) *countdown {
	lobby.mu.Lock()
	cd := lobby.countdowns[elevatorID]
	lobby.mu.Unlock()
	if cd != nil {
		cd.cancel()
	}
	return cd
}

func elevatorState(lobby *Lobby, elevatorID int) model.Elevator {
	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	return *lobby.elevatorLocked(elevatorID)
}

func TestJoinSendsSnapshotAndNotifiesOthers(t *testing.T) {
	lobby, broadcaster, config := newTestLobby(t)
	joinTestPlayer(lobby, "a")
	joinTestPlayer(lobby, "b")

	states := broadcaster.ofType(model.EventLobbyState)
	require.Len(t, states, 2)
	second := states[1].Data.(model.LobbyStatePayload)
	assert.Len(t, second.Players, 2)
	assert.Len(t, second.Elevators, config.Game.ElevatorCount)
	for _, e := range second.Elevators {
		assert.Empty(t, e.Occupants)
		assert.Equal(t, model.CountdownInactive, e.Countdown)
	}
	assert.Len(t, broadcaster.ofType(model.EventPlayerJoined), 2)
}

func TestDuplicateJoinOverwrites(t *testing.T) {
	lobby, _, _ := newTestLobby(t)
	conn := joinTestPlayer(lobby, "a")
	lobby.Join(conn, "renamed", "pebble")

	lobby.mu.Lock()
	defer lobby.mu.Unlock()
	require.Len(t, lobby.players, 1)
	assert.Equal(t, "renamed", lobby.players["a"].Name)
	assert.Equal(t, "pebble", lobby.players["a"].ToonID)
}

// A duplicate join resets the player record but leaves its elevator slot
// occupied. Inherited last-write-wins behavior; this test pins it so a
// future cleanup is a deliberate decision.
func TestDuplicateJoinKeepsElevatorSlot(t *testing.T) {
	lobby, _, _ := newTestLobby(t)
	conn := joinTestPlayer(lobby, "a")
	lobby.EnterElevator("a", 1)
	detachCountdown(lobby, 1)

	lobby.Join(conn, "again", "finn")
	assert.Equal(t, []string{"a"}, elevatorState(lobby, 1).Occupants)
	lobby.mu.Lock()
	assert.False(t, lobby.players["a"].InElevator)
	lobby.mu.Unlock()
}

func TestMoveBroadcastsPosition(t *testing.T) {
	lobby, broadcaster, _ := newTestLobby(t)
	joinTestPlayer(lobby, "a")

	lobby.Move("a", model.Position{X: 1, Y: 2})
	moved := broadcaster.ofType(model.EventPlayerMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, model.Position{X: 1, Y: 2}, moved[0].Data.(model.PlayerMovedPayload).Position)

	lobby.Move("ghost", model.Position{X: 3, Y: 4})
	assert.Len(t, broadcaster.ofType(model.EventPlayerMoved), 1)
}

func TestCountdownStartsOnlyOnFirstOccupant(t *testing.T) {
	lobby, broadcaster, config := newTestLobby(t)
	joinTestPlayer(lobby, "a")
	joinTestPlayer(lobby, "b")

	lobby.EnterElevator("a", 1)
	state := elevatorState(lobby, 1)
	assert.Equal(t, config.Game.ElevatorCountdown, state.Countdown)
	assert.True(t, state.Starting)

	first := detachCountdown(lobby, 1)
	require.NotNil(t, first)

	lobby.EnterElevator("b", 1)
	state = elevatorState(lobby, 1)
	assert.Equal(t, []string{"a", "b"}, state.Occupants)
	assert.Equal(t, config.Game.ElevatorCountdown, state.Countdown, "second occupant must not restart the countdown")

	lobby.mu.Lock()
	assert.Same(t, first, lobby.countdowns[1], "no second timer was started")
	lobby.mu.Unlock()

	updates := broadcaster.ofType(model.EventElevatorUpdate)
	assert.Len(t, updates, 2)
}

func TestEnterElevatorRejections(t *testing.T) {
	lobby, _, config := newTestLobby(t)
	config.Game.ElevatorCapacity = 2
	joinTestPlayer(lobby, "a")
	joinTestPlayer(lobby, "b")
	joinTestPlayer(lobby, "c")

	lobby.EnterElevator("a", 1)
	detachCountdown(lobby, 1)

	// Already aboard.
	lobby.EnterElevator("a", 2)
	assert.Empty(t, elevatorState(lobby, 2).Occupants)

	// Unknown elevator and unknown player.
	lobby.EnterElevator("b", 99)
	lobby.EnterElevator("ghost", 1)
	assert.Equal(t, []string{"a"}, elevatorState(lobby, 1).Occupants)

	// Capacity.
	lobby.EnterElevator("b", 1)
	lobby.EnterElevator("c", 1)
	assert.Equal(t, []string{"a", "b"}, elevatorState(lobby, 1).Occupants)
}

func TestLastOccupantLeavingResetsElevator(t *testing.T) {
	lobby, _, _ := newTestLobby(t)
	joinTestPlayer(lobby, "a")
	lobby.EnterElevator("a", 1)
	cd := detachCountdown(lobby, 1)
	require.NotNil(t, cd)

	lobby.LeaveElevator("a")
	state := elevatorState(lobby, 1)
	assert.Empty(t, state.Occupants)
	assert.Equal(t, model.CountdownInactive, state.Countdown)
	assert.False(t, state.Starting)

	lobby.mu.Lock()
	_, running := lobby.countdowns[1]
	lobby.mu.Unlock()
	assert.False(t, running, "countdown cancelled with the slot")

	// A new occupancy cycle starts a fresh countdown.
	lobby.EnterElevator("a", 1)
	state = elevatorState(lobby, 1)
	assert.True(t, state.Starting)
	detachCountdown(lobby, 1)
}

func TestElevatorFirePromotesOccupants(t *testing.T) {
	lobby, _, config := newTestLobby(t)
	config.Game.ElevatorCountdown = 3

	var fired [][]logic.Occupant
	lobby.SetOnFire(func(_ int, occupants []logic.Occupant) {
		fired = append(fired, occupants)
	})

	joinTestPlayer(lobby, "a")
	joinTestPlayer(lobby, "b")
	lobby.EnterElevator("a", 1)
	cd := detachCountdown(lobby, 1)
	require.NotNil(t, cd)
	lobby.EnterElevator("b", 1)

	for lobby.tickElevator(1, cd) {
	}

	require.Len(t, fired, 1)
	require.Len(t, fired[0], 2)
	assert.Equal(t, "a", fired[0][0].Player.ConnectionID)
	assert.Equal(t, "b", fired[0][1].Player.ConnectionID)

	state := elevatorState(lobby, 1)
	assert.Empty(t, state.Occupants)
	assert.Equal(t, model.CountdownInactive, state.Countdown)
	assert.False(t, state.Starting)

	lobby.mu.Lock()
	assert.Empty(t, lobby.players, "occupants are promoted out of the lobby")
	lobby.mu.Unlock()
}

func TestElevatorFireWithNoOccupantsSkipsRoom(t *testing.T) {
	lobby, _, _ := newTestLobby(t)

	var firedCount int
	lobby.SetOnFire(func(int, []logic.Occupant) { firedCount++ })

	joinTestPlayer(lobby, "a")
	lobby.EnterElevator("a", 1)
	cd := detachCountdown(lobby, 1)
	lobby.LeaveElevator("a")

	// The countdown was cancelled with the slot; a stale tick is a no-op.
	assert.False(t, lobby.tickElevator(1, cd))
	assert.Zero(t, firedCount)
}

func TestDisconnectVacatesElevator(t *testing.T) {
	lobby, broadcaster, _ := newTestLobby(t)
	joinTestPlayer(lobby, "a")
	joinTestPlayer(lobby, "b")
	lobby.EnterElevator("a", 1)
	detachCountdown(lobby, 1)

	lobby.Disconnect("a")
	state := elevatorState(lobby, 1)
	assert.Empty(t, state.Occupants)
	assert.Equal(t, model.CountdownInactive, state.Countdown)
	assert.Len(t, broadcaster.ofType(model.EventPlayerLeft), 1)

	lobby.mu.Lock()
	_, exists := lobby.players["a"]
	lobby.mu.Unlock()
	assert.False(t, exists)

	// Disconnecting an unknown connection is a no-op.
	lobby.Disconnect("ghost")
	assert.Len(t, broadcaster.ofType(model.EventPlayerLeft), 1)
}
