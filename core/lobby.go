package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dandyworld/dandy-world-server/logic"
	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/service"
	"github.com/dandyworld/dandy-world-server/util"
)

// Lobby holds the waiting-room population and the fixed elevator slots,
// and drives the per-elevator countdowns. One mutex guards all of it;
// countdown goroutines re-enter through the same lock, so handlers and
// timer ticks never interleave.
type Lobby struct {
	mu          sync.Mutex
	config      *model.Config
	rng         util.Rand
	broadcaster service.Broadcaster
	players     map[string]*model.LobbyPlayer
	conns       map[string]*model.Connection
	elevators   []*model.Elevator
	countdowns  map[int]*countdown
	onFire      func(elevatorID int, occupants []logic.Occupant)
}

// countdown is the owned timer resource of one counting-down elevator.
// It is stopped exactly once, either by the last occupant leaving or by
// the countdown firing.
type countdown struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func (c *countdown) cancel() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func NewLobby(config *model.Config, rng util.Rand, broadcaster service.Broadcaster) *Lobby {
	elevators := make([]*model.Elevator, 0, config.Game.ElevatorCount)
	for i := 1; i <= config.Game.ElevatorCount; i++ {
		elevators = append(elevators, model.NewElevator(i))
	}
	return &Lobby{
		config:      config,
		rng:         rng,
		broadcaster: broadcaster,
		players:     make(map[string]*model.LobbyPlayer),
		conns:       make(map[string]*model.Connection),
		elevators:   elevators,
		countdowns:  make(map[int]*countdown),
	}
}

// SetOnFire registers the room-creation callback invoked when an elevator
// countdown expires with occupants aboard.
func (l *Lobby) SetOnFire(fn func(int, []logic.Occupant)) {
	l.onFire = fn
}

// Join registers a lobby player at a randomized spawn, answers with the
// full lobby snapshot and tells everyone else. A repeated join for the
// same connection silently overwrites the previous record and does NOT
// vacate an elevator slot the old record held. That mismatch is inherited
// last-write-wins behavior; keep it until the duplicate-join question is
// settled, do not guard it here.
func (l *Lobby) Join(conn *model.Connection, playerName, toonID string) {
	l.mu.Lock()
	player := &model.LobbyPlayer{
		ConnectionID: conn.ID,
		Name:         playerName,
		ToonID:       toonID,
		Position: model.Position{
			X: 600 + l.rng.Float64()*100,
			Y: 400 + l.rng.Float64()*100,
		},
		Health:  3,
		IsAlive: true,
	}
	l.players[conn.ID] = player
	l.conns[conn.ID] = conn
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.broadcaster.JoinChannel(service.LobbyChannel, conn)
	l.broadcaster.Unicast(conn, model.Event{Type: model.EventLobbyState, Data: snapshot})
	l.broadcaster.BroadcastExcept(service.LobbyChannel, conn.ID, model.Event{
		Type: model.EventPlayerJoined,
		Data: *player,
	})
	slog.Info("player joined lobby", "connection_id", conn.ID, "player_name", playerName, "toon_id", toonID)
}

// Move updates a lobby player's position. No-op for unknown connections.
func (l *Lobby) Move(connectionID string, position model.Position) {
	l.mu.Lock()
	player, ok := l.players[connectionID]
	if !ok {
		l.mu.Unlock()
		return
	}
	player.Position = position
	l.mu.Unlock()

	l.broadcaster.BroadcastExcept(service.LobbyChannel, connectionID, model.Event{
		Type: model.EventPlayerMoved,
		Data: model.PlayerMovedPayload{ConnectionID: connectionID, Position: position},
	})
}

// EnterElevator appends the player to the elevator's occupant list. The
// countdown starts only on the empty-to-one transition and never restarts
// while already running. Full or unknown elevators ignore the request, as
// does a player already aboard one.
func (l *Lobby) EnterElevator(connectionID string, elevatorID int) {
	l.mu.Lock()
	player, ok := l.players[connectionID]
	if !ok || player.InElevator {
		l.mu.Unlock()
		return
	}
	elevator := l.elevatorLocked(elevatorID)
	if elevator == nil || len(elevator.Occupants) >= l.config.Game.ElevatorCapacity {
		l.mu.Unlock()
		return
	}

	player.InElevator = true
	player.ElevatorID = elevatorID
	elevator.Occupants = append(elevator.Occupants, connectionID)

	if len(elevator.Occupants) == 1 && !elevator.Starting {
		elevator.Countdown = l.config.Game.ElevatorCountdown
		elevator.Starting = true
		cd := &countdown{stop: make(chan struct{})}
		l.countdowns[elevatorID] = cd
		go l.runCountdown(elevatorID, cd)
		slog.Info("elevator countdown started", "elevator_id", elevatorID, "countdown", elevator.Countdown)
	}
	update := l.elevatorUpdateLocked(elevator)
	l.mu.Unlock()

	l.broadcaster.Broadcast(service.LobbyChannel, update)
	slog.Info("player entered elevator", "connection_id", connectionID, "elevator_id", elevatorID)
}

// LeaveElevator removes the player from its elevator. The last occupant
// leaving cancels the countdown and resets the slot.
func (l *Lobby) LeaveElevator(connectionID string) {
	l.mu.Lock()
	player, ok := l.players[connectionID]
	if !ok || !player.InElevator {
		l.mu.Unlock()
		return
	}
	elevator := l.elevatorLocked(player.ElevatorID)
	player.InElevator = false
	player.ElevatorID = 0
	if elevator == nil {
		l.mu.Unlock()
		return
	}
	elevator.Remove(connectionID)
	if len(elevator.Occupants) == 0 {
		l.cancelCountdownLocked(elevator.ID)
		elevator.Reset()
	}
	update := l.elevatorUpdateLocked(elevator)
	l.mu.Unlock()

	l.broadcaster.Broadcast(service.LobbyChannel, update)
}

// Disconnect removes the lobby player, vacating its elevator slot if any.
func (l *Lobby) Disconnect(connectionID string) {
	l.mu.Lock()
	player, ok := l.players[connectionID]
	if !ok {
		l.mu.Unlock()
		return
	}
	var update *model.Event
	if player.InElevator {
		if elevator := l.elevatorLocked(player.ElevatorID); elevator != nil {
			elevator.Remove(connectionID)
			if len(elevator.Occupants) == 0 {
				l.cancelCountdownLocked(elevator.ID)
				elevator.Reset()
			}
			event := l.elevatorUpdateLocked(elevator)
			update = &event
		}
	}
	delete(l.players, connectionID)
	delete(l.conns, connectionID)
	l.mu.Unlock()

	l.broadcaster.LeaveChannel(service.LobbyChannel, connectionID)
	if update != nil {
		l.broadcaster.Broadcast(service.LobbyChannel, *update)
	}
	l.broadcaster.Broadcast(service.LobbyChannel, model.Event{
		Type: model.EventPlayerLeft,
		Data: model.PlayerLeftPayload{ConnectionID: connectionID},
	})
	slog.Info("player left lobby", "connection_id", connectionID)
}

func (l *Lobby) runCountdown(elevatorID int, cd *countdown) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			if !l.tickElevator(elevatorID, cd) {
				return
			}
		}
	}
}

// tickElevator decrements one second and fires the elevator at zero.
// Returns false once the countdown is finished or no longer owned.
func (l *Lobby) tickElevator(elevatorID int, cd *countdown) bool {
	l.mu.Lock()
	elevator := l.elevatorLocked(elevatorID)
	if elevator == nil || l.countdowns[elevatorID] != cd || elevator.Countdown == model.CountdownInactive {
		l.mu.Unlock()
		return false
	}
	elevator.Countdown--
	update := l.elevatorUpdateLocked(elevator)
	if elevator.Countdown > 0 {
		l.mu.Unlock()
		l.broadcaster.Broadcast(service.LobbyChannel, update)
		return true
	}

	// Fired. Snapshot the occupants, reset the slot regardless of the
	// room-creation outcome, and promote the occupants out of the lobby.
	l.cancelCountdownLocked(elevatorID)
	occupants := make([]logic.Occupant, 0, len(elevator.Occupants))
	for _, id := range elevator.Occupants {
		player, ok := l.players[id]
		conn := l.conns[id]
		if !ok || conn == nil {
			continue
		}
		occupants = append(occupants, logic.Occupant{Player: *player, Conn: conn})
		delete(l.players, id)
		delete(l.conns, id)
	}
	elevator.Reset()
	l.mu.Unlock()

	l.broadcaster.Broadcast(service.LobbyChannel, update)
	if len(occupants) > 0 && l.onFire != nil {
		l.onFire(elevatorID, occupants)
	}
	return false
}

// Snapshot returns the current lobby state for a joining player.
func (l *Lobby) Snapshot() model.LobbyStatePayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Lobby) snapshotLocked() model.LobbyStatePayload {
	players := make([]model.LobbyPlayer, 0, len(l.players))
	for _, p := range l.players {
		players = append(players, *p)
	}
	elevators := make([]model.Elevator, 0, len(l.elevators))
	for _, e := range l.elevators {
		elevators = append(elevators, *e)
	}
	return model.LobbyStatePayload{Players: players, Elevators: elevators}
}

func (l *Lobby) elevatorLocked(elevatorID int) *model.Elevator {
	for _, e := range l.elevators {
		if e.ID == elevatorID {
			return e
		}
	}
	return nil
}

func (l *Lobby) elevatorUpdateLocked(elevator *model.Elevator) model.Event {
	players := make([]model.LobbyPlayer, 0, len(elevator.Occupants))
	for _, id := range elevator.Occupants {
		if p, ok := l.players[id]; ok {
			players = append(players, *p)
		}
	}
	return model.Event{
		Type: model.EventElevatorUpdate,
		Data: model.ElevatorUpdatePayload{
			ElevatorID: elevator.ID,
			Players:    players,
			Countdown:  elevator.Countdown,
		},
	}
}

func (l *Lobby) cancelCountdownLocked(elevatorID int) {
	if cd, ok := l.countdowns[elevatorID]; ok {
		cd.cancel()
		delete(l.countdowns, elevatorID)
	}
}
