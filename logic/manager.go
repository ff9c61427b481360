package logic

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/service"
	"github.com/dandyworld/dandy-world-server/util"
	"github.com/oklog/ulid/v2"
)

// Occupant pairs an elevator occupant's lobby record with its connection.
type Occupant struct {
	Player model.LobbyPlayer
	Conn   *model.Connection
}

// RoomManager owns the index of live rooms and turns fired elevators into
// running games.
type RoomManager struct {
	config      *model.Config
	rng         util.Rand
	broadcaster service.Broadcaster
	gameLogger  *service.GameLogger
	jsonLogger  *service.JSONLogger
	onDestroyed func(roomID string, connectionIDs []string)
	rooms       sync.Map
}

func NewRoomManager(config *model.Config, rng util.Rand, broadcaster service.Broadcaster) *RoomManager {
	return &RoomManager{
		config:      config,
		rng:         rng,
		broadcaster: broadcaster,
	}
}

func (m *RoomManager) SetGameLogger(gameLogger *service.GameLogger) { m.gameLogger = gameLogger }
func (m *RoomManager) SetJSONLogger(jsonLogger *service.JSONLogger) { m.jsonLogger = jsonLogger }

// SetOnDestroyed registers a callback invoked after a room is removed from
// the index, carrying the connection ids that were still in it.
func (m *RoomManager) SetOnDestroyed(fn func(string, []string)) { m.onDestroyed = fn }

// StartGame snapshots the fired elevator's occupants into a new room,
// moves their connections onto the room channel and starts the tick loop.
// Firing with zero occupants creates nothing.
func (m *RoomManager) StartGame(elevatorID int, occupants []Occupant) *Room {
	if len(occupants) == 0 {
		return nil
	}
	roomID := "room_" + strings.ToLower(ulid.Make().String())
	players := make([]*model.RoomPlayer, 0, len(occupants))
	for _, occupant := range occupants {
		players = append(players, &model.RoomPlayer{
			ConnectionID:    occupant.Player.ConnectionID,
			Name:            occupant.Player.Name,
			ToonID:          occupant.Player.ToonID,
			Position:        floorSpawn,
			Health:          model.ToonHealth(occupant.Player.ToonID),
			MaxHealth:       model.ToonHealth(occupant.Player.ToonID),
			IsAlive:         true,
			ReachedElevator: false,
		})
	}

	room := NewRoom(roomID, m.config, m.rng, m.broadcaster, players)
	room.SetOnDestroy(m.removeRoom)
	if m.gameLogger != nil {
		m.gameLogger.TrackStartRoom(roomID, players)
		room.SetGameLogger(m.gameLogger)
	}
	if m.jsonLogger != nil {
		m.jsonLogger.TrackStartRoom(roomID, players)
		room.SetJSONLogger(m.jsonLogger)
	}

	for _, occupant := range occupants {
		m.broadcaster.MoveToChannel(service.LobbyChannel, roomID, occupant.Conn)
	}

	m.rooms.Store(roomID, room)
	m.broadcaster.Broadcast(roomID, model.Event{Type: model.EventGameStart, Data: room.Snapshot()})
	room.Start()
	slog.Info("game started", "room_id", roomID, "elevator_id", elevatorID, "players", len(players))
	return room
}

func (m *RoomManager) GetRoom(roomID string) (*Room, bool) {
	value, ok := m.rooms.Load(roomID)
	if !ok {
		return nil, false
	}
	return value.(*Room), true
}

// DestroyRoom tears a room down by id. A second call for the same id is a
// no-op.
func (m *RoomManager) DestroyRoom(roomID string) {
	if room, ok := m.GetRoom(roomID); ok {
		room.Destroy()
	}
}

// ActiveRooms reports how many rooms are still running.
func (m *RoomManager) ActiveRooms() int {
	var count int
	m.rooms.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (m *RoomManager) removeRoom(roomID string, connectionIDs []string) {
	m.rooms.Delete(roomID)
	m.broadcaster.CloseChannel(roomID)
	if m.onDestroyed != nil {
		m.onDestroyed(roomID, connectionIDs)
	}
}
