package core

import (
	"sync"

	"github.com/dandyworld/dandy-world-server/model"
)

type locationKind int

const (
	locationNone locationKind = iota
	locationLobby
	locationRoom
)

type location struct {
	kind   locationKind
	roomID string
}

// Registry tracks every live connection and its single membership: a
// connection is in the lobby, in exactly one room, or nowhere. All session
// routing decisions go through it.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*model.Connection
	locations map[string]location
}

func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]*model.Connection),
		locations: make(map[string]location),
	}
}

func (r *Registry) Register(conn *model.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	r.locations[conn.ID] = location{kind: locationNone}
}

func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
	delete(r.locations, connectionID)
}

func (r *Registry) SetLobby(connectionID string) {
	r.setLocation(connectionID, location{kind: locationLobby})
}

func (r *Registry) SetRoom(connectionID, roomID string) {
	r.setLocation(connectionID, location{kind: locationRoom, roomID: roomID})
}

func (r *Registry) ClearLocation(connectionID string) {
	r.setLocation(connectionID, location{kind: locationNone})
}

func (r *Registry) setLocation(connectionID string, loc location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connectionID]; ok {
		r.locations[connectionID] = loc
	}
}

// InLobby reports whether the connection currently has a lobby player.
func (r *Registry) InLobby(connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locations[connectionID].kind == locationLobby
}

// RoomOf returns the room the connection belongs to, if any.
func (r *Registry) RoomOf(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc := r.locations[connectionID]
	if loc.kind != locationRoom {
		return "", false
	}
	return loc.roomID, true
}
