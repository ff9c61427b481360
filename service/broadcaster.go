package service

import (
	"log/slog"
	"sync"

	"github.com/dandyworld/dandy-world-server/model"
)

// LobbyChannel is the shared waiting room channel. Every game room gets its
// own channel named after the room id.
const LobbyChannel = "lobby"

// Broadcaster fans out events to every connection subscribed to a named
// channel. The concrete implementation writes to websockets; tests swap in
// a recording implementation.
type Broadcaster interface {
	JoinChannel(channel string, conn *model.Connection)
	LeaveChannel(channel string, connectionID string)
	MoveToChannel(from, to string, conn *model.Connection)
	CloseChannel(channel string)
	Broadcast(channel string, event model.Event)
	BroadcastExcept(channel string, exceptID string, event model.Event)
	Unicast(conn *model.Connection, event model.Event)
}

type ChannelBroadcaster struct {
	mu       sync.RWMutex
	channels map[string]map[string]*model.Connection
}

func NewChannelBroadcaster() *ChannelBroadcaster {
	return &ChannelBroadcaster{
		channels: make(map[string]map[string]*model.Connection),
	}
}

func (b *ChannelBroadcaster) JoinChannel(channel string, conn *model.Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.channels[channel]
	if !ok {
		members = make(map[string]*model.Connection)
		b.channels[channel] = members
	}
	members[conn.ID] = conn
}

func (b *ChannelBroadcaster) LeaveChannel(channel string, connectionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.channels[channel]; ok {
		delete(members, connectionID)
		if len(members) == 0 && channel != LobbyChannel {
			delete(b.channels, channel)
		}
	}
}

func (b *ChannelBroadcaster) MoveToChannel(from, to string, conn *model.Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.channels[from]; ok {
		delete(members, conn.ID)
	}
	members, ok := b.channels[to]
	if !ok {
		members = make(map[string]*model.Connection)
		b.channels[to] = members
	}
	members[conn.ID] = conn
}

// CloseChannel drops the channel and all its subscriptions. The connections
// themselves stay open; a destroyed room no longer addresses them.
func (b *ChannelBroadcaster) CloseChannel(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.channels, channel)
}

func (b *ChannelBroadcaster) Unicast(conn *model.Connection, event model.Event) {
	conn.Send(event)
}

func (b *ChannelBroadcaster) Broadcast(channel string, event model.Event) {
	b.BroadcastExcept(channel, "", event)
}

func (b *ChannelBroadcaster) BroadcastExcept(channel string, exceptID string, event model.Event) {
	b.mu.RLock()
	members := make([]*model.Connection, 0, len(b.channels[channel]))
	for id, conn := range b.channels[channel] {
		if id == exceptID {
			continue
		}
		members = append(members, conn)
	}
	b.mu.RUnlock()
	for _, conn := range members {
		conn.Send(event)
	}
	slog.Debug("broadcast event", "channel", channel, "type", event.Type, "recipients", len(members))
}
