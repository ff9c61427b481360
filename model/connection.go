package model

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps one live websocket session. The id is generated server
// side and doubles as the player identifier in every broadcast payload.
// Writes are serialized; gorilla connections allow only one writer at a time.
type Connection struct {
	ID   string
	Conn *websocket.Conn

	writeMu sync.Mutex
}

func NewConnection(conn *websocket.Conn) *Connection {
	connection := &Connection{
		ID:   uuid.NewString(),
		Conn: conn,
	}
	slog.Info("client connected", "connection_id", connection.ID, "remote_addr", conn.RemoteAddr().String())
	return connection
}

// Send marshals the event and writes it to the socket. Failures are logged
// and swallowed; a broken socket is reaped by its own read loop.
func (c *Connection) Send(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event", "type", event.Type, "error", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Warn("failed to write event", "connection_id", c.ID, "type", event.Type, "error", err)
	}
}

func (c *Connection) Close() {
	c.Conn.Close()
	slog.Info("client connection closed", "connection_id", c.ID)
}
