package model

// LobbyPlayer is a connected player waiting in the shared lobby.
type LobbyPlayer struct {
	ConnectionID string   `json:"connectionId"`
	Name         string   `json:"playerName"`
	ToonID       string   `json:"toonId"`
	Position     Position `json:"position"`
	Health       int      `json:"health"`
	IsAlive      bool     `json:"isAlive"`
	InElevator   bool     `json:"inElevator"`
	ElevatorID   int      `json:"elevatorId,omitempty"`
	Ready        bool     `json:"ready"`
}

// RoomPlayer is a player inside a running game room. MaxHealth is derived
// from the toon pick when the room starts and never changes afterwards.
type RoomPlayer struct {
	ConnectionID    string   `json:"connectionId"`
	Name            string   `json:"playerName"`
	ToonID          string   `json:"toonId"`
	Position        Position `json:"position"`
	Health          int      `json:"health"`
	MaxHealth       int      `json:"maxHealth"`
	IsAlive         bool     `json:"isAlive"`
	ReachedElevator bool     `json:"reachedElevator"`
}
