package model

import (
	"encoding/json"
	"fmt"
)

// Event names, client to server.
const (
	EventJoinLobby       = "join_lobby"
	EventLobbyMove       = "lobby_move"
	EventEnterElevator   = "enter_elevator"
	EventLeaveElevator   = "leave_elevator"
	EventGameMove        = "game_move"
	EventMachineFilled   = "machine_filled"
	EventReachedElevator = "reached_elevator"
	EventPlayerDamaged   = "player_damaged"
	EventUseAbility      = "use_ability"
	EventChooseReward    = "choose_reward"
)

// Event names, server to client.
const (
	EventLobbyState         = "lobby_state"
	EventPlayerJoined       = "player_joined"
	EventPlayerLeft         = "player_left"
	EventPlayerMoved        = "player_moved"
	EventElevatorUpdate     = "elevator_update"
	EventGameStart          = "game_start"
	EventMachineUpdate      = "machine_update"
	EventPanicMode          = "panic_mode"
	EventPlayerHealth       = "player_health"
	EventPlayerDied         = "player_died"
	EventPlayerDisconnected = "player_disconnected"
	EventGameOver           = "game_over"
	EventNextFloor          = "next_floor"
	EventStaminaRestored    = "stamina_restored"
	EventTwistedsDistracted = "twisteds_distracted"
	EventTwistedsUpdate     = "twisteds_update"
	EventRewardWindow       = "reward_window"
)

// Event is the wire envelope shared by both directions.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ClientEvent is the closed set of intents a client may submit. Handlers
// type-switch over it and get compile-time payload shapes.
type ClientEvent interface {
	clientEvent()
}

type JoinLobby struct {
	PlayerName string `json:"playerName"`
	ToonID     string `json:"toonId"`
}

type LobbyMove struct {
	Position Position `json:"position"`
}

type EnterElevator struct {
	ElevatorID int `json:"elevatorId"`
}

type LeaveElevator struct{}

type GameMove struct {
	RoomID   string   `json:"roomId"`
	Position Position `json:"position"`
}

type MachineFilled struct {
	RoomID    string `json:"roomId"`
	MachineID string `json:"machineId"`
}

type ReachedElevator struct {
	RoomID string `json:"roomId"`
}

type PlayerDamaged struct {
	RoomID string `json:"roomId"`
}

type UseAbility struct {
	RoomID      string `json:"roomId"`
	AbilityType string `json:"abilityType"`
	TargetID    string `json:"targetId,omitempty"`
}

type ChooseReward struct {
	RoomID string `json:"roomId"`
	Choice string `json:"choice"`
}

func (JoinLobby) clientEvent()       {}
func (LobbyMove) clientEvent()       {}
func (EnterElevator) clientEvent()   {}
func (LeaveElevator) clientEvent()   {}
func (GameMove) clientEvent()        {}
func (MachineFilled) clientEvent()   {}
func (ReachedElevator) clientEvent() {}
func (PlayerDamaged) clientEvent()   {}
func (UseAbility) clientEvent()      {}
func (ChooseReward) clientEvent()    {}

// ParseClientEvent decodes a raw message into its typed intent. Unknown
// event types come back as an error so the caller can drop them.
func ParseClientEvent(raw []byte) (ClientEvent, error) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}
	decode := func(v ClientEvent) (ClientEvent, error) {
		if len(envelope.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(envelope.Data, v); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", envelope.Type, err)
		}
		return v, nil
	}
	switch envelope.Type {
	case EventJoinLobby:
		return decode(&JoinLobby{})
	case EventLobbyMove:
		return decode(&LobbyMove{})
	case EventEnterElevator:
		return decode(&EnterElevator{})
	case EventLeaveElevator:
		return decode(&LeaveElevator{})
	case EventGameMove:
		return decode(&GameMove{})
	case EventMachineFilled:
		return decode(&MachineFilled{})
	case EventReachedElevator:
		return decode(&ReachedElevator{})
	case EventPlayerDamaged:
		return decode(&PlayerDamaged{})
	case EventUseAbility:
		return decode(&UseAbility{})
	case EventChooseReward:
		return decode(&ChooseReward{})
	}
	return nil, fmt.Errorf("unknown event type %q", envelope.Type)
}

// Server to client payloads.

type LobbyStatePayload struct {
	Players   []LobbyPlayer `json:"players"`
	Elevators []Elevator    `json:"elevators"`
}

type PlayerLeftPayload struct {
	ConnectionID string `json:"connectionId"`
}

type PlayerMovedPayload struct {
	ConnectionID string   `json:"connectionId"`
	Position     Position `json:"position"`
}

type ElevatorUpdatePayload struct {
	ElevatorID int           `json:"elevatorId"`
	Players    []LobbyPlayer `json:"players"`
	Countdown  int           `json:"countdown"`
}

type GameStatePayload struct {
	RoomID    string       `json:"roomId"`
	Floor     int          `json:"floor"`
	Players   []RoomPlayer `json:"players"`
	Machines  []Machine    `json:"machines"`
	Twisteds  []Twisted    `json:"twisteds"`
	Obstacles []Obstacle   `json:"obstacles"`
	PanicMode bool         `json:"isPanicMode"`
	Timer     int          `json:"panicTimer"`
	Ichor     int          `json:"ichor"`
}

type MachineUpdatePayload struct {
	MachineID string `json:"machineId"`
	Filled    bool   `json:"filled"`
}

type PanicModePayload struct {
	Timer int `json:"timer"`
}

type PlayerHealthPayload struct {
	ConnectionID string `json:"connectionId"`
	Health       int    `json:"health"`
}

type PlayerDiedPayload struct {
	ConnectionID string `json:"connectionId"`
	Reason       string `json:"reason,omitempty"`
}

type GameOverPayload struct {
	Floor  int    `json:"floor"`
	Reason string `json:"reason"`
	Ichor  int    `json:"ichor"`
}

type NextFloorPayload struct {
	Floor     int          `json:"floor"`
	Machines  []Machine    `json:"machines"`
	Twisteds  []Twisted    `json:"twisteds"`
	Obstacles []Obstacle   `json:"obstacles"`
	Players   []RoomPlayer `json:"players"`
	Ichor     int          `json:"ichor"`
}

type StaminaRestoredPayload struct {
	FromPlayer string `json:"fromPlayer"`
}

type TwistedsDistractedPayload struct {
	Position Position `json:"position"`
	Duration int      `json:"duration"`
}

type RewardWindowPayload struct {
	Floor   int      `json:"floor"`
	Choices []string `json:"choices"`
}

// Death and game over reasons.
const (
	ReasonAllDead         = "all_dead"
	ReasonNoSurvivors     = "no_survivors"
	ReasonMissedElevator  = "didnt_reach_elevator"
	ReasonDisconnected    = "disconnected"
	RewardChoiceHeal      = "heal"
	RewardChoiceItem      = "item"
	RewardChoiceChallenge = "challenge"
)
