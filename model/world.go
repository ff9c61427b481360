package model

// Machine is an objective that must be filled to progress a floor.
type Machine struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Filled   bool     `json:"filled"`
}

// Twisted behavioral states. The simple server model only ever reports
// patrol; the richer behavior model cycles through all four.
const (
	TwistedPatrol     = "patrol"
	TwistedChase      = "chase"
	TwistedSearch     = "search"
	TwistedDistracted = "distracted"
)

// Twisted ability tags, assigned randomly at generation.
var TwistedAbilities = []string{"chase", "slow", "steal", "speed"}

// Twisted is a hostile NPC roaming a floor.
type Twisted struct {
	ID       string   `json:"id"`
	ToonID   string   `json:"toonId"`
	Position Position `json:"position"`
	Speed    float64  `json:"speed"`
	Ability  string   `json:"ability"`
	State    string   `json:"state"`

	// Behavior model bookkeeping, not part of the broadcast payload.
	LastSeen        *Position  `json:"-"`
	Target          *Position  `json:"-"`
	SearchTimer     float64    `json:"-"`
	DistractedTimer float64    `json:"-"`
	PatrolPoints    []Position `json:"-"`
	PatrolIndex     int        `json:"-"`
}

// Obstacle is a vision-blocking prop used by the Twisted behavior model.
type Obstacle struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Type     string   `json:"type"`
}

// Contains reports whether the point lies inside the obstacle rectangle.
func (o Obstacle) Contains(p Position) bool {
	return p.X >= o.Position.X && p.X <= o.Position.X+o.Width &&
		p.Y >= o.Position.Y && p.Y <= o.Position.Y+o.Height
}
