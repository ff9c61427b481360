package model

// Elevator is one of the fixed lobby elevator slots. Occupants holds
// connection ids in entry order. Countdown is -1 while no countdown runs;
// Starting guards against a second countdown within the same occupancy
// cycle. Both reset together when the elevator empties or fires.
type Elevator struct {
	ID        int      `json:"id"`
	Occupants []string `json:"occupants"`
	Countdown int      `json:"countdown"`
	Starting  bool     `json:"-"`
}

const CountdownInactive = -1

func NewElevator(id int) *Elevator {
	return &Elevator{
		ID:        id,
		Occupants: []string{},
		Countdown: CountdownInactive,
	}
}

func (e *Elevator) Contains(connectionID string) bool {
	for _, id := range e.Occupants {
		if id == connectionID {
			return true
		}
	}
	return false
}

func (e *Elevator) Remove(connectionID string) {
	occupants := e.Occupants[:0]
	for _, id := range e.Occupants {
		if id != connectionID {
			occupants = append(occupants, id)
		}
	}
	e.Occupants = occupants
}

// Reset clears the occupant list and countdown state. Called both when the
// last occupant leaves and when the countdown fires.
func (e *Elevator) Reset() {
	e.Occupants = []string{}
	e.Countdown = CountdownInactive
	e.Starting = false
}
