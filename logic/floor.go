package logic

import (
	"fmt"

	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/util"
)

// Floor generation. Pure functions of (floor number, challenge flag) plus
// an injected random source; callers may only rely on counts and bounds,
// not exact positions.

const (
	challengeMachineCount = 25
	challengeTwistedCount = 6
	maxTwistedCount       = 5
	patrolPointCount      = 4
)

// MachineCount steps up at floors 5, 11 and 16. Challenge floors always
// get the full challenge layout regardless of floor number.
func MachineCount(floor int, challenge bool) int {
	if challenge {
		return challengeMachineCount
	}
	switch {
	case floor >= 16:
		return 8
	case floor >= 11:
		return 6
	case floor >= 5:
		return 5
	default:
		return 4
	}
}

func TwistedCount(floor int, challenge bool) int {
	if challenge {
		return challengeTwistedCount
	}
	return min(1+floor/3, maxTwistedCount)
}

// GenerateMachines lays machines out on a loose 4-column grid with random
// jitter so they land clear of the walls.
func GenerateMachines(rng util.Rand, floor int, challenge bool) []model.Machine {
	count := MachineCount(floor, challenge)
	machines := make([]model.Machine, 0, count)
	for i := 0; i < count; i++ {
		machines = append(machines, model.Machine{
			ID: fmt.Sprintf("machine_%d", i),
			Position: model.Position{
				X: 100 + float64(i%4)*350 + rng.Float64()*100,
				Y: 200 + float64(i/4)*300 + rng.Float64()*100,
			},
		})
	}
	return machines
}

// GenerateTwisteds rolls a roster scaled to the floor: random toon skin,
// speed 2 + floor/10, a random ability tag and a small patrol loop.
func GenerateTwisteds(rng util.Rand, floor int, challenge bool, width, height float64) []model.Twisted {
	count := TwistedCount(floor, challenge)
	twisteds := make([]model.Twisted, 0, count)
	for i := 0; i < count; i++ {
		patrol := make([]model.Position, 0, patrolPointCount)
		for j := 0; j < patrolPointCount; j++ {
			patrol = append(patrol, randomPoint(rng, width, height))
		}
		twisteds = append(twisteds, model.Twisted{
			ID:           fmt.Sprintf("twisted_%d", i),
			ToonID:       model.Toons[rng.IntN(len(model.Toons))].ID,
			Position:     randomPoint(rng, width, height),
			Speed:        2 + float64(floor)*0.1,
			Ability:      model.TwistedAbilities[rng.IntN(len(model.TwistedAbilities))],
			State:        model.TwistedPatrol,
			PatrolPoints: patrol,
		})
	}
	return twisteds
}

// GenerateObstacles builds the perimeter walls plus 10 + floor*2 random
// props. All of them block Twisted vision.
func GenerateObstacles(rng util.Rand, floor int, width, height float64) []model.Obstacle {
	obstacles := []model.Obstacle{
		{ID: "wall_top", Position: model.Position{X: 0, Y: 0}, Width: width, Height: 20, Type: "wall"},
		{ID: "wall_bottom", Position: model.Position{X: 0, Y: height - 20}, Width: width, Height: 20, Type: "wall"},
		{ID: "wall_left", Position: model.Position{X: 0, Y: 0}, Width: 20, Height: height, Type: "wall"},
		{ID: "wall_right", Position: model.Position{X: width - 20, Y: 0}, Width: 20, Height: height, Type: "wall"},
	}
	types := []string{"crate", "pillar", "furniture"}
	sizes := map[string][2]float64{"crate": {60, 60}, "pillar": {40, 40}, "furniture": {80, 50}}
	count := 10 + floor*2
	for i := 0; i < count; i++ {
		kind := types[rng.IntN(len(types))]
		size := sizes[kind]
		obstacles = append(obstacles, model.Obstacle{
			ID: fmt.Sprintf("obs_%d", i),
			Position: model.Position{
				X: 100 + rng.Float64()*(width-200-size[0]),
				Y: 150 + rng.Float64()*(height-300-size[1]),
			},
			Width:  size[0],
			Height: size[1],
			Type:   kind,
		})
	}
	return obstacles
}

func randomPoint(rng util.Rand, width, height float64) model.Position {
	return model.Position{
		X: 100 + rng.Float64()*(width-200),
		Y: 100 + rng.Float64()*(height-200),
	}
}
