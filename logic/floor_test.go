package logic

import (
	"testing"

	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/util"
	"github.com/stretchr/testify/assert"
)

const (
	testMapWidth  = 1600.0
	testMapHeight = 1000.0
)

func TestMachineCount(t *testing.T) {
	cases := []struct {
		floor int
		want  int
	}{
		{1, 4}, {4, 4},
		{5, 5}, {10, 5},
		{11, 6}, {15, 6},
		{16, 8}, {40, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MachineCount(c.floor, false), "floor %d", c.floor)
	}
}

func TestMachineCountChallenge(t *testing.T) {
	for _, floor := range []int{1, 7, 16, 99} {
		assert.Equal(t, 25, MachineCount(floor, true), "floor %d", floor)
	}
}

func TestTwistedCount(t *testing.T) {
	cases := []struct {
		floor int
		want  int
	}{
		{1, 1}, {2, 1},
		{3, 2}, {5, 2},
		{6, 3}, {9, 4},
		{12, 5}, {30, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TwistedCount(c.floor, false), "floor %d", c.floor)
	}
}

func TestTwistedCountChallenge(t *testing.T) {
	for _, floor := range []int{1, 12, 50} {
		assert.Equal(t, 6, TwistedCount(floor, true), "floor %d", floor)
	}
}

func TestGenerateMachines(t *testing.T) {
	rng := util.NewSeededRand(1)
	machines := GenerateMachines(rng, 5, false)
	assert.Len(t, machines, 5)
	seen := map[string]bool{}
	for _, m := range machines {
		assert.False(t, m.Filled)
		assert.False(t, seen[m.ID], "duplicate machine id %s", m.ID)
		seen[m.ID] = true
		assert.GreaterOrEqual(t, m.Position.X, 100.0)
		assert.GreaterOrEqual(t, m.Position.Y, 200.0)
	}
}

func TestGenerateTwisteds(t *testing.T) {
	rng := util.NewSeededRand(2)
	twisteds := GenerateTwisteds(rng, 9, false, testMapWidth, testMapHeight)
	assert.Len(t, twisteds, 4)
	for _, tw := range twisteds {
		assert.InDelta(t, 2.9, tw.Speed, 1e-9)
		assert.Equal(t, model.TwistedPatrol, tw.State)
		assert.Contains(t, model.TwistedAbilities, tw.Ability)
		assert.Len(t, tw.PatrolPoints, 4)
		_, knownToon := model.ToonByID(tw.ToonID)
		assert.True(t, knownToon, "unknown toon skin %s", tw.ToonID)
		assert.GreaterOrEqual(t, tw.Position.X, 100.0)
		assert.LessOrEqual(t, tw.Position.X, testMapWidth-100)
		assert.GreaterOrEqual(t, tw.Position.Y, 100.0)
		assert.LessOrEqual(t, tw.Position.Y, testMapHeight-100)
	}
}

func TestGenerateObstacles(t *testing.T) {
	rng := util.NewSeededRand(3)
	obstacles := GenerateObstacles(rng, 3, testMapWidth, testMapHeight)
	// 4 perimeter walls plus 10 + floor*2 props.
	assert.Len(t, obstacles, 4+16)
	for _, o := range obstacles[4:] {
		assert.GreaterOrEqual(t, o.Position.X, 100.0)
		assert.LessOrEqual(t, o.Position.X+o.Width, testMapWidth-100+o.Width)
	}
}
