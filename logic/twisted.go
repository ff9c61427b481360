package logic

import (
	"math"

	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/util"
)

// Twisted movement models. The simple model reproduces the authoritative
// random walk; the behavior model adds the patrol/chase/search/distracted
// state machine driven by line of sight.

const (
	visionRadius    = 300.0
	losSampleStep   = 20.0
	chaseMultiplier = 1.5
	searchSeconds   = 3.0
	distractSeconds = 5.0
	patrolArrive    = 20.0
	mapMargin       = 50.0
	// Movement steps are tuned against the client's 60fps frames.
	frameRate = 60.0
)

// StepTwistedRandom applies one random displacement scaled by speed,
// clamped to the map margins.
func StepTwistedRandom(rng util.Rand, t *model.Twisted, width, height float64) {
	t.Position.X += (rng.Float64() - 0.5) * t.Speed * 2
	t.Position.Y += (rng.Float64() - 0.5) * t.Speed * 2
	t.Position = t.Position.Clamp(mapMargin, mapMargin, width-mapMargin, height-mapMargin)
}

// HasLineOfSight samples the segment between two points and reports false
// if any sample lands inside an obstacle.
func HasLineOfSight(from, to model.Position, obstacles []model.Obstacle) bool {
	dist := from.DistanceTo(to)
	steps := int(math.Ceil(dist / losSampleStep))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		point := model.Position{
			X: from.X + (to.X-from.X)*f,
			Y: from.Y + (to.Y-from.Y)*f,
		}
		for _, obs := range obstacles {
			if obs.Contains(point) {
				return false
			}
		}
	}
	return true
}

// StepTwistedBehavior advances the behavior state machine by dt seconds and
// moves the Twisted toward its current target.
//
// Transitions: any sighting of a living player flips to chase and pins the
// last seen position; losing sight drops chase to search for a short hold;
// search decays back to patrol. A distraction overrides everything until
// its timer runs out.
func StepTwistedBehavior(t *model.Twisted, players []*model.RoomPlayer, obstacles []model.Obstacle, dt float64, width, height float64) {
	seen := nearestVisiblePlayer(t, players, obstacles)

	switch {
	case t.State == model.TwistedDistracted:
		t.DistractedTimer -= dt
		if t.DistractedTimer <= 0 {
			t.State = model.TwistedPatrol
			t.Target = nil
		}
	case seen != nil:
		t.State = model.TwistedChase
		pos := *seen
		t.LastSeen = &pos
	case t.State == model.TwistedChase:
		t.State = model.TwistedSearch
		t.SearchTimer = searchSeconds
	case t.State == model.TwistedSearch:
		t.SearchTimer -= dt
		if t.SearchTimer <= 0 {
			t.State = model.TwistedPatrol
		}
	}

	var target model.Position
	switch {
	case t.State == model.TwistedDistracted && t.Target != nil:
		target = *t.Target
	case (t.State == model.TwistedChase || t.State == model.TwistedSearch) && t.LastSeen != nil:
		target = *t.LastSeen
	case len(t.PatrolPoints) > 0:
		target = t.PatrolPoints[t.PatrolIndex]
	default:
		return
	}

	speed := t.Speed
	if t.State == model.TwistedChase {
		speed *= chaseMultiplier
	}
	angle := math.Atan2(target.Y-t.Position.Y, target.X-t.Position.X)
	t.Position.X += math.Cos(angle) * speed * dt * frameRate
	t.Position.Y += math.Sin(angle) * speed * dt * frameRate
	t.Position = t.Position.Clamp(mapMargin, mapMargin, width-mapMargin, height-mapMargin)

	if t.State == model.TwistedPatrol && len(t.PatrolPoints) > 0 {
		if t.Position.DistanceTo(t.PatrolPoints[t.PatrolIndex]) < patrolArrive {
			t.PatrolIndex = (t.PatrolIndex + 1) % len(t.PatrolPoints)
		}
	}
}

// Distract points every Twisted at the given position for a fixed duration.
func Distract(twisteds []model.Twisted, position model.Position) {
	for i := range twisteds {
		twisteds[i].State = model.TwistedDistracted
		twisteds[i].DistractedTimer = distractSeconds
		pos := position
		twisteds[i].Target = &pos
	}
}

func nearestVisiblePlayer(t *model.Twisted, players []*model.RoomPlayer, obstacles []model.Obstacle) *model.Position {
	var nearest *model.Position
	nearestDist := visionRadius
	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		dist := t.Position.DistanceTo(p.Position)
		if dist < nearestDist && HasLineOfSight(t.Position, p.Position, obstacles) {
			pos := p.Position
			nearest = &pos
			nearestDist = dist
		}
	}
	return nearest
}
