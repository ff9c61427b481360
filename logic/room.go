package logic

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dandyworld/dandy-world-server/model"
	"github.com/dandyworld/dandy-world-server/service"
	"github.com/dandyworld/dandy-world-server/util"
)

var floorSpawn = model.Position{X: 800, Y: 900}

// Room runs one game: a party of players descending floors until everyone
// is dead or nobody reaches the elevator in time.
//
// All state behind the command channel belongs to the room goroutine. The
// socket layer posts intents with the exported methods; the goroutine is
// the only mutator, so handlers and timer callbacks never interleave.
type Room struct {
	ID     string
	config *model.Config

	rng         util.Rand
	broadcaster service.Broadcaster
	gameLogger  *service.GameLogger
	jsonLogger  *service.JSONLogger
	onDestroy   func(roomID string, connectionIDs []string)

	// Snapshot of the starting roster. The player list never gains or
	// loses entries after construction, so Destroy can hand these out
	// without touching state owned by the room goroutine.
	connectionIDs []string

	floor            int
	players          []*model.RoomPlayer
	machines         []model.Machine
	twisteds         []model.Twisted
	obstacles        []model.Obstacle
	panicActive      bool
	panicTimer       int
	ichor            int
	rewardOpen       bool
	rewardClaimed    map[string]bool
	pendingChallenge bool

	cmds        chan func()
	done        chan struct{}
	destroyOnce sync.Once
	panicTick   *time.Ticker
}

func NewRoom(id string, config *model.Config, rng util.Rand, broadcaster service.Broadcaster, players []*model.RoomPlayer) *Room {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ConnectionID)
	}
	r := &Room{
		ID:            id,
		config:        config,
		rng:           rng,
		broadcaster:   broadcaster,
		floor:         1,
		players:       players,
		connectionIDs: ids,
		cmds:          make(chan func(), 64),
		done:          make(chan struct{}),
	}
	r.generateFloor(false)
	slog.Info("room created", "room_id", id, "players", len(players))
	return r
}

func (r *Room) SetGameLogger(gameLogger *service.GameLogger) { r.gameLogger = gameLogger }
func (r *Room) SetJSONLogger(jsonLogger *service.JSONLogger) { r.jsonLogger = jsonLogger }
func (r *Room) SetOnDestroy(fn func(string, []string))       { r.onDestroy = fn }

// Start launches the room goroutine and the tick loop.
func (r *Room) Start() {
	go r.run()
}

func (r *Room) run() {
	ticker := time.NewTicker(r.config.Game.TickInterval)
	defer ticker.Stop()
	for {
		var panicC <-chan time.Time
		if r.panicTick != nil {
			panicC = r.panicTick.C
		}
		select {
		case <-r.done:
			r.stopPanicTimer()
			return
		case cmd := <-r.cmds:
			cmd()
		case <-ticker.C:
			r.tick()
		case <-panicC:
			r.handlePanicTick()
		}
	}
}

// post hands an intent to the room goroutine. Intents against a destroyed
// room are dropped, which makes every stale event a no-op.
func (r *Room) post(fn func()) {
	select {
	case r.cmds <- fn:
	case <-r.done:
	}
}

// Snapshot returns the initial full room state for the game_start event.
// Only valid before Start.
func (r *Room) Snapshot() model.GameStatePayload {
	return model.GameStatePayload{
		RoomID:    r.ID,
		Floor:     r.floor,
		Players:   r.playerValues(),
		Machines:  r.machines,
		Twisteds:  r.twisteds,
		Obstacles: r.obstacles,
		PanicMode: r.panicActive,
		Timer:     r.config.Game.PanicSeconds,
		Ichor:     r.ichor,
	}
}

// Intents. Each posts onto the room goroutine and returns immediately.

func (r *Room) MovePlayer(connectionID string, position model.Position) {
	r.post(func() { r.handleMove(connectionID, position) })
}

func (r *Room) FillMachine(machineID string) {
	r.post(func() { r.handleFillMachine(machineID) })
}

func (r *Room) ReachedElevator(connectionID string) {
	r.post(func() { r.handleReachedElevator(connectionID) })
}

func (r *Room) DamagePlayer(connectionID string) {
	r.post(func() { r.handleDamage(connectionID) })
}

func (r *Room) UseAbility(connectionID, abilityType, targetID string) {
	r.post(func() { r.handleUseAbility(connectionID, abilityType, targetID) })
}

func (r *Room) ChooseReward(connectionID, choice string) {
	r.post(func() { r.handleChooseReward(connectionID, choice) })
}

func (r *Room) HandleDisconnect(connectionID string) {
	r.post(func() { r.handleDisconnect(connectionID) })
}

// Destroy tears the room down. Safe to call from any goroutine and from
// multiple triggering paths; only the first call does anything. It touches
// nothing the room goroutine mutates: the done channel closes, the room
// goroutine stops its own tickers on the way out, and the roster handed to
// onDestroy is the construction-time snapshot.
func (r *Room) Destroy() {
	r.destroyOnce.Do(func() {
		close(r.done)
		if r.onDestroy != nil {
			r.onDestroy(r.ID, r.connectionIDs)
		}
		slog.Info("room destroyed", "room_id", r.ID)
	})
}

// tick advances the Twisted simulation by one step and broadcasts the
// updated roster.
func (r *Room) tick() {
	dt := r.config.Game.TickInterval.Seconds()
	width, height := r.config.Game.Map.Width, r.config.Game.Map.Height
	for i := range r.twisteds {
		if r.config.Game.TwistedAI {
			StepTwistedBehavior(&r.twisteds[i], r.players, r.obstacles, dt, width, height)
		} else {
			StepTwistedRandom(r.rng, &r.twisteds[i], width, height)
		}
	}
	r.broadcast(model.Event{Type: model.EventTwistedsUpdate, Data: r.twisteds})
}

func (r *Room) handleMove(connectionID string, position model.Position) {
	player := r.findPlayer(connectionID)
	if player == nil || !player.IsAlive {
		return
	}
	player.Position = position
	r.broadcastExcept(connectionID, model.Event{
		Type: model.EventPlayerMoved,
		Data: model.PlayerMovedPayload{ConnectionID: connectionID, Position: position},
	})
}

func (r *Room) handleFillMachine(machineID string) {
	machine := r.findMachine(machineID)
	if machine == nil || machine.Filled {
		return
	}
	machine.Filled = true
	r.ichor += 10 + r.floor*2
	r.appendLog(fmt.Sprintf("%d,machine,%s", r.floor, machineID))
	r.broadcast(model.Event{
		Type: model.EventMachineUpdate,
		Data: model.MachineUpdatePayload{MachineID: machineID, Filled: true},
	})
	if r.allMachinesFilled() && !r.panicActive {
		r.startPanic()
	}
}

func (r *Room) startPanic() {
	r.panicActive = true
	r.panicTimer = r.config.Game.PanicSeconds
	r.panicTick = time.NewTicker(time.Second)
	r.appendLog(fmt.Sprintf("%d,panic,%d", r.floor, r.panicTimer))
	slog.Info("panic mode started", "room_id", r.ID, "floor", r.floor, "timer", r.panicTimer)
	r.broadcast(model.Event{
		Type: model.EventPanicMode,
		Data: model.PanicModePayload{Timer: r.panicTimer},
	})
}

func (r *Room) stopPanicTimer() {
	if r.panicTick != nil {
		r.panicTick.Stop()
		r.panicTick = nil
	}
}

func (r *Room) handlePanicTick() {
	if !r.panicActive {
		return
	}
	r.panicTimer--
	if r.panicTimer <= 0 {
		r.stopPanicTimer()
		r.resolveFloorTransition()
	}
}

func (r *Room) handleReachedElevator(connectionID string) {
	if !r.panicActive {
		return
	}
	if player := r.findPlayer(connectionID); player != nil {
		player.ReachedElevator = true
	}
}

func (r *Room) handleDamage(connectionID string) {
	player := r.findPlayer(connectionID)
	if player == nil || !player.IsAlive {
		return
	}
	player.Health--
	r.broadcast(model.Event{
		Type: model.EventPlayerHealth,
		Data: model.PlayerHealthPayload{ConnectionID: connectionID, Health: player.Health},
	})
	if player.Health <= 0 {
		r.killPlayer(player, "")
		if util.CountAlive(r.players) == 0 {
			r.endGame(model.ReasonAllDead)
		}
	}
}

func (r *Room) handleUseAbility(connectionID, abilityType, targetID string) {
	caster := r.findPlayer(connectionID)
	if caster == nil {
		return
	}
	switch abilityType {
	case model.AbilityHeal:
		target := r.findPlayer(targetID)
		if target == nil || !target.IsAlive {
			return
		}
		target.Health = min(target.Health+1, target.MaxHealth)
		r.broadcast(model.Event{
			Type: model.EventPlayerHealth,
			Data: model.PlayerHealthPayload{ConnectionID: target.ConnectionID, Health: target.Health},
		})
	case model.AbilityStamina:
		r.broadcast(model.Event{
			Type: model.EventStaminaRestored,
			Data: model.StaminaRestoredPayload{FromPlayer: connectionID},
		})
	case model.AbilityDistract:
		if r.config.Game.TwistedAI {
			Distract(r.twisteds, caster.Position)
		}
		r.broadcast(model.Event{
			Type: model.EventTwistedsDistracted,
			Data: model.TwistedsDistractedPayload{Position: caster.Position, Duration: int(distractSeconds)},
		})
	}
}

// handleChooseReward applies one reward pick per player per window.
func (r *Room) handleChooseReward(connectionID, choice string) {
	player := r.findPlayer(connectionID)
	if player == nil || !player.IsAlive || !r.rewardOpen || r.rewardClaimed[connectionID] {
		return
	}
	switch choice {
	case model.RewardChoiceHeal:
		player.Health = min(player.Health+1, player.MaxHealth)
		r.broadcast(model.Event{
			Type: model.EventPlayerHealth,
			Data: model.PlayerHealthPayload{ConnectionID: connectionID, Health: player.Health},
		})
	case model.RewardChoiceChallenge:
		r.pendingChallenge = true
	case model.RewardChoiceItem:
		// Item rolls live on the client; nothing to track here.
	default:
		return
	}
	r.rewardClaimed[connectionID] = true
	r.appendLog(fmt.Sprintf("%d,reward,%s,%s", r.floor, connectionID, choice))
}

func (r *Room) handleDisconnect(connectionID string) {
	player := r.findPlayer(connectionID)
	if player == nil {
		return
	}
	if player.IsAlive {
		player.IsAlive = false
		r.appendLog(fmt.Sprintf("%d,disconnect,%s", r.floor, connectionID))
		r.broadcast(model.Event{
			Type: model.EventPlayerDisconnected,
			Data: model.PlayerDiedPayload{ConnectionID: connectionID, Reason: model.ReasonDisconnected},
		})
	}
	if util.CountAlive(r.players) == 0 {
		r.endGame(model.ReasonAllDead)
	}
}

// resolveFloorTransition runs when the panic countdown hits zero: everyone
// who did not reach the elevator dies, and the survivors ride down to a
// freshly generated floor.
func (r *Room) resolveFloorTransition() {
	r.panicActive = false
	survivors, failed := util.PartitionSurvivors(r.players)
	for _, player := range failed {
		r.killPlayer(player, model.ReasonMissedElevator)
	}
	if len(survivors) == 0 {
		r.endGame(model.ReasonNoSurvivors)
		return
	}

	challenge := r.pendingChallenge
	r.pendingChallenge = false
	r.rewardOpen = false
	r.floor++
	r.generateFloor(challenge)
	for _, player := range survivors {
		player.Position = floorSpawn
		player.ReachedElevator = false
	}
	r.appendLog(fmt.Sprintf("%d,floor,%d,%t", r.floor, len(survivors), challenge))
	slog.Info("floor advanced", "room_id", r.ID, "floor", r.floor, "survivors", len(survivors), "challenge", challenge)

	survivorValues := make([]model.RoomPlayer, 0, len(survivors))
	for _, p := range survivors {
		survivorValues = append(survivorValues, *p)
	}
	r.broadcast(model.Event{
		Type: model.EventNextFloor,
		Data: model.NextFloorPayload{
			Floor:     r.floor,
			Machines:  r.machines,
			Twisteds:  r.twisteds,
			Obstacles: r.obstacles,
			Players:   survivorValues,
			Ichor:     r.ichor,
		},
	})

	r.rewardOpen = true
	r.rewardClaimed = make(map[string]bool)
	r.broadcast(model.Event{
		Type: model.EventRewardWindow,
		Data: model.RewardWindowPayload{
			Floor:   r.floor,
			Choices: []string{model.RewardChoiceHeal, model.RewardChoiceItem, model.RewardChoiceChallenge},
		},
	})
}

// generateFloor regenerates the per-floor state. Panic state resets with it.
func (r *Room) generateFloor(challenge bool) {
	width, height := r.config.Game.Map.Width, r.config.Game.Map.Height
	r.machines = GenerateMachines(r.rng, r.floor, challenge)
	r.twisteds = GenerateTwisteds(r.rng, r.floor, challenge, width, height)
	r.obstacles = GenerateObstacles(r.rng, r.floor, width, height)
	r.panicActive = false
	r.panicTimer = r.config.Game.PanicSeconds
}

func (r *Room) killPlayer(player *model.RoomPlayer, reason string) {
	player.IsAlive = false
	r.appendLog(fmt.Sprintf("%d,died,%s,%s", r.floor, player.ConnectionID, reason))
	r.broadcast(model.Event{
		Type: model.EventPlayerDied,
		Data: model.PlayerDiedPayload{ConnectionID: player.ConnectionID, Reason: reason},
	})
}

func (r *Room) endGame(reason string) {
	r.appendLog(fmt.Sprintf("%d,game_over,%s", r.floor, reason))
	slog.Info("game over", "room_id", r.ID, "floor", r.floor, "reason", reason)
	r.broadcast(model.Event{
		Type: model.EventGameOver,
		Data: model.GameOverPayload{Floor: r.floor, Reason: reason, Ichor: r.ichor},
	})
	if r.gameLogger != nil {
		r.gameLogger.TrackEndRoom(r.ID)
	}
	if r.jsonLogger != nil {
		r.jsonLogger.TrackEndRoom(r.ID, r.floor, reason)
	}
	r.Destroy()
}

func (r *Room) broadcast(event model.Event) {
	if r.jsonLogger != nil && event.Type != model.EventTwistedsUpdate {
		r.jsonLogger.TrackEvent(r.ID, event)
	}
	r.broadcaster.Broadcast(r.ID, event)
}

func (r *Room) broadcastExcept(exceptID string, event model.Event) {
	r.broadcaster.BroadcastExcept(r.ID, exceptID, event)
}

func (r *Room) appendLog(line string) {
	if r.gameLogger != nil {
		r.gameLogger.AppendLog(r.ID, line)
	}
}

func (r *Room) findPlayer(connectionID string) *model.RoomPlayer {
	for _, p := range r.players {
		if p.ConnectionID == connectionID {
			return p
		}
	}
	return nil
}

func (r *Room) findMachine(machineID string) *model.Machine {
	for i := range r.machines {
		if r.machines[i].ID == machineID {
			return &r.machines[i]
		}
	}
	return nil
}

func (r *Room) allMachinesFilled() bool {
	for _, m := range r.machines {
		if !m.Filled {
			return false
		}
	}
	return len(r.machines) > 0
}

func (r *Room) playerValues() []model.RoomPlayer {
	players := make([]model.RoomPlayer, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, *p)
	}
	return players
}
