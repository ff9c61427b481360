package test

import (
	"testing"
	"time"

	"github.com/dandyworld/dandy-world-server/model"
)

// The debug config shortens the elevator countdown and the panic timer to
// two seconds each so a full floor cycle fits in a test run.
func loadDebugConfig(t *testing.T) *model.Config {
	config, err := model.LoadFromPath("../config/debug.yml")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return config
}

func joinLobby(t *testing.T, tc *TestClient, name string, toonID string) {
	if err := tc.Send(model.EventJoinLobby, map[string]any{"playerName": name, "toonId": toonID}); err != nil {
		t.Fatalf("%s: join_lobby: %v", name, err)
	}
	if _, err := tc.WaitFor(model.EventLobbyState, 3*time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestFullSessionFlow(t *testing.T) {
	config := loadDebugConfig(t)
	u := launchAsyncServer(t, config)
	t.Logf("server started: %s", u.String())
	time.Sleep(1 * time.Second)

	alice, err := NewTestClient(t, u, "alice")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer alice.Close()
	bob, err := NewTestClient(t, u, "bob")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer bob.Close()

	joinLobby(t, alice, "alice", "pebble")
	joinLobby(t, bob, "bob", "boxten")
	if _, err := alice.WaitFor(model.EventPlayerJoined, 3*time.Second); err != nil {
		t.Fatal(err)
	}

	if err := alice.Send(model.EventEnterElevator, map[string]any{"elevatorId": 1}); err != nil {
		t.Fatalf("enter_elevator: %v", err)
	}
	update, err := bob.WaitFor(model.EventElevatorUpdate, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if countdown, ok := update.Data["countdown"].(float64); !ok || int(countdown) != config.Game.ElevatorCountdown {
		t.Errorf("expected countdown %d, got %v", config.Game.ElevatorCountdown, update.Data["countdown"])
	}
	if err := bob.Send(model.EventEnterElevator, map[string]any{"elevatorId": 1}); err != nil {
		t.Fatalf("enter_elevator: %v", err)
	}

	start, err := alice.WaitFor(model.EventGameStart, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.WaitFor(model.EventGameStart, 5*time.Second); err != nil {
		t.Fatal(err)
	}

	roomID, _ := start.Data["roomId"].(string)
	if roomID == "" {
		t.Fatalf("game_start carried no room id: %v", start.Data)
	}
	if floor, _ := start.Data["floor"].(float64); int(floor) != 1 {
		t.Errorf("expected floor 1, got %v", start.Data["floor"])
	}
	machines, _ := start.Data["machines"].([]any)
	if len(machines) != 4 {
		t.Fatalf("expected 4 machines on floor 1, got %d", len(machines))
	}
	twisteds, _ := start.Data["twisteds"].([]any)
	if len(twisteds) != 1 {
		t.Errorf("expected 1 twisted on floor 1, got %d", len(twisteds))
	}
	players, _ := start.Data["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("expected 2 players in room, got %d", len(players))
	}

	for _, raw := range machines {
		machine, _ := raw.(map[string]any)
		machineID, _ := machine["id"].(string)
		if err := alice.Send(model.EventMachineFilled, map[string]any{"roomId": roomID, "machineId": machineID}); err != nil {
			t.Fatalf("machine_filled: %v", err)
		}
		if _, err := bob.WaitFor(model.EventMachineUpdate, 3*time.Second); err != nil {
			t.Fatal(err)
		}
	}

	panicEvent, err := alice.WaitFor(model.EventPanicMode, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if timer, _ := panicEvent.Data["timer"].(float64); int(timer) != config.Game.PanicSeconds {
		t.Errorf("expected panic timer %d, got %v", config.Game.PanicSeconds, panicEvent.Data["timer"])
	}

	// Only alice makes the elevator. Bob dies when the timer runs out and
	// the room advances with a single survivor.
	if err := alice.Send(model.EventReachedElevator, map[string]any{"roomId": roomID}); err != nil {
		t.Fatalf("reached_elevator: %v", err)
	}

	next, err := alice.WaitFor(model.EventNextFloor, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if floor, _ := next.Data["floor"].(float64); int(floor) != 2 {
		t.Errorf("expected floor 2, got %v", next.Data["floor"])
	}
	survivors, _ := next.Data["players"].([]any)
	if len(survivors) != 1 {
		t.Errorf("expected 1 survivor, got %d", len(survivors))
	}

	died, err := bob.WaitFor(model.EventPlayerDied, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if reason, _ := died.Data["reason"].(string); reason != model.ReasonMissedElevator {
		t.Errorf("expected reason %s, got %v", model.ReasonMissedElevator, died.Data["reason"])
	}

	if _, err := alice.WaitFor(model.EventRewardWindow, 3*time.Second); err != nil {
		t.Fatal(err)
	}

	// Pebble has two hearts. Two hits end the run since bob is already dead.
	for range 2 {
		if err := alice.Send(model.EventPlayerDamaged, map[string]any{"roomId": roomID}); err != nil {
			t.Fatalf("player_damaged: %v", err)
		}
	}
	over, err := alice.WaitFor(model.EventGameOver, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if reason, _ := over.Data["reason"].(string); reason != model.ReasonAllDead {
		t.Errorf("expected reason %s, got %v", model.ReasonAllDead, over.Data["reason"])
	}
	if floor, _ := over.Data["floor"].(float64); int(floor) != 2 {
		t.Errorf("expected game over on floor 2, got %v", over.Data["floor"])
	}
}

func TestElevatorCountdownCancelledWhenEmptied(t *testing.T) {
	config := loadDebugConfig(t)
	u := launchAsyncServer(t, config)
	time.Sleep(1 * time.Second)

	solo, err := NewTestClient(t, u, "solo")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer solo.Close()
	joinLobby(t, solo, "solo", "vee")

	if err := solo.Send(model.EventEnterElevator, map[string]any{"elevatorId": 2}); err != nil {
		t.Fatalf("enter_elevator: %v", err)
	}
	if _, err := solo.WaitFor(model.EventElevatorUpdate, 3*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := solo.Send(model.EventLeaveElevator, nil); err != nil {
		t.Fatalf("leave_elevator: %v", err)
	}

	// Long enough for the cancelled countdown to have fired if it survived.
	if _, err := solo.WaitFor(model.EventGameStart, time.Duration(config.Game.ElevatorCountdown+2)*time.Second); err == nil {
		t.Error("game started even though the elevator was vacated")
	}
}
