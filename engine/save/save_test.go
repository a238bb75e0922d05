package save

import (
	"strings"
	"testing"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

func testDefs() *state.Defs {
	defs := state.NewDefs()
	defs.Game = types.GameDef{Title: "Test", Version: "0.1", StartMap: 1, StartX: 1, StartY: 1, Party: []int{1}, Gold: 10}
	defs.Actors[1] = types.ActorDef{ID: 1, Name: "Alex", HP: 20}
	defs.Maps[1] = types.MapDef{ID: 1, Width: 5, Height: 5, Events: map[int]types.EventDef{
		1: {ID: 1, X: 2, Y: 2, Pages: []types.EventPage{{}}},
	}}
	defs.Maps[2] = types.MapDef{ID: 2, Width: 5, Height: 5, Events: map[int]types.EventDef{
		7: {ID: 7, X: 4, Y: 4, Pages: []types.EventPage{{}}},
	}}
	return defs
}

func TestSaveAndLoad(t *testing.T) {
	defs := testDefs()
	s := state.NewState(defs)
	s.Switches[3] = true
	s.Variables[4] = 99
	s.SelfSwitches[types.SelfSwitchKey{Map: 1, Event: 1, Letter: "A"}] = true
	s.SelfSwitches[types.SelfSwitchKey{Map: 1, Event: 1, Letter: "B"}] = false
	s.Party.Items[5] = 2
	s.Party.Actors[1].HP = 7
	s.Map.Player.X = 3
	s.Map.Events[1].X = 4
	s.Map.Erased[1] = true
	s.RNGSeed, s.RNGPosition = 42, 9

	data, err := Save(s, defs, "choice")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(string(data), `"game": "Test"`) {
		t.Errorf("save missing title: %s", data)
	}

	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sd.Continuation != "choice" {
		t.Errorf("continuation = %q, want choice", sd.Continuation)
	}
	if len(sd.SelfSwitches) != 1 {
		t.Errorf("self switches = %v, want only the one switched on", sd.SelfSwitches)
	}

	fresh := state.NewState(defs)
	state.EnterMap(fresh, defs, 2, 0, 0, types.DirUp)
	ApplySave(fresh, defs, sd)

	if !fresh.Switches[3] || fresh.Variables[4] != 99 {
		t.Errorf("switches/variables not restored: %v %v", fresh.Switches, fresh.Variables)
	}
	if !state.GetSelfSwitch(fresh, 1, 1, "A") {
		t.Error("self switch A not restored")
	}
	if fresh.Party.Items[5] != 2 || fresh.Party.Actors[1].HP != 7 {
		t.Errorf("party not restored: %+v", fresh.Party)
	}
	if fresh.Map.ID != 1 || fresh.Map.Player.X != 3 || fresh.Map.Events[1].X != 4 || !fresh.Map.Erased[1] {
		t.Errorf("map not restored: %+v", fresh.Map)
	}
	if _, ok := fresh.Map.Events[7]; ok {
		t.Error("events of the previous map should be gone")
	}
	if !fresh.Map.NeedsRefresh {
		t.Error("restored map should need a page refresh")
	}
	if fresh.RNGSeed != 42 || fresh.RNGPosition != 9 {
		t.Errorf("rng = %d/%d", fresh.RNGSeed, fresh.RNGPosition)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load([]byte("{")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Load([]byte(`{"format": 99}`)); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoad_NilMapsFilled(t *testing.T) {
	sd, err := Load([]byte(`{"format": 1, "party": {"actors": {"1": {"ID": 1}}}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sd.Switches == nil || sd.Variables == nil || sd.Party.Items == nil || sd.Map.Erased == nil {
		t.Errorf("nil maps after load: %+v", sd)
	}
	if sd.Party.Actors[1].States == nil {
		t.Error("actor states should be allocated")
	}
}
