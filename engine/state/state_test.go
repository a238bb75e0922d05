package state

import (
	"testing"

	"github.com/nathoo/eventcore/types"
)

func testDefs() *Defs {
	defs := NewDefs()
	defs.Game = types.GameDef{
		Title:    "Test Game",
		Author:   "Test",
		Version:  "0.1.0",
		StartMap: 1,
		StartX:   2,
		StartY:   3,
		Party:    []int{1, 99, 2},
		Gold:     250,
	}
	defs.Actors[1] = types.ActorDef{ID: 1, Name: "Alex", HP: 30, MP: 8, Attack: 5, Defense: 2}
	defs.Actors[2] = types.ActorDef{ID: 2, Name: "Brin", HP: 20, MP: 12}
	defs.Actors[3] = types.ActorDef{ID: 3, Name: "Cade", HP: 25}
	defs.Maps[1] = types.MapDef{ID: 1, Name: "Village", Width: 6, Height: 5, Events: map[int]types.EventDef{
		1: {ID: 1, X: 4, Y: 1, Pages: []types.EventPage{
			{Trigger: types.TriggerAction},
			{Condition: types.PageCondition{Switch1: 1}, Trigger: types.TriggerTouch},
		}},
		2: {ID: 2, X: 0, Y: 0},
	}}
	defs.Maps[2] = types.MapDef{ID: 2, Name: "Cellar", Width: 3, Height: 3}
	return defs
}

func TestNewState_StartsOnStartMap(t *testing.T) {
	s := NewState(testDefs())

	if s.Map.ID != 1 {
		t.Errorf("expected map 1, got %d", s.Map.ID)
	}
	p := s.Map.Player
	if p.ID != types.CharPlayer || p.X != 2 || p.Y != 3 || p.Dir != types.DirDown {
		t.Errorf("unexpected player %+v", p)
	}
	if !s.Map.NeedsRefresh {
		t.Error("a fresh map needs a page refresh")
	}
}

func TestNewState_Party(t *testing.T) {
	s := NewState(testDefs())

	if len(s.Party.Members) != 2 || s.Party.Members[0] != 1 || s.Party.Members[1] != 2 {
		t.Errorf("undefined actors are skipped, got %v", s.Party.Members)
	}
	if s.Party.Gold != 250 {
		t.Errorf("expected 250 gold, got %d", s.Party.Gold)
	}
	if a := Actor(s, 3); a == nil || a.HP != 25 {
		t.Error("every defined actor gets runtime state")
	}
	if s.Message.ChoiceResult != -1 || s.Battle.Target != -1 {
		t.Error("choice result and battle target start unresolved")
	}
}

func TestNewActorState_FullHealth(t *testing.T) {
	a := NewActorState(types.ActorDef{ID: 1, Name: "Alex", HP: 30, MP: 8, Attack: 5, Defense: 2})

	if a.HP != a.MaxHP || a.MP != a.MaxMP || a.HP != 30 || a.MP != 8 {
		t.Errorf("unexpected actor %+v", a)
	}
	if a.States == nil {
		t.Error("states map must be allocated")
	}
}

func TestEnterMap_PlacesEventsAndKeepsMemory(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)
	s.Map.Memory = types.Location{MapID: 1, X: 4, Y: 4}
	s.Map.Erased[1] = true

	EnterMap(s, defs, 2, 1, 1, types.DirLeft)

	if s.Map.ID != 2 || len(s.Map.Events) != 0 {
		t.Errorf("expected an empty map 2, got %+v", s.Map)
	}
	if s.Map.Memory.X != 4 {
		t.Error("memorized location survives transfers")
	}

	EnterMap(s, defs, 1, 0, 1, types.DirUp)
	if s.Map.Erased[1] {
		t.Error("erased events return when the map is re-entered")
	}
	if ch := s.Map.Events[1]; ch == nil || ch.X != 4 || ch.Y != 1 {
		t.Errorf("event 1 should start at its defined position, got %+v", ch)
	}
	if s.Map.Pages[1] != -1 {
		t.Error("pages are unselected until refresh")
	}
}

func TestGetters_UnsetDefaults(t *testing.T) {
	s := NewState(testDefs())

	if GetSwitch(s, 5) {
		t.Error("unset switch should be off")
	}
	if GetVariable(s, 5) != 0 {
		t.Error("unset variable should be 0")
	}
	if GetSelfSwitch(s, 1, 1, "A") {
		t.Error("unset self switch should be off")
	}
	if ItemCount(s, 5) != 0 {
		t.Error("unheld item count should be 0")
	}
	if Actor(s, 42) != nil {
		t.Error("unknown actor should be nil")
	}
}

func TestInParty(t *testing.T) {
	s := NewState(testDefs())

	if !InParty(s, 1) || InParty(s, 3) {
		t.Errorf("unexpected membership for party %v", s.Party.Members)
	}
}

func TestCharacter(t *testing.T) {
	s := NewState(testDefs())

	if Character(s, types.CharPlayer) != &s.Map.Player {
		t.Error("CharPlayer resolves to the player")
	}
	if ch := Character(s, 2); ch == nil || ch.ID != 2 {
		t.Errorf("expected event 2, got %+v", ch)
	}
	if Character(s, 9) != nil {
		t.Error("unknown events resolve to nil")
	}
}

func TestEventAt(t *testing.T) {
	s := NewState(testDefs())

	if got := EventAt(s, 4, 1); got != 1 {
		t.Errorf("expected event 1 at 4,1, got %d", got)
	}
	s.Map.Events[2].X, s.Map.Events[2].Y = 4, 1
	if got := EventAt(s, 4, 1); got != 1 {
		t.Errorf("lower IDs win, got %d", got)
	}
	s.Map.Erased[1] = true
	if got := EventAt(s, 4, 1); got != 2 {
		t.Errorf("erased events are skipped, got %d", got)
	}
	s.Map.Events[2].Hidden = true
	if got := EventAt(s, 4, 1); got != 0 {
		t.Errorf("hidden events are skipped, got %d", got)
	}
}

func TestActivePage(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)

	if ActivePage(s, defs, 1) != nil {
		t.Error("no page before refresh")
	}
	s.Map.Pages[1] = 1
	if p := ActivePage(s, defs, 1); p == nil || p.Trigger != types.TriggerTouch {
		t.Errorf("expected the touch page, got %+v", p)
	}
	s.Map.Erased[1] = true
	if ActivePage(s, defs, 1) != nil {
		t.Error("erased events have no active page")
	}
	if ActivePage(s, defs, 42) != nil {
		t.Error("unknown events have no active page")
	}
}

func TestPassable(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)

	tests := []struct {
		x, y int
		want bool
	}{
		{0, 1, true},
		{4, 1, false},
		{-1, 1, false},
		{6, 1, false},
		{1, 5, false},
		{5, 4, true},
	}
	for _, tt := range tests {
		if got := Passable(s, defs, tt.x, tt.y); got != tt.want {
			t.Errorf("Passable(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	s.Map.ID = 77
	if Passable(s, defs, 0, 1) {
		t.Error("unknown maps are impassable")
	}
}

func TestAliveMembers(t *testing.T) {
	s := NewState(testDefs())
	s.Party.Actors[1].HP = 0

	got := AliveMembers(s)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestCrowdCentroid(t *testing.T) {
	s := NewState(testDefs())
	// player 2,3; event 1 at 4,1; event 2 at 0,0 → sums 6,4 over 3.
	if x, y := CrowdCentroid(s); x != 2 || y != 1 {
		t.Errorf("got %d,%d, want 2,1", x, y)
	}

	s.Map.Events[2].Hidden = true
	// player and event 1 only → 6/2, 4/2.
	if x, y := CrowdCentroid(s); x != 3 || y != 2 {
		t.Errorf("got %d,%d, want 3,2", x, y)
	}
}
