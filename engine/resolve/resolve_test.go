package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

func testState() *types.State {
	defs := state.NewDefs()
	defs.Game = types.GameDef{StartMap: 1, StartX: 2, StartY: 2}
	defs.Maps[1] = types.MapDef{ID: 1, Width: 5, Height: 5, Events: map[int]types.EventDef{
		4: {ID: 4, X: 0, Y: 3},
		7: {ID: 7, X: 4, Y: 1},
	}}
	return state.NewState(defs)
}

func TestID(t *testing.T) {
	s := testState()

	tests := []struct {
		name    string
		ref     int
		owner   int
		want    int
		wantErr bool
	}{
		{"player", types.CharPlayer, 0, types.CharPlayer, false},
		{"this event", types.CharThisEvent, 4, 4, false},
		{"this event without owner", types.CharThisEvent, 0, 0, true},
		{"explicit event", 7, 4, 7, false},
		{"missing event", 9, 4, 0, true},
		{"owner not on map", types.CharThisEvent, 9, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ID(s, tt.ref, tt.owner)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCharacter(t *testing.T) {
	s := testState()

	ch, err := Character(s, types.CharPlayer, 0)
	if err != nil || ch != &s.Map.Player {
		t.Fatalf("expected the player character, got %v, %v", ch, err)
	}
	ch, err = Character(s, types.CharThisEvent, 7)
	if err != nil || ch.X != 4 || ch.Y != 1 {
		t.Errorf("expected event 7 at 4,1, got %+v, %v", ch, err)
	}

	_, err = Character(s, 12, 0)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Ref != 12 || nf.MapID != 1 {
		t.Errorf("unexpected error fields %+v", nf)
	}
	if nf.Error() != "no character 12 on map 1" {
		t.Errorf("unexpected message %q", nf.Error())
	}
}

func TestFacing(t *testing.T) {
	tests := []struct {
		dir  int
		x, y int
	}{
		{types.DirUp, 2, 1},
		{types.DirRight, 3, 2},
		{types.DirDown, 2, 3},
		{types.DirLeft, 1, 2},
	}
	for _, tt := range tests {
		x, y := Facing(&types.Character{X: 2, Y: 2, Dir: tt.dir})
		if x != tt.x || y != tt.y {
			t.Errorf("dir %d: got %d,%d, want %d,%d", tt.dir, x, y, tt.x, tt.y)
		}
	}
}
