package message

import (
	"errors"
	"testing"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

func newState() *types.State {
	defs := state.NewDefs()
	defs.Maps[1] = types.MapDef{ID: 1, Width: 2, Height: 2}
	defs.Game.StartMap = 1
	return state.NewState(defs)
}

func TestConfirm(t *testing.T) {
	s := newState()
	if err := Confirm(s); !errors.Is(err, ErrNoMessage) {
		t.Fatalf("err = %v, want ErrNoMessage", err)
	}

	s.Message = types.MessageState{Visible: true, Waiting: true, Lines: []string{"Hi"}, ChoiceResult: -1}
	if err := Confirm(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Message.Visible || s.Message.Waiting || len(s.Message.Lines) != 0 {
		t.Errorf("window not closed: %+v", s.Message)
	}
}

func TestConfirm_PromptOpen(t *testing.T) {
	s := newState()
	s.Message = types.MessageState{Visible: true, Waiting: true, Choices: []string{"Yes", "No"}, ChoiceResult: -1}
	if err := Confirm(s); !errors.Is(err, ErrPromptOpen) {
		t.Errorf("err = %v, want ErrPromptOpen", err)
	}
}

func TestChoose(t *testing.T) {
	s := newState()
	s.Message = types.MessageState{Visible: true, Waiting: true, Choices: []string{"Yes", "No"}, ChoiceResult: -1}

	var rerr *RangeError
	if err := Choose(s, 2); !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RangeError", err)
	}
	if err := Choose(s, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Message.ChoiceResult != 1 || s.Message.Waiting || s.Message.Visible {
		t.Errorf("state after choose: %+v", s.Message)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name   string
		cancel int
		want   int
		err    error
	}{
		{"disallowed", 0, -1, ErrCannotCancel},
		{"picks option", 2, 1, nil},
		{"cancel branch", 3, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState()
			s.Message = types.MessageState{Visible: true, Waiting: true, Choices: []string{"A", "B"}, ChoiceCancel: tt.cancel, ChoiceResult: -1}
			err := Cancel(s)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if s.Message.ChoiceResult != tt.want {
				t.Errorf("result = %d, want %d", s.Message.ChoiceResult, tt.want)
			}
		})
	}
}

func TestEnterNumber(t *testing.T) {
	s := newState()
	s.Message = types.MessageState{Visible: true, Waiting: true, NumberDigits: 2, NumberVar: 5, ChoiceResult: -1}

	if _, err := EnterNumber(s, 100); err == nil {
		t.Fatal("expected range error")
	}
	e, err := EnterNumber(s, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Variables[5] != 42 || e.Type != "variable_changed" {
		t.Errorf("var = %d, event = %v", s.Variables[5], e)
	}
	if Open(s) {
		t.Error("window should be closed")
	}
}

func TestRender(t *testing.T) {
	s := newState()
	s.Message = types.MessageState{Visible: true, Face: "hero", Lines: []string{"Pick one."}, Choices: []string{"Red", "Blue"}}
	got := Render(s)
	want := []string{"[hero]", "Pick one.", "  1) Red", "  2) Blue"}
	if len(got) != len(want) {
		t.Fatalf("Render = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
