package mapscript

import (
	"fmt"

	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// Route step codes.
const (
	StepUp = iota + 1
	StepRight
	StepDown
	StepLeft
	StepTurnUp
	StepTurnRight
	StepTurnDown
	StepTurnLeft
	StepWait
	StepSwitchOn
	StepSwitchOff
)

// MoveEvent flag bits.
const (
	FlagRepeat = 1 << iota
	FlagSkippable
	FlagWait
)

// hasArg reports whether a step code is followed by an argument.
func hasArg(code int) bool {
	return code == StepWait || code == StepSwitchOn || code == StepSwitchOff
}

// DecodeRoute decodes the route carried by MoveEvent parameters
// [target, flags, code, arg?, code, ...]. It reports the wait flag
// separately.
func DecodeRoute(p []int) (*types.MoveRoute, bool, error) {
	if len(p) < 2 {
		return nil, false, fmt.Errorf("move route: want at least 2 params, got %d", len(p))
	}
	flags := p[1]
	r := &types.MoveRoute{
		Repeat:    flags&FlagRepeat != 0,
		Skippable: flags&FlagSkippable != 0,
	}
	for i := 2; i < len(p); i++ {
		code := p[i]
		if code < StepUp || code > StepSwitchOff {
			return nil, false, fmt.Errorf("move route: unknown step %d at %d", code, i)
		}
		step := types.RouteStep{Code: code}
		if hasArg(code) {
			if i+1 >= len(p) {
				return nil, false, fmt.Errorf("move route: step %d missing argument", code)
			}
			i++
			step.Arg = p[i]
		}
		r.Steps = append(r.Steps, step)
	}
	return r, flags&FlagWait != 0, nil
}

// EncodeRoute is the inverse of DecodeRoute.
func EncodeRoute(target int, r *types.MoveRoute, wait bool) []int {
	flags := 0
	if r.Repeat {
		flags |= FlagRepeat
	}
	if r.Skippable {
		flags |= FlagSkippable
	}
	if wait {
		flags |= FlagWait
	}
	p := []int{target, flags}
	for _, st := range r.Steps {
		p = append(p, st.Code)
		if hasArg(st.Code) {
			p = append(p, st.Arg)
		}
	}
	return p
}

// UpdateCharacters advances every forced route by one tick. Steps execute
// on frames divisible by moveFrames; waits count down every tick.
func UpdateCharacters(s *types.State, defs *state.Defs, moveFrames int) []types.Event {
	if moveFrames < 1 {
		moveFrames = 1
	}
	var out []types.Event
	out = append(out, advance(s, defs, &s.Map.Player, moveFrames)...)
	for _, id := range sortedIDs(s) {
		out = append(out, advance(s, defs, s.Map.Events[id], moveFrames)...)
	}
	return out
}

func advance(s *types.State, defs *state.Defs, ch *types.Character, moveFrames int) []types.Event {
	ar := ch.Route
	if ar == nil || ar.Done || ar.Route == nil {
		return nil
	}
	if ar.WaitLeft > 0 {
		ar.WaitLeft--
		return nil
	}
	if s.Frame%moveFrames != 0 {
		return nil
	}
	if len(ar.Route.Steps) == 0 {
		ar.Done = true
		return nil
	}

	var out []types.Event
	step := ar.Route.Steps[ar.Index]
	moved := true
	switch step.Code {
	case StepUp, StepRight, StepDown, StepLeft:
		dir := step.Code - StepUp
		ch.Dir = dir
		x, y := next(ch.X, ch.Y, dir)
		if canEnter(s, defs, ch, x, y) {
			ch.X, ch.Y = x, y
		} else {
			moved = ar.Route.Skippable
		}
	case StepTurnUp, StepTurnRight, StepTurnDown, StepTurnLeft:
		ch.Dir = step.Code - StepTurnUp
	case StepWait:
		ar.WaitLeft = step.Arg
	case StepSwitchOn:
		out = append(out, effects.SetSwitch(s, step.Arg, true))
	case StepSwitchOff:
		out = append(out, effects.SetSwitch(s, step.Arg, false))
	}
	if !moved {
		return out
	}
	ar.Index++
	if ar.Index >= len(ar.Route.Steps) {
		if ar.Route.Repeat {
			ar.Index = 0
		} else {
			ar.Done = true
		}
	}
	return out
}

func next(x, y, dir int) (int, int) {
	switch dir {
	case types.DirUp:
		return x, y - 1
	case types.DirRight:
		return x + 1, y
	case types.DirDown:
		return x, y + 1
	case types.DirLeft:
		return x - 1, y
	}
	return x, y
}

// canEnter checks bounds, events, and the player tile.
func canEnter(s *types.State, defs *state.Defs, ch *types.Character, x, y int) bool {
	if !state.Passable(s, defs, x, y) {
		return false
	}
	p := s.Map.Player
	return ch.ID == types.CharPlayer || p.X != x || p.Y != y
}
