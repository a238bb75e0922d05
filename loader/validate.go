package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

var pageTriggers = map[types.Trigger]bool{
	types.TriggerAction:   true,
	types.TriggerTouch:    true,
	types.TriggerAutorun:  true,
	types.TriggerParallel: true,
}

var commonTriggers = map[types.Trigger]bool{
	types.TriggerAutorun:  true,
	types.TriggerParallel: true,
	types.TriggerCall:     true,
}

// blockClosers pairs openers with the closer expected at the same indent.
var blockClosers = map[int]int{
	opcode.ConditionalBranch:  opcode.EndBranch,
	opcode.ConditionalBranchB: opcode.EndBranchB,
	opcode.ShowChoice:         opcode.ChoiceEnd,
	opcode.Loop:               opcode.EndLoop,
}

// validate checks the compiled defs for referential integrity and program
// structure. Errors reject the content; warnings are reported.
func validate(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	g := defs.Game
	if g.Title == "" {
		ve.errorf("Game.title is required")
	}
	if start, ok := defs.Maps[g.StartMap]; !ok {
		ve.errorf("start map %d not found in defined maps", g.StartMap)
	} else if !inBounds(start, g.StartX, g.StartY) {
		ve.errorf("start position (%d,%d) outside map %d", g.StartX, g.StartY, g.StartMap)
	}
	if len(g.Party) == 0 {
		ve.warnf("starting party is empty")
	}
	for _, id := range g.Party {
		if _, ok := defs.Actors[id]; !ok {
			ve.errorf("starting party references undefined actor %d", id)
		}
	}

	for _, id := range sortedIDs(defs.Troops) {
		t := defs.Troops[id]
		if len(t.Members) == 0 {
			ve.errorf("troop %d has no members", id)
		}
		for _, m := range t.Members {
			if _, ok := defs.Enemies[m]; !ok {
				ve.errorf("troop %d references undefined enemy %d", id, m)
			}
		}
		for i, p := range t.Pages {
			if e := p.Condition.EnemyIndex; e < 0 || e > len(t.Members) {
				ve.errorf("troop %d page %d condition names enemy slot %d", id, i+1, e)
			}
			validateProgram(p.Program, opcode.ScopeBattle, fmt.Sprintf("troop %d page %d", id, i+1), defs, ve)
		}
	}

	for _, id := range sortedIDs(defs.CommonEvents) {
		ce := defs.CommonEvents[id]
		if !commonTriggers[ce.Trigger] {
			ve.errorf("common event %d has invalid trigger %q", id, ce.Trigger)
		}
		if ce.Trigger != types.TriggerCall && ce.Switch == 0 {
			ve.warnf("common event %d is %s with no condition switch", id, ce.Trigger)
		}
		validateProgram(ce.Program, opcode.ScopeMap, fmt.Sprintf("common event %d", id), defs, ve)
	}

	for _, id := range sortedIDs(defs.Maps) {
		m := defs.Maps[id]
		if m.Width <= 0 || m.Height <= 0 {
			ve.errorf("map %d has invalid size %dx%d", id, m.Width, m.Height)
		}
		occupied := map[[2]int]int{}
		for _, eid := range sortedIDs(m.Events) {
			ev := m.Events[eid]
			where := fmt.Sprintf("map %d event %d", id, eid)
			if eid <= 0 {
				ve.errorf("%s: event ids start at 1", where)
			}
			if !inBounds(m, ev.X, ev.Y) {
				ve.errorf("%s: position (%d,%d) outside the map", where, ev.X, ev.Y)
			}
			if other, ok := occupied[[2]int{ev.X, ev.Y}]; ok {
				ve.warnf("%s shares (%d,%d) with event %d", where, ev.X, ev.Y, other)
			}
			occupied[[2]int{ev.X, ev.Y}] = eid
			if len(ev.Pages) == 0 {
				ve.warnf("%s has no pages", where)
			}
			for i, p := range ev.Pages {
				pw := fmt.Sprintf("%s page %d", where, i+1)
				if !pageTriggers[p.Trigger] {
					ve.errorf("%s: invalid trigger %q", pw, p.Trigger)
				}
				if s := p.Condition.SelfSwitch; s != "" && !validLetter(s) {
					ve.errorf("%s: self switch %q must be A, B, C or D", pw, s)
				}
				if it := p.Condition.Item; it != 0 {
					if _, ok := defs.Items[it]; !ok {
						ve.errorf("%s: condition references undefined item %d", pw, it)
					}
				}
				validateProgram(p.Program, opcode.ScopeMap, pw, defs, ve)
			}
		}
	}

	return ve
}

func inBounds(m types.MapDef, x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

func validLetter(s string) bool {
	switch s {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// validateProgram checks command scopes, block structure, labels and
// constant references.
func validateProgram(prog types.Program, scope opcode.Scope, where string, defs *state.Defs, ve *ValidationError) {
	labels := map[int]bool{}
	for _, cmd := range prog {
		if cmd.Code == opcode.Label && len(cmd.Params) > 0 {
			labels[cmd.Params[0]] = true
		}
	}

	var open []int // indents of open loops
	for i, cmd := range prog {
		at := fmt.Sprintf("%s command %d", where, i+1)
		for len(open) > 0 && cmd.Indent <= open[len(open)-1] && cmd.Code != opcode.EndLoop {
			open = open[:len(open)-1]
		}

		switch s := opcode.ScopeOf(cmd.Code); {
		case s == opcode.ScopeUnknown:
			ve.errorf("%s: unknown opcode %d", at, cmd.Code)
			continue
		case s == opcode.ScopeBattle && scope == opcode.ScopeMap,
			s == opcode.ScopeMap && scope == opcode.ScopeBattle:
			ve.errorf("%s: %s is not valid here", at, opcode.Name(cmd.Code))
		}
		if i > 0 && cmd.Indent > prog[i-1].Indent+1 {
			ve.errorf("%s: indent jumps from %d to %d", at, prog[i-1].Indent, cmd.Indent)
		}

		if closer, ok := blockClosers[cmd.Code]; ok && !closed(prog, i, closer) {
			ve.errorf("%s: %s has no matching %s", at, opcode.Name(cmd.Code), opcode.Name(closer))
		}

		switch cmd.Code {
		case opcode.Loop:
			open = append(open, cmd.Indent)
		case opcode.EndLoop:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		case opcode.BreakLoop:
			if len(open) == 0 {
				ve.warnf("%s: Break outside a loop", at)
			}
		case opcode.JumpToLabel:
			if !labels[param(cmd.Params, 0)] {
				ve.warnf("%s: label %d is never defined", at, param(cmd.Params, 0))
			}
		case opcode.ChangeItems:
			requireItem(defs, param(cmd.Params, 1), at, ve)
		case opcode.ChangePartyMembers:
			if param(cmd.Params, 1) == 0 {
				if _, ok := defs.Actors[param(cmd.Params, 2)]; !ok {
					ve.errorf("%s: undefined actor %d", at, param(cmd.Params, 2))
				}
			}
		case opcode.EnemyEncounter:
			if param(cmd.Params, 0) == 0 {
				if _, ok := defs.Troops[param(cmd.Params, 1)]; !ok {
					ve.errorf("%s: undefined troop %d", at, param(cmd.Params, 1))
				}
			}
		case opcode.OpenShop:
			if len(cmd.Params) <= 2 {
				ve.warnf("%s: shop sells nothing", at)
			}
			for _, it := range cmd.Params[min(2, len(cmd.Params)):] {
				requireItem(defs, it, at, ve)
			}
		case opcode.Teleport:
			m, ok := defs.Maps[param(cmd.Params, 0)]
			if !ok {
				ve.errorf("%s: undefined map %d", at, param(cmd.Params, 0))
			} else if !inBounds(m, param(cmd.Params, 1), param(cmd.Params, 2)) {
				ve.errorf("%s: destination outside map %d", at, m.ID)
			}
		case opcode.CallEvent:
			if param(cmd.Params, 0) == interp.CallCommon {
				if _, ok := defs.CommonEvents[param(cmd.Params, 1)]; !ok {
					ve.errorf("%s: undefined common event %d", at, param(cmd.Params, 1))
				}
			}
		case opcode.ConditionalBranch:
			if param(cmd.Params, 0) == rules.CondItem {
				requireItem(defs, param(cmd.Params, 1), at, ve)
			}
		}
	}
}

// closed reports whether the opener at i has its closer at the same indent
// before the program leaves the block.
func closed(prog types.Program, i, closer int) bool {
	indent := prog[i].Indent
	for j := i + 1; j < len(prog); j++ {
		c := prog[j]
		if c.Indent < indent {
			return false
		}
		if c.Indent == indent && c.Code == closer {
			return true
		}
	}
	return false
}

func requireItem(defs *state.Defs, id int, at string, ve *ValidationError) {
	if _, ok := defs.Items[id]; !ok {
		ve.errorf("%s: undefined item %d", at, id)
	}
}

func param(p []int, i int) int {
	if i < len(p) {
		return p[i]
	}
	return 0
}
