package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// validDefs returns a small world that passes validation.
func validDefs() *state.Defs {
	defs := state.NewDefs()
	defs.Game = types.GameDef{Title: "T", StartMap: 1, StartX: 1, StartY: 1, Party: []int{1}}
	defs.Actors[1] = types.ActorDef{ID: 1, Name: "Alex", HP: 10}
	defs.Items[1] = types.ItemDef{ID: 1, Name: "Potion", Price: 5}
	defs.Enemies[1] = types.EnemyDef{ID: 1, Name: "Slime", HP: 3}
	defs.Troops[1] = types.TroopDef{ID: 1, Members: []int{1}}
	defs.CommonEvents[1] = types.CommonEventDef{ID: 1, Trigger: types.TriggerCall}
	defs.Maps[1] = types.MapDef{ID: 1, Width: 4, Height: 4, Events: map[int]types.EventDef{}}
	return defs
}

// withPage installs prog as the only page of event 1.
func withPage(defs *state.Defs, prog types.Program) *state.Defs {
	m := defs.Maps[1]
	m.Events[1] = types.EventDef{ID: 1, X: 2, Y: 2, Pages: []types.EventPage{{Trigger: types.TriggerAction, Program: prog}}}
	defs.Maps[1] = m
	return defs
}

func hasIssue(list []string, want string) bool {
	for _, s := range list {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

func TestValidate_ValidDefs(t *testing.T) {
	ve := validate(validDefs())
	if len(ve.Errors) != 0 || len(ve.Warnings) != 0 {
		t.Errorf("errors %v warnings %v", ve.Errors, ve.Warnings)
	}
}

func TestValidate_GameErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*state.Defs)
		want   string
	}{
		{"missing title", func(d *state.Defs) { d.Game.Title = "" }, "title is required"},
		{"missing start map", func(d *state.Defs) { d.Game.StartMap = 7 }, "start map 7 not found"},
		{"start outside map", func(d *state.Defs) { d.Game.StartX = 4 }, "start position (4,1) outside map 1"},
		{"undefined party actor", func(d *state.Defs) { d.Game.Party = []int{1, 5} }, "undefined actor 5"},
		{"troop without members", func(d *state.Defs) { d.Troops[2] = types.TroopDef{ID: 2} }, "troop 2 has no members"},
		{"troop undefined enemy", func(d *state.Defs) { d.Troops[1] = types.TroopDef{ID: 1, Members: []int{3}} }, "undefined enemy 3"},
		{"common trigger", func(d *state.Defs) { d.CommonEvents[1] = types.CommonEventDef{ID: 1, Trigger: "touch"} }, `invalid trigger "touch"`},
		{"map size", func(d *state.Defs) { d.Maps[2] = types.MapDef{ID: 2} }, "map 2 has invalid size 0x0"},
		{"troop page enemy slot", func(d *state.Defs) {
			d.Troops[1] = types.TroopDef{ID: 1, Members: []int{1}, Pages: []types.TroopPage{{Condition: types.TroopPageCondition{EnemyIndex: 2}}}}
		}, "names enemy slot 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := validDefs()
			tt.mutate(defs)
			ve := validate(defs)
			if !hasIssue(ve.Errors, tt.want) {
				t.Errorf("errors %v missing %q", ve.Errors, tt.want)
			}
		})
	}
}

func TestValidate_EventErrors(t *testing.T) {
	defs := validDefs()
	defs.Maps[1].Events[1] = types.EventDef{ID: 1, X: 9, Y: 0, Pages: []types.EventPage{
		{Trigger: "jump"},
		{Trigger: types.TriggerAction, Condition: types.PageCondition{SelfSwitch: "Z", Item: 4}},
	}}

	ve := validate(defs)

	for _, want := range []string{
		"position (9,0) outside the map",
		`page 1: invalid trigger "jump"`,
		`page 2: self switch "Z"`,
		"page 2: condition references undefined item 4",
	} {
		if !hasIssue(ve.Errors, want) {
			t.Errorf("errors %v missing %q", ve.Errors, want)
		}
	}
}

func TestValidate_Warnings(t *testing.T) {
	defs := validDefs()
	defs.Game.Party = nil
	defs.CommonEvents[2] = types.CommonEventDef{ID: 2, Trigger: types.TriggerParallel}
	defs.Maps[1].Events[1] = types.EventDef{ID: 1, X: 0, Y: 0}
	defs.Maps[1].Events[2] = types.EventDef{ID: 2, X: 0, Y: 0, Pages: []types.EventPage{{Trigger: types.TriggerTouch}}}

	ve := validate(defs)

	if len(ve.Errors) != 0 {
		t.Errorf("unexpected errors %v", ve.Errors)
	}
	for _, want := range []string{
		"starting party is empty",
		"common event 2 is parallel with no condition switch",
		"map 1 event 1 has no pages",
		"map 1 event 2 shares (0,0) with event 1",
	} {
		if !hasIssue(ve.Warnings, want) {
			t.Errorf("warnings %v missing %q", ve.Warnings, want)
		}
	}
}

func TestValidate_ProgramStructure(t *testing.T) {
	tests := []struct {
		name string
		prog types.Program
		want string
	}{
		{"unclosed branch", types.Program{
			{Code: opcode.ConditionalBranch, Params: []int{rules.CondSwitch, 1, 0}},
			{Code: opcode.Wait, Indent: 1, Params: []int{1}},
		}, "ConditionalBranch has no matching EndBranch"},
		{"unclosed loop", types.Program{
			{Code: opcode.Loop},
			{Code: opcode.BreakLoop, Indent: 1},
		}, "Loop has no matching EndLoop"},
		{"closer at wrong indent", types.Program{
			{Code: opcode.ShowChoice, Indent: 0, Params: []int{0}},
			{Code: opcode.ChoiceOption, Indent: 0, Params: []int{0, 0}, Text: "A"},
			{Code: opcode.ChoiceEnd, Indent: 1},
		}, "ShowChoice has no matching ChoiceEnd"},
		{"indent jump", types.Program{
			{Code: opcode.Wait, Indent: 0},
			{Code: opcode.Wait, Indent: 2},
		}, "indent jumps from 0 to 2"},
		{"unknown opcode", types.Program{{Code: 99999}}, "unknown opcode 99999"},
		{"battle command on a map", types.Program{{Code: opcode.TerminateBattle}}, "TerminateBattle is not valid here"},
		{"undefined item", types.Program{{Code: opcode.ChangeItems, Params: []int{0, 8, 0, 1}}}, "undefined item 8"},
		{"undefined actor", types.Program{{Code: opcode.ChangePartyMembers, Params: []int{0, 0, 6}}}, "undefined actor 6"},
		{"undefined troop", types.Program{{Code: opcode.EnemyEncounter, Params: []int{0, 4, 0, 0}}}, "undefined troop 4"},
		{"undefined goods", types.Program{{Code: opcode.OpenShop, Params: []int{0, 0, 1, 3}}}, "undefined item 3"},
		{"teleport outside", types.Program{{Code: opcode.Teleport, Params: []int{1, 9, 9, -1}}}, "destination outside map 1"},
		{"undefined common event", types.Program{{Code: opcode.CallEvent, Params: []int{interp.CallCommon, 5}}}, "undefined common event 5"},
		{"item branch", types.Program{
			{Code: opcode.ConditionalBranch, Params: []int{rules.CondItem, 2, 0}},
			{Code: opcode.EndBranch},
		}, "undefined item 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := validate(withPage(validDefs(), tt.prog))
			if !hasIssue(ve.Errors, tt.want) {
				t.Errorf("errors %v missing %q", ve.Errors, tt.want)
			}
		})
	}
}

func TestValidate_ProgramWarnings(t *testing.T) {
	prog := types.Program{
		{Code: opcode.BreakLoop},
		{Code: opcode.JumpToLabel, Params: []int{3}},
		{Code: opcode.OpenShop, Params: []int{0, 0}},
	}
	ve := validate(withPage(validDefs(), prog))

	if len(ve.Errors) != 0 {
		t.Errorf("unexpected errors %v", ve.Errors)
	}
	for _, want := range []string{"Break outside a loop", "label 3 is never defined", "shop sells nothing"} {
		if !hasIssue(ve.Warnings, want) {
			t.Errorf("warnings %v missing %q", ve.Warnings, want)
		}
	}
}

func TestValidate_MapCommandInTroopPage(t *testing.T) {
	defs := validDefs()
	defs.Troops[1] = types.TroopDef{ID: 1, Members: []int{1}, Pages: []types.TroopPage{{
		Program: types.Program{{Code: opcode.Teleport, Params: []int{1, 0, 0}}},
	}}}

	ve := validate(defs)

	if !hasIssue(ve.Errors, "troop 1 page 1 command 1: Teleport is not valid here") {
		t.Errorf("errors %v", ve.Errors)
	}
}

func TestValidate_BreakInsideNestedBranch(t *testing.T) {
	prog := types.Program{
		{Code: opcode.Loop},
		{Code: opcode.ConditionalBranch, Indent: 1, Params: []int{rules.CondSwitch, 1, 0}},
		{Code: opcode.BreakLoop, Indent: 2},
		{Code: opcode.EndBranch, Indent: 1},
		{Code: opcode.EndLoop},
		{Code: opcode.BreakLoop},
	}
	ve := validate(withPage(validDefs(), prog))

	if len(ve.Errors) != 0 {
		t.Errorf("unexpected errors %v", ve.Errors)
	}
	if len(ve.Warnings) != 1 || !strings.Contains(ve.Warnings[0], "command 6: Break outside a loop") {
		t.Errorf("warnings %v", ve.Warnings)
	}
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []string{"a", "b"}}
	want := "validation failed with 2 error(s):\n  a\n  b"
	if ve.Error() != want {
		t.Errorf("got %q", ve.Error())
	}
}
