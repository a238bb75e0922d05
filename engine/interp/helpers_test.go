package interp

import (
	"bytes"
	"log/slog"

	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// testDialect wires the common table plus a variable-threshold branch and
// the shop markers.
type testDialect struct {
	table   Table
	settled bool
}

func newTestDialect() *testDialect {
	return &testDialect{
		settled: true,
		table: Merge(Common(), Table{
			opcode.ConditionalBranch: func(in *Interpreter, cmd types.Command) Outcome {
				ok := state.GetVariable(in.State(), param(cmd.Params, 0)) >= param(cmd.Params, 1)
				return Branch(in, cmd, ok, opcode.ElseBranch, opcode.EndBranch)
			},
			opcode.ElseBranch: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndBranch)
			},
			opcode.EndBranch: nop,
			opcode.Transaction: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndShop)
			},
			opcode.NoTransaction: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndShop)
			},
			opcode.EndShop: nop,
			opcode.Stay: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndInn)
			},
			opcode.NoStay: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndInn)
			},
			opcode.EndInn: nop,
			opcode.VictoryHandler: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndBattle)
			},
			opcode.EscapeHandler: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndBattle)
			},
			opcode.DefeatHandler: func(in *Interpreter, cmd types.Command) Outcome {
				return SkipBlock(in, cmd, opcode.EndBattle)
			},
			opcode.EndBattle: nop,
		}),
	}
}

func (d *testDialect) Name() string                      { return "test" }
func (d *testDialect) Table() Table                      { return d.table }
func (d *testDialect) MovementSettled(*Interpreter) bool { return d.settled }

func testDefs() *state.Defs {
	defs := state.NewDefs()
	defs.Game = types.GameDef{StartMap: 1, Party: []int{1}, Gold: 100}
	defs.Actors[1] = types.ActorDef{ID: 1, Name: "Alex", HP: 50, MP: 10, Attack: 12, Defense: 8}
	defs.Actors[2] = types.ActorDef{ID: 2, Name: "Brin", HP: 40, MP: 20, Attack: 9, Defense: 6}
	defs.Maps[1] = types.MapDef{ID: 1, Name: "Field", Width: 10, Height: 10, Events: map[int]types.EventDef{
		1: {ID: 1, X: 2, Y: 2, Pages: []types.EventPage{{
			Trigger: types.TriggerAction,
			Program: types.Program{c(opcode.ControlSwitches, 0, 0, 40, 0, 0)},
		}}},
	}}
	defs.Maps[2] = types.MapDef{ID: 2, Name: "Town", Width: 5, Height: 5}
	return defs
}

func newTest(opts ...Option) (*Interpreter, *types.State, *testDialect) {
	defs := testDefs()
	s := state.NewState(defs)
	d := newTestDialect()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))}, opts...)
	return New(s, defs, d, opts...), s, d
}

// c builds a command.
func c(code, indent int, params ...int) types.Command {
	return types.Command{Code: code, Indent: indent, Params: params}
}

// ct builds a command carrying text.
func ct(code, indent int, text string, params ...int) types.Command {
	return types.Command{Code: code, Indent: indent, Params: params, Text: text}
}

// on is a ControlSwitches command turning a single switch on.
func on(indent, id int) types.Command {
	return c(opcode.ControlSwitches, indent, 0, id, 0, 0)
}

// incr is a ControlVariables command adding one to a variable.
func incr(indent, id int) types.Command {
	return c(opcode.ControlVariables, indent, 0, id, 0, 1, OperandConst, 1)
}
