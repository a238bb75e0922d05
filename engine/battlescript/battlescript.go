// Package battlescript is the battle-context specialization of the
// interpreter: troop page commands and the battle branch markers.
package battlescript

import (
	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// AnimationTicks is how long a battle animation blocks when waited on.
const AnimationTicks = 30

// Dialect is the battle context. Battles have no forced movement.
type Dialect struct{}

// New returns the battle dialect.
func New() *Dialect { return &Dialect{} }

var table = interp.Merge(interp.Common(), interp.Table{
	opcode.ConditionalBranchB:     conditionalBranch,
	opcode.ElseBranchB:            skip(opcode.EndBranchB),
	opcode.EndBranchB:             nop,
	opcode.ChangeMonsterHP:        changeMonsterHP,
	opcode.ChangeMonsterMP:        changeMonsterMP,
	opcode.ChangeMonsterCondition: changeMonsterCondition,
	opcode.ShowHiddenMonster:      showHiddenMonster,
	opcode.ChangeBattleBG:         changeBattleBG,
	opcode.ShowBattleAnimationB:   showBattleAnimation,
	opcode.TerminateBattle:        terminateBattle,
	opcode.ForceAction:            forceAction,
})

// Name implements interp.Dialect.
func (*Dialect) Name() string { return "battle" }

// Table implements interp.Dialect.
func (*Dialect) Table() interp.Table { return table }

// MovementSettled implements interp.Dialect.
func (*Dialect) MovementSettled(*interp.Interpreter) bool { return true }

func nop(*interp.Interpreter, types.Command) interp.Outcome { return interp.Advance }

func skip(end int) interp.Handler {
	return func(in *interp.Interpreter, cmd types.Command) interp.Outcome {
		return interp.SkipBlock(in, cmd, end)
	}
}

func param(p []int, i int) int {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func conditionalBranch(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	ok := rules.EvalBattleBranch(cmd.Params, in.State())
	return interp.Branch(in, cmd, ok, opcode.ElseBranchB, opcode.EndBranchB)
}

// enemy returns the battler in troop slot idx (0-based), or nil.
func enemy(s *types.State, idx int) *types.Battler {
	if idx < 0 || idx >= len(s.Battle.Enemies) {
		return nil
	}
	return &s.Battle.Enemies[idx]
}

// amount reads [op, src, value] where op 1 negates and src 1 reads a
// variable.
func amount(s *types.State, p []int, at int) int {
	n := param(p, at+2)
	if param(p, at+1) == 1 {
		n = state.GetVariable(s, n)
	}
	if param(p, at) == 1 {
		n = -n
	}
	return n
}

// changeMonsterHP applies [slot, op, src, value, lethal].
func changeMonsterHP(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	if b := enemy(s, param(cmd.Params, 0)); b != nil {
		in.Emit(effects.ChangeBattlerHP(b, amount(s, cmd.Params, 1), param(cmd.Params, 4) == 1))
	}
	return interp.Advance
}

// changeMonsterMP applies [slot, op, src, value].
func changeMonsterMP(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	if b := enemy(s, param(cmd.Params, 0)); b != nil {
		in.Emit(effects.ChangeBattlerMP(b, amount(s, cmd.Params, 1)))
	}
	return interp.Advance
}

// changeMonsterCondition applies [slot, remove, condition].
func changeMonsterCondition(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	if b := enemy(in.State(), param(cmd.Params, 0)); b != nil {
		in.Emit(effects.SetBattlerCondition(b, param(cmd.Params, 2), param(cmd.Params, 1) == 0))
	}
	return interp.Advance
}

func showHiddenMonster(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	if b := enemy(in.State(), param(cmd.Params, 0)); b != nil {
		b.Hidden = false
	}
	return interp.Advance
}

func changeBattleBG(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	in.State().Battle.Background = cmd.Text
	return interp.Advance
}

// showBattleAnimation plays [animation, target, wait].
func showBattleAnimation(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	in.State().Battle.Animation = param(cmd.Params, 0)
	if param(cmd.Params, 2) == 1 {
		in.Wait(AnimationTicks)
	}
	return interp.Advance
}

// terminateBattle ends the battle as an escape and stops the troop page.
func terminateBattle(in *interp.Interpreter, _ types.Command) interp.Outcome {
	in.State().Battle.Result = types.OutcomeEscape
	return in.End()
}

// forceAction queues [enemy, slot, action, skill].
func forceAction(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	p := cmd.Params
	s := in.State()
	s.Battle.Forced = append(s.Battle.Forced, types.ForcedAction{
		Enemy:  param(p, 0) == 1,
		Index:  param(p, 1),
		Action: param(p, 2),
		Skill:  param(p, 3),
	})
	return interp.Advance
}
