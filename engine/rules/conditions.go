// Package rules evaluates branch conditions and selects active event and
// troop pages.
package rules

import (
	"github.com/nathoo/eventcore/engine/resolve"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// Map branch condition kinds (first ConditionalBranch parameter).
const (
	CondSwitch = iota
	CondVariable
	CondTimer
	CondGold
	CondItem
	CondActor
	CondFacing
	CondActionKey
	CondSelfSwitch
)

// Battle branch condition kinds (first ConditionalBranchB parameter).
const (
	BattleCondSwitch = iota
	BattleCondVariable
	BattleCondActorCanAct
	BattleCondEnemyCanAct
	BattleCondEnemyTargeted
	BattleCondActorCommand
)

// Comparison operators for variable conditions.
const (
	CmpEq = iota
	CmpGe
	CmpLe
	CmpGt
	CmpLt
	CmpNe
)

// StateIncapacitated marks a battler that cannot act.
const StateIncapacitated = 1

// SelfSwitchLetters maps self switch parameter values to letters.
var SelfSwitchLetters = []string{"A", "B", "C", "D"}

// Context carries the interpreter identity a condition may depend on.
type Context struct {
	MapID     int
	EventID   int
	ActionKey bool
}

// EvalBranch evaluates a map-context ConditionalBranch. Unknown kinds and
// short parameter lists evaluate false.
func EvalBranch(p []int, s *types.State, ctx Context) bool {
	switch param(p, 0) {
	case CondSwitch:
		return state.GetSwitch(s, param(p, 1)) == (param(p, 2) == 0)

	case CondVariable:
		return evalVariable(p, s)

	case CondTimer:
		secs := s.Timer.Frames / 60
		if param(p, 2) == 0 {
			return secs >= param(p, 1)
		}
		return secs <= param(p, 1)

	case CondGold:
		if param(p, 2) == 0 {
			return s.Party.Gold >= param(p, 1)
		}
		return s.Party.Gold <= param(p, 1)

	case CondItem:
		has := state.ItemCount(s, param(p, 1)) > 0
		return has == (param(p, 2) == 0)

	case CondActor:
		in := state.InParty(s, param(p, 1))
		return in == (param(p, 2) == 0)

	case CondFacing:
		ch, err := resolve.Character(s, param(p, 1), ctx.EventID)
		if err != nil {
			return false
		}
		return ch.Dir == param(p, 2)

	case CondActionKey:
		return ctx.ActionKey

	case CondSelfSwitch:
		letter := param(p, 1)
		if letter < 0 || letter >= len(SelfSwitchLetters) || ctx.EventID <= 0 {
			return false
		}
		on := state.GetSelfSwitch(s, ctx.MapID, ctx.EventID, SelfSwitchLetters[letter])
		return on == (param(p, 2) == 0)

	default:
		return false
	}
}

// EvalBattleBranch evaluates a battle-context ConditionalBranchB.
func EvalBattleBranch(p []int, s *types.State) bool {
	switch param(p, 0) {
	case BattleCondSwitch:
		return state.GetSwitch(s, param(p, 1)) == (param(p, 2) == 0)

	case BattleCondVariable:
		return evalVariable(p, s)

	case BattleCondActorCanAct:
		a := state.Actor(s, param(p, 1))
		return a != nil && state.InParty(s, a.ID) && a.HP > 0 && !a.States[StateIncapacitated]

	case BattleCondEnemyCanAct:
		idx := param(p, 1)
		if idx < 0 || idx >= len(s.Battle.Enemies) {
			return false
		}
		b := s.Battle.Enemies[idx]
		return !b.Hidden && b.HP > 0 && !b.States[StateIncapacitated]

	case BattleCondEnemyTargeted:
		return s.Battle.Target == param(p, 1)

	case BattleCondActorCommand:
		cmd, ok := s.Battle.LastCommand[param(p, 1)]
		return ok && cmd == param(p, 2)

	default:
		return false
	}
}

// evalVariable handles [kind, id, src, value, cmp] where src 1 means value
// names another variable.
func evalVariable(p []int, s *types.State) bool {
	lhs := state.GetVariable(s, param(p, 1))
	rhs := param(p, 3)
	if param(p, 2) == 1 {
		rhs = state.GetVariable(s, rhs)
	}
	return Compare(lhs, rhs, param(p, 4))
}

// Compare applies a comparison operator.
func Compare(lhs, rhs, op int) bool {
	switch op {
	case CmpEq:
		return lhs == rhs
	case CmpGe:
		return lhs >= rhs
	case CmpLe:
		return lhs <= rhs
	case CmpGt:
		return lhs > rhs
	case CmpLt:
		return lhs < rhs
	case CmpNe:
		return lhs != rhs
	default:
		return false
	}
}

func param(p []int, i int) int {
	if i < len(p) {
		return p[i]
	}
	return 0
}
