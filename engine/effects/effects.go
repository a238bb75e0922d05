// Package effects implements centralized state mutation. Every function is
// one atomic operation that reports what changed as a types.Event.
package effects

import (
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// Variable operations, in ControlVariables parameter order.
const (
	OpSet = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

// Variable values are clamped to this range.
const (
	VarMin = -9999999
	VarMax = 9999999
)

// MaxGold is the party gold ceiling.
const MaxGold = 999999

// MaxItems is the per-item stack ceiling.
const MaxItems = 99

// SetSwitch sets a switch.
func SetSwitch(s *types.State, id int, on bool) types.Event {
	s.Switches[id] = on
	return types.Event{
		Type: "switch_changed",
		Data: map[string]any{"switch": id, "value": on},
	}
}

// ToggleSwitch flips a switch.
func ToggleSwitch(s *types.State, id int) types.Event {
	return SetSwitch(s, id, !s.Switches[id])
}

// SetSelfSwitch sets a self switch of an event.
func SetSelfSwitch(s *types.State, mapID, eventID int, letter string, on bool) types.Event {
	s.SelfSwitches[types.SelfSwitchKey{Map: mapID, Event: eventID, Letter: letter}] = on
	return types.Event{
		Type: "self_switch_changed",
		Data: map[string]any{"map": mapID, "event": eventID, "letter": letter, "value": on},
	}
}

// ApplyVariable applies op with operand to a variable. Division or modulo by
// zero leaves the variable unchanged.
func ApplyVariable(s *types.State, id, op, operand int) types.Event {
	v := s.Variables[id]
	switch op {
	case OpSet:
		v = operand
	case OpAdd:
		v += operand
	case OpSub:
		v -= operand
	case OpMul:
		v *= operand
	case OpDiv:
		if operand != 0 {
			v /= operand
		}
	case OpMod:
		if operand != 0 {
			v %= operand
		}
	}
	v = clamp(v, VarMin, VarMax)
	s.Variables[id] = v
	return types.Event{
		Type: "variable_changed",
		Data: map[string]any{"variable": id, "value": v},
	}
}

// AddGold changes party gold by delta, clamped to [0, MaxGold].
func AddGold(s *types.State, delta int) types.Event {
	s.Party.Gold = clamp(s.Party.Gold+delta, 0, MaxGold)
	return types.Event{
		Type: "gold_changed",
		Data: map[string]any{"gold": s.Party.Gold},
	}
}

// AddItems changes an item count by delta, clamped to [0, MaxItems].
func AddItems(s *types.State, itemID, delta int) types.Event {
	n := clamp(s.Party.Items[itemID]+delta, 0, MaxItems)
	if n == 0 {
		delete(s.Party.Items, itemID)
	} else {
		s.Party.Items[itemID] = n
	}
	return types.Event{
		Type: "item_changed",
		Data: map[string]any{"item": itemID, "count": n},
	}
}

// AddMember adds an actor to the party if absent. The actor's runtime
// state is created from its definition on first join.
func AddMember(s *types.State, defs *state.Defs, actorID int) types.Event {
	if _, ok := s.Party.Actors[actorID]; !ok {
		if def, ok := defs.Actors[actorID]; ok {
			s.Party.Actors[actorID] = state.NewActorState(def)
		}
	}
	if !state.InParty(s, actorID) && s.Party.Actors[actorID] != nil {
		s.Party.Members = append(s.Party.Members, actorID)
	}
	return types.Event{
		Type: "party_changed",
		Data: map[string]any{"actor": actorID, "joined": true},
	}
}

// RemoveMember removes an actor from the party.
func RemoveMember(s *types.State, actorID int) types.Event {
	out := s.Party.Members[:0]
	for _, id := range s.Party.Members {
		if id != actorID {
			out = append(out, id)
		}
	}
	s.Party.Members = out
	return types.Event{
		Type: "party_changed",
		Data: map[string]any{"actor": actorID, "joined": false},
	}
}

// ChangeHP changes an actor's HP. Unless canKill, HP stays at least 1.
func ChangeHP(a *types.ActorState, delta int, canKill bool) types.Event {
	lo := 0
	if !canKill && a.HP > 0 {
		lo = 1
	}
	a.HP = clamp(a.HP+delta, lo, a.MaxHP)
	return types.Event{
		Type: "hp_changed",
		Data: map[string]any{"actor": a.ID, "hp": a.HP},
	}
}

// SetCondition adds or removes a state condition on an actor.
func SetCondition(a *types.ActorState, condition int, add bool) types.Event {
	if add {
		a.States[condition] = true
	} else {
		delete(a.States, condition)
	}
	return types.Event{
		Type: "condition_changed",
		Data: map[string]any{"actor": a.ID, "condition": condition, "value": add},
	}
}

// FullHeal restores HP and MP and clears every condition.
func FullHeal(a *types.ActorState) types.Event {
	a.HP = a.MaxHP
	a.MP = a.MaxMP
	a.States = map[int]bool{}
	return types.Event{
		Type: "actor_healed",
		Data: map[string]any{"actor": a.ID},
	}
}

// ChangeBattlerHP changes an enemy's HP in battle. Unless lethal, HP stays
// at least 1.
func ChangeBattlerHP(b *types.Battler, delta int, lethal bool) types.Event {
	lo := 0
	if !lethal && b.HP > 0 {
		lo = 1
	}
	b.HP = clamp(b.HP+delta, lo, b.MaxHP)
	return types.Event{
		Type: "enemy_damaged",
		Data: map[string]any{"enemy": b.ID, "hp": b.HP},
	}
}

// ChangeBattlerMP changes an enemy's MP in battle.
func ChangeBattlerMP(b *types.Battler, delta int) types.Event {
	b.MP = clamp(b.MP+delta, 0, b.MaxMP)
	return types.Event{
		Type: "enemy_mp_changed",
		Data: map[string]any{"enemy": b.ID, "mp": b.MP},
	}
}

// SetBattlerCondition adds or removes a state condition on an enemy.
func SetBattlerCondition(b *types.Battler, condition int, add bool) types.Event {
	if b.States == nil {
		b.States = map[int]bool{}
	}
	if add {
		b.States[condition] = true
	} else {
		delete(b.States, condition)
	}
	return types.Event{
		Type: "enemy_condition_changed",
		Data: map[string]any{"enemy": b.ID, "condition": condition, "value": add},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
