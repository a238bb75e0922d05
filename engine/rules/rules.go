package rules

import (
	"sort"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// PageConditionMet reports whether every non-zero field of a page condition
// holds for the given event.
func PageConditionMet(c types.PageCondition, s *types.State, mapID, eventID int) bool {
	if c.Switch1 > 0 && !state.GetSwitch(s, c.Switch1) {
		return false
	}
	if c.Switch2 > 0 && !state.GetSwitch(s, c.Switch2) {
		return false
	}
	if c.Variable > 0 && state.GetVariable(s, c.Variable) < c.VarAtLeast {
		return false
	}
	if c.Item > 0 && state.ItemCount(s, c.Item) == 0 {
		return false
	}
	if c.Actor > 0 && !state.InParty(s, c.Actor) {
		return false
	}
	if c.SelfSwitch != "" && !state.GetSelfSwitch(s, mapID, eventID, c.SelfSwitch) {
		return false
	}
	return true
}

// SelectPage returns the index of the highest page whose condition holds,
// or -1 when none does.
func SelectPage(ev types.EventDef, s *types.State, mapID int) int {
	for i := len(ev.Pages) - 1; i >= 0; i-- {
		if PageConditionMet(ev.Pages[i].Condition, s, mapID, ev.ID) {
			return i
		}
	}
	return -1
}

// RefreshPages recomputes the active page of every event on the current map
// and returns the IDs whose page changed, sorted.
func RefreshPages(s *types.State, defs *state.Defs) []int {
	s.Map.NeedsRefresh = false
	m, ok := defs.Maps[s.Map.ID]
	if !ok {
		return nil
	}
	var changed []int
	for id, ev := range m.Events {
		idx := -1
		if !s.Map.Erased[id] {
			idx = SelectPage(ev, s, s.Map.ID)
		}
		if s.Map.Pages[id] != idx {
			s.Map.Pages[id] = idx
			changed = append(changed, id)
		}
	}
	sort.Ints(changed)
	return changed
}

// EventsWithTrigger returns the IDs of events whose active page starts with
// the given trigger, in ascending order.
func EventsWithTrigger(s *types.State, defs *state.Defs, trigger types.Trigger) []int {
	var ids []int
	for id := range s.Map.Events {
		p := state.ActivePage(s, defs, id)
		if p != nil && p.Trigger == trigger && len(p.Program) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// TroopPageReady reports whether a troop page should run this turn. A page
// runs at most once per turn.
func TroopPageReady(idx int, p types.TroopPage, s *types.State) bool {
	if last, ok := s.Battle.PagesRun[idx]; ok && last == s.Battle.Turn {
		return false
	}
	c := p.Condition
	if c.Switch > 0 && !state.GetSwitch(s, c.Switch) {
		return false
	}
	if c.Turn > 0 && s.Battle.Turn != c.Turn {
		return false
	}
	if c.EnemyIndex > 0 {
		i := c.EnemyIndex - 1
		if i >= len(s.Battle.Enemies) {
			return false
		}
		b := s.Battle.Enemies[i]
		if b.MaxHP <= 0 || b.HP*100/b.MaxHP > c.EnemyHPMax {
			return false
		}
	}
	return true
}
