// Package events implements single-pass refresh dispatch for emitted state
// events and selects common events by trigger.
package events

import (
	"sort"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// refreshing lists the event types that can change which event page is
// active.
var refreshing = map[string]bool{
	"switch_changed":      true,
	"self_switch_changed": true,
	"variable_changed":    true,
	"item_changed":        true,
	"party_changed":       true,
}

// Dispatch inspects emitted events once and flags the map for a page
// refresh when any of them can affect page conditions. Returns true when a
// refresh was requested.
func Dispatch(evts []types.Event, s *types.State) bool {
	for _, e := range evts {
		if refreshing[e.Type] {
			s.Map.NeedsRefresh = true
			return true
		}
	}
	return false
}

// Triggered returns the common events with the given trigger whose
// condition switch is on (or unset), ordered by ID.
func Triggered(s *types.State, defs *state.Defs, trigger types.Trigger) []types.CommonEventDef {
	var out []types.CommonEventDef
	for _, ce := range defs.CommonEvents {
		if ce.Trigger != trigger {
			continue
		}
		if ce.Switch > 0 && !state.GetSwitch(s, ce.Switch) {
			continue
		}
		out = append(out, ce)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
