package mapscript

import (
	"sort"

	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/types"
)

// Pending is one forced route awaiting completion.
type Pending struct {
	Route  *types.MoveRoute
	Target int
	Issuer *interp.Interpreter
}

// Registry tracks forced routes issued on the current map.
type Registry struct {
	entries []Pending
}

// Register records a route for target, replacing any earlier entry for the
// same character.
func (r *Registry) Register(route *types.MoveRoute, target int, issuer *interp.Interpreter) {
	for i := range r.entries {
		if r.entries[i].Target == target {
			r.entries[i] = Pending{Route: route, Target: target, Issuer: issuer}
			return
		}
	}
	r.entries = append(r.entries, Pending{Route: route, Target: target, Issuer: issuer})
}

// Cancel removes the entry for target when issuer registered it. Reports
// whether an entry was removed.
func (r *Registry) Cancel(target int, issuer *interp.Interpreter) bool {
	for i, e := range r.entries {
		if e.Target == target && e.Issuer == issuer {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops entries whose character finished or replaced its route.
func (r *Registry) Prune(s *types.State) {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if ch := character(s, e.Target); ch != nil && ch.Route != nil &&
			ch.Route.Route == e.Route && !ch.Route.Done {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

// Waiting counts the pruned entries that will finish on their own.
// Repeating routes never finish and are not waited on.
func (r *Registry) Waiting(s *types.State) int {
	r.Prune(s)
	n := 0
	for _, e := range r.entries {
		if !e.Route.Repeat {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a copy of the entries.
func (r *Registry) Entries() []Pending {
	return append([]Pending(nil), r.entries...)
}

// Halt cancels every registered route and empties the registry.
func (r *Registry) Halt(s *types.State) {
	for _, e := range r.entries {
		if ch := character(s, e.Target); ch != nil && ch.Route != nil && ch.Route.Route == e.Route {
			ch.Route = nil
		}
	}
	r.entries = nil
}

// Clear empties the registry without touching characters. Used on map
// teardown.
func (r *Registry) Clear() { r.entries = nil }

func character(s *types.State, id int) *types.Character {
	if id == types.CharPlayer {
		return &s.Map.Player
	}
	return s.Map.Events[id]
}

func sortedIDs(s *types.State) []int {
	ids := make([]int, 0, len(s.Map.Events))
	for id := range s.Map.Events {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
