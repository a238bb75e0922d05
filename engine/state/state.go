// Package state manages the mutable game state and lookups against the
// immutable definitions loaded from Lua.
package state

import (
	"sort"

	"github.com/nathoo/eventcore/types"
)

// Defs holds the immutable game definitions loaded from Lua.
type Defs struct {
	Game         types.GameDef
	Actors       map[int]types.ActorDef
	Items        map[int]types.ItemDef
	Enemies      map[int]types.EnemyDef
	Troops       map[int]types.TroopDef
	CommonEvents map[int]types.CommonEventDef
	Maps         map[int]types.MapDef
}

// NewDefs returns empty definitions with every map allocated.
func NewDefs() *Defs {
	return &Defs{
		Actors:       map[int]types.ActorDef{},
		Items:        map[int]types.ItemDef{},
		Enemies:      map[int]types.EnemyDef{},
		Troops:       map[int]types.TroopDef{},
		CommonEvents: map[int]types.CommonEventDef{},
		Maps:         map[int]types.MapDef{},
	}
}

// NewState creates a fresh game state from definitions. The player is placed
// on the start map; event characters are populated by EnterMap.
func NewState(defs *Defs) *types.State {
	s := &types.State{
		Switches:     map[int]bool{},
		Variables:    map[int]int{},
		SelfSwitches: map[types.SelfSwitchKey]bool{},
		Party: types.Party{
			Members: []int{},
			Actors:  map[int]*types.ActorState{},
			Gold:    defs.Game.Gold,
			Items:   map[int]int{},
		},
		Message: types.MessageState{ChoiceResult: -1},
		Battle:  types.BattleState{Target: -1},
	}
	for id, def := range defs.Actors {
		s.Party.Actors[id] = NewActorState(def)
	}
	for _, id := range defs.Game.Party {
		if _, ok := defs.Actors[id]; ok {
			s.Party.Members = append(s.Party.Members, id)
		}
	}
	EnterMap(s, defs, defs.Game.StartMap, defs.Game.StartX, defs.Game.StartY, types.DirDown)
	return s
}

// NewActorState creates runtime actor state at full health.
func NewActorState(def types.ActorDef) *types.ActorState {
	return &types.ActorState{
		ID:      def.ID,
		Name:    def.Name,
		HP:      def.HP,
		MaxHP:   def.HP,
		MP:      def.MP,
		MaxMP:   def.MP,
		Attack:  def.Attack,
		Defense: def.Defense,
		States:  map[int]bool{},
	}
}

// EnterMap replaces the map state with a fresh copy of the given map and
// places the player. Event characters start at their defined positions.
func EnterMap(s *types.State, defs *Defs, mapID, x, y, dir int) {
	s.Map = types.MapState{
		ID:           mapID,
		Player:       types.Character{ID: types.CharPlayer, X: x, Y: y, Dir: dir},
		Events:       map[int]*types.Character{},
		Pages:        map[int]int{},
		Erased:       map[int]bool{},
		NeedsRefresh: true,
		Memory:       s.Map.Memory,
	}
	if m, ok := defs.Maps[mapID]; ok {
		for id, ev := range m.Events {
			s.Map.Events[id] = &types.Character{ID: id, X: ev.X, Y: ev.Y, Dir: types.DirDown}
			s.Map.Pages[id] = -1
		}
	}
}

// GetSwitch returns the value of a switch. Unset switches return false.
func GetSwitch(s *types.State, id int) bool {
	return s.Switches[id]
}

// GetVariable returns the value of a variable. Unset variables return 0.
func GetVariable(s *types.State, id int) int {
	return s.Variables[id]
}

// GetSelfSwitch returns a self switch of an event on a map.
func GetSelfSwitch(s *types.State, mapID, eventID int, letter string) bool {
	return s.SelfSwitches[types.SelfSwitchKey{Map: mapID, Event: eventID, Letter: letter}]
}

// ItemCount returns how many of an item the party holds.
func ItemCount(s *types.State, itemID int) int {
	return s.Party.Items[itemID]
}

// InParty returns true if the actor is a current party member.
func InParty(s *types.State, actorID int) bool {
	for _, id := range s.Party.Members {
		if id == actorID {
			return true
		}
	}
	return false
}

// Actor returns the runtime state of an actor, or nil.
func Actor(s *types.State, actorID int) *types.ActorState {
	return s.Party.Actors[actorID]
}

// Character returns the character for a resolved ID on the current map:
// the player for CharPlayer, otherwise the event character.
func Character(s *types.State, id int) *types.Character {
	if id == types.CharPlayer {
		return &s.Map.Player
	}
	return s.Map.Events[id]
}

// EventAt returns the ID of the first visible, non-erased event at x,y, or 0.
// Lower IDs win so lookups are deterministic.
func EventAt(s *types.State, x, y int) int {
	ids := make([]int, 0, len(s.Map.Events))
	for id := range s.Map.Events {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		ch := s.Map.Events[id]
		if s.Map.Erased[id] || ch.Hidden {
			continue
		}
		if ch.X == x && ch.Y == y {
			return id
		}
	}
	return 0
}

// ActivePage returns the active page of an event on the current map, or nil.
func ActivePage(s *types.State, defs *Defs, eventID int) *types.EventPage {
	if s.Map.Erased[eventID] {
		return nil
	}
	m, ok := defs.Maps[s.Map.ID]
	if !ok {
		return nil
	}
	ev, ok := m.Events[eventID]
	if !ok {
		return nil
	}
	idx, ok := s.Map.Pages[eventID]
	if !ok || idx < 0 || idx >= len(ev.Pages) {
		return nil
	}
	return &ev.Pages[idx]
}

// Passable reports whether x,y lies inside the current map and is not
// occupied by a visible event.
func Passable(s *types.State, defs *Defs, x, y int) bool {
	m, ok := defs.Maps[s.Map.ID]
	if !ok {
		return false
	}
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return EventAt(s, x, y) == 0
}

// AliveMembers returns party members with HP above zero.
func AliveMembers(s *types.State) []int {
	var out []int
	for _, id := range s.Party.Members {
		if a := s.Party.Actors[id]; a != nil && a.HP > 0 {
			out = append(out, id)
		}
	}
	return out
}

// CrowdCentroid returns the average position of every visible character on
// the map, the player included, rounded toward zero.
func CrowdCentroid(s *types.State) (int, int) {
	sumX, sumY, n := s.Map.Player.X, s.Map.Player.Y, 1
	for id, ch := range s.Map.Events {
		if s.Map.Erased[id] || ch.Hidden {
			continue
		}
		sumX += ch.X
		sumY += ch.Y
		n++
	}
	return sumX / n, sumY / n
}
