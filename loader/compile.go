// Package loader loads Lua game content into Go structs at load time.
// The Lua VM is discarded after loading; programs reach the engine as flat,
// indent-annotated command lists.
package loader

import (
	"fmt"
	"sort"

	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds a definition table before compilation.
type rawDef struct {
	id    int
	table *lua.LTable
}

// rawPage holds an event or troop page table before compilation.
type rawPage struct {
	table *lua.LTable
}

// node is one authored command. Structured commands carry their bodies in
// blocks and are closed by end.
type node struct {
	code   int
	params []int
	text   string
	lines  []string
	cond   *condition
	blocks []block
	end    int
}

// block is a body nested one indent below its command. A zero marker means
// the body follows the command directly.
type block struct {
	marker int
	params []int
	text   string
	body   []*node
}

// condition holds branch parameters for each context. A nil slice means the
// condition is unavailable there.
type condition struct {
	name   string
	field  []int
	battle []int
}

// battleCodes rewrites map codes shared with the battle dialect.
var battleCodes = map[int]int{
	opcode.ConditionalBranch:   opcode.ConditionalBranchB,
	opcode.ElseBranch:          opcode.ElseBranchB,
	opcode.EndBranch:           opcode.EndBranchB,
	opcode.ShowBattleAnimation: opcode.ShowBattleAnimationB,
}

// continuation line codes emitted after a command's text.
var lineCodes = map[int]int{
	opcode.ShowMessage: opcode.ShowMessageLine,
	opcode.Comment:     opcode.CommentLine,
}

// flatten appends nodes to out at indent. battle selects the troop page
// dialect.
func flatten(out types.Program, nodes []*node, indent int, battle bool) (types.Program, error) {
	code := func(c int) int {
		if b, ok := battleCodes[c]; ok && battle {
			return b
		}
		return c
	}
	for _, n := range nodes {
		params := n.params
		if n.cond != nil {
			params = n.cond.field
			if battle {
				params = n.cond.battle
			}
			if params == nil {
				ctx := "map"
				if battle {
					ctx = "battle"
				}
				return nil, fmt.Errorf("condition %s is not available in %s events", n.cond.name, ctx)
			}
		}
		out = append(out, types.Command{Code: code(n.code), Indent: indent, Params: append([]int(nil), params...), Text: n.text})
		for _, l := range n.lines {
			out = append(out, types.Command{Code: lineCodes[n.code], Indent: indent, Text: l})
		}
		for _, b := range n.blocks {
			if b.marker != 0 {
				out = append(out, types.Command{Code: code(b.marker), Indent: indent, Params: b.params, Text: b.text})
			}
			var err error
			if out, err = flatten(out, b.body, indent+1, battle); err != nil {
				return nil, err
			}
		}
		if n.end != 0 {
			out = append(out, types.Command{Code: code(n.end), Indent: indent})
		}
	}
	return out, nil
}

// program compiles the array part of tbl.
func program(tbl *lua.LTable, battle bool, what string) (types.Program, error) {
	nodes, err := toNodes(tbl, 1, what)
	if err != nil {
		return nil, err
	}
	prog, err := flatten(nil, nodes, 0, battle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return prog, nil
}

// compile converts collected Lua tables into typed definitions.
func compile(coll *collector) (*state.Defs, error) {
	defs := state.NewDefs()

	if coll.game == nil {
		return nil, fmt.Errorf("no Game definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, r := range coll.actors {
		if _, dup := defs.Actors[r.id]; dup {
			return nil, fmt.Errorf("duplicate actor %d", r.id)
		}
		defs.Actors[r.id] = types.ActorDef{
			ID:      r.id,
			Name:    getString(r.table, "name"),
			HP:      getInt(r.table, "hp"),
			MP:      getInt(r.table, "mp"),
			Attack:  getInt(r.table, "attack"),
			Defense: getInt(r.table, "defense"),
		}
	}

	for _, r := range coll.items {
		if _, dup := defs.Items[r.id]; dup {
			return nil, fmt.Errorf("duplicate item %d", r.id)
		}
		defs.Items[r.id] = types.ItemDef{ID: r.id, Name: getString(r.table, "name"), Price: getInt(r.table, "price")}
	}

	for _, r := range coll.enemies {
		if _, dup := defs.Enemies[r.id]; dup {
			return nil, fmt.Errorf("duplicate enemy %d", r.id)
		}
		defs.Enemies[r.id] = types.EnemyDef{
			ID:      r.id,
			Name:    getString(r.table, "name"),
			HP:      getInt(r.table, "hp"),
			MP:      getInt(r.table, "mp"),
			Attack:  getInt(r.table, "attack"),
			Defense: getInt(r.table, "defense"),
		}
	}

	for _, r := range coll.troops {
		if _, dup := defs.Troops[r.id]; dup {
			return nil, fmt.Errorf("duplicate troop %d", r.id)
		}
		troop, err := compileTroop(r)
		if err != nil {
			return nil, err
		}
		defs.Troops[r.id] = troop
	}

	for _, r := range coll.commons {
		if _, dup := defs.CommonEvents[r.id]; dup {
			return nil, fmt.Errorf("duplicate common event %d", r.id)
		}
		prog, err := program(r.table, false, fmt.Sprintf("common event %d", r.id))
		if err != nil {
			return nil, err
		}
		trigger := types.Trigger(getString(r.table, "trigger"))
		if trigger == "" {
			trigger = types.TriggerCall
		}
		defs.CommonEvents[r.id] = types.CommonEventDef{
			ID:      r.id,
			Name:    getString(r.table, "name"),
			Trigger: trigger,
			Switch:  getInt(r.table, "switch"),
			Program: prog,
		}
	}

	for _, r := range coll.maps {
		if _, dup := defs.Maps[r.id]; dup {
			return nil, fmt.Errorf("duplicate map %d", r.id)
		}
		m, err := compileMap(r)
		if err != nil {
			return nil, err
		}
		defs.Maps[r.id] = m
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	g := types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Party:   getIntList(tbl, "party"),
		Gold:    getInt(tbl, "gold"),
	}
	if start := getTable(tbl, "start"); start != nil {
		g.StartMap = getInt(start, "map")
		g.StartX = getInt(start, "x")
		g.StartY = getInt(start, "y")
	}
	return g
}

func compileTroop(r rawDef) (types.TroopDef, error) {
	t := types.TroopDef{
		ID:      r.id,
		Name:    getString(r.table, "name"),
		Members: getIntList(r.table, "members"),
	}
	pages, err := pageList(getTable(r.table, "pages"), 1, fmt.Sprintf("troop %d", r.id))
	if err != nil {
		return t, err
	}
	for i, p := range pages {
		prog, err := program(p.table, true, fmt.Sprintf("troop %d page %d", r.id, i+1))
		if err != nil {
			return t, err
		}
		var c types.TroopPageCondition
		if ct := getTable(p.table, "condition"); ct != nil {
			c = types.TroopPageCondition{
				Switch:     getInt(ct, "switch"),
				Turn:       getInt(ct, "turn"),
				EnemyIndex: getInt(ct, "enemy"),
				EnemyHPMax: getInt(ct, "hp_below"),
			}
		}
		t.Pages = append(t.Pages, types.TroopPage{Condition: c, Program: prog})
	}
	return t, nil
}

func compileMap(r rawDef) (types.MapDef, error) {
	m := types.MapDef{
		ID:     r.id,
		Name:   getString(r.table, "name"),
		Width:  getInt(r.table, "width"),
		Height: getInt(r.table, "height"),
		Events: map[int]types.EventDef{},
	}
	evs := getTable(r.table, "events")
	if evs == nil {
		return m, nil
	}
	for i := 1; i <= evs.MaxN(); i++ {
		ud, ok := evs.RawGetInt(i).(*lua.LUserData)
		if !ok {
			return m, fmt.Errorf("map %d: events entry %d is not an Event", r.id, i)
		}
		raw, ok := ud.Value.(*rawDef)
		if !ok {
			return m, fmt.Errorf("map %d: events entry %d is not an Event", r.id, i)
		}
		if _, dup := m.Events[raw.id]; dup {
			return m, fmt.Errorf("map %d: duplicate event %d", r.id, raw.id)
		}
		ev, err := compileEvent(r.id, raw)
		if err != nil {
			return m, err
		}
		m.Events[raw.id] = ev
	}
	return m, nil
}

func compileEvent(mapID int, r *rawDef) (types.EventDef, error) {
	ev := types.EventDef{
		ID:   r.id,
		Name: getString(r.table, "name"),
		X:    getInt(r.table, "x"),
		Y:    getInt(r.table, "y"),
	}
	where := fmt.Sprintf("map %d event %d", mapID, r.id)
	pages, err := pageList(r.table, 1, where)
	if err != nil {
		return ev, err
	}
	for i, p := range pages {
		prog, err := program(p.table, false, fmt.Sprintf("%s page %d", where, i+1))
		if err != nil {
			return ev, err
		}
		trigger := types.Trigger(getString(p.table, "trigger"))
		if trigger == "" {
			trigger = types.TriggerAction
		}
		var c types.PageCondition
		if ct := getTable(p.table, "condition"); ct != nil {
			c = types.PageCondition{
				Switch1:    getInt(ct, "switch1"),
				Switch2:    getInt(ct, "switch2"),
				Variable:   getInt(ct, "variable"),
				VarAtLeast: getInt(ct, "at_least"),
				Item:       getInt(ct, "item"),
				Actor:      getInt(ct, "actor"),
				SelfSwitch: getString(ct, "self_switch"),
			}
		}
		ev.Pages = append(ev.Pages, types.EventPage{Condition: c, Trigger: trigger, Program: prog})
	}
	return ev, nil
}

// pageList reads Page values from the array part of tbl.
func pageList(tbl *lua.LTable, first int, what string) ([]*rawPage, error) {
	if tbl == nil {
		return nil, nil
	}
	var out []*rawPage
	for i := first; i <= tbl.MaxN(); i++ {
		ud, ok := tbl.RawGetInt(i).(*lua.LUserData)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d is not a Page", what, i)
		}
		p, ok := ud.Value.(*rawPage)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d is not a Page", what, i)
		}
		out = append(out, p)
	}
	return out, nil
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getIntList returns the numbers in a list field.
func getIntList(tbl *lua.LTable, key string) []int {
	t := getTable(tbl, key)
	if t == nil {
		return nil
	}
	return intList(t)
}

func intList(t *lua.LTable) []int {
	var out []int
	for i := 1; i <= t.MaxN(); i++ {
		if n, ok := t.RawGetInt(i).(lua.LNumber); ok {
			out = append(out, int(n))
		}
	}
	return out
}

// sortedIDs returns map keys in ascending order.
func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
