package loader

import (
	"fmt"

	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/mapscript"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/types"
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstants(L)
	registerConstructors(L, coll)
	registerCommonCommands(L)
	registerConditions(L)
	registerMapCommands(L)
	registerBattleCommands(L)
}

func registerConstants(L *lua.LState) {
	for name, v := range map[string]int{
		"PLAYER":     types.CharPlayer,
		"THIS_EVENT": types.CharThisEvent,
		"CROWD":      types.CharCrowd,
		"UP":         types.DirUp,
		"RIGHT":      types.DirRight,
		"DOWN":       types.DirDown,
		"LEFT":       types.DirLeft,
		"ATTACK":     0,
		"DEFEND":     1,
		"ESCAPE":     2,
	} {
		L.SetGlobal(name, lua.LNumber(v))
	}
}

// curried returns Kind(id) { ... } style constructors.
func curried(L *lua.LState, add func(id int, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckInt(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = { map = 1, x = 0, y = 0 }, ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		if coll.game != nil {
			L.RaiseError("Game defined more than once")
		}
		coll.game = L.CheckTable(1)
		return 0
	}))

	L.SetGlobal("Actor", curried(L, func(id int, t *lua.LTable) { coll.actors = append(coll.actors, rawDef{id, t}) }))
	L.SetGlobal("Item", curried(L, func(id int, t *lua.LTable) { coll.items = append(coll.items, rawDef{id, t}) }))
	L.SetGlobal("Enemy", curried(L, func(id int, t *lua.LTable) { coll.enemies = append(coll.enemies, rawDef{id, t}) }))
	L.SetGlobal("Troop", curried(L, func(id int, t *lua.LTable) { coll.troops = append(coll.troops, rawDef{id, t}) }))
	L.SetGlobal("CommonEvent", curried(L, func(id int, t *lua.LTable) { coll.commons = append(coll.commons, rawDef{id, t}) }))
	L.SetGlobal("Map", curried(L, func(id int, t *lua.LTable) { coll.maps = append(coll.maps, rawDef{id, t}) }))

	// Event(id) { x = 1, y = 2, Page { ... }, ... } is a value placed in a
	// map's events list.
	L.SetGlobal("Event", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckInt(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			ud := L.NewUserData()
			ud.Value = &rawDef{id: id, table: L.CheckTable(1)}
			L.Push(ud)
			return 1
		}))
		return 1
	}))

	// Page { trigger = "action", condition = { ... }, commands... }
	L.SetGlobal("Page", L.NewFunction(func(L *lua.LState) int {
		ud := L.NewUserData()
		ud.Value = &rawPage{table: L.CheckTable(1)}
		L.Push(ud)
		return 1
	}))
}

// push returns n to Lua as an opaque command value.
func push(L *lua.LState, n *node) int {
	ud := L.NewUserData()
	ud.Value = n
	L.Push(ud)
	return 1
}

// simple registers a helper that emits one command built from its
// arguments.
func simple(L *lua.LState, name string, build func(L *lua.LState) *node) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		return push(L, build(L))
	}))
}

// body reads a table of commands passed as argument n. nil yields an empty
// body.
func body(L *lua.LState, tbl *lua.LTable, what string) []*node {
	if tbl == nil {
		return nil
	}
	ns, err := toNodes(tbl, 1, what)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return ns
}

// toNodes converts the array part of tbl, from index first on, to commands.
func toNodes(tbl *lua.LTable, first int, what string) ([]*node, error) {
	var out []*node
	for i := first; i <= tbl.MaxN(); i++ {
		ud, ok := tbl.RawGetInt(i).(*lua.LUserData)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d is not a command", what, i)
		}
		n, ok := ud.Value.(*node)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d is not a command", what, i)
		}
		out = append(out, n)
	}
	return out, nil
}

func boolParam(b bool) int {
	if b {
		return 1
	}
	return 0
}

// actorTarget maps an actor argument to [target, id]: 0 is the whole party.
func actorTarget(id int) []int {
	if id == 0 {
		return []int{0, 0}
	}
	return []int{1, id}
}

func registerCommonCommands(L *lua.LState) {
	// Message("line", "line", ...)
	simple(L, "Message", func(L *lua.LState) *node {
		n := &node{code: opcode.ShowMessage, text: L.CheckString(1)}
		for i := 2; i <= L.GetTop(); i++ {
			n.lines = append(n.lines, L.CheckString(i))
		}
		return n
	})
	simple(L, "MessagePosition", func(L *lua.LState) *node {
		return &node{code: opcode.MessageOptions, params: []int{0, L.CheckInt(1)}}
	})
	simple(L, "Face", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeFaceGraphic, text: L.OptString(1, "")}
	})
	L.SetGlobal("Choice", L.NewFunction(choice))
	simple(L, "InputNumber", func(L *lua.LState) *node {
		return &node{code: opcode.InputNumber, params: []int{L.CheckInt(1), L.CheckInt(2)}}
	})

	switches := func(op int) func(L *lua.LState) *node {
		return func(L *lua.LState) *node {
			id := L.CheckInt(1)
			if L.GetTop() >= 2 {
				return &node{code: opcode.ControlSwitches, params: []int{1, id, L.CheckInt(2), op}}
			}
			return &node{code: opcode.ControlSwitches, params: []int{0, id, 0, op}}
		}
	}
	simple(L, "SwitchOn", switches(0))
	simple(L, "SwitchOff", switches(1))
	simple(L, "ToggleSwitch", switches(2))

	simple(L, "SetVar", func(L *lua.LState) *node {
		return &node{code: opcode.ControlVariables, params: []int{0, L.CheckInt(1), 0, effects.OpSet, interp.OperandConst, L.CheckInt(2)}}
	})
	simple(L, "AddVar", func(L *lua.LState) *node {
		return &node{code: opcode.ControlVariables, params: []int{0, L.CheckInt(1), 0, effects.OpAdd, interp.OperandConst, L.CheckInt(2)}}
	})
	L.SetGlobal("Variable", L.NewFunction(variable))

	simple(L, "SetTimer", func(L *lua.LState) *node {
		return &node{code: opcode.TimerOperation, params: []int{0, 0, L.CheckInt(1)}}
	})
	simple(L, "StartTimer", func(L *lua.LState) *node { return &node{code: opcode.TimerOperation, params: []int{1}} })
	simple(L, "StopTimer", func(L *lua.LState) *node { return &node{code: opcode.TimerOperation, params: []int{2}} })

	simple(L, "Gold", func(L *lua.LState) *node {
		n := L.CheckInt(1)
		if n < 0 {
			return &node{code: opcode.ChangeGold, params: []int{1, 0, -n}}
		}
		return &node{code: opcode.ChangeGold, params: []int{0, 0, n}}
	})
	simple(L, "GiveItem", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeItems, params: []int{0, L.CheckInt(1), 0, L.OptInt(2, 1)}}
	})
	simple(L, "TakeItem", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeItems, params: []int{1, L.CheckInt(1), 0, L.OptInt(2, 1)}}
	})
	simple(L, "AddMember", func(L *lua.LState) *node {
		return &node{code: opcode.ChangePartyMembers, params: []int{0, 0, L.CheckInt(1)}}
	})
	simple(L, "RemoveMember", func(L *lua.LState) *node {
		return &node{code: opcode.ChangePartyMembers, params: []int{1, 0, L.CheckInt(1)}}
	})

	// Damage(actor, amount, lethal) and Heal(actor, amount); actor 0 is the
	// whole party.
	simple(L, "Damage", func(L *lua.LState) *node {
		p := append(actorTarget(L.CheckInt(1)), 1, 0, L.CheckInt(2), boolParam(L.OptBool(3, false)))
		return &node{code: opcode.ChangeHP, params: p}
	})
	simple(L, "Heal", func(L *lua.LState) *node {
		p := append(actorTarget(L.CheckInt(1)), 0, 0, L.CheckInt(2), 0)
		return &node{code: opcode.ChangeHP, params: p}
	})
	simple(L, "AddState", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeCondition, params: append(actorTarget(L.CheckInt(1)), 0, L.CheckInt(2))}
	})
	simple(L, "RemoveState", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeCondition, params: append(actorTarget(L.CheckInt(1)), 1, L.CheckInt(2))}
	})
	simple(L, "FullHeal", func(L *lua.LState) *node {
		return &node{code: opcode.FullHeal, params: actorTarget(L.OptInt(1, 0))}
	})
	simple(L, "RenameHero", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeHeroName, params: []int{L.CheckInt(1)}, text: L.CheckString(2)}
	})

	simple(L, "Wait", func(L *lua.LState) *node { return &node{code: opcode.Wait, params: []int{L.CheckInt(1)}} })
	simple(L, "PlayBGM", func(L *lua.LState) *node { return &node{code: opcode.PlayBGM, text: L.CheckString(1)} })
	simple(L, "PlaySound", func(L *lua.LState) *node { return &node{code: opcode.PlaySound, text: L.CheckString(1)} })
	simple(L, "KeyInput", func(L *lua.LState) *node {
		return &node{code: opcode.KeyInputProc, params: []int{L.CheckInt(1), boolParam(L.OptBool(2, true))}}
	})
	simple(L, "SaveMenu", func(L *lua.LState) *node { return &node{code: opcode.OpenSaveMenu} })
	simple(L, "MainMenu", func(L *lua.LState) *node { return &node{code: opcode.OpenMainMenu} })
	simple(L, "GameOver", func(L *lua.LState) *node { return &node{code: opcode.GameOver} })
	simple(L, "ReturnToTitle", func(L *lua.LState) *node { return &node{code: opcode.ReturnToTitle} })

	simple(L, "Label", func(L *lua.LState) *node { return &node{code: opcode.Label, params: []int{L.CheckInt(1)}} })
	simple(L, "JumpTo", func(L *lua.LState) *node { return &node{code: opcode.JumpToLabel, params: []int{L.CheckInt(1)}} })
	simple(L, "Loop", func(L *lua.LState) *node {
		return &node{code: opcode.Loop, blocks: []block{{body: body(L, L.CheckTable(1), "Loop")}}, end: opcode.EndLoop}
	})
	simple(L, "Break", func(L *lua.LState) *node { return &node{code: opcode.BreakLoop} })
	simple(L, "Exit", func(L *lua.LState) *node { return &node{code: opcode.EndEventProcessing} })

	simple(L, "CallCommon", func(L *lua.LState) *node {
		return &node{code: opcode.CallEvent, params: []int{interp.CallCommon, L.CheckInt(1)}}
	})
	simple(L, "CallEvent", func(L *lua.LState) *node {
		return &node{code: opcode.CallEvent, params: []int{interp.CallMapEvent, L.CheckInt(1), L.OptInt(2, 0)}}
	})
	simple(L, "CallEventVar", func(L *lua.LState) *node {
		return &node{code: opcode.CallEvent, params: []int{interp.CallMapEventVar, L.CheckInt(1), L.CheckInt(2)}}
	})
	simple(L, "Comment", func(L *lua.LState) *node {
		n := &node{code: opcode.Comment, text: L.CheckString(1)}
		for i := 2; i <= L.GetTop(); i++ {
			n.lines = append(n.lines, L.CheckString(i))
		}
		return n
	})

	// Cmd("Name", params...) emits any command by mnemonic.
	simple(L, "Cmd", func(L *lua.LState) *node {
		name := L.CheckString(1)
		code, ok := opcode.Code(name)
		if !ok {
			L.RaiseError("unknown command %q", name)
		}
		n := &node{code: code}
		for i := 2; i <= L.GetTop(); i++ {
			if s, ok := L.Get(i).(lua.LString); ok {
				n.text = string(s)
				continue
			}
			n.params = append(n.params, L.CheckInt(i))
		}
		return n
	})
}

// choice builds
//
//	Choice { { "Yes", cmds... }, { "No", cmds... }, cancel = 2 }
//
// where cancel names the option taken on cancel, or is a table of commands
// for a separate cancel branch.
func choice(L *lua.LState) int {
	tbl := L.CheckTable(1)
	n := &node{code: opcode.ShowChoice, params: []int{0}, end: opcode.ChoiceEnd}
	count := tbl.MaxN()
	for i := 1; i <= count; i++ {
		opt, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(1, fmt.Sprintf("option %d must be a table", i))
		}
		label, ok := opt.RawGetInt(1).(lua.LString)
		if !ok {
			L.ArgError(1, fmt.Sprintf("option %d needs a label", i))
		}
		ns, err := toNodes(opt, 2, fmt.Sprintf("Choice option %d", i))
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		n.blocks = append(n.blocks, block{marker: opcode.ChoiceOption, params: []int{i - 1, 0}, text: string(label), body: ns})
	}
	switch c := tbl.RawGetString("cancel").(type) {
	case lua.LNumber:
		n.params[0] = int(c)
	case *lua.LTable:
		n.params[0] = count + 1
		n.blocks = append(n.blocks, block{marker: opcode.ChoiceOption, params: []int{count, 1}, body: body(L, c, "Choice cancel")})
	}
	return push(L, n)
}

var variableOps = map[string]int{
	"set": effects.OpSet,
	"add": effects.OpAdd,
	"sub": effects.OpSub,
	"mul": effects.OpMul,
	"div": effects.OpDiv,
	"mod": effects.OpMod,
}

var actorStats = map[string]int{
	"hp":      interp.StatHP,
	"max_hp":  interp.StatMaxHP,
	"mp":      interp.StatMP,
	"max_mp":  interp.StatMaxMP,
	"attack":  interp.StatAttack,
	"defense": interp.StatDefense,
}

// variable builds
//
//	Variable { id = 1, to = 3, op = "add", random = { 1, 6 } }
//
// with exactly one operand key among const, var, indirect, random, item,
// actor, gold, timer and party. ref = true treats id as a variable holding
// the target id.
func variable(L *lua.LState) int {
	tbl := L.CheckTable(1)
	id := getInt(tbl, "id")
	mode, hi := 0, 0
	if to := getInt(tbl, "to"); to > 0 {
		mode, hi = 1, to
	}
	if getBool(tbl, "ref", false) {
		mode = 2
	}
	opName := getString(tbl, "op")
	if opName == "" {
		opName = "set"
	}
	op, ok := variableOps[opName]
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown variable op %q", opName))
	}

	kind, x, y := interp.OperandConst, 0, 0
	switch {
	case tbl.RawGetString("var") != lua.LNil:
		kind, x = interp.OperandVariable, getInt(tbl, "var")
	case tbl.RawGetString("indirect") != lua.LNil:
		kind, x = interp.OperandIndirect, getInt(tbl, "indirect")
	case getTable(tbl, "random") != nil:
		r := getIntList(tbl, "random")
		if len(r) != 2 {
			L.ArgError(1, "random needs { lo, hi }")
		}
		kind, x, y = interp.OperandRandom, r[0], r[1]
	case tbl.RawGetString("item") != lua.LNil:
		kind, x = interp.OperandItem, getInt(tbl, "item")
	case getTable(tbl, "actor") != nil:
		a := getTable(tbl, "actor")
		stat, ok := actorStats[lua.LVAsString(a.RawGetInt(2))]
		if !ok {
			L.ArgError(1, "actor needs { id, stat }")
		}
		kind, x, y = interp.OperandActor, int(lua.LVAsNumber(a.RawGetInt(1))), stat
	case getBool(tbl, "gold", false):
		kind = interp.OperandGold
	case getBool(tbl, "timer", false):
		kind = interp.OperandTimer
	case getBool(tbl, "party", false):
		kind = interp.OperandPartySize
	default:
		x = getInt(tbl, "const")
	}
	return push(L, &node{code: opcode.ControlVariables, params: []int{mode, id, hi, op, kind, x, y}})
}

// cond returns a branch condition to Lua.
func cond(L *lua.LState, c *condition) int {
	ud := L.NewUserData()
	ud.Value = c
	L.Push(ud)
	return 1
}

// onOff is the "off" flag branch conditions take: 0 tests on.
func onOff(L *lua.LState, n int) int {
	return boolParam(!L.OptBool(n, true))
}

var comparisons = map[string]int{
	"==": rules.CmpEq,
	">=": rules.CmpGe,
	"<=": rules.CmpLe,
	">":  rules.CmpGt,
	"<":  rules.CmpLt,
	"~=": rules.CmpNe,
	"!=": rules.CmpNe,
}

func registerConditions(L *lua.LState) {
	reg := func(name string, f func(L *lua.LState) *condition) {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int { return cond(L, f(L)) }))
	}
	compare := func(L *lua.LState, src int) *condition {
		op, ok := comparisons[L.CheckString(2)]
		if !ok {
			L.ArgError(2, "unknown comparison")
		}
		p := []int{0, L.CheckInt(1), src, L.CheckInt(3), op}
		field := append([]int{rules.CondVariable}, p[1:]...)
		battle := append([]int{rules.BattleCondVariable}, p[1:]...)
		return &condition{name: "Var", field: field, battle: battle}
	}

	reg("Switch", func(L *lua.LState) *condition {
		id, off := L.CheckInt(1), onOff(L, 2)
		return &condition{name: "Switch",
			field:  []int{rules.CondSwitch, id, off},
			battle: []int{rules.BattleCondSwitch, id, off}}
	})
	reg("Var", func(L *lua.LState) *condition { return compare(L, 0) })
	reg("VarVar", func(L *lua.LState) *condition { return compare(L, 1) })
	reg("TimerAtLeast", func(L *lua.LState) *condition {
		return &condition{name: "TimerAtLeast", field: []int{rules.CondTimer, L.CheckInt(1), 0}}
	})
	reg("TimerAtMost", func(L *lua.LState) *condition {
		return &condition{name: "TimerAtMost", field: []int{rules.CondTimer, L.CheckInt(1), 1}}
	})
	reg("GoldAtLeast", func(L *lua.LState) *condition {
		return &condition{name: "GoldAtLeast", field: []int{rules.CondGold, L.CheckInt(1), 0}}
	})
	reg("GoldAtMost", func(L *lua.LState) *condition {
		return &condition{name: "GoldAtMost", field: []int{rules.CondGold, L.CheckInt(1), 1}}
	})
	reg("HasItem", func(L *lua.LState) *condition {
		return &condition{name: "HasItem", field: []int{rules.CondItem, L.CheckInt(1), onOff(L, 2)}}
	})
	reg("InParty", func(L *lua.LState) *condition {
		return &condition{name: "InParty", field: []int{rules.CondActor, L.CheckInt(1), onOff(L, 2)}}
	})
	reg("Facing", func(L *lua.LState) *condition {
		return &condition{name: "Facing", field: []int{rules.CondFacing, L.CheckInt(1), L.CheckInt(2)}}
	})
	reg("ActionKey", func(L *lua.LState) *condition {
		return &condition{name: "ActionKey", field: []int{rules.CondActionKey}}
	})
	reg("SelfSwitch", func(L *lua.LState) *condition {
		return &condition{name: "SelfSwitch", field: []int{rules.CondSelfSwitch, letter(L, 1), onOff(L, 2)}}
	})
	reg("ActorCanAct", func(L *lua.LState) *condition {
		return &condition{name: "ActorCanAct", battle: []int{rules.BattleCondActorCanAct, L.CheckInt(1)}}
	})
	reg("EnemyCanAct", func(L *lua.LState) *condition {
		return &condition{name: "EnemyCanAct", battle: []int{rules.BattleCondEnemyCanAct, L.CheckInt(1) - 1}}
	})
	reg("EnemyTargeted", func(L *lua.LState) *condition {
		return &condition{name: "EnemyTargeted", battle: []int{rules.BattleCondEnemyTargeted, L.CheckInt(1) - 1}}
	})
	reg("ActorCommand", func(L *lua.LState) *condition {
		return &condition{name: "ActorCommand", battle: []int{rules.BattleCondActorCommand, L.CheckInt(1), L.CheckInt(2)}}
	})

	// If(cond, { then... }, { else... })
	L.SetGlobal("If", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		c, ok := ud.Value.(*condition)
		if !ok {
			L.ArgError(1, "condition expected")
		}
		n := &node{code: opcode.ConditionalBranch, cond: c, end: opcode.EndBranch}
		n.blocks = append(n.blocks, block{body: body(L, L.CheckTable(2), "If")})
		if alt := L.OptTable(3, nil); alt != nil {
			n.blocks = append(n.blocks, block{marker: opcode.ElseBranch, body: body(L, alt, "If else")})
		}
		return push(L, n)
	}))
}

// letter reads a self switch letter "A".."D" as its index.
func letter(L *lua.LState, n int) int {
	s := L.CheckString(n)
	for i, l := range rules.SelfSwitchLetters {
		if l == s {
			return i
		}
	}
	L.ArgError(n, fmt.Sprintf("self switch %q must be A, B, C or D", s))
	return 0
}

var routeSteps = map[string]int{
	"up":         mapscript.StepUp,
	"right":      mapscript.StepRight,
	"down":       mapscript.StepDown,
	"left":       mapscript.StepLeft,
	"turn_up":    mapscript.StepTurnUp,
	"turn_right": mapscript.StepTurnRight,
	"turn_down":  mapscript.StepTurnDown,
	"turn_left":  mapscript.StepTurnLeft,
	"wait":       mapscript.StepWait,
	"switch_on":  mapscript.StepSwitchOn,
	"switch_off": mapscript.StepSwitchOff,
}

// move builds Move(target, { "up", { "wait", 10 }, ... }, { loop, skip,
// wait }). An empty step list cancels the target's route.
func move(L *lua.LState) int {
	target := L.CheckInt(1)
	steps := L.CheckTable(2)
	opts := L.OptTable(3, L.NewTable())
	flags := 0
	if getBool(opts, "loop", false) {
		flags |= mapscript.FlagRepeat
	}
	if getBool(opts, "skip", false) {
		flags |= mapscript.FlagSkippable
	}
	if getBool(opts, "wait", false) {
		flags |= mapscript.FlagWait
	}
	p := []int{target, flags}
	for i := 1; i <= steps.MaxN(); i++ {
		switch v := steps.RawGetInt(i).(type) {
		case lua.LString:
			code, ok := routeSteps[string(v)]
			if !ok {
				L.ArgError(2, fmt.Sprintf("unknown route step %q", string(v)))
			}
			p = append(p, code)
		case *lua.LTable:
			code, ok := routeSteps[lua.LVAsString(v.RawGetInt(1))]
			if !ok {
				L.ArgError(2, fmt.Sprintf("unknown route step at %d", i))
			}
			p = append(p, code, int(lua.LVAsNumber(v.RawGetInt(2))))
		default:
			L.ArgError(2, fmt.Sprintf("route step %d must be a name or { name, arg }", i))
		}
	}
	return push(L, &node{code: opcode.MoveEvent, params: p})
}

var escapeModes = map[string]int{
	"":        interp.EscapeDisallowed,
	"none":    interp.EscapeDisallowed,
	"end":     interp.EscapeEndEvent,
	"handler": interp.EscapeHandler,
}

var defeatModes = map[string]int{
	"":         interp.DefeatGameOver,
	"gameover": interp.DefeatGameOver,
	"handler":  interp.DefeatHandler,
}

// battle builds Battle(troop, { escape = "handler", defeat = "handler",
// victory = {...}, escaped = {...}, defeated = {...} }).
func battle(L *lua.LState) int {
	troop := L.CheckInt(1)
	opts := L.OptTable(2, L.NewTable())
	esc, ok := escapeModes[getString(opts, "escape")]
	if !ok {
		L.ArgError(2, "escape must be none, end or handler")
	}
	def, ok := defeatModes[getString(opts, "defeat")]
	if !ok {
		L.ArgError(2, "defeat must be gameover or handler")
	}
	n := &node{code: opcode.EnemyEncounter, params: []int{0, troop, esc, def}}
	if esc == interp.EscapeHandler || def == interp.DefeatHandler {
		n.blocks = append(n.blocks, block{marker: opcode.VictoryHandler, body: body(L, getTable(opts, "victory"), "Battle victory")})
		if esc == interp.EscapeHandler {
			n.blocks = append(n.blocks, block{marker: opcode.EscapeHandler, body: body(L, getTable(opts, "escaped"), "Battle escape")})
		}
		if def == interp.DefeatHandler {
			n.blocks = append(n.blocks, block{marker: opcode.DefeatHandler, body: body(L, getTable(opts, "defeated"), "Battle defeat")})
		}
		n.end = opcode.EndBattle
	}
	return push(L, n)
}

// shop builds Shop({ goods... }, { bought = {...}, declined = {...} }).
func shop(L *lua.LState) int {
	goods := intList(L.CheckTable(1))
	opts := L.OptTable(2, nil)
	branches := opts != nil && (getTable(opts, "bought") != nil || getTable(opts, "declined") != nil)
	n := &node{code: opcode.OpenShop, params: append([]int{0, boolParam(branches)}, goods...)}
	if branches {
		n.blocks = []block{
			{marker: opcode.Transaction, body: body(L, getTable(opts, "bought"), "Shop bought")},
			{marker: opcode.NoTransaction, body: body(L, getTable(opts, "declined"), "Shop declined")},
		}
		n.end = opcode.EndShop
	}
	return push(L, n)
}

// inn builds Inn(price, { stay = {...}, leave = {...} }).
func inn(L *lua.LState) int {
	price := L.CheckInt(1)
	opts := L.OptTable(2, nil)
	branches := opts != nil && (getTable(opts, "stay") != nil || getTable(opts, "leave") != nil)
	n := &node{code: opcode.ShowInn, params: []int{0, price, boolParam(branches)}}
	if branches {
		n.blocks = []block{
			{marker: opcode.Stay, body: body(L, getTable(opts, "stay"), "Inn stay")},
			{marker: opcode.NoStay, body: body(L, getTable(opts, "leave"), "Inn leave")},
		}
		n.end = opcode.EndInn
	}
	return push(L, n)
}

func registerMapCommands(L *lua.LState) {
	simple(L, "Teleport", func(L *lua.LState) *node {
		return &node{code: opcode.Teleport, params: []int{L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.OptInt(4, -1)}}
	})
	simple(L, "MemorizeLocation", func(L *lua.LState) *node {
		return &node{code: opcode.MemorizeLocation, params: []int{L.CheckInt(1), L.CheckInt(2), L.CheckInt(3)}}
	})
	simple(L, "RecallLocation", func(L *lua.LState) *node {
		return &node{code: opcode.RecallToLocation, params: []int{L.CheckInt(1), L.CheckInt(2), L.CheckInt(3)}}
	})
	simple(L, "SetEventLocation", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeEventLocation, params: []int{L.CheckInt(1), 0, L.CheckInt(2), L.CheckInt(3)}}
	})
	simple(L, "SwapEvents", func(L *lua.LState) *node {
		return &node{code: opcode.TradeEventLocations, params: []int{L.CheckInt(1), L.CheckInt(2)}}
	})
	simple(L, "StoreEventID", func(L *lua.LState) *node {
		return &node{code: opcode.StoreEventID, params: []int{0, L.CheckInt(1), L.CheckInt(2), L.CheckInt(3)}}
	})
	L.SetGlobal("Battle", L.NewFunction(battle))
	L.SetGlobal("Shop", L.NewFunction(shop))
	L.SetGlobal("Inn", L.NewFunction(inn))
	simple(L, "EnterName", func(L *lua.LState) *node {
		return &node{code: opcode.EnterHeroName, params: []int{L.CheckInt(1)}}
	})
	L.SetGlobal("Move", L.NewFunction(move))
	simple(L, "WaitForMovement", func(L *lua.LState) *node { return &node{code: opcode.ProceedWithMovement} })
	simple(L, "HaltMovement", func(L *lua.LState) *node { return &node{code: opcode.HaltAllMovement} })
	simple(L, "Erase", func(L *lua.LState) *node { return &node{code: opcode.EraseEvent} })
	simple(L, "Animation", func(L *lua.LState) *node {
		return &node{code: opcode.ShowBattleAnimation, params: []int{L.CheckInt(1), L.OptInt(2, 0), boolParam(L.OptBool(3, false))}}
	})
	simple(L, "EraseScreen", func(L *lua.LState) *node { return &node{code: opcode.EraseScreen} })
	simple(L, "ShowScreen", func(L *lua.LState) *node { return &node{code: opcode.ShowScreen} })
	simple(L, "Tint", func(L *lua.LState) *node {
		return &node{code: opcode.TintScreen, params: []int{L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4), L.OptInt(5, 0), boolParam(L.OptBool(6, false))}}
	})
	simple(L, "Flash", func(L *lua.LState) *node {
		return &node{code: opcode.FlashScreen, params: []int{L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4), L.OptInt(5, 0), boolParam(L.OptBool(6, false))}}
	})
	simple(L, "Shake", func(L *lua.LState) *node {
		return &node{code: opcode.ShakeScreen, params: []int{L.CheckInt(1), L.CheckInt(2), L.OptInt(3, 0), boolParam(L.OptBool(4, false))}}
	})
	simple(L, "SetSelfSwitch", func(L *lua.LState) *node {
		return &node{code: opcode.SetSelfSwitch, params: []int{letter(L, 1), boolParam(!L.OptBool(2, true))}}
	})
}

// Battle helpers number troop slots from 1 like the conditions do.
func registerBattleCommands(L *lua.LState) {
	monsterAmount := func(code int) func(L *lua.LState) *node {
		return func(L *lua.LState) *node {
			slot, n := L.CheckInt(1)-1, L.CheckInt(2)
			op := 0
			if n < 0 {
				op, n = 1, -n
			}
			p := []int{slot, op, 0, n}
			if code == opcode.ChangeMonsterHP {
				p = append(p, boolParam(L.OptBool(3, true)))
			}
			return &node{code: code, params: p}
		}
	}
	simple(L, "MonsterHP", monsterAmount(opcode.ChangeMonsterHP))
	simple(L, "MonsterMP", monsterAmount(opcode.ChangeMonsterMP))
	simple(L, "MonsterState", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeMonsterCondition, params: []int{L.CheckInt(1) - 1, boolParam(!L.OptBool(3, true)), L.CheckInt(2)}}
	})
	simple(L, "ShowMonster", func(L *lua.LState) *node {
		return &node{code: opcode.ShowHiddenMonster, params: []int{L.CheckInt(1) - 1}}
	})
	simple(L, "BattleBG", func(L *lua.LState) *node {
		return &node{code: opcode.ChangeBattleBG, text: L.CheckString(1)}
	})
	simple(L, "TerminateBattle", func(L *lua.LState) *node { return &node{code: opcode.TerminateBattle} })
	simple(L, "ForceAction", func(L *lua.LState) *node {
		return &node{code: opcode.ForceAction, params: []int{1, L.CheckInt(1) - 1, L.CheckInt(2), 0}}
	})
}
