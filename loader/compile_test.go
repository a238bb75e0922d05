package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/mapscript"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/types"
)

const world = header + `
Item(1) { name = "Potion", price = 10 }
Item(2) { name = "Rope", price = 5 }
Enemy(1) { name = "Slime", hp = 5 }
Troop(1) { members = { 1 } }
CommonEvent(1) { name = "Noop" }
Map(2) { width = 4, height = 4 }
`

// eventProgram loads cmds as the only page of event 1 on map 1.
func eventProgram(t *testing.T, cmds string) types.Program {
	t.Helper()
	src := world + `Map(1) { width = 8, height = 8, events = {
  Event(1) { x = 1, y = 1, Page {
` + cmds + `
  } },
} }`
	defs, err := Load(writeGame(t, map[string]string{"game.lua": src}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return defs.Maps[1].Events[1].Pages[0].Program
}

// troopProgram loads cmds as the only page of troop 2.
func troopProgram(t *testing.T, cmds string) types.Program {
	t.Helper()
	src := world + `Map(1) { width = 8, height = 8 }
Troop(2) { members = { 1, 1 }, pages = { Page {
` + cmds + `
} } }`
	defs, err := Load(writeGame(t, map[string]string{"game.lua": src}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return defs.Troops[2].Pages[0].Program
}

func loadErr(t *testing.T, cmds string) error {
	t.Helper()
	src := world + `Map(1) { width = 8, height = 8, events = {
  Event(1) { x = 1, y = 1, Page {
` + cmds + `
  } },
} }`
	_, err := Load(writeGame(t, map[string]string{"game.lua": src}))
	if err == nil {
		t.Fatal("expected an error")
	}
	return err
}

func cmd(code, indent int, params ...int) types.Command {
	return types.Command{Code: code, Indent: indent, Params: params}
}

func text(code, indent int, s string, params ...int) types.Command {
	return types.Command{Code: code, Indent: indent, Params: params, Text: s}
}

func TestCompile_IfElse(t *testing.T) {
	got := eventProgram(t, `If(Switch(3), { SwitchOn(4) }, { If(Var(2, ">=", 5), { Exit() }) }),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.ConditionalBranch, 0, rules.CondSwitch, 3, 0),
		cmd(opcode.ControlSwitches, 1, 0, 4, 0, 0),
		cmd(opcode.ElseBranch, 0),
		cmd(opcode.ConditionalBranch, 1, rules.CondVariable, 2, 0, 5, rules.CmpGe),
		cmd(opcode.EndEventProcessing, 2),
		cmd(opcode.EndBranch, 1),
		cmd(opcode.EndBranch, 0),
	})
}

func TestCompile_ConditionsMapContext(t *testing.T) {
	tests := []struct {
		lua  string
		want []int
	}{
		{`Switch(1, false)`, []int{rules.CondSwitch, 1, 1}},
		{`VarVar(1, "~=", 2)`, []int{rules.CondVariable, 1, 1, 2, rules.CmpNe}},
		{`TimerAtLeast(30)`, []int{rules.CondTimer, 30, 0}},
		{`TimerAtMost(30)`, []int{rules.CondTimer, 30, 1}},
		{`GoldAtLeast(100)`, []int{rules.CondGold, 100, 0}},
		{`GoldAtMost(100)`, []int{rules.CondGold, 100, 1}},
		{`HasItem(1)`, []int{rules.CondItem, 1, 0}},
		{`InParty(1, false)`, []int{rules.CondActor, 1, 1}},
		{`Facing(PLAYER, LEFT)`, []int{rules.CondFacing, types.CharPlayer, types.DirLeft}},
		{`ActionKey()`, []int{rules.CondActionKey}},
		{`SelfSwitch("C")`, []int{rules.CondSelfSwitch, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.lua, func(t *testing.T) {
			got := eventProgram(t, `If(`+tt.lua+`, {}),`)
			assertProgram(t, got, types.Program{
				cmd(opcode.ConditionalBranch, 0, tt.want...),
				cmd(opcode.EndBranch, 0),
			})
		})
	}
}

func TestCompile_BattleContextBranch(t *testing.T) {
	got := troopProgram(t, `If(Switch(2), { MonsterHP(1, -5) }, { Animation(3, 0, true) }),
If(ActorCommand(1, ESCAPE), { TerminateBattle() }),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.ConditionalBranchB, 0, rules.BattleCondSwitch, 2, 0),
		cmd(opcode.ChangeMonsterHP, 1, 0, 1, 0, 5, 1),
		cmd(opcode.ElseBranchB, 0),
		cmd(opcode.ShowBattleAnimationB, 1, 3, 0, 1),
		cmd(opcode.EndBranchB, 0),
		cmd(opcode.ConditionalBranchB, 0, rules.BattleCondActorCommand, 1, 2),
		cmd(opcode.TerminateBattle, 1),
		cmd(opcode.EndBranchB, 0),
	})
}

func TestCompile_ConditionWrongContext(t *testing.T) {
	err := loadErr(t, `If(EnemyCanAct(1), {}),`)
	if !strings.Contains(err.Error(), "EnemyCanAct is not available in map events") {
		t.Errorf("got %v", err)
	}

	src := world + `Map(1) { width = 8, height = 8 }
Troop(2) { members = { 1 }, pages = { Page { If(HasItem(1), {}) } } }`
	_, err = Load(writeGame(t, map[string]string{"game.lua": src}))
	if err == nil || !strings.Contains(err.Error(), "HasItem is not available in battle events") {
		t.Errorf("got %v", err)
	}
}

func TestCompile_ChoiceCancelBranch(t *testing.T) {
	got := eventProgram(t, `Choice { { "Left", SwitchOn(1) }, { "Right" }, cancel = { SwitchOn(9) } },`)
	assertProgram(t, got, types.Program{
		cmd(opcode.ShowChoice, 0, 3),
		text(opcode.ChoiceOption, 0, "Left", 0, 0),
		cmd(opcode.ControlSwitches, 1, 0, 1, 0, 0),
		text(opcode.ChoiceOption, 0, "Right", 1, 0),
		cmd(opcode.ChoiceOption, 0, 2, 1),
		cmd(opcode.ControlSwitches, 1, 0, 9, 0, 0),
		cmd(opcode.ChoiceEnd, 0),
	})
}

func TestCompile_LoopAndLabels(t *testing.T) {
	got := eventProgram(t, `Loop { AddVar(1, 1), If(Var(1, ">=", 3), { Break() }) },
Label(1), JumpTo(1),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.Loop, 0),
		cmd(opcode.ControlVariables, 1, 0, 1, 0, effects.OpAdd, interp.OperandConst, 1),
		cmd(opcode.ConditionalBranch, 1, rules.CondVariable, 1, 0, 3, rules.CmpGe),
		cmd(opcode.BreakLoop, 2),
		cmd(opcode.EndBranch, 1),
		cmd(opcode.EndLoop, 0),
		cmd(opcode.Label, 0, 1),
		cmd(opcode.JumpToLabel, 0, 1),
	})
}

func TestCompile_BattleHandlers(t *testing.T) {
	got := eventProgram(t, `Battle(1, { escape = "handler", defeat = "handler",
  victory = { Gold(10) }, escaped = { SwitchOn(2) }, defeated = { FullHeal() } }),
Battle(1, { escape = "end" }),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.EnemyEncounter, 0, 0, 1, interp.EscapeHandler, interp.DefeatHandler),
		cmd(opcode.VictoryHandler, 0),
		cmd(opcode.ChangeGold, 1, 0, 0, 10),
		cmd(opcode.EscapeHandler, 0),
		cmd(opcode.ControlSwitches, 1, 0, 2, 0, 0),
		cmd(opcode.DefeatHandler, 0),
		cmd(opcode.FullHeal, 1, 0, 0),
		cmd(opcode.EndBattle, 0),
		cmd(opcode.EnemyEncounter, 0, 0, 1, interp.EscapeEndEvent, interp.DefeatGameOver),
	})
}

func TestCompile_ShopAndInn(t *testing.T) {
	got := eventProgram(t, `Shop({ 1, 2 }),
Shop({ 2 }, { declined = { Gold(-1) } }),
Inn(15, { stay = { SwitchOn(5) } }),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.OpenShop, 0, 0, 0, 1, 2),
		cmd(opcode.OpenShop, 0, 0, 1, 2),
		cmd(opcode.Transaction, 0),
		cmd(opcode.NoTransaction, 0),
		cmd(opcode.ChangeGold, 1, 1, 0, 1),
		cmd(opcode.EndShop, 0),
		cmd(opcode.ShowInn, 0, 0, 15, 1),
		cmd(opcode.Stay, 0),
		cmd(opcode.ControlSwitches, 1, 0, 5, 0, 0),
		cmd(opcode.NoStay, 0),
		cmd(opcode.EndInn, 0),
	})
}

func TestCompile_MoveRoute(t *testing.T) {
	got := eventProgram(t, `Move(THIS_EVENT, { "up", "turn_left", { "wait", 12 }, { "switch_on", 7 } }, { loop = true, wait = true }),
Move(PLAYER, {}),
WaitForMovement(),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.MoveEvent, 0, types.CharThisEvent, mapscript.FlagRepeat|mapscript.FlagWait,
			mapscript.StepUp, mapscript.StepTurnLeft, mapscript.StepWait, 12, mapscript.StepSwitchOn, 7),
		cmd(opcode.MoveEvent, 0, types.CharPlayer, 0),
		cmd(opcode.ProceedWithMovement, 0),
	})

	route, wait, err := mapscript.DecodeRoute(got[0].Params)
	if err != nil {
		t.Fatal(err)
	}
	if !wait || !route.Repeat || len(route.Steps) != 4 {
		t.Errorf("decoded route = %+v wait=%v", route, wait)
	}
}

func TestCompile_VariableOperands(t *testing.T) {
	tests := []struct {
		lua  string
		want []int
	}{
		{`Variable { id = 1, const = 4 }`, []int{0, 1, 0, effects.OpSet, interp.OperandConst, 4, 0}},
		{`Variable { id = 1, to = 5, op = "mul", var = 2 }`, []int{1, 1, 5, effects.OpMul, interp.OperandVariable, 2, 0}},
		{`Variable { id = 3, ref = true, indirect = 4 }`, []int{2, 3, 0, effects.OpSet, interp.OperandIndirect, 4, 0}},
		{`Variable { id = 1, op = "add", random = { 1, 6 } }`, []int{0, 1, 0, effects.OpAdd, interp.OperandRandom, 1, 6}},
		{`Variable { id = 1, item = 2 }`, []int{0, 1, 0, effects.OpSet, interp.OperandItem, 2, 0}},
		{`Variable { id = 1, actor = { 1, "max_hp" } }`, []int{0, 1, 0, effects.OpSet, interp.OperandActor, 1, interp.StatMaxHP}},
		{`Variable { id = 1, gold = true }`, []int{0, 1, 0, effects.OpSet, interp.OperandGold, 0, 0}},
		{`Variable { id = 1, timer = true }`, []int{0, 1, 0, effects.OpSet, interp.OperandTimer, 0, 0}},
		{`Variable { id = 1, op = "mod", party = true }`, []int{0, 1, 0, effects.OpMod, interp.OperandPartySize, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.lua, func(t *testing.T) {
			got := eventProgram(t, tt.lua+",")
			assertProgram(t, got, types.Program{cmd(opcode.ControlVariables, 0, tt.want...)})
		})
	}
}

func TestCompile_CommonCommands(t *testing.T) {
	got := eventProgram(t, `Comment("note", "more"),
SwitchOn(1, 4), ToggleSwitch(2), SetVar(3, -2),
SetTimer(90), StartTimer(), StopTimer(),
TakeItem(2), AddMember(1), RemoveMember(1),
Damage(1, 8, true), Heal(0, 5), AddState(1, 2), RemoveState(0, 2),
RenameHero(1, "Ash"), Wait(5), PlayBGM("town"), PlaySound("bell"),
KeyInput(4), KeyInput(5, false), InputNumber(3, 6), MessagePosition(2), Face("elder"),
CallCommon(1), CallEvent(THIS_EVENT, 1), CallEventVar(1, 2),
Cmd("OpenSaveMenu"), Cmd("ShowMessage", "hi"),`)
	assertProgram(t, got, types.Program{
		text(opcode.Comment, 0, "note"),
		text(opcode.CommentLine, 0, "more"),
		cmd(opcode.ControlSwitches, 0, 1, 1, 4, 0),
		cmd(opcode.ControlSwitches, 0, 0, 2, 0, 2),
		cmd(opcode.ControlVariables, 0, 0, 3, 0, effects.OpSet, interp.OperandConst, -2),
		cmd(opcode.TimerOperation, 0, 0, 0, 90),
		cmd(opcode.TimerOperation, 0, 1),
		cmd(opcode.TimerOperation, 0, 2),
		cmd(opcode.ChangeItems, 0, 1, 2, 0, 1),
		cmd(opcode.ChangePartyMembers, 0, 0, 0, 1),
		cmd(opcode.ChangePartyMembers, 0, 1, 0, 1),
		cmd(opcode.ChangeHP, 0, 1, 1, 1, 0, 8, 1),
		cmd(opcode.ChangeHP, 0, 0, 0, 0, 0, 5, 0),
		cmd(opcode.ChangeCondition, 0, 1, 1, 0, 2),
		cmd(opcode.ChangeCondition, 0, 0, 0, 1, 2),
		text(opcode.ChangeHeroName, 0, "Ash", 1),
		cmd(opcode.Wait, 0, 5),
		text(opcode.PlayBGM, 0, "town"),
		text(opcode.PlaySound, 0, "bell"),
		cmd(opcode.KeyInputProc, 0, 4, 1),
		cmd(opcode.KeyInputProc, 0, 5, 0),
		cmd(opcode.InputNumber, 0, 3, 6),
		cmd(opcode.MessageOptions, 0, 0, 2),
		text(opcode.ChangeFaceGraphic, 0, "elder"),
		cmd(opcode.CallEvent, 0, interp.CallCommon, 1),
		cmd(opcode.CallEvent, 0, interp.CallMapEvent, types.CharThisEvent, 1),
		cmd(opcode.CallEvent, 0, interp.CallMapEventVar, 1, 2),
		cmd(opcode.OpenSaveMenu, 0),
		text(opcode.ShowMessage, 0, "hi"),
	})
}

func TestCompile_AnimationTargets(t *testing.T) {
	got := eventProgram(t, `Animation(2, PLAYER), Animation(3, CROWD, true),`)
	assertProgram(t, got, types.Program{
		cmd(opcode.ShowBattleAnimation, 0, 2, types.CharPlayer, 0),
		cmd(opcode.ShowBattleAnimation, 0, 3, types.CharCrowd, 1),
	})
}

func TestCompile_NonCommandEntry(t *testing.T) {
	err := loadErr(t, `"just a string",`)
	if !strings.Contains(err.Error(), "is not a command") {
		t.Errorf("got %v", err)
	}
}

func TestCompile_UnknownCmdName(t *testing.T) {
	err := loadErr(t, `Cmd("Teleprompt", 1),`)
	if !strings.Contains(err.Error(), `unknown command "Teleprompt"`) {
		t.Errorf("got %v", err)
	}
}

func TestCompile_BadArguments(t *testing.T) {
	tests := []struct {
		lua  string
		want string
	}{
		{`SetSelfSwitch("E"),`, "must be A, B, C or D"},
		{`Move(PLAYER, { "jump" }),`, "unknown route step"},
		{`Battle(1, { escape = "maybe" }),`, "escape must be"},
		{`Variable { id = 1, op = "pow" },`, "unknown variable op"},
		{`If(Var(1, "=>", 2), {}),`, "unknown comparison"},
		{`If(1, {}),`, "userdata expected"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if err := loadErr(t, tt.lua); !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestCompile_DuplicateIDs(t *testing.T) {
	src := world + `Map(1) { width = 2, height = 2 }
Item(1) { name = "Again" }`
	_, err := Load(writeGame(t, map[string]string{"game.lua": src}))
	if err == nil || !strings.Contains(err.Error(), "duplicate item 1") {
		t.Errorf("got %v", err)
	}

	src = world + `Map(1) { width = 2, height = 2, events = {
  Event(1) { x = 0, y = 0 }, Event(1) { x = 1, y = 1 },
} }`
	_, err = Load(writeGame(t, map[string]string{"game.lua": src}))
	if err == nil || !strings.Contains(err.Error(), "duplicate event 1") {
		t.Errorf("got %v", err)
	}
}

func TestFlatten_IndentsNestUnderBlocks(t *testing.T) {
	inner := &node{code: opcode.Wait, params: []int{1}}
	loop := &node{code: opcode.Loop, blocks: []block{{body: []*node{inner}}}, end: opcode.EndLoop}
	outer := &node{
		code:   opcode.ConditionalBranch,
		cond:   &condition{name: "Switch", field: []int{0, 1, 0}, battle: []int{0, 1, 0}},
		blocks: []block{{body: []*node{loop}}},
		end:    opcode.EndBranch,
	}

	got, err := flatten(nil, []*node{outer}, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	assertProgram(t, got, types.Program{
		cmd(opcode.ConditionalBranchB, 0, 0, 1, 0),
		cmd(opcode.Loop, 1),
		cmd(opcode.Wait, 2, 1),
		cmd(opcode.EndLoop, 1),
		cmd(opcode.EndBranchB, 0),
	})
}
