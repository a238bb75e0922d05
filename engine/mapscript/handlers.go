package mapscript

import (
	"fmt"

	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/resolve"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// AnimationTicks is how long a battle animation blocks when waited on.
const AnimationTicks = 30

// InnChoices are the prompt options shown by ShowInn.
var InnChoices = []string{"Stay", "Leave"}

var mapTable = interp.Table{
	opcode.ConditionalBranch:   conditionalBranch,
	opcode.ElseBranch:          skip(opcode.EndBranch),
	opcode.EndBranch:           nop,
	opcode.Teleport:            teleport,
	opcode.MemorizeLocation:    memorizeLocation,
	opcode.RecallToLocation:    recallToLocation,
	opcode.ChangeEventLocation: changeEventLocation,
	opcode.TradeEventLocations: tradeEventLocations,
	opcode.StoreEventID:        storeEventID,
	opcode.EnemyEncounter:      enemyEncounter,
	opcode.VictoryHandler:      skip(opcode.EndBattle),
	opcode.EscapeHandler:       skip(opcode.EndBattle),
	opcode.DefeatHandler:       skip(opcode.EndBattle),
	opcode.EndBattle:           nop,
	opcode.OpenShop:            openShop,
	opcode.Transaction:         skip(opcode.EndShop),
	opcode.NoTransaction:       skip(opcode.EndShop),
	opcode.EndShop:             nop,
	opcode.ShowInn:             showInn,
	opcode.Stay:                skip(opcode.EndInn),
	opcode.NoStay:              skip(opcode.EndInn),
	opcode.EndInn:              nop,
	opcode.EnterHeroName:       enterHeroName,
	opcode.MoveEvent:           moveEvent,
	opcode.ProceedWithMovement: proceedWithMovement,
	opcode.HaltAllMovement:     haltAllMovement,
	opcode.EraseEvent:          eraseEvent,
	opcode.ShowBattleAnimation: showBattleAnimation,
	opcode.EraseScreen:         eraseScreen(true),
	opcode.ShowScreen:          eraseScreen(false),
	opcode.TintScreen:          tintScreen,
	opcode.FlashScreen:         flashScreen,
	opcode.ShakeScreen:         shakeScreen,
	opcode.SetSelfSwitch:       setSelfSwitch,
}

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

// value reads a constant (src 0) or variable (src 1) operand.
func value(s *types.State, src, v int) int {
	if src == 1 {
		return state.GetVariable(s, v)
	}
	return v
}

func conditionalBranch(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	ctx := rules.Context{
		MapID:     in.MapID(),
		EventID:   in.EventID(),
		ActionKey: in.EventID() > 0 && s.ActionEvent == in.EventID(),
	}
	ok := rules.EvalBranch(cmd.Params, s, ctx)
	return interp.Branch(in, cmd, ok, opcode.ElseBranch, opcode.EndBranch)
}

// teleport requests a transfer to [map, x, y, dir]; dir -1 keeps facing.
// The cursor advances immediately and the run loop suspends until the
// transfer is done.
func teleport(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	p := cmd.Params
	requestTeleport(in.State(), param(p, 0), param(p, 1), param(p, 2), dirParam(p, 3, in.State()))
	return interp.Advance
}

func dirParam(p []int, i int, s *types.State) int {
	if i >= len(p) || p[i] < 0 || p[i] > types.DirLeft {
		return s.Map.Player.Dir
	}
	return p[i]
}

func requestTeleport(s *types.State, mapID, x, y, dir int) {
	s.Map.Teleport = types.Teleport{Pending: true, MapID: mapID, X: x, Y: y, Dir: dir}
}

// memorizeLocation stores the player position into [varMap, varX, varY].
func memorizeLocation(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	s.Map.Memory = types.Location{MapID: s.Map.ID, X: s.Map.Player.X, Y: s.Map.Player.Y}
	in.Emit(effects.ApplyVariable(s, param(p, 0), effects.OpSet, s.Map.ID))
	in.Emit(effects.ApplyVariable(s, param(p, 1), effects.OpSet, s.Map.Player.X))
	in.Emit(effects.ApplyVariable(s, param(p, 2), effects.OpSet, s.Map.Player.Y))
	return interp.Advance
}

// recallToLocation teleports to the location held in [varMap, varX, varY].
func recallToLocation(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	mapID := state.GetVariable(s, param(p, 0))
	if _, ok := in.Defs().Maps[mapID]; !ok {
		in.Log().Debug("recall to unknown map", "map", mapID)
		return interp.Advance
	}
	requestTeleport(s, mapID, state.GetVariable(s, param(p, 1)), state.GetVariable(s, param(p, 2)), s.Map.Player.Dir)
	return interp.Advance
}

// changeEventLocation moves [character, src, x, y].
func changeEventLocation(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	ch, err := resolve.Character(s, param(p, 0), in.EventID())
	if err != nil {
		in.Log().Debug("change event location", "err", err)
		return interp.Advance
	}
	ch.X = value(s, param(p, 1), param(p, 2))
	ch.Y = value(s, param(p, 1), param(p, 3))
	return interp.Advance
}

func tradeEventLocations(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	a, errA := resolve.Character(s, param(cmd.Params, 0), in.EventID())
	b, errB := resolve.Character(s, param(cmd.Params, 1), in.EventID())
	if errA != nil || errB != nil {
		in.Log().Debug("trade event locations", "a", errA, "b", errB)
		return interp.Advance
	}
	a.X, b.X = b.X, a.X
	a.Y, b.Y = b.Y, a.Y
	return interp.Advance
}

// storeEventID writes the ID of the event at [src, x, y] into variable p[3].
func storeEventID(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	x, y := value(s, param(p, 0), param(p, 1)), value(s, param(p, 0), param(p, 2))
	in.Emit(effects.ApplyVariable(s, param(p, 3), effects.OpSet, state.EventAt(s, x, y)))
	return interp.Advance
}

// enemyEncounter starts a battle with [src, troop, escapeMode, defeatMode].
func enemyEncounter(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	troop := value(s, param(p, 0), param(p, 1))
	if _, ok := in.Defs().Troops[troop]; !ok {
		in.Log().Debug("encounter with unknown troop", "troop", troop)
		return interp.Advance
	}
	s.Encounter = types.BattleRequest{TroopID: troop, CanEscape: param(p, 2) != interp.EscapeDisallowed}
	s.Scene.Battle = true
	in.Continue(interp.BattleResolution{Indent: cmd.Indent, EscapeMode: param(p, 2), DefeatMode: param(p, 3)})
	return interp.Advance
}

// openShop opens [type, branches, goods...].
func openShop(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	var goods []int
	if len(p) > 2 {
		goods = append(goods, p[2:]...)
	}
	s.Shop = types.ShopRequest{Type: param(p, 0), Goods: goods}
	s.Scene.Shop = true
	in.Continue(interp.ShopResolution{Indent: cmd.Indent, Branches: param(p, 1) == 1})
	return interp.Advance
}

// showInn prompts [type, price, branches] in the message window.
func showInn(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	p := cmd.Params
	price := param(p, 1)
	m := &s.Message
	m.Lines = []string{fmt.Sprintf("Stay the night for %d gold?", price)}
	m.Choices = append([]string(nil), InnChoices...)
	m.ChoiceCancel = len(InnChoices)
	m.ChoiceResult = -1
	m.Visible = true
	m.Waiting = true
	in.Continue(interp.InnResolution{Indent: cmd.Indent, Price: price, Branches: param(p, 2) == 1})
	return interp.Advance
}

func enterHeroName(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	in.State().Name = types.NameRequest{Actor: param(cmd.Params, 0)}
	return interp.OpenScene(interp.SceneName)(in, cmd)
}

// moveEvent registers a forced route. A route with no steps is the cancel
// path: it stops the target's route if this interpreter issued it.
func moveEvent(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	d := dialectOf(in)
	route, wait, err := DecodeRoute(cmd.Params)
	if err != nil {
		in.Log().Debug("bad move route", "err", err)
		return interp.Advance
	}
	id, err := resolve.ID(s, param(cmd.Params, 0), in.EventID())
	if err != nil {
		in.Log().Debug("move route target", "err", err)
		return interp.Advance
	}
	ch := state.Character(s, id)

	if len(route.Steps) == 0 {
		if d != nil && d.routes.Cancel(id, in) {
			ch.Route = nil
		}
		return interp.Advance
	}

	ch.Route = &types.ActiveRoute{Route: route}
	if d != nil {
		d.routes.Register(route, id, in)
	}
	if wait {
		in.AwaitMovement()
	}
	return interp.Advance
}

func proceedWithMovement(in *interp.Interpreter, _ types.Command) interp.Outcome {
	if d := dialectOf(in); d != nil && d.routes.Waiting(in.State()) > 0 {
		return interp.Hold
	}
	return interp.Advance
}

func haltAllMovement(in *interp.Interpreter, _ types.Command) interp.Outcome {
	if d := dialectOf(in); d != nil {
		d.routes.Halt(in.State())
	}
	return interp.Advance
}

func eraseEvent(in *interp.Interpreter, _ types.Command) interp.Outcome {
	s := in.State()
	id := in.EventID()
	if id <= 0 {
		return interp.Advance
	}
	s.Map.Erased[id] = true
	s.Map.Pages[id] = -1
	return interp.Advance
}

// showBattleAnimation plays [animation, target, wait] at the target's tile.
// An unknown target leaves the animation where the last one played.
func showBattleAnimation(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	s := in.State()
	s.Screen.Animation = param(cmd.Params, 0)
	if target := param(cmd.Params, 1); target == types.CharCrowd {
		s.Screen.AnimX, s.Screen.AnimY = state.CrowdCentroid(s)
	} else if ch, err := resolve.Character(s, target, in.EventID()); err == nil {
		s.Screen.AnimX, s.Screen.AnimY = ch.X, ch.Y
	}
	if param(cmd.Params, 2) == 1 {
		in.Wait(AnimationTicks)
	}
	return interp.Advance
}

func eraseScreen(erased bool) interp.Handler {
	return func(in *interp.Interpreter, _ types.Command) interp.Outcome {
		in.State().Screen.Erased = erased
		return interp.Advance
	}
}

// tintScreen applies [r, g, b, gray, tenths, wait].
func tintScreen(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	p := cmd.Params
	in.State().Screen.Tint = [4]int{param(p, 0), param(p, 1), param(p, 2), param(p, 3)}
	if param(p, 5) == 1 {
		in.Wait(param(p, 4) * interp.TicksPerTenth)
	}
	return interp.Advance
}

// flashScreen applies [r, g, b, strength, tenths, wait].
func flashScreen(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	p := cmd.Params
	ticks := param(p, 4) * interp.TicksPerTenth
	in.State().Screen.FlashFrames = ticks
	if param(p, 5) == 1 {
		in.Wait(ticks)
	}
	return interp.Advance
}

// shakeScreen applies [strength, speed, tenths, wait].
func shakeScreen(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	p := cmd.Params
	ticks := param(p, 2) * interp.TicksPerTenth
	in.State().Screen.ShakeFrames = ticks
	if param(p, 3) == 1 {
		in.Wait(ticks)
	}
	return interp.Advance
}

// setSelfSwitch sets [letter, off] on the owning event.
func setSelfSwitch(in *interp.Interpreter, cmd types.Command) interp.Outcome {
	letter := param(cmd.Params, 0)
	if in.EventID() <= 0 || letter < 0 || letter >= len(rules.SelfSwitchLetters) {
		return interp.Advance
	}
	in.Emit(effects.SetSelfSwitch(in.State(), in.MapID(), in.EventID(),
		rules.SelfSwitchLetters[letter], param(cmd.Params, 1) == 0))
	return interp.Advance
}
