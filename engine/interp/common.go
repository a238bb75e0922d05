package interp

import (
	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// TicksPerTenth converts Wait parameters (tenths of a second) to ticks.
const TicksPerTenth = 6

// Operand sources for ControlVariables.
const (
	OperandConst = iota
	OperandVariable
	OperandIndirect
	OperandRandom
	OperandItem
	OperandActor
	OperandGold
	OperandTimer
	OperandPartySize
)

// Actor stats readable by OperandActor.
const (
	StatHP = iota
	StatMaxHP
	StatMP
	StatMaxMP
	StatAttack
	StatDefense
)

var common = Table{
	opcode.ShowMessage:        showMessage,
	opcode.ShowMessageLine:    nop,
	opcode.MessageOptions:     messageOptions,
	opcode.ChangeFaceGraphic:  changeFace,
	opcode.ShowChoice:         showChoice,
	opcode.ChoiceOption:       func(in *Interpreter, cmd types.Command) Outcome { return SkipBlock(in, cmd, opcode.ChoiceEnd) },
	opcode.ChoiceEnd:          nop,
	opcode.InputNumber:        inputNumber,
	opcode.ControlSwitches:    controlSwitches,
	opcode.ControlVariables:   controlVariables,
	opcode.TimerOperation:     timerOperation,
	opcode.ChangeGold:         changeGold,
	opcode.ChangeItems:        changeItems,
	opcode.ChangePartyMembers: changePartyMembers,
	opcode.ChangeHP:           changeHP,
	opcode.ChangeCondition:    changeCondition,
	opcode.FullHeal:           fullHeal,
	opcode.ChangeHeroName:     changeHeroName,
	opcode.Wait:               wait,
	opcode.PlayBGM:            playBGM,
	opcode.PlaySound:          playSound,
	opcode.KeyInputProc:       keyInput,
	opcode.OpenSaveMenu:       openScene(SceneSave),
	opcode.OpenMainMenu:       openScene(SceneMenu),
	opcode.GameOver:           openScene(SceneGameOver),
	opcode.ReturnToTitle:      openScene(SceneTitle),
	opcode.Label:              nop,
	opcode.JumpToLabel:        jumpToLabel,
	opcode.Loop:               nop,
	opcode.BreakLoop:          breakLoop,
	opcode.EndLoop:            endLoop,
	opcode.EndEventProcessing: func(in *Interpreter, _ types.Command) Outcome { return in.End() },
	opcode.CallEvent:          callEvent,
	opcode.Comment:            nop,
	opcode.CommentLine:        nop,
}

// Common returns a copy of the command table shared by every context.
func Common() Table {
	return Merge(common)
}

func nop(*Interpreter, types.Command) Outcome { return Advance }

// Branch implements a conditional branch opener. When cond is false the
// cursor lands on the else or end marker at the opener's indent and the core
// steps past it.
func Branch(in *Interpreter, cmd types.Command, cond bool, elseCode, endCode int) Outcome {
	if cond {
		return Advance
	}
	idx, ok := SkipTo(in.program, in.cursor+1, elseCode, endCode, cmd.Indent, cmd.Indent)
	if !ok {
		in.log.Debug("skip search found no marker", "code", cmd.Code, "cursor", in.cursor)
		return Advance
	}
	in.cursor = idx
	return Advance
}

// SkipBlock handles a marker reached by falling out of a branch body: the
// cursor moves to endCode at the marker's indent.
func SkipBlock(in *Interpreter, cmd types.Command, endCode int) Outcome {
	idx, ok := SkipTo(in.program, in.cursor+1, endCode, endCode, cmd.Indent, cmd.Indent)
	if !ok {
		in.log.Debug("skip search found no marker", "code", cmd.Code, "cursor", in.cursor)
		return Advance
	}
	in.cursor = idx
	return Advance
}

func showMessage(in *Interpreter, cmd types.Command) Outcome {
	m := &in.s.Message
	m.Lines = append(m.Lines[:0], cmd.Text)
	i := in.cursor + 1
	for ; i < len(in.program) && in.program[i].Code == opcode.ShowMessageLine; i++ {
		m.Lines = append(m.Lines, in.program[i].Text)
	}
	in.cursor = i - 1
	m.Visible = true
	m.Waiting = true
	if i < len(in.program) {
		switch in.program[i].Code {
		case opcode.ShowChoice, opcode.InputNumber:
			// The prompt shares the window and does the waiting.
			m.Waiting = false
		}
	}
	return Advance
}

func messageOptions(in *Interpreter, cmd types.Command) Outcome {
	in.s.Message.Position = param(cmd.Params, 1)
	return Advance
}

func changeFace(in *Interpreter, cmd types.Command) Outcome {
	in.s.Message.Face = cmd.Text
	return Advance
}

func showChoice(in *Interpreter, cmd types.Command) Outcome {
	var labels []string
	for i := in.cursor + 1; i < len(in.program); i++ {
		c := in.program[i]
		if c.Indent > cmd.Indent {
			continue
		}
		if c.Indent < cmd.Indent || c.Code == opcode.ChoiceEnd {
			break
		}
		if c.Code != opcode.ChoiceOption {
			break
		}
		if param(c.Params, 1) == 1 {
			continue // cancel branch, not listed
		}
		labels = append(labels, c.Text)
	}

	m := &in.s.Message
	m.Choices = labels
	m.ChoiceCancel = param(cmd.Params, 0)
	m.ChoiceResult = -1
	m.Visible = true
	m.Waiting = true
	in.Continue(ChoiceResolution{Indent: cmd.Indent})
	return Advance
}

func inputNumber(in *Interpreter, cmd types.Command) Outcome {
	m := &in.s.Message
	m.NumberDigits = param(cmd.Params, 0)
	m.NumberVar = param(cmd.Params, 1)
	m.Visible = true
	m.Waiting = true
	return Advance
}

func controlSwitches(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	lo, hi := param(p, 1), param(p, 1)
	switch param(p, 0) {
	case 1:
		hi = param(p, 2)
	case 2:
		lo = state.GetVariable(in.s, lo)
		hi = lo
	}
	for id := lo; id <= hi; id++ {
		switch param(p, 3) {
		case 0:
			in.Emit(effects.SetSwitch(in.s, id, true))
		case 1:
			in.Emit(effects.SetSwitch(in.s, id, false))
		case 2:
			in.Emit(effects.ToggleSwitch(in.s, id))
		}
	}
	return Advance
}

func controlVariables(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	lo, hi := param(p, 1), param(p, 1)
	switch param(p, 0) {
	case 1:
		hi = param(p, 2)
	case 2:
		lo = state.GetVariable(in.s, lo)
		hi = lo
	}
	for id := lo; id <= hi; id++ {
		in.Emit(effects.ApplyVariable(in.s, id, param(p, 3), operand(in, param(p, 4), param(p, 5), param(p, 6))))
	}
	return Advance
}

// operand evaluates a ControlVariables right-hand side.
func operand(in *Interpreter, kind, x, y int) int {
	s := in.s
	switch kind {
	case OperandConst:
		return x
	case OperandVariable:
		return state.GetVariable(s, x)
	case OperandIndirect:
		return state.GetVariable(s, state.GetVariable(s, x))
	case OperandRandom:
		if y < x {
			x, y = y, x
		}
		return in.rand.Range(x, y)
	case OperandItem:
		return state.ItemCount(s, x)
	case OperandActor:
		a := state.Actor(s, x)
		if a == nil {
			return 0
		}
		switch y {
		case StatHP:
			return a.HP
		case StatMaxHP:
			return a.MaxHP
		case StatMP:
			return a.MP
		case StatMaxMP:
			return a.MaxMP
		case StatAttack:
			return a.Attack
		case StatDefense:
			return a.Defense
		}
		return 0
	case OperandGold:
		return s.Party.Gold
	case OperandTimer:
		return s.Timer.Frames / 60
	case OperandPartySize:
		return len(s.Party.Members)
	default:
		return 0
	}
}

// value reads a constant-or-variable operand.
func value(in *Interpreter, kind, v int) int {
	if kind == 1 {
		return state.GetVariable(in.s, v)
	}
	return v
}

// actors resolves an actor target: 0 whole party, 1 actor id, 2 actor id
// held in a variable.
func actors(in *Interpreter, target, id int) []*types.ActorState {
	switch target {
	case 0:
		var out []*types.ActorState
		for _, m := range in.s.Party.Members {
			if a := state.Actor(in.s, m); a != nil {
				out = append(out, a)
			}
		}
		return out
	case 2:
		id = state.GetVariable(in.s, id)
	}
	if a := state.Actor(in.s, id); a != nil {
		return []*types.ActorState{a}
	}
	return nil
}

func timerOperation(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	switch param(p, 0) {
	case 0:
		in.s.Timer.Frames = value(in, param(p, 1), param(p, 2)) * 60
	case 1:
		in.s.Timer.Running = true
	case 2:
		in.s.Timer.Running = false
	}
	return Advance
}

func changeGold(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	n := value(in, param(p, 1), param(p, 2))
	if param(p, 0) == 1 {
		n = -n
	}
	in.Emit(effects.AddGold(in.s, n))
	return Advance
}

func changeItems(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	n := value(in, param(p, 2), param(p, 3))
	if param(p, 0) == 1 {
		n = -n
	}
	in.Emit(effects.AddItems(in.s, param(p, 1), n))
	return Advance
}

func changePartyMembers(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	id := value(in, param(p, 1), param(p, 2))
	if param(p, 0) == 1 {
		in.Emit(effects.RemoveMember(in.s, id))
	} else {
		in.Emit(effects.AddMember(in.s, in.defs, id))
	}
	return Advance
}

func changeHP(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	n := value(in, param(p, 3), param(p, 4))
	if param(p, 2) == 1 {
		n = -n
	}
	for _, a := range actors(in, param(p, 0), param(p, 1)) {
		in.Emit(effects.ChangeHP(a, n, param(p, 5) == 1))
	}
	return Advance
}

func changeCondition(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	for _, a := range actors(in, param(p, 0), param(p, 1)) {
		in.Emit(effects.SetCondition(a, param(p, 3), param(p, 2) == 0))
	}
	return Advance
}

func fullHeal(in *Interpreter, cmd types.Command) Outcome {
	for _, a := range actors(in, param(cmd.Params, 0), param(cmd.Params, 1)) {
		in.Emit(effects.FullHeal(a))
	}
	return Advance
}

func changeHeroName(in *Interpreter, cmd types.Command) Outcome {
	if a := state.Actor(in.s, param(cmd.Params, 0)); a != nil {
		a.Name = cmd.Text
	}
	return Advance
}

func wait(in *Interpreter, cmd types.Command) Outcome {
	in.Wait(param(cmd.Params, 0) * TicksPerTenth)
	return Advance
}

func playBGM(in *Interpreter, cmd types.Command) Outcome {
	in.s.Audio.BGM = cmd.Text
	return Advance
}

func playSound(in *Interpreter, cmd types.Command) Outcome {
	in.s.Audio.Sound = cmd.Text
	return Advance
}

// keyInput stores the pressed key into a variable. With the wait flag set
// the interpreter blocks until a key arrives.
func keyInput(in *Interpreter, cmd types.Command) Outcome {
	v := param(cmd.Params, 0)
	if param(cmd.Params, 1) == 1 {
		in.AwaitKey(v)
		return Advance
	}
	in.Emit(effects.ApplyVariable(in.s, v, effects.OpSet, in.s.KeyPressed))
	in.s.KeyPressed = 0
	return Advance
}

func openScene(scene string) Handler {
	return func(in *Interpreter, _ types.Command) Outcome {
		r := &in.s.Scene
		switch scene {
		case SceneSave:
			r.Save = true
		case SceneMenu:
			r.Menu = true
		case SceneGameOver:
			r.GameOver = true
		case SceneTitle:
			r.Title = true
		case SceneName:
			r.Name = true
		}
		in.Continue(SceneResolution{Scene: scene})
		return Advance
	}
}

// OpenScene returns a handler that raises a scene request and waits for the
// scene to close.
func OpenScene(scene string) Handler { return openScene(scene) }

func jumpToLabel(in *Interpreter, cmd types.Command) Outcome {
	idx, ok := FindLabel(in.program, opcode.Label, param(cmd.Params, 0))
	if !ok {
		in.log.Debug("label not found", "label", param(cmd.Params, 0))
		return Advance
	}
	in.cursor = idx
	return Advance
}

func breakLoop(in *Interpreter, cmd types.Command) Outcome {
	idx, ok := SkipOut(in.program, in.cursor+1, opcode.EndLoop, cmd.Indent)
	if !ok {
		in.log.Debug("skip search found no marker", "code", cmd.Code, "cursor", in.cursor)
		return Advance
	}
	in.cursor = idx
	return Advance
}

func endLoop(in *Interpreter, cmd types.Command) Outcome {
	idx, ok := SkipBack(in.program, in.cursor-1, opcode.Loop, opcode.Loop, cmd.Indent, cmd.Indent)
	if !ok {
		in.log.Debug("skip search found no marker", "code", cmd.Code, "cursor", in.cursor)
		return Advance
	}
	in.cursor = idx
	return Advance
}

// Call event sources.
const (
	CallCommon = iota
	CallMapEvent
	CallMapEventVar
)

func callEvent(in *Interpreter, cmd types.Command) Outcome {
	p := cmd.Params
	switch param(p, 0) {
	case CallCommon:
		ce, ok := in.defs.CommonEvents[param(p, 1)]
		if !ok {
			in.log.Debug("common event not found", "id", param(p, 1))
			return Advance
		}
		return in.Call(ce.Program, in.eventID)

	case CallMapEvent, CallMapEventVar:
		id, page := param(p, 1), param(p, 2)
		if param(p, 0) == CallMapEventVar {
			id = state.GetVariable(in.s, id)
			page = state.GetVariable(in.s, page)
		}
		if id == types.CharThisEvent {
			id = in.eventID
		}
		prog, ok := eventProgram(in, id, page)
		if !ok {
			in.log.Debug("map event page not found", "id", id, "page", page)
			return Advance
		}
		return in.Call(prog, id)
	}
	return Advance
}

// eventProgram returns a map event's program: page is 1-based, 0 selects the
// active page.
func eventProgram(in *Interpreter, id, page int) (types.Program, bool) {
	if page == 0 {
		pg := state.ActivePage(in.s, in.defs, id)
		if pg == nil {
			return nil, false
		}
		return pg.Program, true
	}
	m, ok := in.defs.Maps[in.s.Map.ID]
	if !ok {
		return nil, false
	}
	ev, ok := m.Events[id]
	if !ok || page < 1 || page > len(ev.Pages) {
		return nil, false
	}
	return ev.Pages[page-1].Program, true
}
