package interp

import (
	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/opcode"
	"github.com/nathoo/eventcore/types"
)

// Continuation resumes a command that spans several ticks. The set of
// implementations is closed: resume is unexported. resume returns false
// while the outcome is not yet known; the run loop then suspends and retries
// next tick.
type Continuation interface {
	Kind() string
	resume(in *Interpreter, cmd types.Command) bool
}

// ChoiceResolution waits for a choice and moves the cursor into the chosen
// option's body.
type ChoiceResolution struct {
	Indent int
}

// Kind implements Continuation.
func (ChoiceResolution) Kind() string { return "choice" }

func (c ChoiceResolution) resume(in *Interpreter, _ types.Command) bool {
	result := in.s.Message.ChoiceResult
	if result < 0 {
		return false
	}
	in.s.Message.ChoiceResult = -1
	in.s.Message.Choices = nil
	for {
		idx, ok := SkipTo(in.program, in.cursor, opcode.ChoiceOption, opcode.ChoiceEnd, c.Indent, c.Indent)
		if !ok {
			in.log.Debug("skip search found no marker", "code", opcode.ChoiceOption, "cursor", in.cursor)
			return true
		}
		opt := in.program[idx]
		if opt.Code == opcode.ChoiceEnd {
			in.cursor = idx
			return true
		}
		in.cursor = idx + 1
		if param(opt.Params, 0) == result {
			return true
		}
	}
}

// ShopResolution routes to the Transaction or NoTransaction branch once the
// shop scene closes. Without branches it simply lets execution continue.
type ShopResolution struct {
	Indent   int
	Branches bool
}

// Kind implements Continuation.
func (ShopResolution) Kind() string { return "shop" }

func (c ShopResolution) resume(in *Interpreter, _ types.Command) bool {
	if in.s.Scene.Shop {
		return false
	}
	want := opcode.NoTransaction
	if in.s.Shop.Transaction {
		want = opcode.Transaction
	}
	in.s.Shop = types.ShopRequest{}
	if c.Branches {
		in.enterBranch(c.Indent, want, opcode.EndShop)
	}
	return true
}

// InnResolution waits for the stay/leave prompt. Staying costs Price and
// fully heals the party.
type InnResolution struct {
	Indent   int
	Price    int
	Branches bool
}

// Kind implements Continuation.
func (InnResolution) Kind() string { return "inn" }

func (c InnResolution) resume(in *Interpreter, _ types.Command) bool {
	result := in.s.Message.ChoiceResult
	if result < 0 {
		return false
	}
	in.s.Message.ChoiceResult = -1
	in.s.Message.Choices = nil

	stay := result == 0 && in.s.Party.Gold >= c.Price
	want := opcode.NoStay
	if stay {
		want = opcode.Stay
		in.Emit(effects.AddGold(in.s, -c.Price))
		for _, id := range in.s.Party.Members {
			if a := in.s.Party.Actors[id]; a != nil {
				in.Emit(effects.FullHeal(a))
			}
		}
	}
	if c.Branches {
		in.enterBranch(c.Indent, want, opcode.EndInn)
	}
	return true
}

// Battle escape and defeat handling modes from EnemyEncounter.
const (
	EscapeDisallowed = 0
	EscapeEndEvent   = 1
	EscapeHandler    = 2

	DefeatGameOver = 0
	DefeatHandler  = 1
)

// BattleResolution routes the interpreter once a battle has an outcome.
type BattleResolution struct {
	Indent     int
	EscapeMode int
	DefeatMode int
}

// Kind implements Continuation.
func (BattleResolution) Kind() string { return "battle" }

// Branches reports whether the encounter carries outcome markers.
func (c BattleResolution) Branches() bool {
	return c.EscapeMode == EscapeHandler || c.DefeatMode == DefeatHandler
}

func (c BattleResolution) resume(in *Interpreter, _ types.Command) bool {
	outcome := in.s.Encounter.Result
	if outcome == types.OutcomeNone {
		return false
	}
	in.s.Encounter = types.BattleRequest{}

	switch outcome {
	case types.OutcomeVictory:
		if c.Branches() {
			in.enterBranch(c.Indent, opcode.VictoryHandler, opcode.EndBattle)
		}
	case types.OutcomeEscape:
		switch c.EscapeMode {
		case EscapeEndEvent:
			in.End()
		case EscapeHandler:
			in.enterBranch(c.Indent, opcode.EscapeHandler, opcode.EndBattle)
		}
	case types.OutcomeDefeat:
		if c.DefeatMode == DefeatHandler {
			in.enterBranch(c.Indent, opcode.DefeatHandler, opcode.EndBattle)
		} else {
			in.s.Scene.GameOver = true
		}
	}
	return true
}

// SceneResolution waits for a requested scene (name entry, save, menu,
// title, game over) to close.
type SceneResolution struct {
	Scene string
}

// Scene names used by SceneResolution.
const (
	SceneName     = "name"
	SceneSave     = "save"
	SceneMenu     = "menu"
	SceneTitle    = "title"
	SceneGameOver = "gameover"
)

// Kind implements Continuation.
func (c SceneResolution) Kind() string { return "scene:" + c.Scene }

func (c SceneResolution) resume(in *Interpreter, _ types.Command) bool {
	r := in.s.Scene
	switch c.Scene {
	case SceneName:
		return !r.Name
	case SceneSave:
		return !r.Save
	case SceneMenu:
		return !r.Menu
	case SceneTitle:
		return !r.Title
	case SceneGameOver:
		return !r.GameOver
	}
	return true
}

// enterBranch moves the cursor into the body of the outcome marker want at
// indent, or onto end when that branch is absent.
func (in *Interpreter) enterBranch(indent, want, end int) {
	idx, ok := SkipTo(in.program, in.cursor, want, end, indent, indent)
	if !ok {
		in.log.Debug("skip search found no marker", "code", want, "cursor", in.cursor)
		return
	}
	if in.program[idx].Code == end {
		in.cursor = idx
		return
	}
	in.cursor = idx + 1
}

func param(p []int, i int) int {
	if i < len(p) {
		return p[i]
	}
	return 0
}
