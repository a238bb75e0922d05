package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/eventcore/engine/parser"
	"github.com/nathoo/eventcore/types"
)

// SettleTicks bounds how long Step runs the game after an action while
// waiting for it to become idle again.
const SettleTicks = 3600

// ErrUnknownVerb is returned by Step for input it cannot map to an action.
var ErrUnknownVerb = errors.New("unknown command")

var directions = map[string]int{
	"up":    types.DirUp,
	"right": types.DirRight,
	"down":  types.DirDown,
	"left":  types.DirLeft,
}

// Step parses one line of player input, performs the action and runs the
// game until it is idle again. "tick N" runs exactly N frames instead.
func (e *Engine) Step(input string) (types.Result, error) {
	intent := parser.Parse(input)
	if intent.Verb == "" {
		return types.Result{}, nil
	}
	if intent.Verb == "tick" {
		n := parser.Number(intent, 1)
		var out types.Result
		for i := 0; i < n; i++ {
			merge(&out, e.Tick())
		}
		return out, nil
	}
	if err := e.perform(intent); err != nil {
		return types.Result{}, err
	}
	return e.Run(SettleTicks), nil
}

// Perform parses one line of player input and performs the action without
// running the game. Real-time controllers tick the engine themselves.
func (e *Engine) Perform(input string) error {
	intent := parser.Parse(input)
	if intent.Verb == "" || intent.Verb == "tick" {
		return nil
	}
	return e.perform(intent)
}

// Settle runs the game until it waits for the player. Controllers call it
// once after creating the engine so autorun events get to start.
func (e *Engine) Settle() types.Result { return e.Run(SettleTicks) }

func (e *Engine) perform(in types.Intent) error {
	switch in.Verb {
	case "ok":
		return e.Confirm()
	case "choose":
		n, err := strconv.Atoi(in.Object)
		if err != nil {
			return fmt.Errorf("choose what? %q is not a number", in.Object)
		}
		return e.Choose(n - 1)
	case "cancel":
		return e.Cancel()
	case "number":
		n, err := strconv.Atoi(in.Object)
		if err != nil {
			return fmt.Errorf("%q is not a number", in.Object)
		}
		return e.EnterNumber(n)
	case "key":
		e.PressKey(parser.Number(in, 0))
		return nil
	case "move":
		dir, ok := directions[in.Object]
		if !ok {
			return fmt.Errorf("move where? %q is not a direction", in.Object)
		}
		return e.MovePlayer(dir)
	case "act":
		return e.Act()
	case "fight":
		return e.Fight()
	case "defend":
		return e.Defend()
	case "escape":
		return e.Escape()
	case "buy":
		id, err := e.goodsID(in.Object)
		if err != nil {
			return err
		}
		return e.Buy(id)
	case "leave":
		return e.ResolveShop()
	case "close":
		return e.CloseScene()
	case "name":
		return e.ResolveName(in.Object)
	}
	return fmt.Errorf("%w: %s", ErrUnknownVerb, in.Verb)
}

// goodsID resolves a shop item by ID, 1-based goods position or name.
func (e *Engine) goodsID(ref string) (int, error) {
	goods := e.State.Shop.Goods
	if n, err := strconv.Atoi(ref); err == nil {
		if _, ok := e.Defs.Items[n]; ok {
			return n, nil
		}
		if n >= 1 && n <= len(goods) {
			return goods[n-1], nil
		}
		return 0, ErrNotForSale
	}
	for _, id := range goods {
		if strings.EqualFold(e.Defs.Items[id].Name, ref) {
			return id, nil
		}
	}
	return 0, ErrNotForSale
}

func merge(dst *types.Result, r types.Result) {
	dst.Events = append(dst.Events, r.Events...)
	dst.Output = append(dst.Output, r.Output...)
	dst.Dispatched += r.Dispatched
	dst.Scene = r.Scene
}
