// Package engine is the scene controller. It owns the game state, drives the
// map and battle interpreters once per tick, starts events from triggers,
// performs map transfers and exposes the player's actions.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nathoo/eventcore/config"
	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/events"
	"github.com/nathoo/eventcore/engine/interp"
	"github.com/nathoo/eventcore/engine/mapscript"
	"github.com/nathoo/eventcore/engine/message"
	"github.com/nathoo/eventcore/engine/rules"
	"github.com/nathoo/eventcore/engine/save"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/logger"
	"github.com/nathoo/eventcore/types"
)

// Errors returned by player actions.
var (
	ErrBusy        = errors.New("an event is running")
	ErrNoScene     = errors.New("no scene is open")
	ErrNotInShop   = errors.New("no shop is open")
	ErrNotForSale  = errors.New("item is not sold here")
	ErrNoGold      = errors.New("not enough gold")
	ErrNoNameEntry = errors.New("no name entry is open")
	ErrNotInBattle = errors.New("no battle in progress")
)

// Engine is the top-level game orchestrator.
type Engine struct {
	Defs  *state.Defs
	State *types.State
	RNG   *RNG

	cfg    config.Config
	log    *slog.Logger
	tracer func(*interp.Interpreter, types.Command)

	dialect  *mapscript.Dialect
	main     *interp.Interpreter
	parallel map[int]*parallelRun // map event ID → runner, current map only
	common   map[int]*interp.Interpreter
	battle   *battleSession

	queued int // event ID started by the next exhaustion of main
	events []types.Event
	output []string
}

// parallelRun is a parallel map event bound to the page it was started for.
type parallelRun struct {
	page int
	in   *interp.Interpreter
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig applies player configuration: guards, movement speed and seed.
func WithConfig(c config.Config) Option { return func(e *Engine) { e.cfg = c } }

// WithLogger sets the logger handed to every interpreter.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithTracer receives every command dispatched by any interpreter.
func WithTracer(f func(*interp.Interpreter, types.Command)) Option {
	return func(e *Engine) { e.tracer = f }
}

// New creates an Engine with fresh state from definitions.
func New(defs *state.Defs, opts ...Option) *Engine {
	e := &Engine{
		Defs:     defs,
		State:    state.NewState(defs),
		cfg:      config.Default(),
		dialect:  mapscript.New(),
		parallel: map[int]*parallelRun{},
		common:   map[int]*interp.Interpreter{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logger.GetLogger()
	}
	e.RNG = NewRNG(e.cfg.Seed)
	e.State.RNGSeed = e.cfg.Seed

	e.main = e.newInterpreter(e.dialect, interp.WithRoot(true), interp.WithExhaustedHook(e.startNext))
	for _, ce := range sortedCommon(defs) {
		if ce.Trigger == types.TriggerParallel {
			e.common[ce.ID] = e.newInterpreter(e.dialect)
		}
	}
	rules.RefreshPages(e.State, defs)
	e.syncParallel()
	return e
}

func (e *Engine) newInterpreter(d interp.Dialect, opts ...interp.Option) *interp.Interpreter {
	base := []interp.Option{
		interp.WithLogger(e.log),
		interp.WithIterationLimit(e.cfg.IterationLimit),
		interp.WithDepthWarning(e.cfg.DepthWarning),
		interp.WithRand(e.RNG),
		interp.WithEventSink(e.collect),
		interp.WithTracer(e.trace),
	}
	return interp.New(e.State, e.Defs, d, append(base, opts...)...)
}

func (e *Engine) collect(ev types.Event) { e.events = append(e.events, ev) }

func (e *Engine) trace(in *interp.Interpreter, cmd types.Command) {
	if e.tracer != nil {
		e.tracer(in, cmd)
	}
}

// SetTracer replaces the tracer for every interpreter, including running
// ones. nil turns tracing off.
func (e *Engine) SetTracer(f func(*interp.Interpreter, types.Command)) { e.tracer = f }

func (e *Engine) say(format string, args ...any) {
	e.output = append(e.output, fmt.Sprintf(format, args...))
}

// Main returns the root map interpreter.
func (e *Engine) Main() *interp.Interpreter { return e.main }

// Routes returns the pending forced-move registry of the current map.
func (e *Engine) Routes() *mapscript.Registry { return e.dialect.Routes() }

// InBattle reports whether a battle session is running.
func (e *Engine) InBattle() bool { return e.battle != nil }

// Tick advances the game by one frame.
func (e *Engine) Tick() types.Result {
	s := e.State
	s.Frame++

	if e.battle == nil && s.Scene.Battle {
		e.startBattle()
	}
	if b := e.battle; b != nil {
		b.tick(e)
		return e.result(b.in.Dispatched())
	}

	if s.Timer.Running && s.Timer.Frames > 0 {
		s.Timer.Frames--
	}
	e.emit(mapscript.UpdateCharacters(s, e.Defs, e.cfg.MoveFrames)...)
	e.refresh()

	e.main.Update()
	dispatched := e.main.Dispatched()
	e.runParallel()

	if s.Map.Teleport.Pending {
		e.transfer()
	}
	if e.battle == nil && s.Scene.Battle {
		e.startBattle()
	}
	return e.result(dispatched)
}

// emit routes engine-level state events through refresh dispatch.
func (e *Engine) emit(evts ...types.Event) {
	if len(evts) == 0 {
		return
	}
	events.Dispatch(evts, e.State)
	e.events = append(e.events, evts...)
}

// refresh re-selects event pages when a state change asked for it.
func (e *Engine) refresh() {
	if !e.State.Map.NeedsRefresh {
		return
	}
	rules.RefreshPages(e.State, e.Defs)
	e.syncParallel()
}

func (e *Engine) result(dispatched int) types.Result {
	r := types.Result{
		Events:     e.events,
		Output:     e.output,
		Scene:      SceneName(e.State),
		Dispatched: dispatched,
	}
	e.events = nil
	e.output = nil
	e.State.RNGPosition = e.RNG.Position()
	return r
}

// SceneName returns the scene the player must resolve, or "".
func SceneName(s *types.State) string {
	r := s.Scene
	switch {
	case s.Battle.Active || r.Battle:
		return "battle"
	case r.Shop:
		return "shop"
	case r.Name:
		return interp.SceneName
	case r.Save:
		return interp.SceneSave
	case r.Menu:
		return interp.SceneMenu
	case r.GameOver:
		return interp.SceneGameOver
	case r.Title:
		return interp.SceneTitle
	}
	return ""
}

// startNext is the root interpreter's exhausted hook. It starts, in order,
// a queued action or touch event, an autorun common event, or an autorun
// map event.
func (e *Engine) startNext(in *interp.Interpreter) {
	s := e.State
	s.ActionEvent = 0
	e.refresh()

	if id := e.queued; id != 0 {
		e.queued = 0
		if page := state.ActivePage(s, e.Defs, id); page != nil && len(page.Program) > 0 {
			if page.Trigger == types.TriggerAction {
				s.ActionEvent = id
			}
			e.setup(in, page.Program, id)
			return
		}
	}
	for _, ce := range events.Triggered(s, e.Defs, types.TriggerAutorun) {
		if len(ce.Program) > 0 {
			e.setup(in, ce.Program, 0)
			return
		}
	}
	for _, id := range rules.EventsWithTrigger(s, e.Defs, types.TriggerAutorun) {
		if page := state.ActivePage(s, e.Defs, id); page != nil && len(page.Program) > 0 {
			e.setup(in, page.Program, id)
			return
		}
	}
}

func (e *Engine) setup(in *interp.Interpreter, prog types.Program, eventID int) {
	x, y := -1, -1
	if ch := e.State.Map.Events[eventID]; ch != nil {
		x, y = ch.X, ch.Y
	}
	in.Setup(prog, eventID, x, y)
}

// syncParallel binds one interpreter to every event whose active page is
// parallel and drops the rest.
func (e *Engine) syncParallel() {
	want := map[int]bool{}
	for _, id := range rules.EventsWithTrigger(e.State, e.Defs, types.TriggerParallel) {
		want[id] = true
		page := e.State.Map.Pages[id]
		if r, ok := e.parallel[id]; ok && r.page == page {
			continue
		}
		e.parallel[id] = &parallelRun{page: page, in: e.newInterpreter(e.dialect)}
	}
	for id, r := range e.parallel {
		if !want[id] {
			r.in.Clear()
			delete(e.parallel, id)
		}
	}
}

// runParallel updates parallel map events then parallel common events,
// restarting each program when it completes. Common events stop when their
// condition switch turns off.
func (e *Engine) runParallel() {
	ids := make([]int, 0, len(e.parallel))
	for id := range e.parallel {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		r, ok := e.parallel[id]
		if !ok {
			continue
		}
		if !r.in.Running() {
			page := state.ActivePage(e.State, e.Defs, id)
			if page == nil || len(page.Program) == 0 {
				continue
			}
			e.setup(r.in, page.Program, id)
		}
		r.in.Update()
		if e.State.Map.Teleport.Pending {
			return
		}
	}

	ids = ids[:0]
	for id := range e.common {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		ce := e.Defs.CommonEvents[id]
		in := e.common[id]
		if ce.Switch > 0 && !state.GetSwitch(e.State, ce.Switch) {
			in.Clear()
			continue
		}
		if !in.Running() {
			if len(ce.Program) == 0 {
				continue
			}
			in.Setup(ce.Program, 0, -1, -1)
		}
		in.Update()
	}
}

// transfer performs a pending teleport. Per-map interpreters are torn down
// without running further commands and the route registry is cleared. The
// main interpreter survives and continues after the teleport command.
func (e *Engine) transfer() {
	t := e.State.Map.Teleport
	for id, r := range e.parallel {
		r.in.Clear()
		delete(e.parallel, id)
	}
	e.dialect.Reset()
	e.queued = 0
	dir := t.Dir
	if dir < 0 {
		dir = e.State.Map.Player.Dir
	}
	state.EnterMap(e.State, e.Defs, t.MapID, t.X, t.Y, dir)
	e.log.Debug("map transfer", "map", t.MapID, "x", t.X, "y", t.Y)
	e.refresh()
}

// Idle reports whether the game is waiting for the player: a message or
// scene is open, a battle awaits a command, or no event is running.
func (e *Engine) Idle() bool {
	s := e.State
	if s.Message.Waiting {
		return true
	}
	if e.battle != nil {
		return e.battle.awaitingCommand(s)
	}
	if SceneName(s) != "" {
		return true
	}
	return !e.main.Running() && e.queued == 0 && !s.Map.Teleport.Pending &&
		e.dialect.Routes().Waiting(s) == 0
}

// Run ticks until the game is idle or maxTicks frames have passed, merging
// the results.
func (e *Engine) Run(maxTicks int) types.Result {
	var out types.Result
	for i := 0; i < maxTicks; i++ {
		merge(&out, e.Tick())
		if e.Idle() {
			break
		}
	}
	return out
}

// canAct reports whether the player controls the hero right now.
func (e *Engine) canAct() bool {
	s := e.State
	return e.battle == nil && !e.main.Running() && e.queued == 0 &&
		!message.Open(s) && SceneName(s) == "" && !s.Map.Teleport.Pending
}

// MovePlayer turns the hero toward dir and steps if the tile is free.
// Bumping into an event with a touch trigger queues it.
func (e *Engine) MovePlayer(dir int) error {
	if !e.canAct() {
		return ErrBusy
	}
	p := &e.State.Map.Player
	p.Dir = dir
	x, y := step(p.X, p.Y, dir)
	if id := state.EventAt(e.State, x, y); id != 0 {
		if page := state.ActivePage(e.State, e.Defs, id); page != nil && page.Trigger == types.TriggerTouch {
			e.queued = id
		}
		return nil
	}
	if state.Passable(e.State, e.Defs, x, y) {
		p.X, p.Y = x, y
	}
	return nil
}

// Act presses the action button on the faced event. The event turns to
// face the hero before its page starts.
func (e *Engine) Act() error {
	if !e.canAct() {
		return ErrBusy
	}
	p := e.State.Map.Player
	x, y := step(p.X, p.Y, p.Dir)
	id := state.EventAt(e.State, x, y)
	if id == 0 {
		return nil
	}
	page := state.ActivePage(e.State, e.Defs, id)
	if page == nil || page.Trigger != types.TriggerAction && page.Trigger != types.TriggerTouch {
		return nil
	}
	e.State.Map.Events[id].Dir = (p.Dir + 2) % 4
	e.queued = id
	return nil
}

func step(x, y, dir int) (int, int) {
	switch dir {
	case types.DirUp:
		return x, y - 1
	case types.DirRight:
		return x + 1, y
	case types.DirDown:
		return x, y + 1
	case types.DirLeft:
		return x - 1, y
	}
	return x, y
}

// Confirm dismisses the message window.
func (e *Engine) Confirm() error { return message.Confirm(e.State) }

// Choose picks a 0-based option of the open choice.
func (e *Engine) Choose(i int) error { return message.Choose(e.State, i) }

// Cancel cancels the open choice.
func (e *Engine) Cancel() error { return message.Cancel(e.State) }

// EnterNumber answers the open number prompt.
func (e *Engine) EnterNumber(n int) error {
	ev, err := message.EnterNumber(e.State, n)
	if err != nil {
		return err
	}
	e.emit(ev)
	return nil
}

// PressKey records a key code for a pending key input.
func (e *Engine) PressKey(code int) { e.State.KeyPressed = code }

// Buy purchases one of an item from the open shop.
func (e *Engine) Buy(itemID int) error {
	s := e.State
	if !s.Scene.Shop {
		return ErrNotInShop
	}
	sold := false
	for _, id := range s.Shop.Goods {
		sold = sold || id == itemID
	}
	item, ok := e.Defs.Items[itemID]
	if !sold || !ok {
		return ErrNotForSale
	}
	if s.Party.Gold < item.Price {
		return ErrNoGold
	}
	e.emit(effects.AddGold(s, -item.Price), effects.AddItems(s, itemID, 1))
	s.Shop.Transaction = true
	e.say("Bought %s for %d gold.", item.Name, item.Price)
	return nil
}

// ResolveShop closes the shop, reporting whether anything was bought.
func (e *Engine) ResolveShop() error {
	if !e.State.Scene.Shop {
		return ErrNotInShop
	}
	e.State.Scene.Shop = false
	return nil
}

// ResolveName completes hero name entry.
func (e *Engine) ResolveName(name string) error {
	s := e.State
	if !s.Scene.Name {
		return ErrNoNameEntry
	}
	if a := state.Actor(s, s.Name.Actor); a != nil && name != "" {
		a.Name = name
	}
	s.Scene.Name = false
	s.Name = types.NameRequest{}
	return nil
}

// CloseScene closes the open shop, name entry, save or menu scene. Title
// and game over are final and stay open.
func (e *Engine) CloseScene() error {
	r := &e.State.Scene
	switch {
	case r.Shop:
		r.Shop = false
	case r.Name:
		r.Name = false
	case r.Save:
		r.Save = false
	case r.Menu:
		r.Menu = false
	default:
		return ErrNoScene
	}
	return nil
}

// SaveGame snapshots the state.
func (e *Engine) SaveGame() ([]byte, error) {
	e.State.RNGPosition = e.RNG.Position()
	return save.Save(e.State, e.Defs, e.Continuation())
}

// Continuation returns the kind of the continuation the main interpreter
// tree is waiting on, or "" when none is pending.
func (e *Engine) Continuation() string {
	for in := e.main; in != nil; in = in.Child() {
		if c := in.Pending(); c != nil {
			return c.Kind()
		}
	}
	return ""
}

// LoadGame restores a snapshot. Every running interpreter is discarded.
func (e *Engine) LoadGame(data []byte) error {
	sd, err := save.Load(data)
	if err != nil {
		return err
	}
	e.main.Clear()
	for _, in := range e.common {
		in.Clear()
	}
	for id, r := range e.parallel {
		r.in.Clear()
		delete(e.parallel, id)
	}
	e.dialect.Reset()
	e.battle = nil
	e.queued = 0

	if sd.Continuation != "" {
		e.log.Info("saved mid-event, pending continuation dropped", "continuation", sd.Continuation)
	}
	save.ApplySave(e.State, e.Defs, sd)
	// Interpreters hold e.RNG, so the restored generator replaces it in place.
	*e.RNG = *RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	e.refresh()
	return nil
}

func sortedCommon(defs *state.Defs) []types.CommonEventDef {
	out := make([]types.CommonEventDef, 0, len(defs.CommonEvents))
	for _, ce := range defs.CommonEvents {
		out = append(out, ce)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
