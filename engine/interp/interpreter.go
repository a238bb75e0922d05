// Package interp implements the event command interpreter: a cooperative,
// resumable run loop that executes one command per step and suspends on
// messages, waits, child programs, forced movement and scene requests.
// Context-specific opcodes are supplied by a Dialect.
package interp

import (
	"log/slog"

	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/engine/events"
	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/logger"
	"github.com/nathoo/eventcore/types"
)

// Default guard values.
const (
	DefaultIterationLimit = 10000
	DefaultDepthWarning   = 100
)

// Interpreter executes one Program. Instances are reused through Setup.
type Interpreter struct {
	dialect Dialect
	table   Table
	s       *types.State
	defs    *state.Defs
	base    *slog.Logger
	log     *slog.Logger

	depth     int
	root      bool
	iterLimit int
	depthWarn int
	rand      Rand
	sink      func(types.Event)
	exhausted func(*Interpreter)
	tracer    func(*Interpreter, types.Command)

	program     types.Program
	cursor      int
	active      bool
	waitTicks   int
	inputVar    int
	waitMove    bool
	child       *Interpreter
	cont        Continuation
	callPending bool

	mapID   int
	eventID int
	debugX  int
	debugY  int

	dispatched int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithDepth sets the nesting depth from the root interpreter.
func WithDepth(d int) Option { return func(in *Interpreter) { in.depth = d } }

// WithRoot marks the interpreter as a scene's main interpreter. Only a root
// interpreter runs the exhausted hook.
func WithRoot(root bool) Option { return func(in *Interpreter) { in.root = root } }

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option { return func(in *Interpreter) { in.base = l } }

// WithIterationLimit overrides the per-update iteration bound.
func WithIterationLimit(n int) Option { return func(in *Interpreter) { in.iterLimit = n } }

// WithDepthWarning overrides the nesting depth above which a warning is logged.
func WithDepthWarning(n int) Option { return func(in *Interpreter) { in.depthWarn = n } }

// WithRand sets the source of random operands.
func WithRand(r Rand) Option { return func(in *Interpreter) { in.rand = r } }

// WithEventSink receives every state event a handler emits.
func WithEventSink(f func(types.Event)) Option { return func(in *Interpreter) { in.sink = f } }

// WithExhaustedHook is called by a root interpreter whose program has run
// out, before it goes idle. The hook may Setup a new program.
func WithExhaustedHook(f func(*Interpreter)) Option {
	return func(in *Interpreter) { in.exhausted = f }
}

// WithTracer is called with every command before it is dispatched. Child
// interpreters inherit it.
func WithTracer(f func(*Interpreter, types.Command)) Option {
	return func(in *Interpreter) { in.tracer = f }
}

// New creates an idle interpreter over s and defs for the given dialect.
func New(s *types.State, defs *state.Defs, d Dialect, opts ...Option) *Interpreter {
	in := &Interpreter{
		dialect:   d,
		table:     d.Table(),
		s:         s,
		defs:      defs,
		iterLimit: DefaultIterationLimit,
		depthWarn: DefaultDepthWarning,
		rand:      lowRand{},
	}
	for _, o := range opts {
		o(in)
	}
	if in.base == nil {
		in.base = logger.GetLogger()
	}
	in.log = in.base.With("context", d.Name(), "depth", in.depth)
	if in.depth > in.depthWarn {
		in.log.Warn("interpreter nesting depth exceeded", "limit", in.depthWarn)
	}
	return in
}

// Setup binds a program and resets all transient state. The owning map is
// the current map.
func (in *Interpreter) Setup(prog types.Program, eventID, debugX, debugY int) {
	in.clearTransient()
	in.program = prog
	in.mapID = in.s.Map.ID
	in.eventID = eventID
	in.debugX = debugX
	in.debugY = debugY
	in.log = in.base.With("context", in.dialect.Name(), "depth", in.depth,
		"map", in.mapID, "event", eventID)
}

// Clear abruptly discards the program and any child tree. No commands run.
func (in *Interpreter) Clear() {
	in.clearTransient()
	in.program = nil
	in.eventID = 0
}

func (in *Interpreter) clearTransient() {
	in.cursor = 0
	in.active = false
	in.waitTicks = 0
	in.inputVar = 0
	in.waitMove = false
	in.child = nil
	in.cont = nil
	in.callPending = false
}

// Running reports whether the interpreter still has work: commands left, a
// live child, or a pending wait or continuation.
func (in *Interpreter) Running() bool {
	if in.program == nil {
		return false
	}
	return in.cursor < len(in.program) || in.child != nil || in.cont != nil ||
		in.waitTicks > 0 || in.inputVar > 0 || in.waitMove
}

// Update runs until the interpreter must suspend or the iteration limit is
// reached. It never blocks and never fails.
func (in *Interpreter) Update() {
	in.dispatched = 0
	for i := 0; i < in.iterLimit; i++ {
		if !in.step() {
			return
		}
	}
	in.active = true
	in.log.Warn("execution limit exceeded", "limit", in.iterLimit, "cursor", in.cursor)
}

// step performs one iteration of the run loop and reports whether the loop
// should continue this tick.
func (in *Interpreter) step() bool {
	if in.mapID != in.s.Map.ID {
		in.eventID = 0
	}

	if in.child != nil {
		in.child.Update()
		if !in.child.Running() {
			in.child = nil
			if in.callPending {
				in.callPending = false
				in.cursor++
			}
		}
		if in.child != nil {
			return false
		}
	}

	if in.s.Message.Waiting {
		return false
	}

	if in.waitMove {
		if !in.dialect.MovementSettled(in) {
			return false
		}
		in.waitMove = false
	}

	if in.inputVar > 0 {
		in.captureKey()
		return false
	}

	if in.waitTicks > 0 {
		in.waitTicks--
		return false
	}

	if sceneTakeover(in.s) {
		return false
	}

	if in.cont != nil {
		c := in.cont
		in.cont = nil
		if !c.resume(in, in.current()) {
			if in.cont == nil {
				in.cont = c
			}
			return false
		}
	}

	if in.cursor >= len(in.program) {
		if in.root && in.exhausted != nil && !in.s.Map.Teleport.Pending {
			in.exhausted(in)
		}
		if in.cursor >= len(in.program) {
			return false
		}
	}

	cmd := in.program[in.cursor]
	in.dispatched++
	if in.tracer != nil {
		in.tracer(in, cmd)
	}
	outcome := Advance
	if h, ok := in.table[cmd.Code]; ok {
		outcome = h(in, cmd)
	} else {
		in.log.Debug("unknown opcode", "code", cmd.Code, "cursor", in.cursor)
	}

	switch outcome {
	case Hold:
		in.active = true
		return false
	case Jump:
		in.active = false
	default:
		in.active = false
		in.cursor++
	}
	return true
}

func sceneTakeover(s *types.State) bool {
	r := s.Scene
	return r.Battle || r.Shop || r.Name || r.Save || r.Menu || r.Title || r.GameOver ||
		s.Map.Teleport.Pending
}

// captureKey stores a pressed key into the pending input variable.
func (in *Interpreter) captureKey() {
	if in.s.KeyPressed == 0 {
		return
	}
	in.Emit(effects.ApplyVariable(in.s, in.inputVar, effects.OpSet, in.s.KeyPressed))
	in.s.KeyPressed = 0
	in.inputVar = 0
}

func (in *Interpreter) current() types.Command {
	if in.cursor >= 0 && in.cursor < len(in.program) {
		return in.program[in.cursor]
	}
	return types.Command{}
}

// Call starts a child interpreter on prog owned by eventID. It refuses with
// Hold, leaving the cursor in place, while a child is still alive. On
// success the cursor stays on the calling command until the child finishes.
func (in *Interpreter) Call(prog types.Program, eventID int) Outcome {
	if in.child != nil {
		return Hold
	}
	child := New(in.s, in.defs, in.dialect,
		WithDepth(in.depth+1),
		WithLogger(in.base),
		WithIterationLimit(in.iterLimit),
		WithDepthWarning(in.depthWarn),
		WithRand(in.rand),
		WithEventSink(in.sink),
		WithTracer(in.tracer),
	)
	child.Setup(prog, eventID, in.debugX, in.debugY)
	in.child = child
	in.callPending = true
	return Jump
}

// Emit records a state event: it flags page refreshes and forwards the
// event to the sink.
func (in *Interpreter) Emit(e types.Event) {
	events.Dispatch([]types.Event{e}, in.s)
	if in.sink != nil {
		in.sink(e)
	}
}

// Wait blocks the interpreter for n ticks.
func (in *Interpreter) Wait(n int) {
	if n > 0 {
		in.waitTicks = n
	}
}

// AwaitKey blocks until a key is pressed and stores it into variable v.
func (in *Interpreter) AwaitKey(v int) { in.inputVar = v }

// AwaitMovement blocks until the dialect reports forced movement settled.
func (in *Interpreter) AwaitMovement() { in.waitMove = true }

// Continue installs c to be resumed before the next command executes.
func (in *Interpreter) Continue(c Continuation) { in.cont = c }

// Program returns the bound program.
func (in *Interpreter) Program() types.Program { return in.program }

// SetCursor positions the cursor. Handlers that call it return Jump or
// Advance depending on whether the target should execute.
func (in *Interpreter) SetCursor(i int) { in.cursor = i }

// End finishes the program without running further commands.
func (in *Interpreter) End() Outcome {
	in.cursor = len(in.program)
	return Jump
}

func (in *Interpreter) Dialect() Dialect { return in.dialect }
func (in *Interpreter) State() *types.State { return in.s }
func (in *Interpreter) Defs() *state.Defs { return in.defs }
func (in *Interpreter) Log() *slog.Logger { return in.log }
func (in *Interpreter) Rand() Rand { return in.rand }
func (in *Interpreter) Cursor() int { return in.cursor }
func (in *Interpreter) Active() bool { return in.active }
func (in *Interpreter) Depth() int { return in.depth }
func (in *Interpreter) Root() bool { return in.root }
func (in *Interpreter) Child() *Interpreter { return in.child }
func (in *Interpreter) MapID() int { return in.mapID }
func (in *Interpreter) EventID() int { return in.eventID }
func (in *Interpreter) WaitTicks() int { return in.waitTicks }
func (in *Interpreter) WaitingForMovement() bool { return in.waitMove }
func (in *Interpreter) Pending() Continuation { return in.cont }

// Dispatched returns how many commands the last Update dispatched, not
// counting children.
func (in *Interpreter) Dispatched() int { return in.dispatched }

// Debug returns the position of the owning event when the program started.
func (in *Interpreter) Debug() (int, int) { return in.debugX, in.debugY }
