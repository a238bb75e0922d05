package interp

import "github.com/nathoo/eventcore/types"

// Outcome tells the run loop what to do after a handler returns.
type Outcome int

const (
	// Advance steps the cursor past the current command.
	Advance Outcome = iota
	// Hold stops this tick without moving the cursor and marks the
	// interpreter active.
	Hold
	// Jump means the handler already positioned the cursor on the next
	// command to execute.
	Jump
)

func (o Outcome) String() string {
	switch o {
	case Advance:
		return "advance"
	case Hold:
		return "hold"
	case Jump:
		return "jump"
	default:
		return "unknown"
	}
}

// Handler executes one command.
type Handler func(in *Interpreter, cmd types.Command) Outcome

// Table maps opcodes to handlers for one context.
type Table map[int]Handler

// Merge returns a new table holding every entry of tables. Later tables
// override earlier ones.
func Merge(tables ...Table) Table {
	out := Table{}
	for _, t := range tables {
		for code, h := range t {
			out[code] = h
		}
	}
	return out
}

// Dialect specializes the core for one context (map or battle scripting).
type Dialect interface {
	// Name labels log lines.
	Name() string
	// Table returns the opcode table. It must not change after first use.
	Table() Table
	// MovementSettled reports whether the forced routes an interpreter is
	// waiting on have finished.
	MovementSettled(in *Interpreter) bool
}

// Rand supplies random operands to commands.
type Rand interface {
	// Range returns an integer in [lo, hi].
	Range(lo, hi int) int
}

type lowRand struct{}

func (lowRand) Range(lo, _ int) int { return lo }
