// Package mapscript is the map-context specialization of the interpreter:
// map opcodes, the forced move route registry and movement simulation.
package mapscript

import (
	"github.com/nathoo/eventcore/engine/interp"
)

// Dialect is the map context. One Dialect is shared by every interpreter
// running on the current map so they see the same route registry.
type Dialect struct {
	routes Registry
}

// New returns a map dialect with an empty registry.
func New() *Dialect {
	return &Dialect{}
}

var table = interp.Merge(interp.Common(), mapTable)

// Name implements interp.Dialect.
func (d *Dialect) Name() string { return "map" }

// Table implements interp.Dialect.
func (d *Dialect) Table() interp.Table { return table }

// MovementSettled implements interp.Dialect: every non-repeating forced
// route on the map has finished.
func (d *Dialect) MovementSettled(in *interp.Interpreter) bool {
	return d.routes.Waiting(in.State()) == 0
}

// Routes returns the pending route registry.
func (d *Dialect) Routes() *Registry { return &d.routes }

// Reset drops every pending route. Called on map teardown.
func (d *Dialect) Reset() { d.routes.Clear() }

// dialectOf returns the map dialect an interpreter runs under.
func dialectOf(in *interp.Interpreter) *Dialect {
	d, _ := in.Dialect().(*Dialect)
	return d
}
