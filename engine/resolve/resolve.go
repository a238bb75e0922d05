// Package resolve maps character references in command parameters to
// characters on the current map.
package resolve

import (
	"fmt"

	"github.com/nathoo/eventcore/engine/state"
	"github.com/nathoo/eventcore/types"
)

// NotFoundError indicates a reference names no character on the map.
type NotFoundError struct {
	Ref   int
	MapID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no character %d on map %d", e.Ref, e.MapID)
}

// Character resolves ref against the current map. CharPlayer is the player,
// CharThisEvent is the owning event, anything else is an event ID.
func Character(s *types.State, ref, owner int) (*types.Character, error) {
	id, err := ID(s, ref, owner)
	if err != nil {
		return nil, err
	}
	return state.Character(s, id), nil
}

// ID resolves ref to a concrete character ID on the current map.
func ID(s *types.State, ref, owner int) (int, error) {
	switch ref {
	case types.CharPlayer:
		return types.CharPlayer, nil
	case types.CharThisEvent:
		if owner <= 0 {
			return 0, &NotFoundError{Ref: ref, MapID: s.Map.ID}
		}
		ref = owner
	}
	if _, ok := s.Map.Events[ref]; !ok {
		return 0, &NotFoundError{Ref: ref, MapID: s.Map.ID}
	}
	return ref, nil
}

// Facing returns the coordinates of the tile in front of a character.
func Facing(ch *types.Character) (int, int) {
	x, y := ch.X, ch.Y
	switch ch.Dir {
	case types.DirUp:
		y--
	case types.DirRight:
		x++
	case types.DirDown:
		y++
	case types.DirLeft:
		x--
	}
	return x, y
}
