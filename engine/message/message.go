// Package message implements the player side of the message window:
// closing text, picking choices and entering numbers.
package message

import (
	"errors"
	"fmt"

	"github.com/nathoo/eventcore/engine/effects"
	"github.com/nathoo/eventcore/types"
)

var (
	// ErrNoMessage is returned when no message window is waiting.
	ErrNoMessage = errors.New("no message is waiting")
	// ErrPromptOpen is returned by Confirm while a choice or number prompt
	// needs an answer.
	ErrPromptOpen = errors.New("the message needs an answer")
	// ErrNoPrompt is returned when answering a prompt that is not shown.
	ErrNoPrompt = errors.New("no prompt is shown")
	// ErrCannotCancel is returned when the prompt disallows cancelling.
	ErrCannotCancel = errors.New("this choice cannot be cancelled")
)

// RangeError reports an answer outside the allowed range.
type RangeError struct {
	Value int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%d is out of range 0..%d", e.Value, e.Max)
}

// Open reports whether the message window is waiting on the player.
func Open(s *types.State) bool {
	m := s.Message
	return m.Visible && (m.Waiting || len(m.Choices) > 0 || m.NumberDigits > 0)
}

// HasChoices reports whether a choice prompt is shown.
func HasChoices(s *types.State) bool {
	return s.Message.Visible && len(s.Message.Choices) > 0
}

// HasNumber reports whether a number prompt is shown.
func HasNumber(s *types.State) bool {
	return s.Message.Visible && s.Message.NumberDigits > 0
}

// Confirm closes a plain text message.
func Confirm(s *types.State) error {
	if !Open(s) {
		return ErrNoMessage
	}
	if HasChoices(s) || HasNumber(s) {
		return ErrPromptOpen
	}
	closeWindow(s)
	return nil
}

// Choose answers the choice prompt with the zero-based option index.
func Choose(s *types.State, i int) error {
	if !HasChoices(s) {
		return ErrNoPrompt
	}
	if i < 0 || i >= len(s.Message.Choices) {
		return &RangeError{Value: i, Max: len(s.Message.Choices) - 1}
	}
	closeWindow(s)
	s.Message.ChoiceResult = i
	return nil
}

// Cancel answers the choice prompt with its cancel result.
func Cancel(s *types.State) error {
	if !HasChoices(s) {
		return ErrNoPrompt
	}
	cancel := s.Message.ChoiceCancel
	if cancel == 0 {
		return ErrCannotCancel
	}
	closeWindow(s)
	s.Message.ChoiceResult = cancel - 1
	return nil
}

// EnterNumber answers the number prompt, storing n into its variable.
func EnterNumber(s *types.State, n int) (types.Event, error) {
	if !HasNumber(s) {
		return types.Event{}, ErrNoPrompt
	}
	limit := 1
	for i := 0; i < s.Message.NumberDigits; i++ {
		limit *= 10
	}
	if n < 0 || n >= limit {
		return types.Event{}, &RangeError{Value: n, Max: limit - 1}
	}
	v := s.Message.NumberVar
	closeWindow(s)
	return effects.ApplyVariable(s, v, effects.OpSet, n), nil
}

// Render returns the window text for display, choices numbered from 1.
func Render(s *types.State) []string {
	m := s.Message
	if !m.Visible {
		return nil
	}
	var out []string
	if m.Face != "" {
		out = append(out, "["+m.Face+"]")
	}
	out = append(out, m.Lines...)
	for i, c := range m.Choices {
		out = append(out, fmt.Sprintf("  %d) %s", i+1, c))
	}
	if m.NumberDigits > 0 {
		out = append(out, fmt.Sprintf("  (enter a number, up to %d digits)", m.NumberDigits))
	}
	return out
}

func closeWindow(s *types.State) {
	face, pos := s.Message.Face, s.Message.Position
	s.Message = types.MessageState{Face: face, Position: pos, ChoiceResult: -1}
}
