// Package errs defines the error kinds shared by the game engine.
//
// Concrete errors wrap one of these kinds so callers can branch with
// errors.Is without knowing the specific failure.
package errs

import "errors"

var (
	// ErrNotFound is returned when a game, room, player or card is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an action is not currently allowed.
	ErrInvalidState = errors.New("invalid state")
	// ErrCapacity is returned when a hand, pile or room is full.
	ErrCapacity = errors.New("capacity exceeded")
	// ErrDuplicate is returned when an entity is already present.
	ErrDuplicate = errors.New("duplicate")
	// ErrValidation is returned when input does not match current state.
	ErrValidation = errors.New("validation failed")
)

// Code returns a stable short code for the kind wrapped by err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
