package deck

import (
	"fmt"

	"github.com/lox/lantern/internal/errs"
)

var (
	ErrEmptyDeck         = fmt.Errorf("%w: deck is empty", errs.ErrValidation)
	ErrInsufficientCards = fmt.Errorf("%w: not enough cards", errs.ErrValidation)
	ErrEmptyPile         = fmt.Errorf("%w: discard pile is empty", errs.ErrValidation)
	ErrPileFull          = fmt.Errorf("%w: discard pile is full", errs.ErrCapacity)
	ErrHandFull          = fmt.Errorf("%w: hand is full", errs.ErrCapacity)
	ErrDuplicateCard     = fmt.Errorf("%w: card already present", errs.ErrDuplicate)
	ErrCardNotFound      = fmt.Errorf("%w: card", errs.ErrNotFound)
	ErrInvalidHandSize   = fmt.Errorf("%w: hand must hold %d cards to discard", errs.ErrInvalidState, MaxHandSize)
	ErrMismatchedCards   = fmt.Errorf("%w: cards do not match hand", errs.ErrValidation)
	ErrInvalidCard       = fmt.Errorf("%w: invalid card", errs.ErrValidation)
)
