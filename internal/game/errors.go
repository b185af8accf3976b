package game

import (
	"fmt"

	"github.com/lox/lantern/internal/errs"
)

var (
	ErrPlayerNotFound  = fmt.Errorf("%w: player not in game", errs.ErrNotFound)
	ErrNotYourTurn     = fmt.Errorf("%w: not your turn", errs.ErrInvalidState)
	ErrMoveNotAllowed  = fmt.Errorf("%w: move not allowed", errs.ErrInvalidState)
	ErrWrongPhase      = fmt.Errorf("%w: wrong phase", errs.ErrInvalidState)
	ErrAlreadyReady    = fmt.Errorf("%w: already acknowledged", errs.ErrInvalidState)
	ErrCannotLightUp   = fmt.Errorf("%w: hand is not combined", errs.ErrInvalidState)
	ErrPlayerCount     = fmt.Errorf("%w: a game needs %d to %d players", errs.ErrValidation, MinPlayers, MaxPlayers)
	ErrDuplicatePlayer = fmt.Errorf("%w: player listed twice", errs.ErrDuplicate)
)
