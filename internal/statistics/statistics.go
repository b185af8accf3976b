// Package statistics records per-player game counters.
//
// The game engine only ever increments counters. Stores are external
// collaborators: a failed write is logged by the caller and never undoes
// game state.
package statistics

import (
	"context"
	"fmt"

	"github.com/lox/lantern/internal/errs"
)

// Counter names a per-player statistic.
type Counter int

const (
	GamesStarted Counter = iota + 1
	GamesFinished
	GamesWon
	GamesPlacedLast
	GamesLeft
)

// Counters lists every counter.
var Counters = []Counter{GamesStarted, GamesFinished, GamesWon, GamesPlacedLast, GamesLeft}

// String returns the storage field name of the counter
func (c Counter) String() string {
	switch c {
	case GamesStarted:
		return "games_started"
	case GamesFinished:
		return "games_finished"
	case GamesWon:
		return "games_won"
	case GamesPlacedLast:
		return "games_placed_last"
	case GamesLeft:
		return "games_left"
	default:
		return "unknown"
	}
}

// ParseCounter looks a counter up by field name.
func ParseCounter(name string) (Counter, error) {
	for _, c := range Counters {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown counter %q", errs.ErrValidation, name)
}

// PlayerStats holds all counters for one player.
type PlayerStats struct {
	GamesStarted    int64 `json:"games_started"`
	GamesFinished   int64 `json:"games_finished"`
	GamesWon        int64 `json:"games_won"`
	GamesPlacedLast int64 `json:"games_placed_last"`
	GamesLeft       int64 `json:"games_left"`
}

// Add increments c by n.
func (s *PlayerStats) Add(c Counter, n int64) {
	switch c {
	case GamesStarted:
		s.GamesStarted += n
	case GamesFinished:
		s.GamesFinished += n
	case GamesWon:
		s.GamesWon += n
	case GamesPlacedLast:
		s.GamesPlacedLast += n
	case GamesLeft:
		s.GamesLeft += n
	}
}

// Recorder increments counters.
type Recorder interface {
	Record(ctx context.Context, playerID string, c Counter) error
}

// Store records and reads counters.
type Store interface {
	Recorder
	Stats(ctx context.Context, playerID string) (PlayerStats, error)
	Close() error
}
