package server

import (
	"fmt"

	"github.com/lox/lantern/internal/combo"
	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/game"
)

// GameInfo is one player's view of a game. Other players' cards are
// reduced to counts.
type GameInfo struct {
	GameID         string            `json:"game_id"`
	Phase          string            `json:"phase"`
	Round          int               `json:"round"`
	Rotations      int               `json:"rotations"`
	MaxPoints      int               `json:"max_points"`
	SecondsPerTurn int               `json:"seconds_per_turn"`
	Players        []PlayerInfo      `json:"players"`
	CurrentPlayer  string            `json:"current_player,omitempty"`
	DeckRemaining  int               `json:"deck_remaining"`
	DiscardTop     *int              `json:"discard_top,omitempty"`
	Hand           []int             `json:"hand"`
	Allowed        game.AllowedMoves `json:"allowed"`
	// RoundWinner is the username of the player who lit up.
	RoundWinner string `json:"round_winner,omitempty"`
}

// PlayerInfo is the public state of a participant.
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Cards    int    `json:"cards"`
	Points   int    `json:"points"`
	Ready    bool   `json:"ready"`
}

// RevealedHand is a player's hand at round end with its groups.
type RevealedHand struct {
	Username string        `json:"username"`
	Cards    []int         `json:"cards"`
	Groups   []RevealGroup `json:"groups"`
	Score    int           `json:"score"`
}

// RevealGroup is a detected group in wire form.
type RevealGroup struct {
	Kind   string `json:"kind"`
	Cards  []int  `json:"cards"`
	Counts bool   `json:"counts"`
}

// GameInfo returns playerID's view of gameID.
func (s *GameService) GameInfo(gameID, playerID string) (GameInfo, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return GameInfo{}, err
	}
	defer e.mu.Unlock()

	g := e.g
	hand, err := g.Hand(playerID)
	if err != nil {
		return GameInfo{}, err
	}

	sizes := g.HandSizes()
	points := g.Points()
	info := GameInfo{
		GameID:         g.ID(),
		Phase:          g.Phase().String(),
		Round:          g.Round(),
		Rotations:      g.Rotations(),
		MaxPoints:      g.MaxPoints(),
		SecondsPerTurn: int(g.TurnDuration().Seconds()),
		DeckRemaining:  g.DeckRemaining(),
		Hand:           deck.IDs(hand),
		Allowed:        g.AllowedMoves(playerID),
	}
	for _, p := range g.Players() {
		info.Players = append(info.Players, PlayerInfo{
			ID:       p.ID,
			Username: p.Username,
			Cards:    sizes[p.ID],
			Points:   points[p.ID],
			Ready:    g.IsReady(p.ID),
		})
	}
	if p, ok := g.CurrentPlayer(); ok && g.Phase() == game.PhaseTurn {
		info.CurrentPlayer = p.ID
	}
	if top, ok := g.DiscardTop(); ok {
		id := top.ID()
		info.DiscardTop = &id
	}
	if w, ok := g.RoundWinner(); ok {
		info.RoundWinner = w.Username
	}
	return info, nil
}

// PlayerCards returns playerID's hand in arranged order.
func (s *GameService) PlayerCards(gameID, playerID string) ([]deck.Card, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.g.Hand(playerID)
}

// AllowedMoves returns the moves currently open to playerID.
func (s *GameService) AllowedMoves(gameID, playerID string) (game.AllowedMoves, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return game.NoMoves, err
	}
	defer e.mu.Unlock()
	if _, ok := e.g.Player(playerID); !ok {
		return game.NoMoves, fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
	}
	return e.g.AllowedMoves(playerID), nil
}

// RoundWinner returns the player who lit up the current round. ok is false
// when nobody has, or the round ended with the deck exhausted.
func (s *GameService) RoundWinner(gameID string) (winner game.Player, ok bool, err error) {
	e, err := s.lock(gameID)
	if err != nil {
		return game.Player{}, false, err
	}
	defer e.mu.Unlock()
	winner, ok = e.g.RoundWinner()
	return winner, ok, nil
}

// EndRoundCards reveals every hand once the round is over.
func (s *GameService) EndRoundCards(gameID string) (map[string]RevealedHand, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	hands, err := e.g.Reveal()
	if err != nil {
		return nil, err
	}
	out := make(map[string]RevealedHand, len(hands))
	for id, cards := range hands {
		rh := RevealedHand{Cards: deck.IDs(cards), Score: combo.Score(cards)}
		if p, ok := e.g.Player(id); ok {
			rh.Username = p.Username
		}
		for _, grp := range combo.Detect(cards) {
			rh.Groups = append(rh.Groups, RevealGroup{
				Kind:   grp.Kind.String(),
				Cards:  deck.IDs(grp.Cards),
				Counts: grp.Counts(),
			})
		}
		out[id] = rh
	}
	return out, nil
}

// LastRoundPoints returns each player's score change in the last round.
func (s *GameService) LastRoundPoints(gameID string) (map[string]int, error) {
	e, err := s.lock(gameID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.g.LastRoundPoints(), nil
}

// ReadyCount returns how many players have acknowledged the pending
// checkpoint, and how many are playing.
func (s *GameService) ReadyCount(gameID string) (ready, total int, err error) {
	e, err := s.lock(gameID)
	if err != nil {
		return 0, 0, err
	}
	defer e.mu.Unlock()
	return e.g.ReadyCount(), len(e.g.Players()), nil
}
