package game

import (
	"fmt"

	"github.com/lox/lantern/internal/combo"
	"github.com/lox/lantern/internal/deck"
)

// Outcome is how a turn ended.
type Outcome int

const (
	// OutcomeNextTurn passes play to the next player.
	OutcomeNextTurn Outcome = iota
	// OutcomeRoundWon ends the round in the acting player's favour.
	OutcomeRoundWon
	// OutcomeDeckExhausted ends the round with no winner.
	OutcomeDeckExhausted
)

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeNextTurn:
		return "next_turn"
	case OutcomeRoundWon:
		return "round_won"
	case OutcomeDeckExhausted:
		return "deck_exhausted"
	default:
		return "unknown"
	}
}

// TurnResult reports what a finished turn caused.
type TurnResult struct {
	Player  Player
	Outcome Outcome

	// Card is set when Discarded is true.
	Card      deck.Card
	Discarded bool
	// Skipped marks a turn forfeited to the turn timer.
	Skipped bool
	// Next is the new acting player for OutcomeNextTurn.
	Next Player
}

// DrawFromDeck moves the top card of the deck into the acting player's hand.
func (g *Instance) DrawFromDeck(playerID string) (deck.Card, error) {
	if err := g.checkTurn(playerID); err != nil {
		return deck.Card{}, err
	}
	if !g.allowed.DrawFromDeck {
		return deck.Card{}, fmt.Errorf("%w: draw from deck", ErrMoveNotAllowed)
	}
	hand := g.hands[playerID]
	if hand.Len() >= deck.MaxHandSize {
		return deck.Card{}, deck.ErrHandFull
	}

	card, err := g.deck.TakeTop()
	if err != nil {
		return deck.Card{}, err
	}
	if err := hand.Add(card); err != nil {
		return deck.Card{}, err
	}
	g.allowed = DiscardMoves(canLightUp(hand.Cards()))
	return card, nil
}

// DrawFromDiscard moves the visible discard into the acting player's hand.
func (g *Instance) DrawFromDiscard(playerID string) (deck.Card, error) {
	if err := g.checkTurn(playerID); err != nil {
		return deck.Card{}, err
	}
	if !g.allowed.DrawFromDiscard {
		return deck.Card{}, fmt.Errorf("%w: draw from discard pile", ErrMoveNotAllowed)
	}
	hand := g.hands[playerID]
	if hand.Len() >= deck.MaxHandSize {
		return deck.Card{}, deck.ErrHandFull
	}

	card, err := g.pile.TakeTop()
	if err != nil {
		return deck.Card{}, err
	}
	if err := hand.Add(card); err != nil {
		return deck.Card{}, err
	}
	g.allowed = DiscardMoves(canLightUp(hand.Cards()))
	return card, nil
}

// Discard places card from the acting player's hand on the pile. If the
// remaining cards are fully combined the round is won on the spot.
func (g *Instance) Discard(playerID string, card deck.Card) (TurnResult, error) {
	if err := g.checkTurn(playerID); err != nil {
		return TurnResult{}, err
	}
	if !g.allowed.Discard {
		return TurnResult{}, fmt.Errorf("%w: discard", ErrMoveNotAllowed)
	}
	if err := g.discard(playerID, card); err != nil {
		return TurnResult{}, err
	}
	return g.finishTurn(card), nil
}

// LightUp declares a win by discarding card. The hand left behind must be
// fully combined; otherwise nothing changes.
func (g *Instance) LightUp(playerID string, card deck.Card) (TurnResult, error) {
	if err := g.checkTurn(playerID); err != nil {
		return TurnResult{}, err
	}
	if !g.allowed.LightUp {
		return TurnResult{}, fmt.Errorf("%w: light up", ErrMoveNotAllowed)
	}
	hand := g.hands[playerID]
	if !hand.Contains(card) {
		return TurnResult{}, fmt.Errorf("%w %s not in hand", deck.ErrCardNotFound, card)
	}
	if !combo.CanLightUp(hand.Without(card)) {
		return TurnResult{}, fmt.Errorf("%w without %s", ErrCannotLightUp, card)
	}
	if err := g.discard(playerID, card); err != nil {
		return TurnResult{}, err
	}
	return g.finishTurn(card), nil
}

// Rearrange reorders a player's hand. Grouping depends on order, so the
// acting player's light up option is recomputed.
func (g *Instance) Rearrange(playerID string, order []deck.Card) error {
	hand, ok := g.hands[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if g.phase == PhaseDealing {
		return fmt.Errorf("%w: cards are still being dealt", ErrWrongPhase)
	}
	if err := hand.Rearrange(order); err != nil {
		return err
	}
	if g.IsTurn(playerID) && g.allowed.Discard {
		g.allowed = DiscardMoves(canLightUp(hand.Cards()))
	}
	return nil
}

// TimeoutTurn is the turn timer's action. A player holding a drawn card has
// a random card discarded for them; otherwise the turn is skipped.
func (g *Instance) TimeoutTurn() (TurnResult, error) {
	if g.phase != PhaseTurn {
		return TurnResult{}, fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
	}
	p := g.players[g.turn]
	hand := g.hands[p.ID]

	if hand.Len() == deck.MaxHandSize {
		cards := hand.Cards()
		card := cards[g.rng.IntN(len(cards))]
		if err := g.discard(p.ID, card); err != nil {
			return TurnResult{}, err
		}
		return g.finishTurn(card), nil
	}

	next := g.advanceTurn()
	return TurnResult{Player: p, Outcome: OutcomeNextTurn, Skipped: true, Next: next}, nil
}

func (g *Instance) checkTurn(playerID string) error {
	if _, ok := g.hands[playerID]; !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if g.phase != PhaseTurn {
		return fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
	}
	if g.players[g.turn].ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// discard moves card from hand to pile, validating both before mutating.
func (g *Instance) discard(playerID string, card deck.Card) error {
	hand := g.hands[playerID]
	if hand.Len() != deck.MaxHandSize {
		return deck.ErrInvalidHandSize
	}
	if !hand.Contains(card) {
		return fmt.Errorf("%w %s not in hand", deck.ErrCardNotFound, card)
	}
	if err := g.pile.CanPush(card); err != nil {
		return err
	}
	if err := hand.Remove(card); err != nil {
		return err
	}
	return g.pile.Push(card)
}

// finishTurn settles the acting player's turn after a discard.
func (g *Instance) finishTurn(card deck.Card) TurnResult {
	p := g.players[g.turn]
	res := TurnResult{Player: p, Card: card, Discarded: true}

	switch {
	case combo.CanLightUp(g.hands[p.ID].Cards()):
		g.winRound(p)
		res.Outcome = OutcomeRoundWon
	case g.deck.IsEmpty():
		g.endRound()
		res.Outcome = OutcomeDeckExhausted
	default:
		res.Outcome = OutcomeNextTurn
		res.Next = g.advanceTurn()
	}
	return res
}

// advanceTurn passes play on. Coming back round to the round's first
// player completes a rotation.
func (g *Instance) advanceTurn() Player {
	g.turn = (g.turn + 1) % len(g.players)
	if g.turn == g.roundStarter {
		g.rotations++
	}
	g.allowed = DrawMoves(g.deck.Remaining(), g.pile.Len())
	return g.players[g.turn]
}

// canLightUp reports whether some discard from a drawn hand leaves the
// rest fully combined.
func canLightUp(cards []deck.Card) bool {
	if len(cards) != deck.MaxHandSize {
		return false
	}
	rest := make([]deck.Card, 0, len(cards)-1)
	for i := range cards {
		rest = append(rest[:0], cards[:i]...)
		rest = append(rest, cards[i+1:]...)
		if combo.CanLightUp(rest) {
			return true
		}
	}
	return false
}
