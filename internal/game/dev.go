package game

import (
	"fmt"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/errs"
)

// ErrNoJoker is returned when neither Joker is left in the deck.
var ErrNoJoker = fmt.Errorf("%w: no joker left in the deck", errs.ErrNotFound)

// The tools below move cards between the deck and a hand outside the turn
// rules. They only work while a round is being played and ignore hand size
// limits below MaxHandSize.

// DeckCards lists the cards left in the deck, bottom first.
func (g *Instance) DeckCards() ([]deck.Card, error) {
	if g.phase != PhaseTurn {
		return nil, fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
	}
	return g.deck.Cards(), nil
}

// TakeFromDeck moves card from anywhere in the deck into playerID's hand.
func (g *Instance) TakeFromDeck(playerID string, card deck.Card) error {
	hand, err := g.devHand(playerID)
	if err != nil {
		return err
	}
	if hand.Len() >= deck.MaxHandSize {
		return deck.ErrHandFull
	}
	if err := g.deck.Take(card); err != nil {
		return err
	}
	if err := hand.Add(card); err != nil {
		return err
	}
	g.refreshAllowed(playerID)
	return nil
}

// ReturnToDeck moves card from playerID's hand to the bottom of the deck.
func (g *Instance) ReturnToDeck(playerID string, card deck.Card) error {
	hand, err := g.devHand(playerID)
	if err != nil {
		return err
	}
	if !hand.Contains(card) {
		return fmt.Errorf("%w %s not in hand", deck.ErrCardNotFound, card)
	}
	if err := g.deck.PutBottom(card); err != nil {
		return err
	}
	if err := hand.Take(card); err != nil {
		return err
	}
	g.refreshAllowed(playerID)
	return nil
}

// GiveJoker moves a Joker from the deck into playerID's hand.
func (g *Instance) GiveJoker(playerID string) (deck.Card, error) {
	if _, err := g.devHand(playerID); err != nil {
		return deck.Card{}, err
	}
	for _, c := range g.deck.Cards() {
		if c.IsJoker() {
			return c, g.TakeFromDeck(playerID, c)
		}
	}
	return deck.Card{}, ErrNoJoker
}

// BurnFromDeck throws away the top n cards of the deck, bringing deck
// exhaustion closer.
func (g *Instance) BurnFromDeck(playerID string, n int) ([]deck.Card, error) {
	if _, err := g.devHand(playerID); err != nil {
		return nil, err
	}
	burned, err := g.deck.TakeN(n)
	if err != nil {
		return nil, err
	}
	if cur, ok := g.CurrentPlayer(); ok {
		g.refreshAllowed(cur.ID)
	}
	return burned, nil
}

func (g *Instance) devHand(playerID string) (*deck.Hand, error) {
	hand, ok := g.hands[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if g.phase != PhaseTurn {
		return nil, fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
	}
	return hand, nil
}

// refreshAllowed recomputes the acting player's moves from their hand size
// after it changed mid-turn.
func (g *Instance) refreshAllowed(playerID string) {
	if !g.IsTurn(playerID) {
		return
	}
	if hand := g.hands[playerID]; hand.Len() == deck.MaxHandSize {
		g.allowed = DiscardMoves(canLightUp(hand.Cards()))
		return
	}
	g.allowed = DrawMoves(g.deck.Remaining(), g.pile.Len())
}
