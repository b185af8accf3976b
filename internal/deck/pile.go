package deck

import "fmt"

// DiscardPile is the face-up exchange pile. Only the top card is visible.
type DiscardPile struct {
	cards []Card
}

// NewDiscardPile returns an empty pile.
func NewDiscardPile() *DiscardPile {
	return &DiscardPile{cards: make([]Card, 0, FullSetSize)}
}

// CanPush reports the error Push would return for card without changing
// the pile.
func (p *DiscardPile) CanPush(card Card) error {
	if len(p.cards) >= FullSetSize {
		return ErrPileFull
	}
	for _, c := range p.cards {
		if c == card {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, card)
		}
	}
	return nil
}

// Push places card on top of the pile.
func (p *DiscardPile) Push(card Card) error {
	if err := p.CanPush(card); err != nil {
		return err
	}
	p.cards = append(p.cards, card)
	return nil
}

// PeekTop returns the most recently pushed card.
func (p *DiscardPile) PeekTop() (Card, bool) {
	if len(p.cards) == 0 {
		return Card{}, false
	}
	return p.cards[len(p.cards)-1], true
}

// TakeTop removes and returns the top card.
func (p *DiscardPile) TakeTop() (Card, error) {
	if len(p.cards) == 0 {
		return Card{}, ErrEmptyPile
	}
	last := len(p.cards) - 1
	card := p.cards[last]
	p.cards = p.cards[:last]
	return card, nil
}

// Len returns the number of cards in the pile.
func (p *DiscardPile) Len() int {
	return len(p.cards)
}
