package deck

import "fmt"

const (
	// HandSize is the number of cards held between turns.
	HandSize = 9
	// MaxHandSize is the size of a hand after drawing and before discarding.
	MaxHandSize = HandSize + 1
)

// Hand is a player's cards in the order the player arranged them.
type Hand struct {
	cards []Card
}

// NewHand returns an empty hand.
func NewHand() *Hand {
	return &Hand{cards: make([]Card, 0, MaxHandSize)}
}

// Add appends card to the end of the hand.
func (h *Hand) Add(card Card) error {
	if len(h.cards) >= MaxHandSize {
		return ErrHandFull
	}
	if h.Contains(card) {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, card)
	}
	h.cards = append(h.cards, card)
	return nil
}

// AddMany appends all cards or none.
func (h *Hand) AddMany(cards []Card) error {
	if len(h.cards)+len(cards) > MaxHandSize {
		return fmt.Errorf("%w: %d cards would exceed %d", ErrHandFull, len(h.cards)+len(cards), MaxHandSize)
	}
	seen := make(map[Card]struct{}, len(h.cards)+len(cards))
	for _, c := range h.cards {
		seen[c] = struct{}{}
	}
	for _, c := range cards {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen[c] = struct{}{}
	}
	h.cards = append(h.cards, cards...)
	return nil
}

// Remove takes card out of a full hand. A hand can only give up a card
// after drawing, so anything other than MaxHandSize cards is rejected.
func (h *Hand) Remove(card Card) error {
	if len(h.cards) != MaxHandSize {
		return ErrInvalidHandSize
	}
	i := h.indexOf(card)
	if i < 0 {
		return fmt.Errorf("%w %s not in hand", ErrCardNotFound, card)
	}
	h.cards = append(h.cards[:i], h.cards[i+1:]...)
	return nil
}

// Take removes card whatever the hand size.
func (h *Hand) Take(card Card) error {
	i := h.indexOf(card)
	if i < 0 {
		return fmt.Errorf("%w %s not in hand", ErrCardNotFound, card)
	}
	h.cards = append(h.cards[:i], h.cards[i+1:]...)
	return nil
}

// Rearrange replaces the order of the hand. order must hold exactly the
// cards already in the hand.
func (h *Hand) Rearrange(order []Card) error {
	if len(order) != len(h.cards) {
		return fmt.Errorf("%w: got %d cards, hand has %d", ErrMismatchedCards, len(order), len(h.cards))
	}
	seen := make(map[Card]struct{}, len(order))
	for _, c := range order {
		if _, dup := seen[c]; dup || !h.Contains(c) {
			return fmt.Errorf("%w: %s", ErrMismatchedCards, c)
		}
		seen[c] = struct{}{}
	}
	copy(h.cards, order)
	return nil
}

// Contains reports whether card is in the hand.
func (h *Hand) Contains(card Card) bool {
	return h.indexOf(card) >= 0
}

// Len returns the number of cards held.
func (h *Hand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the hand in arranged order.
func (h *Hand) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Without returns a copy of the hand in arranged order minus card.
func (h *Hand) Without(card Card) []Card {
	out := make([]Card, 0, len(h.cards))
	for _, c := range h.cards {
		if c != card {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hand) indexOf(card Card) int {
	for i, c := range h.cards {
		if c == card {
			return i
		}
	}
	return -1
}
