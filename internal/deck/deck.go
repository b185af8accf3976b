package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// FullSetSize is the number of cards in a Lantern deck: 52 plus two Jokers.
const FullSetSize = 54

// Deck is the draw pile. The top of the deck is the end of the slice.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// FullSet returns all 54 cards in suit then rank order.
func FullSet() []Card {
	cards := make([]Card, 0, FullSetSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return append(cards, NewCard(Hearts, Joker), NewCard(Spades, Joker))
}

// New creates a full deck shuffled with rng.
func New(rng *rand.Rand) *Deck {
	d := &Deck{cards: FullSet(), rng: rng}
	d.Shuffle()
	return d
}

// Shuffle randomizes the order of cards: each position i is swapped with a
// uniform position in [i, n).
func (d *Deck) Shuffle() {
	n := len(d.cards)
	for i := 0; i < n-1; i++ {
		j := i + d.rng.IntN(n-i)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// TakeTop removes and returns the top card.
func (d *Deck) TakeTop() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	last := len(d.cards) - 1
	card := d.cards[last]
	d.cards = d.cards[:last]
	return card, nil
}

// TakeN removes and returns n cards from the top of the deck.
func (d *Deck) TakeN(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientCards, n, len(d.cards))
	}
	start := len(d.cards) - n
	taken := make([]Card, n)
	copy(taken, d.cards[start:])
	d.cards = d.cards[:start]
	return taken, nil
}

// Take removes a specific card wherever it sits in the deck.
func (d *Deck) Take(card Card) error {
	for i, c := range d.cards {
		if c == card {
			d.cards = append(d.cards[:i], d.cards[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w %s in deck", ErrCardNotFound, card)
}

// PutBottom returns card to the bottom of the deck.
func (d *Deck) PutBottom(card Card) error {
	if d.Contains(card) {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, card)
	}
	d.cards = append([]Card{card}, d.cards...)
	return nil
}

// Contains reports whether card is still in the deck.
func (d *Deck) Contains(card Card) bool {
	for _, c := range d.cards {
		if c == card {
			return true
		}
	}
	return false
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards, bottom first.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
