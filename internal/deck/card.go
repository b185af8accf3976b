package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Spades
	Diamonds
	Clubs
)

// Suits lists every suit in deck construction order.
var Suits = [...]Suit{Hearts, Spades, Diamonds, Clubs}

// String returns the symbol for the suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Joker is a wildcard and sorts below Ace.
type Rank int

const (
	Joker Rank = iota
	Ace
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the notation character for the rank
func (r Rank) String() string {
	switch r {
	case Joker:
		return "X"
	case Ace:
		return "A"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r >= Two && r <= Nine {
		return string(rune('0' + int(r)))
	}
	return "?"
}

// Points is the penalty value of an ungrouped card at round end.
// Jokers never score.
func (r Rank) Points() int {
	if r < Ace || r > King {
		return 0
	}
	return int(r)
}

// Card is an immutable playing card. Two cards are the same card when
// both suit and rank match.
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// IsJoker reports whether the card is a wildcard.
func (c Card) IsJoker() bool {
	return c.Rank == Joker
}

// ID is the numeric identity used on the wire: suit*100 + rank.
func (c Card) ID() int {
	return int(c.Suit)*100 + int(c.Rank)
}

// Valid reports whether the card belongs to the 54-card set.
func (c Card) Valid() bool {
	if c.Suit < Hearts || c.Suit > Clubs {
		return false
	}
	if c.Rank == Joker {
		return c.Suit == Hearts || c.Suit == Spades
	}
	return c.Rank >= Ace && c.Rank <= King
}

// String returns the card as rank and suit symbol, e.g. "K♣". Jokers
// render as "JK♥".
func (c Card) String() string {
	if c.IsJoker() {
		return "JK" + c.Suit.String()
	}
	return c.Rank.String() + c.Suit.String()
}

// Notation returns the two-character ASCII form accepted by ParseCards.
func (c Card) Notation() string {
	return c.Rank.String() + string("hsdc"[c.Suit])
}

// CardFromID reverses Card.ID, rejecting ids outside the 54-card set.
func CardFromID(id int) (Card, error) {
	c := Card{Suit: Suit(id / 100), Rank: Rank(id % 100)}
	if id < 0 || !c.Valid() {
		return Card{}, fmt.Errorf("%w id %d", ErrInvalidCard, id)
	}
	return c, nil
}

// CardsFromIDs converts a list of wire ids.
func CardsFromIDs(ids []int) ([]Card, error) {
	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, err := CardFromID(id)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// IDs returns the wire ids of cards in order.
func IDs(cards []Card) []int {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = c.ID()
	}
	return ids
}

// ParseCards parses a string of card notation into a slice of cards.
// Format: "7h7s7dXh" where each card is [Rank][Suit].
// Ranks: A, 2-9, T, J, Q, K and X for a Joker.
// Suits: h (hearts), s (spades), d (diamonds), c (clubs)
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %d (must be even)", len(s))
	}

	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		rank, err := parseRank(s[i])
		if err != nil {
			return nil, fmt.Errorf("invalid rank '%c' at position %d: %w", s[i], i, err)
		}
		suit, err := parseSuit(s[i+1])
		if err != nil {
			return nil, fmt.Errorf("invalid suit '%c' at position %d: %w", s[i+1], i+1, err)
		}
		c := Card{Suit: suit, Rank: rank}
		if !c.Valid() {
			return nil, fmt.Errorf("card %s at position %d is not in the deck", c, i)
		}
		cards = append(cards, c)
	}

	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

func parseRank(c byte) (Rank, error) {
	switch c {
	case 'X', 'x':
		return Joker, nil
	case 'A', 'a':
		return Ace, nil
	case 'T', 't':
		return Ten, nil
	case 'J', 'j':
		return Jack, nil
	case 'Q', 'q':
		return Queen, nil
	case 'K', 'k':
		return King, nil
	}
	if c >= '2' && c <= '9' {
		return Rank(c - '0'), nil
	}
	return 0, fmt.Errorf("unknown rank")
}

func parseSuit(c byte) (Suit, error) {
	switch c {
	case 'h', 'H':
		return Hearts, nil
	case 's', 'S':
		return Spades, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'c', 'C':
		return Clubs, nil
	}
	return 0, fmt.Errorf("unknown suit")
}
