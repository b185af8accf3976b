// Package combo finds card combinations in an arranged hand.
//
// Detection walks the hand left to right in the order the player arranged
// it. At each position it measures the longest same-rank window and the
// longest same-suit sequence window starting there, takes the better one,
// and continues after it. Cards that start no window are skipped.
package combo

import "github.com/lox/lantern/internal/deck"

// MinGroupSize is the smallest group that counts toward winning and is
// exempt from scoring.
const MinGroupSize = 3

// LightUpThreshold is the number of combined cards needed to win a round.
const LightUpThreshold = deck.HandSize

// Kind tags a detected window.
type Kind int

const (
	None Kind = iota
	Rank
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Rank:
		return "rank"
	case Sequence:
		return "sequence"
	default:
		return "none"
	}
}

// Group is a run of adjacent cards in the hand.
type Group struct {
	Kind  Kind        `json:"kind"`
	Cards []deck.Card `json:"cards"`
}

// Counts reports whether the group is large enough to win and be exempt
// from scoring.
func (g Group) Counts() bool {
	return len(g.Cards) >= MinGroupSize
}

// Window is the result of scanning from one start position.
type Window struct {
	Kind   Kind
	Length int
}

// Detect partitions cards into disjoint groups in hand order. Natural pairs
// are returned as groups but do not count.
func Detect(cards []deck.Card) []Group {
	var groups []Group
	for i := 0; i < len(cards); {
		w := Best(cards[i:])
		if w.Kind == None {
			i++
			continue
		}
		g := Group{Kind: w.Kind, Cards: make([]deck.Card, w.Length)}
		copy(g.Cards, cards[i:i+w.Length])
		groups = append(groups, g)
		i += w.Length
	}
	return groups
}

// Best returns the window chosen at the first card of cards. The rank
// window wins ties.
func Best(cards []deck.Card) Window {
	r := adjust(cards, rankWindow(cards))
	s := adjust(cards, sequenceWindow(cards))
	switch {
	case r == 0 && s == 0:
		return Window{Kind: None}
	case r >= s:
		return Window{Kind: Rank, Length: r}
	default:
		return Window{Kind: Sequence, Length: s}
	}
}

// CombinedCount returns the number of cards in groups that count.
func CombinedCount(cards []deck.Card) int {
	n := 0
	for _, g := range Detect(cards) {
		if g.Counts() {
			n += len(g.Cards)
		}
	}
	return n
}

// CanLightUp reports whether the arranged cards are combined enough to win.
func CanLightUp(cards []deck.Card) bool {
	return CombinedCount(cards) >= LightUpThreshold
}

// Score sums the points of cards left outside counting groups. Jokers are
// always worth nothing.
func Score(cards []deck.Card) int {
	exempt := make(map[deck.Card]struct{}, len(cards))
	for _, g := range Detect(cards) {
		if !g.Counts() {
			continue
		}
		for _, c := range g.Cards {
			exempt[c] = struct{}{}
		}
	}

	total := 0
	for _, c := range cards {
		if _, ok := exempt[c]; ok {
			continue
		}
		total += c.Rank.Points()
	}
	return total
}

// adjust discards windows that cannot form a group: single cards and
// pairs padded with a Joker.
func adjust(cards []deck.Card, n int) int {
	switch {
	case n <= 1:
		return 0
	case n == 2 && (cards[0].IsJoker() || cards[1].IsJoker()):
		return 0
	default:
		return n
	}
}

// rankWindow counts cards sharing one rank. Jokers join freely.
func rankWindow(cards []deck.Card) int {
	rank := deck.Joker
	for i, c := range cards {
		if c.IsJoker() {
			continue
		}
		if rank == deck.Joker {
			rank = c.Rank
			continue
		}
		if c.Rank != rank {
			return i
		}
	}
	return len(cards)
}

// sequenceWindow counts consecutive ranks of one suit. Jokers stand in for
// missing ranks but never for a rank above King or below Ace.
func sequenceWindow(cards []deck.Card) int {
	// last is the last real rank seen, Joker until one is found. gap counts
	// the Jokers after it.
	var (
		suit deck.Suit
		last = deck.Joker
		gap  int
	)
	for i, c := range cards {
		if c.IsJoker() {
			if last != deck.Joker && int(last)+gap+1 > int(deck.King) {
				return i
			}
			gap++
			continue
		}
		if last == deck.Joker {
			if int(c.Rank)-gap < int(deck.Ace) {
				return i
			}
			suit, last, gap = c.Suit, c.Rank, 0
			continue
		}
		if c.Suit != suit || int(c.Rank) != int(last)+gap+1 {
			return i
		}
		last, gap = c.Rank, 0
	}
	return len(cards)
}
