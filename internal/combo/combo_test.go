package combo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/lantern/internal/deck"
)

var cards = deck.MustParseCards

func TestBest(t *testing.T) {
	tests := []struct {
		name string
		hand string
		want Window
	}{
		{"rank three", "7h7s7d2c", Window{Rank, 3}},
		{"sequence", "5h6h7h8h5s", Window{Sequence, 4}},
		{"natural pair", "2c2dKc", Window{Rank, 2}},
		{"joker pair discarded", "XhKc2d", Window{None, 0}},
		{"single card", "Kc2d", Window{None, 0}},
		{"tie prefers rank", "5hXhXs6s", Window{Rank, 3}},
		{"joker fills sequence gap", "JhXhKh", Window{Sequence, 3}},
		{"leading jokers", "XhXs3d4d", Window{Sequence, 4}},
		{"joker cannot follow king", "JhQhKhXh", Window{Sequence, 3}},
		{"ace cannot follow joker", "XhAh2h", Window{None, 0}},
		{"sequence needs one suit", "5h6s7h", Window{None, 0}},
		{"jokers join rank run", "9cXh9dXs9h", Window{Rank, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Best(cards(tt.hand)))
		})
	}
}

func TestDetectNoKingToAceBridge(t *testing.T) {
	groups := Detect(cards("QhKhXhAh"))
	assert.Equal(t, []Group{{Kind: Sequence, Cards: cards("QhKh")}}, groups)
	assert.Zero(t, CombinedCount(cards("QhKhXhAh")))
}

func TestDetectDependsOnOrder(t *testing.T) {
	assert.Equal(t, 0, CombinedCount(cards("5h5s6h7h")))
	assert.Equal(t, 3, CombinedCount(cards("5h6h7h5s")))
}

func TestDetectIsIdempotent(t *testing.T) {
	hand := cards("7h7s7dXh2c3c4cKdQs")
	first := Detect(hand)
	second := Detect(hand)
	assert.Equal(t, first, second)
	assert.Equal(t, cards("7h7s7dXh2c3c4cKdQs"), hand, "input must not change")
}

func TestLightUpBoundary(t *testing.T) {
	assert.True(t, CanLightUp(cards("AhXs3h4h5h6h7h8h9h")), "nine card run")
	assert.True(t, CanLightUp(cards("7h7s7d2c3c4cKdKsXh")), "three groups of three")
	assert.False(t, CanLightUp(cards("Ah2h3h4h5h6h7h8hKc")), "eight card run plus one")
	assert.Equal(t, 8, CombinedCount(cards("Ah2h3h4h5h6h7h8hKc")))
}

func TestScore(t *testing.T) {
	assert.Equal(t, 17, Score(cards("7h7s7d2c2dKc")))
	assert.Equal(t, 0, Score(cards("XhXs")), "jokers never score")
	assert.Equal(t, 13, Score(cards("KcXh")))
	assert.Equal(t, 0, Score(cards("AhXs3h4h5h6h7h8h9h")))
	assert.Equal(t, 1+2+3, Score(cards("Ah2d3c")))
}
