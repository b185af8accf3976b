package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawMoves(t *testing.T) {
	assert.Equal(t, AllowedMoves{DrawFromDeck: true, DrawFromDiscard: true}, DrawMoves(10, 1))
	assert.Equal(t, AllowedMoves{DrawFromDeck: true}, DrawMoves(10, 0))
	assert.Equal(t, AllowedMoves{DrawFromDiscard: true}, DrawMoves(0, 3))
	assert.False(t, DrawMoves(0, 0).Any())
}

func TestDiscardMoves(t *testing.T) {
	assert.Equal(t, AllowedMoves{Discard: true}, DiscardMoves(false))
	assert.Equal(t, AllowedMoves{Discard: true, LightUp: true}, DiscardMoves(true))
	assert.True(t, DiscardMoves(false).Any())
	assert.False(t, NoMoves.Any())
}
