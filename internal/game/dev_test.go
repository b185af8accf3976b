package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/errs"
)

func TestDeveloperToolsMoveCards(t *testing.T) {
	g := startedGame(t)
	cur, idle := current(t, g), other(t, g)
	rig(t, g, map[string]string{
		cur.ID:  "AhAsAd2h3h4h5c6c7c",
		idle.ID: "8h8s8dTcTdTs2c3dXs",
	}, "Kd")

	cards, err := g.DeckCards()
	require.NoError(t, err)
	assert.Len(t, cards, deck.FullSetSize-2*deck.HandSize-1)
	assert.Contains(t, cards, card("Xh"))

	joker, err := g.GiveJoker(cur.ID)
	require.NoError(t, err)
	assert.Equal(t, card("Xh"), joker)
	assert.Equal(t, deck.MaxHandSize, g.HandSizes()[cur.ID])
	assert.Equal(t, DiscardMoves(true), g.AllowedMoves(cur.ID), "the joker can go straight back out")

	_, err = g.GiveJoker(idle.ID)
	assert.ErrorIs(t, err, ErrNoJoker)
	assert.ErrorIs(t, g.TakeFromDeck(cur.ID, card("Qc")), errs.ErrCapacity)

	require.NoError(t, g.ReturnToDeck(cur.ID, joker))
	assert.Equal(t, deck.HandSize, g.HandSizes()[cur.ID])
	assert.Equal(t, deck.FullSetSize-2*deck.HandSize-1, g.DeckRemaining())
	assert.Equal(t, AllowedMoves{DrawFromDeck: true, DrawFromDiscard: true}, g.AllowedMoves(cur.ID))

	assert.ErrorIs(t, g.ReturnToDeck(cur.ID, card("Qc")), errs.ErrNotFound)
	assert.ErrorIs(t, g.TakeFromDeck(idle.ID, card("Ah")), errs.ErrNotFound, "already in a hand")
	assert.ErrorIs(t, g.TakeFromDeck("nobody", card("Qc")), ErrPlayerNotFound)
	assert.Equal(t, deck.FullSetSize, g.DeckRemaining()+g.pile.Len()+g.HandSizes()[cur.ID]+g.HandSizes()[idle.ID])
}

func TestDeveloperToolsLeaveOtherTurnsAlone(t *testing.T) {
	g := startedGame(t)
	cur, idle := current(t, g), other(t, g)
	before := g.AllowedMoves(cur.ID)
	deckBefore := g.DeckRemaining()

	require.NoError(t, g.TakeFromDeck(idle.ID, g.deck.Cards()[0]))
	assert.Equal(t, deck.MaxHandSize, g.HandSizes()[idle.ID])
	assert.Equal(t, NoMoves, g.AllowedMoves(idle.ID))
	assert.Equal(t, before, g.AllowedMoves(cur.ID))
	assert.Equal(t, deckBefore-1, g.DeckRemaining())
}

func TestDeveloperToolsNeedARoundInPlay(t *testing.T) {
	g := newTestGame(t)
	_, err := g.DeckCards()
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = g.GiveJoker(alice.ID)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestDeveloperBurnEmptiesTheDeck(t *testing.T) {
	g := startedGame(t)
	cur, idle := current(t, g), other(t, g)
	left := g.DeckRemaining()

	burned, err := g.BurnFromDeck(idle.ID, left-1)
	require.NoError(t, err)
	assert.Len(t, burned, left-1)
	assert.Equal(t, 1, g.DeckRemaining())

	_, err = g.BurnFromDeck(idle.ID, 2)
	assert.ErrorIs(t, err, deck.ErrInsufficientCards)
	assert.Equal(t, 1, g.DeckRemaining())

	_, err = g.BurnFromDeck(cur.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, AllowedMoves{DrawFromDiscard: true}, g.AllowedMoves(cur.ID))
}
