package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/randutil"
)

func TestNewDeckHasFullUniqueSet(t *testing.T) {
	d := New(randutil.New(1))
	require.Equal(t, FullSetSize, d.Remaining())

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		assert.True(t, c.Valid(), "card %v", c)
		assert.False(t, seen[c], "duplicate %v", c)
		seen[c] = true
	}
	assert.True(t, seen[NewCard(Hearts, Joker)])
	assert.True(t, seen[NewCard(Spades, Joker)])
}

func TestShuffleIsSeeded(t *testing.T) {
	a := New(randutil.New(99)).Cards()
	b := New(randutil.New(99)).Cards()
	c := New(randutil.New(100)).Cards()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, FullSet(), a)
}

func TestTakeTopExhaustsDeck(t *testing.T) {
	d := New(randutil.New(3))
	for i := 0; i < FullSetSize; i++ {
		_, err := d.TakeTop()
		require.NoError(t, err, "take %d", i)
	}
	assert.True(t, d.IsEmpty())

	_, err := d.TakeTop()
	assert.ErrorIs(t, err, ErrEmptyDeck)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestTakeN(t *testing.T) {
	d := New(randutil.New(5))
	top := d.Cards()[FullSetSize-4:]

	cards, err := d.TakeN(4)
	require.NoError(t, err)
	assert.ElementsMatch(t, top, cards)
	assert.Equal(t, FullSetSize-4, d.Remaining())

	_, err = d.TakeN(51)
	assert.ErrorIs(t, err, ErrInsufficientCards)
	assert.Equal(t, FullSetSize-4, d.Remaining(), "failed take must not mutate")
}

func TestTakeSpecificCard(t *testing.T) {
	d := New(randutil.New(5))
	joker := NewCard(Spades, Joker)

	require.NoError(t, d.Take(joker))
	assert.False(t, d.Contains(joker))
	assert.ErrorIs(t, d.Take(joker), errs.ErrNotFound)
}

func TestDiscardPile(t *testing.T) {
	p := NewDiscardPile()

	_, ok := p.PeekTop()
	assert.False(t, ok)
	_, err := p.TakeTop()
	assert.ErrorIs(t, err, ErrEmptyPile)

	kc := NewCard(Clubs, King)
	require.NoError(t, p.Push(NewCard(Hearts, Two)))
	require.NoError(t, p.Push(kc))
	assert.ErrorIs(t, p.Push(kc), errs.ErrDuplicate)

	top, ok := p.PeekTop()
	require.True(t, ok)
	assert.Equal(t, kc, top)

	got, err := p.TakeTop()
	require.NoError(t, err)
	assert.Equal(t, kc, got)
	assert.Equal(t, 1, p.Len())
}

func TestDiscardPileCapacity(t *testing.T) {
	p := NewDiscardPile()
	for _, c := range FullSet() {
		require.NoError(t, p.Push(c))
	}
	err := p.Push(NewCard(Clubs, Ace))
	assert.ErrorIs(t, err, ErrPileFull)
	assert.ErrorIs(t, err, errs.ErrCapacity)
}

func TestDiscardPileCanPushLeavesPileAlone(t *testing.T) {
	p := NewDiscardPile()
	kc := NewCard(Clubs, King)
	require.NoError(t, p.CanPush(kc))
	assert.Equal(t, 0, p.Len())

	require.NoError(t, p.Push(kc))
	assert.ErrorIs(t, p.CanPush(kc), ErrDuplicateCard)
	assert.Equal(t, 1, p.Len())
}
