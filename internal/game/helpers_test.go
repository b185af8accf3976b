package game

import (
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/randutil"
)

var (
	alice = Player{ID: "p1", Username: "alice"}
	bob   = Player{ID: "p2", Username: "bob"}
	carol = Player{ID: "p3", Username: "carol"}
)

func newTestGame(t *testing.T, players ...Player) *Instance {
	t.Helper()
	if len(players) == 0 {
		players = []Player{alice, bob}
	}
	g, err := New(Options{
		ID:             "room1",
		Players:        players,
		MaxPoints:      20,
		SecondsPerTurn: 30,
		Rand:           randutil.New(42),
		Clock:          quartz.NewMock(t),
	})
	require.NoError(t, err)
	return g
}

// startedGame returns a game whose first round has been dealt.
func startedGame(t *testing.T, players ...Player) *Instance {
	t.Helper()
	g := newTestGame(t, players...)
	for _, p := range g.Players() {
		_, err := g.AcknowledgeStart(p.ID)
		require.NoError(t, err)
	}
	require.NoError(t, g.StartFirstRound())
	require.NoError(t, g.DealAll())
	return g
}

// rig replaces hands and the discard pile with known cards and rebuilds the
// deck from whatever is left, so all 54 cards stay unique.
func rig(t *testing.T, g *Instance, hands map[string]string, pileTop string) {
	t.Helper()
	g.deck = deck.New(randutil.New(7))
	g.pile = deck.NewDiscardPile()

	for id, notation := range hands {
		cards := deck.MustParseCards(notation)
		h := deck.NewHand()
		require.NoError(t, h.AddMany(cards))
		for _, c := range cards {
			require.NoError(t, g.deck.Take(c))
		}
		g.hands[id] = h
	}
	if pileTop != "" {
		c := deck.MustParseCards(pileTop)[0]
		require.NoError(t, g.deck.Take(c))
		require.NoError(t, g.pile.Push(c))
	}
	g.allowed = DrawMoves(g.deck.Remaining(), g.pile.Len())
}

// drainDeck leaves n cards in the deck.
func drainDeck(t *testing.T, g *Instance, n int) {
	t.Helper()
	_, err := g.deck.TakeN(g.deck.Remaining() - n)
	require.NoError(t, err)
	g.allowed = DrawMoves(g.deck.Remaining(), g.pile.Len())
}

func current(t *testing.T, g *Instance) Player {
	t.Helper()
	p, ok := g.CurrentPlayer()
	require.True(t, ok)
	return p
}

func other(t *testing.T, g *Instance) Player {
	t.Helper()
	cur := current(t, g)
	for _, p := range g.Players() {
		if p.ID != cur.ID {
			return p
		}
	}
	t.Fatal("no other player")
	return Player{}
}

func card(s string) deck.Card {
	return deck.MustParseCards(s)[0]
}
