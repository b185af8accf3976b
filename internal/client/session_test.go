package client

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/lantern/internal/deck"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand("  Discard  3 ")
	assert.Equal(t, "discard", cmd)
	assert.Equal(t, []string{"3"}, args)

	cmd, args = parseCommand("")
	assert.Empty(t, cmd)
	assert.Empty(t, args)
}

func TestParseCreate(t *testing.T) {
	opts, err := parseCreate([]string{"den", "3"})
	require.NoError(t, err)
	assert.Equal(t, "den", opts.Name)
	assert.Equal(t, 3, opts.MaxPlayers)
	assert.Nil(t, opts.SecondsPerTurn)

	opts, err = parseCreate([]string{"den", "4", "50", "0"})
	require.NoError(t, err)
	assert.Equal(t, 50, opts.MaxPoints)
	require.NotNil(t, opts.SecondsPerTurn)
	assert.Equal(t, 0, *opts.SecondsPerTurn)

	_, err = parseCreate([]string{"den"})
	assert.Error(t, err)
	_, err = parseCreate([]string{"den", "four"})
	assert.Error(t, err)
}

func TestMoveCard(t *testing.T) {
	hand := deck.MustParseCards("2h3h4h5h")

	tests := []struct {
		name     string
		from, to int
		want     string
	}{
		{"forward", 1, 3, "3h4h2h5h"},
		{"backward", 4, 1, "5h2h3h4h"},
		{"same place", 2, 2, "2h3h4h5h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := moveCard(hand, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, deck.MustParseCards(tt.want), got)
		})
	}

	_, err := moveCard(hand, 0, 2)
	assert.Error(t, err)
	_, err = moveCard(hand, 1, 5)
	assert.Error(t, err)
	assert.Equal(t, deck.MustParseCards("2h3h4h5h"), hand, "input is not modified")
}
