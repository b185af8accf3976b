package server

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/lobby"
	"github.com/lox/lantern/internal/notify"
	"github.com/lox/lantern/internal/randutil"
	"github.com/lox/lantern/internal/statistics"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type sent struct {
	to string
	ev notify.Event
}

// recordingHub captures notifications instead of delivering them.
type recordingHub struct {
	mu   sync.Mutex
	sent []sent
}

func (h *recordingHub) add(to string, ev notify.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sent{to: to, ev: ev})
}

func (h *recordingHub) NotifyRoom(gameID string, ev notify.Event) { h.add("room:"+gameID, ev) }
func (h *recordingHub) NotifyPlayer(instanceID string, ev notify.Event) {
	h.add("player:"+instanceID, ev)
}
func (h *recordingHub) NotifyRoomExcept(gameID, _ string, ev notify.Event) {
	h.add("room:"+gameID, ev)
}
func (h *recordingHub) Join(string, string)       {}
func (h *recordingHub) Leave(string, string)      {}
func (h *recordingHub) DropGroup(string)          {}
func (h *recordingHub) Broadcast(ev notify.Event) { h.add("all", ev) }

func (h *recordingHub) count(ev notify.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, s := range h.sent {
		if s.ev == ev {
			n++
		}
	}
	return n
}

func (h *recordingHub) sentTo(to string, ev notify.Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sent {
		if s.to == to && s.ev == ev {
			return true
		}
	}
	return false
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	clock   *quartz.Mock
	hub     *recordingHub
	players *lobby.Players
	rooms   *lobby.Rooms
	stats   *statistics.MemoryStore
	svc     *GameService
	ids     []string
	gameID  string
}

type fixtureOptions struct {
	players        int
	maxPoints      int
	secondsPerTurn int
	dealInterval   time.Duration
	nextRoundDelay time.Duration
	developerMode  bool
}

// newFixture seats players p1..pn in a started room and enters the game.
func newFixture(t *testing.T, o fixtureOptions) *fixture {
	t.Helper()
	if o.players == 0 {
		o.players = 2
	}
	if o.maxPoints == 0 {
		o.maxPoints = 1000
	}

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		clock:   quartz.NewMock(t),
		hub:     &recordingHub{},
		players: lobby.NewPlayers(),
		stats:   statistics.NewMemoryStore(),
	}
	f.rooms = lobby.NewRooms(f.players, f.hub, nil, testLogger())
	f.svc = NewGameService(GameServiceOptions{
		Rooms:          f.rooms,
		Players:        f.players,
		Notifier:       f.hub,
		Stats:          f.stats,
		Clock:          f.clock,
		Rand:           randutil.NewSource(42),
		Logger:         testLogger(),
		DealInterval:   o.dealInterval,
		NextRoundDelay: o.nextRoundDelay,
	})

	for i := 1; i <= o.players; i++ {
		p, err := f.players.Connect(fmt.Sprintf("p%d", i), fmt.Sprintf("player%d", i))
		require.NoError(t, err)
		f.ids = append(f.ids, p.ID)
	}

	room, err := f.rooms.CreateRoom(f.ids[0], lobby.RoomOptions{
		Name:           "test",
		MaxPlayers:     o.players,
		MaxPoints:      o.maxPoints,
		SecondsPerTurn: o.secondsPerTurn,
		DeveloperMode:  o.developerMode,
	})
	require.NoError(t, err)
	for _, id := range f.ids[1:] {
		require.NoError(t, f.rooms.AddPlayer(id, room.ID))
	}
	_, err = f.rooms.StartGame(room.ID, f.ids[0])
	require.NoError(t, err)
	require.NoError(t, f.svc.EnterGame(room.ID))
	f.gameID = room.ID
	return f
}

// start acknowledges every player so the first round is dealt.
func (f *fixture) start() {
	f.t.Helper()
	for _, id := range f.ids {
		require.NoError(f.t, f.svc.PlayerReady(f.gameID, id))
	}
}

func (f *fixture) info(playerID string) GameInfo {
	f.t.Helper()
	info, err := f.svc.GameInfo(f.gameID, playerID)
	require.NoError(f.t, err)
	return info
}

func (f *fixture) current() string {
	f.t.Helper()
	cur := f.info(f.ids[0]).CurrentPlayer
	require.NotEmpty(f.t, cur, "no acting player")
	return cur
}

func (f *fixture) instance(playerID string) string {
	f.t.Helper()
	p, err := f.players.Player(playerID)
	require.NoError(f.t, err)
	return p.InstanceID
}

// playOutRound draws and discards the drawn card until the round ends.
func (f *fixture) playOutRound() {
	f.t.Helper()
	for range 200 {
		if f.info(f.ids[0]).Phase != "turn" {
			return
		}
		cur := f.current()
		card, err := f.svc.DrawFromDeck(f.gameID, cur)
		require.NoError(f.t, err)
		require.NoError(f.t, f.svc.Discard(f.gameID, cur, card))
	}
	f.t.Fatal("round did not end")
}

// acknowledgeRound sends the round over checkpoint for everyone not yet
// ready.
func (f *fixture) acknowledgeRound() {
	f.t.Helper()
	for _, id := range f.ids {
		if f.info(f.ids[0]).Phase != "round_over" {
			return
		}
		if f.readyInInfo(id) {
			continue
		}
		require.NoError(f.t, f.svc.RoundOverPlayerReady(f.gameID, id))
	}
}

func (f *fixture) readyInInfo(playerID string) bool {
	for _, p := range f.info(f.ids[0]).Players {
		if p.ID == playerID {
			return p.Ready
		}
	}
	return false
}

// rigWinningHand swaps playerID's hand for three sets taken from the deck
// with the developer tools. Drawing and discarding the drawn card then
// wins the round.
func rigWinningHand(t *testing.T, svc *GameService, gameID, playerID string) {
	t.Helper()
	hand, err := svc.PlayerCards(gameID, playerID)
	require.NoError(t, err)
	for _, c := range hand {
		require.NoError(t, svc.ReturnToDeck(gameID, playerID, c))
	}

	cards, err := svc.DeckCards(gameID, playerID)
	require.NoError(t, err)
	byRank := make(map[deck.Rank][]deck.Card)
	var ranks []deck.Rank
	for _, c := range cards {
		if c.IsJoker() {
			continue
		}
		if len(byRank[c.Rank]) == 0 {
			ranks = append(ranks, c.Rank)
		}
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	sets := 0
	for _, r := range ranks {
		if sets == 3 {
			break
		}
		if len(byRank[r]) < 3 {
			continue
		}
		for _, c := range byRank[r][:3] {
			require.NoError(t, svc.TakeFromDeck(gameID, playerID, c))
		}
		sets++
	}
	require.Equal(t, 3, sets)
}

// winRound lights up the acting player with a rigged hand and returns them.
func (f *fixture) winRound() string {
	f.t.Helper()
	cur := f.current()
	rigWinningHand(f.t, f.svc, f.gameID, cur)
	card, err := f.svc.DrawFromDeck(f.gameID, cur)
	require.NoError(f.t, err)
	require.NoError(f.t, f.svc.Discard(f.gameID, cur, card))
	require.Equal(f.t, "round_over", f.info(cur).Phase)
	return cur
}
