package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/randutil"
	"github.com/lox/lantern/internal/statistics"
)

func newTestServer(t *testing.T, settings ...func(*GameSettings)) (*Server, *httptest.Server) {
	t.Helper()
	gs := *DefaultConfig().Game
	for _, fn := range settings {
		fn(&gs)
	}
	stats := statistics.NewMemoryStore()
	srv := NewServer(Options{
		Game:          gs,
		Logger:        testLogger(),
		StatsRecorder: stats,
		StatsReader:   stats,
		Rand:          randutil.NewSource(7),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return srv, ts
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	seq  int
}

func dial(t *testing.T, ts *httptest.Server) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(typ MessageType, data any) {
	c.t.Helper()
	msg, err := NewMessage(typ, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// expect reads until a message of type typ arrives, skipping others.
func (c *wsClient) expect(typ MessageType) *Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %s", typ)
		if msg.Type == typ {
			return &msg
		}
	}
}

// expectEvent reads until the named event arrives.
func (c *wsClient) expectEvent(name string) {
	c.t.Helper()
	for {
		var ev EventData
		require.NoError(c.t, c.expect(MessageTypeEvent).Decode(&ev))
		if ev.Event == name {
			return
		}
	}
}

func (c *wsClient) call(typ MessageType, data any, want MessageType, out any) {
	c.t.Helper()
	c.send(typ, data)
	msg := c.expect(want)
	if out != nil {
		require.NoError(c.t, msg.Decode(out))
	}
}

func (c *wsClient) connect(username string) ConnectedData {
	c.t.Helper()
	var data ConnectedData
	c.call(MessageTypeConnect, ConnectData{Username: username}, MessageTypeConnected, &data)
	return data
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerMetrics(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lantern_games_active")
	assert.Contains(t, string(body), "lantern_notifications_dropped_total")
}

func TestServerRequiresConnect(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	c := dial(t, ts)

	var e ErrorData
	c.call(MessageTypeListRooms, nil, MessageTypeError, &e)
	assert.Equal(t, "invalid_state", e.Code)

	c.connect("alice")
	c.call("shuffle_deck", nil, MessageTypeError, &e)
	assert.Equal(t, "unknown_message_type", e.Code)
}

func TestServerPlaysATurn(t *testing.T) {
	t.Parallel()
	srv, ts := newTestServer(t)

	alice, bob := dial(t, ts), dial(t, ts)
	aliceID := alice.connect("alice").PlayerID
	bobID := bob.connect("bob").PlayerID

	noTimer := 0
	var created RoomInfoData
	alice.call(MessageTypeCreateRoom, CreateRoomData{Name: "table", MaxPlayers: 2, SecondsPerTurn: &noTimer}, MessageTypeRoomInfo, &created)
	assert.Equal(t, aliceID, created.Room.OwnerID)
	assert.Equal(t, DefaultMaxPoints, created.Room.MaxPoints)

	var list RoomListData
	bob.call(MessageTypeListRooms, nil, MessageTypeRoomList, &list)
	require.Len(t, list.Rooms, 1)

	var joined RoomInfoData
	bob.call(MessageTypeJoinRoom, RoomData{RoomID: created.Room.ID}, MessageTypeRoomInfo, &joined)
	assert.ElementsMatch(t, []string{aliceID, bobID}, joined.Room.Players)

	var e ErrorData
	bob.call(MessageTypeStartGame, nil, MessageTypeError, &e)
	assert.Equal(t, "invalid_state", e.Code)

	alice.call(MessageTypeStartGame, nil, MessageTypeOK, nil)
	bob.expectEvent("game_starting")
	alice.call(MessageTypePlayerReady, nil, MessageTypeOK, nil)
	bob.call(MessageTypePlayerReady, nil, MessageTypeOK, nil)
	alice.expectEvent("cards_dealt")

	var info GameInfo
	alice.call(MessageTypeGetGameInfo, nil, MessageTypeGameInfo, &info)
	require.Equal(t, "turn", info.Phase)
	assert.Len(t, info.Hand, 9)
	assert.Equal(t, 1, srv.Games().Active())

	actor, waiter := alice, bob
	if info.CurrentPlayer == bobID {
		actor, waiter = bob, alice
	}

	waiter.call(MessageTypeDrawDeck, nil, MessageTypeError, &e)
	assert.Equal(t, "invalid_state", e.Code)

	var drawn CardData
	actor.call(MessageTypeDrawDeck, nil, MessageTypeCardDrawn, &drawn)
	actor.call(MessageTypeDiscard, CardData{Card: drawn.Card}, MessageTypeOK, nil)

	actor.call(MessageTypeDiscard, CardData{Card: 999}, MessageTypeError, &e)
	assert.Equal(t, "validation", e.Code)

	var moves AllowedMovesData
	waiter.call(MessageTypeGetAllowedMoves, nil, MessageTypeAllowedMoves, &moves)
	assert.True(t, moves.Allowed.DrawFromDeck)
	assert.True(t, moves.Allowed.DrawFromDiscard)

	var stats StatsData
	alice.call(MessageTypeGetStats, nil, MessageTypeStats, &stats)
	assert.Equal(t, int64(1), stats.Stats.GamesStarted)
}

func TestServerRoomsEndpoint(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	c := dial(t, ts)
	c.connect("alice")
	c.call(MessageTypeCreateRoom, CreateRoomData{Name: "open", MaxPlayers: 3}, MessageTypeRoomInfo, nil)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list RoomListData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "open", list.Rooms[0].Name)
	assert.Equal(t, DefaultTurnSeconds, list.Rooms[0].SecondsPerTurn)
}

func TestServerChatAndInvites(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	alice, bob := dial(t, ts), dial(t, ts)
	alice.connect("alice")
	bobID := bob.connect("bob").PlayerID

	var created RoomInfoData
	alice.call(MessageTypeCreateRoom, CreateRoomData{Name: "den", MaxPlayers: 2, Private: true}, MessageTypeRoomInfo, &created)

	var e ErrorData
	bob.call(MessageTypeJoinRoom, RoomData{RoomID: created.Room.ID}, MessageTypeError, &e)
	assert.Equal(t, "invalid_state", e.Code)

	alice.call(MessageTypeInvite, InviteData{PlayerID: bobID}, MessageTypeOK, nil)
	bob.expectEvent("room_invite")
	var invites InviteListData
	bob.call(MessageTypeGetInvites, nil, MessageTypeInviteList, &invites)
	require.Len(t, invites.Invites, 1)
	assert.Equal(t, created.Room.ID, invites.Invites[0].RoomID)
	bob.call(MessageTypeJoinRoom, RoomData{RoomID: created.Room.ID}, MessageTypeRoomInfo, nil)

	alice.call(MessageTypeChat, ChatData{Message: "hi bob"}, MessageTypeOK, nil)
	bob.expectEvent("new_chat")
	var chat ChatListData
	bob.call(MessageTypeGetChat, nil, MessageTypeChatList, &chat)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "alice", chat.Messages[0].PlayerName)
	assert.Equal(t, "hi bob", chat.Messages[0].Message)

	bob.call(MessageTypeChat, ChatData{Message: " "}, MessageTypeError, &e)
	assert.Equal(t, "validation", e.Code)
}

func TestServerRejectsDeveloperRoomsByDefault(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	c := dial(t, ts)
	c.connect("alice")

	var e ErrorData
	c.call(MessageTypeCreateRoom, CreateRoomData{Name: "dev", MaxPlayers: 2, DeveloperMode: true}, MessageTypeError, &e)
	assert.Equal(t, "validation", e.Code)
}

func TestServerDeveloperRoomTools(t *testing.T) {
	t.Parallel()
	srv, ts := newTestServer(t, func(g *GameSettings) { g.AllowDeveloperRooms = true })
	alice, bob := dial(t, ts), dial(t, ts)
	aliceID := alice.connect("alice").PlayerID
	bob.connect("bob")

	var created RoomInfoData
	alice.call(MessageTypeCreateRoom, CreateRoomData{Name: "dev", MaxPlayers: 2, DeveloperMode: true}, MessageTypeRoomInfo, &created)
	assert.True(t, created.Room.DeveloperMode)
	assert.Empty(t, srv.Rooms().List())
	bob.call(MessageTypeJoinRoom, RoomData{RoomID: created.Room.ID}, MessageTypeRoomInfo, nil)
	alice.call(MessageTypeStartGame, nil, MessageTypeOK, nil)
	alice.call(MessageTypePlayerReady, nil, MessageTypeOK, nil)
	bob.call(MessageTypePlayerReady, nil, MessageTypeOK, nil)

	var info GameInfo
	alice.call(MessageTypeGetGameInfo, nil, MessageTypeGameInfo, &info)
	require.Equal(t, "turn", info.Phase)

	var cards DeckCardsData
	alice.call(MessageTypeDevDeck, nil, MessageTypeDeckCards, &cards)
	require.Len(t, cards.Cards, info.DeckRemaining)

	alice.call(MessageTypeDevTakeCard, CardData{Card: cards.Cards[0]}, MessageTypeOK, nil)
	alice.call(MessageTypeGetGameInfo, nil, MessageTypeGameInfo, &info)
	assert.Contains(t, info.Hand, cards.Cards[0])
	alice.call(MessageTypeDevReturnCard, CardData{Card: cards.Cards[0]}, MessageTypeOK, nil)
	alice.call(MessageTypeGetGameInfo, nil, MessageTypeGameInfo, &info)
	assert.NotContains(t, info.Hand, cards.Cards[0])
	assert.Len(t, info.Hand, 9)

	hands, err := srv.Games().PlayerCards(created.Room.ID, aliceID)
	require.NoError(t, err)
	assert.Len(t, hands, 9)

	var burned DeckCardsData
	bob.call(MessageTypeDevBurnCards, BurnCardsData{Count: info.DeckRemaining - 1}, MessageTypeDeckCards, &burned)
	assert.Len(t, burned.Cards, info.DeckRemaining-1)
	alice.call(MessageTypeGetGameInfo, nil, MessageTypeGameInfo, &info)
	assert.Equal(t, 1, info.DeckRemaining)
}

func TestEndRoundNamesWinnerByUsername(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, func(g *GameSettings) { g.AllowDeveloperRooms = true })

	alice, err := srv.players.Connect("", "alice")
	require.NoError(t, err)
	bob, err := srv.players.Connect("", "bob")
	require.NoError(t, err)
	opts, err := srv.roomOptions(CreateRoomData{Name: "dev", MaxPlayers: 2, DeveloperMode: true})
	require.NoError(t, err)
	room, err := srv.rooms.CreateRoom(alice.ID, opts)
	require.NoError(t, err)
	require.NoError(t, srv.rooms.AddPlayer(bob.ID, room.ID))
	require.NoError(t, srv.games.StartGame(room.ID, alice.ID))
	for _, id := range []string{alice.ID, bob.ID} {
		require.NoError(t, srv.games.PlayerReady(room.ID, id))
	}

	info, err := srv.games.GameInfo(room.ID, alice.ID)
	require.NoError(t, err)
	cur := info.CurrentPlayer
	rigWinningHand(t, srv.games, room.ID, cur)
	card, err := srv.games.DrawFromDeck(room.ID, cur)
	require.NoError(t, err)
	require.NoError(t, srv.games.Discard(room.ID, cur, card))

	name := map[string]string{alice.ID: "alice", bob.ID: "bob"}[cur]
	data, err := srv.endRound(room.ID)
	require.NoError(t, err)
	assert.Equal(t, name, data.Winner)
	assert.Equal(t, name, data.Hands[cur].Username)
	assert.Equal(t, -game.WinPenalty, data.RoundPoints[cur])
}
