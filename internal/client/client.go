// Package client is a WebSocket client for the Lantern server.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/lobby"
	"github.com/lox/lantern/internal/server"
)

// RequestTimeout bounds how long a request waits for its reply.
const RequestTimeout = 10 * time.Second

// Error is a request rejected by the server.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client represents a WebSocket client for the game
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.Mutex
	seq      int
	pending  map[string]chan *server.Message
	playerID string

	// Events receives pushed notifications.
	Events chan server.EventData
}

// New creates a client for serverURL. http and https URLs are accepted and
// rewritten to their WebSocket schemes.
func New(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		serverURL: serverURL,
		send:      make(chan *server.Message, 64),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[string]chan *server.Message),
		Events:    make(chan server.EventData, 64),
	}
}

// Dial establishes the WebSocket connection.
func (c *Client) Dial(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	c.logger.Debug("Connecting to server", "url", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// PlayerID returns the id issued at connect.
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Request sends a message and waits for the reply carrying its request
// id. An error reply is returned as *Error.
func (c *Client) Request(ctx context.Context, typ server.MessageType, data any) (*server.Message, error) {
	msg, err := server.NewMessage(typ, data)
	if err != nil {
		return nil, err
	}

	reply := make(chan *server.Message, 1)
	c.mu.Lock()
	c.seq++
	msg.RequestID = strconv.Itoa(c.seq)
	c.pending[msg.RequestID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}()

	select {
	case c.send <- msg:
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	select {
	case resp := <-reply:
		if resp.Type == server.MessageTypeError {
			var e server.ErrorData
			if err := resp.Decode(&e); err != nil {
				return nil, err
			}
			return nil, &Error{Code: e.Code, Message: e.Message}
		}
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for reply to %s: %w", typ, ctx.Err())
	case <-c.ctx.Done():
		return nil, fmt.Errorf("connection closed")
	}
}

func (c *Client) call(ctx context.Context, typ server.MessageType, data, out any) error {
	resp, err := c.Request(ctx, typ, data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Connect identifies the player. playerID may be empty for a new player.
func (c *Client) Connect(ctx context.Context, username, playerID string) (server.ConnectedData, error) {
	var data server.ConnectedData
	err := c.call(ctx, server.MessageTypeConnect, server.ConnectData{Username: username, PlayerID: playerID}, &data)
	if err == nil {
		c.mu.Lock()
		c.playerID = data.PlayerID
		c.mu.Unlock()
	}
	return data, err
}

func (c *Client) ListRooms(ctx context.Context) ([]lobby.Room, error) {
	var data server.RoomListData
	err := c.call(ctx, server.MessageTypeListRooms, nil, &data)
	return data.Rooms, err
}

func (c *Client) CreateRoom(ctx context.Context, opts server.CreateRoomData) (server.RoomInfoData, error) {
	var data server.RoomInfoData
	err := c.call(ctx, server.MessageTypeCreateRoom, opts, &data)
	return data, err
}

func (c *Client) JoinRoom(ctx context.Context, roomID string) (server.RoomInfoData, error) {
	var data server.RoomInfoData
	err := c.call(ctx, server.MessageTypeJoinRoom, server.RoomData{RoomID: roomID}, &data)
	return data, err
}

func (c *Client) Room(ctx context.Context) (server.RoomInfoData, error) {
	var data server.RoomInfoData
	err := c.call(ctx, server.MessageTypeGetRoom, nil, &data)
	return data, err
}

func (c *Client) GameInfo(ctx context.Context) (server.GameInfo, error) {
	var info server.GameInfo
	err := c.call(ctx, server.MessageTypeGetGameInfo, nil, &info)
	return info, err
}

func (c *Client) EndRound(ctx context.Context) (server.EndRoundData, error) {
	var data server.EndRoundData
	err := c.call(ctx, server.MessageTypeGetEndRound, nil, &data)
	return data, err
}

func (c *Client) Stats(ctx context.Context) (server.StatsData, error) {
	var data server.StatsData
	err := c.call(ctx, server.MessageTypeGetStats, nil, &data)
	return data, err
}

// Say posts message to the room chat.
func (c *Client) Say(ctx context.Context, message string) error {
	return c.call(ctx, server.MessageTypeChat, server.ChatData{Message: message}, nil)
}

func (c *Client) Chat(ctx context.Context) ([]lobby.ChatMessage, error) {
	var data server.ChatListData
	err := c.call(ctx, server.MessageTypeGetChat, nil, &data)
	return data.Messages, err
}

func (c *Client) Invite(ctx context.Context, playerID string) error {
	return c.call(ctx, server.MessageTypeInvite, server.InviteData{PlayerID: playerID}, nil)
}

func (c *Client) Invites(ctx context.Context) ([]lobby.Invite, error) {
	var data server.InviteListData
	err := c.call(ctx, server.MessageTypeGetInvites, nil, &data)
	return data.Invites, err
}

// DeclineInvite drops the invite to roomID.
func (c *Client) DeclineInvite(ctx context.Context, roomID string) error {
	return c.call(ctx, server.MessageTypeRemoveInvite, server.RoomData{RoomID: roomID}, nil)
}

// Draw takes a card from the deck, or from the discard pile when
// fromDiscard is set.
func (c *Client) Draw(ctx context.Context, fromDiscard bool) (deck.Card, error) {
	typ := server.MessageTypeDrawDeck
	if fromDiscard {
		typ = server.MessageTypeDrawDiscard
	}
	var data server.CardData
	if err := c.call(ctx, typ, nil, &data); err != nil {
		return deck.Card{}, err
	}
	return deck.CardFromID(data.Card)
}

func (c *Client) Discard(ctx context.Context, card deck.Card) error {
	return c.call(ctx, server.MessageTypeDiscard, server.CardData{Card: card.ID()}, nil)
}

func (c *Client) LightUp(ctx context.Context, card deck.Card) error {
	return c.call(ctx, server.MessageTypeLightUp, server.CardData{Card: card.ID()}, nil)
}

func (c *Client) Rearrange(ctx context.Context, cards []deck.Card) error {
	return c.call(ctx, server.MessageTypeRearrange, server.RearrangeData{Cards: deck.IDs(cards)}, nil)
}

// Simple sends a request that carries no payload and expects only an
// acknowledgment, such as start_game or player_ready.
func (c *Client) Simple(ctx context.Context, typ server.MessageType) error {
	return c.call(ctx, typ, nil, nil)
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() { _ = c.Close() }()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		if msg.Type == server.MessageTypeEvent {
			var ev server.EventData
			if err := msg.Decode(&ev); err != nil {
				c.logger.Warn("Bad event", "error", err)
				continue
			}
			select {
			case c.Events <- ev:
			default:
				c.logger.Debug("Event dropped", "event", ev.Event)
			}
			continue
		}

		c.mu.Lock()
		reply, ok := c.pending[msg.RequestID]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("Unsolicited message", "type", msg.Type)
			continue
		}
		reply <- &msg
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
