package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/lantern/internal/deck"
	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/gameid"
	"github.com/lox/lantern/internal/lobby"
	"github.com/lox/lantern/internal/notify"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBufferSize         = 256
	notificationBufferSize = 64
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
	ErrNotConnected     = fmt.Errorf("%w: send connect first", errs.ErrInvalidState)
	ErrNoRoom           = fmt.Errorf("%w: player is not in a room", errs.ErrInvalidState)
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	server *Server
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	playerID   string
	instanceID string
	closeOnce  sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(server.ctx)

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, sendBufferSize),
		server: server,
		logger: server.logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A client that cannot keep
// up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "player_id", c.Player())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Player returns the associated player ID
func (c *Connection) Player() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Instance returns the connection instance ID issued at connect.
func (c *Connection) Instance() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instanceID
}

func (c *Connection) setIdentity(playerID, instanceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.instanceID = instanceID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// forward relays hub notifications for this connection until the
// subscription closes.
func (c *Connection) forward(sub *notify.Subscription) {
	for n := range sub.C {
		msg, err := NewMessage(MessageTypeEvent, EventData{
			Event:  n.Event.String(),
			GameID: n.GameID,
			At:     n.At,
		})
		if err != nil {
			c.logger.Error("Failed to create event message", "error", err)
			continue
		}
		if err := c.SendMessage(msg); err != nil {
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player_id", c.Player())

	if msg.Type == MessageTypeConnect {
		var data ConnectData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse connect data")
			return
		}
		c.handleConnect(msg, data)
		return
	}

	playerID := c.Player()
	if playerID == "" {
		c.replyErr(msg, ErrNotConnected)
		return
	}

	srv := c.server
	switch msg.Type {
	case MessageTypeListRooms:
		c.reply(msg, MessageTypeRoomList, RoomListData{Rooms: srv.rooms.List()})

	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse create room data")
			return
		}
		opts, err := srv.roomOptions(data)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		room, err := srv.rooms.CreateRoom(playerID, opts)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeRoomInfo, RoomInfoData{Room: room})

	case MessageTypeJoinRoom:
		var data RoomData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse room data")
			return
		}
		roomID := gameid.Normalize(data.RoomID)
		if err := gameid.Validate(roomID); err != nil {
			c.replyErr(msg, fmt.Errorf("%w: %w", errs.ErrValidation, err))
			return
		}
		if err := srv.rooms.AddPlayer(playerID, roomID); err != nil {
			c.replyErr(msg, err)
			return
		}
		c.replyRoom(msg, roomID)

	case MessageTypeGetRoom:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.replyRoom(msg, roomID)

	case MessageTypeLeaveRoom:
		c.withRoom(msg, func(roomID string) error {
			return srv.rooms.RemovePlayer(playerID, roomID, false)
		})

	case MessageTypeStartGame:
		c.withRoom(msg, func(roomID string) error {
			return srv.games.StartGame(roomID, playerID)
		})

	case MessageTypePlayerReady:
		c.withRoom(msg, func(gameID string) error {
			return srv.games.PlayerReady(gameID, playerID)
		})

	case MessageTypeDrawDeck, MessageTypeDrawDiscard:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		var card deck.Card
		if msg.Type == MessageTypeDrawDeck {
			card, err = srv.games.DrawFromDeck(roomID, playerID)
		} else {
			card, err = srv.games.DrawFromDiscard(roomID, playerID)
		}
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeCardDrawn, CardData{Card: card.ID()})

	case MessageTypeDiscard, MessageTypeLightUp:
		var data CardData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse card data")
			return
		}
		c.withRoom(msg, func(gameID string) error {
			card, err := deck.CardFromID(data.Card)
			if err != nil {
				return err
			}
			if msg.Type == MessageTypeLightUp {
				return srv.games.LightUp(gameID, playerID, card)
			}
			return srv.games.Discard(gameID, playerID, card)
		})

	case MessageTypeRearrange:
		var data RearrangeData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse rearrange data")
			return
		}
		c.withRoom(msg, func(gameID string) error {
			cards, err := deck.CardsFromIDs(data.Cards)
			if err != nil {
				return err
			}
			return srv.games.RearrangeHand(gameID, playerID, cards)
		})

	case MessageTypeRoundReady:
		c.withRoom(msg, func(gameID string) error {
			return srv.games.RoundOverPlayerReady(gameID, playerID)
		})

	case MessageTypeReplay:
		c.withRoom(msg, func(gameID string) error {
			return srv.games.GameOverPlayerReplay(gameID, playerID)
		})

	case MessageTypeLeaveGame:
		c.withRoom(msg, func(gameID string) error {
			return srv.games.LeaveGame(gameID, playerID)
		})

	case MessageTypeDropGame:
		c.withRoom(msg, func(gameID string) error {
			return srv.games.DropGame(gameID, playerID)
		})

	case MessageTypeGetGameInfo:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		info, err := srv.games.GameInfo(roomID, playerID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeGameInfo, info)

	case MessageTypeGetEndRound:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		data, err := srv.endRound(roomID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeEndRound, data)

	case MessageTypeGetReadyCount:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		ready, total, err := srv.games.ReadyCount(roomID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeReadyCount, ReadyCountData{Ready: ready, Total: total})

	case MessageTypeGetAllowedMoves:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		moves, err := srv.games.AllowedMoves(roomID, playerID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeAllowedMoves, AllowedMovesData{Allowed: moves})

	case MessageTypeChat:
		var data ChatData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse chat data")
			return
		}
		c.withRoom(msg, func(roomID string) error {
			_, err := srv.rooms.AddChat(roomID, playerID, data.Message)
			return err
		})

	case MessageTypeGetChat:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		chat, err := srv.rooms.ChatList(roomID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeChatList, ChatListData{Messages: chat})

	case MessageTypeInvite:
		var data InviteData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse invite data")
			return
		}
		c.withRoom(msg, func(roomID string) error {
			return srv.rooms.Invite(roomID, playerID, data.PlayerID)
		})

	case MessageTypeRemoveInvite:
		var data RoomData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse room data")
			return
		}
		if err := srv.rooms.RemoveInvite(playerID, gameid.Normalize(data.RoomID)); err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeOK, nil)

	case MessageTypeGetInvites:
		c.reply(msg, MessageTypeInviteList, InviteListData{Invites: srv.rooms.Invites(playerID)})

	case MessageTypeDevDeck:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		cards, err := srv.games.DeckCards(roomID, playerID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeDeckCards, DeckCardsData{Cards: deck.IDs(cards)})

	case MessageTypeDevTakeCard, MessageTypeDevReturnCard:
		var data CardData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse card data")
			return
		}
		c.withRoom(msg, func(gameID string) error {
			card, err := deck.CardFromID(data.Card)
			if err != nil {
				return err
			}
			if msg.Type == MessageTypeDevTakeCard {
				return srv.games.TakeFromDeck(gameID, playerID, card)
			}
			return srv.games.ReturnToDeck(gameID, playerID, card)
		})

	case MessageTypeDevGiveJoker:
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		joker, err := srv.games.GiveJoker(roomID, playerID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeCardDrawn, CardData{Card: joker.ID()})

	case MessageTypeDevBurnCards:
		var data BurnCardsData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse burn data")
			return
		}
		roomID, err := c.roomID()
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		burned, err := srv.games.BurnFromDeck(roomID, playerID, data.Count)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeDeckCards, DeckCardsData{Cards: deck.IDs(burned)})

	case MessageTypeGetStats:
		stats, err := srv.playerStats(c.ctx, playerID)
		if err != nil {
			c.replyErr(msg, err)
			return
		}
		c.reply(msg, MessageTypeStats, StatsData{PlayerID: playerID, Stats: stats})

	default:
		c.sendError(msg, "unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleConnect(msg *Message, data ConnectData) {
	srv := c.server
	if c.Player() != "" {
		c.replyErr(msg, fmt.Errorf("%w: already connected", errs.ErrDuplicate))
		return
	}

	p, err := srv.players.Connect(data.PlayerID, data.Username)
	if err != nil {
		c.replyErr(msg, err)
		return
	}
	c.setIdentity(p.ID, p.InstanceID)

	sub := srv.hub.Subscribe(p.InstanceID, notificationBufferSize)
	go c.forward(sub)
	srv.rooms.Reattach(p.ID)

	c.logger.Info("Player connected", "player_id", p.ID, "username", p.Username, "room_id", p.RoomID)
	c.reply(msg, MessageTypeConnected, ConnectedData{
		PlayerID:   p.ID,
		InstanceID: p.InstanceID,
		Username:   p.Username,
		RoomID:     p.RoomID,
	})
}

// roomID returns the room the connected player sits in. A room that is
// in game shares its id with the game.
func (c *Connection) roomID() (string, error) {
	p, err := c.server.players.Player(c.Player())
	if err != nil {
		return "", err
	}
	if p.RoomID == "" {
		return "", ErrNoRoom
	}
	return p.RoomID, nil
}

func (c *Connection) withRoom(msg *Message, fn func(roomID string) error) {
	roomID, err := c.roomID()
	if err == nil {
		err = fn(roomID)
	}
	if err != nil {
		c.replyErr(msg, err)
		return
	}
	c.reply(msg, MessageTypeOK, nil)
}

func (c *Connection) replyRoom(msg *Message, roomID string) {
	room, err := c.server.rooms.Room(roomID)
	if err != nil {
		c.replyErr(msg, err)
		return
	}
	c.reply(msg, MessageTypeRoomInfo, RoomInfoData{Room: room})
}

func (c *Connection) reply(req *Message, typ MessageType, data any) {
	msg, err := NewMessage(typ, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", typ, "error", err)
		return
	}
	msg.RequestID = req.RequestID
	_ = c.SendMessage(msg)
}

// replyErr reports err to the client under its error kind.
func (c *Connection) replyErr(req *Message, err error) {
	code := errs.Code(err)
	if code == "internal" {
		c.logger.Error("Request failed", "type", req.Type, "player_id", c.Player(), "error", err)
	}
	c.sendError(req, code, err.Error())
}

// sendError sends an error message to the client
func (c *Connection) sendError(req *Message, code, message string) {
	c.server.metrics.Rejected.WithLabelValues(code).Inc()
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}

// disconnect releases the player's connection. A player waiting in a room
// gives up their seat; a player in a running game keeps it so they can
// reconnect, and the turn timer plays for them meanwhile.
func (c *Connection) disconnect() {
	instanceID := c.Instance()
	if instanceID == "" {
		return
	}
	srv := c.server
	srv.hub.Unsubscribe(instanceID)

	p, ok := srv.players.Disconnect(instanceID)
	if !ok {
		return
	}
	c.logger.Info("Player disconnected", "player_id", p.ID)
	if p.RoomID == "" {
		return
	}
	room, err := srv.rooms.Room(p.RoomID)
	if err != nil || room.InGame {
		return
	}
	if err := srv.rooms.RemovePlayer(p.ID, p.RoomID, false); err != nil && !errors.Is(err, lobby.ErrNotInRoom) {
		c.logger.Warn("Failed to release seat", "player_id", p.ID, "room_id", p.RoomID, "error", err)
	}
}
