package server

import (
	"encoding/json"
	"time"

	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/lobby"
	"github.com/lox/lantern/internal/statistics"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{Type: messageType, Timestamp: time.Now()}
	if data == nil {
		return msg, nil
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg.Data = dataBytes
	return msg, nil
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Client → Server Messages

type ConnectData struct {
	Username string `json:"username"`
	// PlayerID reclaims an identity after a reconnect.
	PlayerID string `json:"player_id,omitempty"`
}

type CreateRoomData struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
	MaxPoints  int    `json:"max_points,omitempty"`
	// SecondsPerTurn is nil for the server default; zero disables the
	// turn timer.
	SecondsPerTurn *int `json:"seconds_per_turn,omitempty"`
	Private        bool `json:"private,omitempty"`
	JoinUninvited  bool `json:"join_uninvited,omitempty"`
	DeveloperMode  bool `json:"developer_mode,omitempty"`
}

type RoomData struct {
	RoomID string `json:"room_id"`
}

type CardData struct {
	Card int `json:"card"`
}

type RearrangeData struct {
	Cards []int `json:"cards"`
}

type ChatData struct {
	Message string `json:"message"`
}

type InviteData struct {
	PlayerID string `json:"player_id"`
}

// Server → Client Messages

type ConnectedData struct {
	PlayerID   string `json:"player_id"`
	InstanceID string `json:"instance_id"`
	Username   string `json:"username"`
	RoomID     string `json:"room_id,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EventData struct {
	Event  string    `json:"event"`
	GameID string    `json:"game_id,omitempty"`
	At     time.Time `json:"at"`
}

type RoomListData struct {
	Rooms []lobby.Room `json:"rooms"`
}

type RoomInfoData struct {
	Room lobby.Room `json:"room"`
}

type EndRoundData struct {
	Hands       map[string]RevealedHand `json:"hands"`
	RoundPoints map[string]int          `json:"round_points"`
	Winner      string                  `json:"winner,omitempty"`
}

type StatsData struct {
	PlayerID string                 `json:"player_id"`
	Stats    statistics.PlayerStats `json:"stats"`
}

type ReadyCountData struct {
	Ready int `json:"ready"`
	Total int `json:"total"`
}

type AllowedMovesData struct {
	Allowed game.AllowedMoves `json:"allowed"`
}

type ChatListData struct {
	Messages []lobby.ChatMessage `json:"messages"`
}

type InviteListData struct {
	Invites []lobby.Invite `json:"invites"`
}

type BurnCardsData struct {
	Count int `json:"count"`
}

type DeckCardsData struct {
	Cards []int `json:"cards"`
}
