package lobby

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/notify"
)

const (
	// MaxChatLength bounds a single chat message in characters.
	MaxChatLength = 256
	// MaxChatHistory is how many messages a room keeps.
	MaxChatHistory = 100
)

var (
	ErrEmptyChat   = fmt.Errorf("%w: chat message is empty", errs.ErrValidation)
	ErrChatTooLong = fmt.Errorf("%w: chat message is longer than %d characters", errs.ErrValidation, MaxChatLength)
)

// ChatMessage is one line of room chat.
type ChatMessage struct {
	RoomID     string    `json:"room_id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// AddChat posts message to roomID on behalf of playerID, who must be
// seated there. Everyone else in the room is told there is new chat.
func (d *Rooms) AddChat(roomID, playerID, message string) (ChatMessage, error) {
	message = strings.TrimSpace(message)
	switch {
	case message == "":
		return ChatMessage{}, ErrEmptyChat
	case utf8.RuneCountInString(message) > MaxChatLength:
		return ChatMessage{}, ErrChatTooLong
	}
	p, err := d.players.Player(playerID)
	if err != nil {
		return ChatMessage{}, err
	}

	d.mu.Lock()
	r, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return ChatMessage{}, fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	}
	if !r.Has(playerID) {
		d.mu.Unlock()
		return ChatMessage{}, ErrNotInRoom
	}
	msg := ChatMessage{
		RoomID:     roomID,
		PlayerID:   p.ID,
		PlayerName: p.Username,
		Message:    message,
		Timestamp:  d.now().UTC(),
	}
	r.chat = append(r.chat, msg)
	if over := len(r.chat) - MaxChatHistory; over > 0 {
		r.chat = slices.Delete(r.chat, 0, over)
	}
	d.mu.Unlock()

	d.hub.NotifyRoomExcept(roomID, p.InstanceID, notify.EventNewChat)
	return msg, nil
}

// ChatList returns roomID's chat, oldest first.
func (d *Rooms) ChatList(roomID string) ([]ChatMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	}
	return slices.Clone(r.chat), nil
}
