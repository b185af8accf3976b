// Package lobby tracks connected players and the rooms they gather in
// before and during a game.
package lobby

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/game"
	"github.com/lox/lantern/internal/gameid"
	"github.com/lox/lantern/internal/notify"
)

var (
	ErrRoomNotFound   = fmt.Errorf("%w: room", errs.ErrNotFound)
	ErrRoomFull       = fmt.Errorf("%w: room is full", errs.ErrCapacity)
	ErrRoomInGame     = fmt.Errorf("%w: room is in game", errs.ErrInvalidState)
	ErrRoomNotFull    = fmt.Errorf("%w: room is not full", errs.ErrInvalidState)
	ErrNotRoomOwner   = fmt.Errorf("%w: only the owner can do that", errs.ErrInvalidState)
	ErrAlreadyInRoom  = fmt.Errorf("%w: player already in a room", errs.ErrDuplicate)
	ErrNotInRoom      = fmt.Errorf("%w: player not in room", errs.ErrNotFound)
	ErrInvalidOptions = fmt.Errorf("%w: room options", errs.ErrValidation)
)

// Hub is the part of the notification hub rooms use.
type Hub interface {
	notify.Notifier
	Join(group, instanceID string)
	Leave(group, instanceID string)
	DropGroup(group string)
	Broadcast(ev notify.Event)
}

// RoomOptions are chosen by the owner when creating a room.
type RoomOptions struct {
	Name           string `json:"name"`
	MaxPlayers     int    `json:"max_players"`
	MaxPoints      int    `json:"max_points"`
	SecondsPerTurn int    `json:"seconds_per_turn"`

	// Private rooms are unlisted and need an invite unless JoinUninvited
	// is set.
	Private       bool `json:"private"`
	JoinUninvited bool `json:"join_uninvited,omitempty"`
	// DeveloperMode unlists the room and enables the deck tools in its
	// game.
	DeveloperMode bool `json:"developer_mode,omitempty"`
}

// Validate checks the options against the game's limits.
func (o RoomOptions) Validate() error {
	switch {
	case strings.TrimSpace(o.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidOptions)
	case o.MaxPlayers < game.MinPlayers || o.MaxPlayers > game.MaxPlayers:
		return fmt.Errorf("%w: max players must be %d-%d", ErrInvalidOptions, game.MinPlayers, game.MaxPlayers)
	case o.MaxPoints <= 0:
		return fmt.Errorf("%w: max points must be positive", ErrInvalidOptions)
	case o.SecondsPerTurn < 0:
		return fmt.Errorf("%w: seconds per turn cannot be negative", ErrInvalidOptions)
	}
	return nil
}

// Room is a snapshot of a room.
type Room struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"owner_id"`
	InGame  bool     `json:"in_game"`
	Players []string `json:"players"`
	// Invited maps invited player ids to whoever invited them.
	Invited map[string]string `json:"invited,omitempty"`
	RoomOptions

	chat []ChatMessage
}

// Full reports whether every seat is taken.
func (r Room) Full() bool {
	return len(r.Players) >= r.MaxPlayers
}

// Has reports whether playerID sits in the room.
func (r Room) Has(playerID string) bool {
	return slices.Contains(r.Players, playerID)
}

func (r *Room) snapshot() Room {
	out := *r
	out.Players = slices.Clone(r.Players)
	out.Invited = maps.Clone(r.Invited)
	out.chat = nil
	return out
}

// Rooms is the room directory.
type Rooms struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	players *Players
	hub     Hub
	ids     *gameid.Generator
	logger  *log.Logger
	now     func() time.Time
}

// NewRooms creates an empty directory. ids may be nil to use crypto/rand.
func NewRooms(players *Players, hub Hub, ids *gameid.Generator, logger *log.Logger) *Rooms {
	if ids == nil {
		ids = gameid.NewGenerator(nil)
	}
	return &Rooms{
		rooms:   make(map[string]*Room),
		players: players,
		hub:     hub,
		ids:     ids,
		logger:  logger.WithPrefix("lobby"),
		now:     time.Now,
	}
}

// CreateRoom opens a room owned by ownerID and seats the owner.
func (d *Rooms) CreateRoom(ownerID string, opts RoomOptions) (Room, error) {
	if err := opts.Validate(); err != nil {
		return Room{}, err
	}
	owner, err := d.players.Player(ownerID)
	if err != nil {
		return Room{}, err
	}
	if owner.RoomID != "" {
		return Room{}, fmt.Errorf("%w: %s", ErrAlreadyInRoom, owner.RoomID)
	}

	d.mu.Lock()
	id := d.ids.Generate()
	for d.rooms[id] != nil {
		id = d.ids.Generate()
	}
	r := &Room{ID: id, OwnerID: ownerID, Players: []string{ownerID}, RoomOptions: opts}
	d.rooms[id] = r
	snap := r.snapshot()
	d.mu.Unlock()

	d.players.setRoom(ownerID, id)
	if owner.Online() {
		d.hub.Join(id, owner.InstanceID)
	}
	d.logger.Info("Room created", "room_id", id, "owner", owner.Username, "max_players", opts.MaxPlayers)
	d.hub.Broadcast(notify.EventRefreshRooms)
	return snap, nil
}

// Room returns a snapshot of roomID.
func (d *Rooms) Room(roomID string) (Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[roomID]
	if !ok {
		return Room{}, fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	}
	return r.snapshot(), nil
}

// List returns public rooms that have not started, by name. Developer
// rooms are never listed.
func (d *Rooms) List() []Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		if r.Private || r.InGame || r.DeveloperMode {
			continue
		}
		out = append(out, r.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AddPlayer seats playerID in roomID.
func (d *Rooms) AddPlayer(playerID, roomID string) error {
	p, err := d.players.Player(playerID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	r, ok := d.rooms[roomID]
	switch {
	case !ok:
		d.mu.Unlock()
		return fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	case r.Has(playerID) || p.RoomID != "":
		d.mu.Unlock()
		return ErrAlreadyInRoom
	case r.InGame:
		d.mu.Unlock()
		return ErrRoomInGame
	case r.Full():
		d.mu.Unlock()
		return ErrRoomFull
	case r.Private && !r.JoinUninvited && r.Invited[playerID] == "":
		d.mu.Unlock()
		return ErrInviteOnly
	}
	r.Players = append(r.Players, playerID)
	delete(r.Invited, playerID)
	d.mu.Unlock()

	d.players.setRoom(playerID, roomID)
	if p.Online() {
		d.hub.Join(roomID, p.InstanceID)
	}
	d.logger.Debug("Player joined room", "room_id", roomID, "player", p.Username)
	d.hub.NotifyRoom(roomID, notify.EventRefreshRoom)
	d.hub.Broadcast(notify.EventRefreshRooms)
	return nil
}

// RemovePlayer takes playerID out of roomID. The room is deleted when it
// empties, or when the owner leaves and deleteIfOwnerLeft is set;
// otherwise ownership passes to the next player.
func (d *Rooms) RemovePlayer(playerID, roomID string, deleteIfOwnerLeft bool) error {
	d.mu.Lock()
	r, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	}
	i := slices.Index(r.Players, playerID)
	if i < 0 {
		d.mu.Unlock()
		return ErrNotInRoom
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	wasOwner := r.OwnerID == playerID
	remove := len(r.Players) == 0 || (wasOwner && deleteIfOwnerLeft)
	if wasOwner && !remove {
		r.OwnerID = r.Players[0]
	}
	d.mu.Unlock()

	d.players.setRoom(playerID, "")
	if p, err := d.players.Player(playerID); err == nil && p.Online() {
		d.hub.Leave(roomID, p.InstanceID)
	}

	if remove {
		return d.DeleteRoom(roomID)
	}
	d.hub.NotifyRoom(roomID, notify.EventRefreshRoom)
	d.hub.Broadcast(notify.EventRefreshRooms)
	return nil
}

// DeleteRoom tears roomID down, unseating everyone still in it.
func (d *Rooms) DeleteRoom(roomID string) error {
	d.mu.Lock()
	r, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	}
	delete(d.rooms, roomID)
	seated := slices.Clone(r.Players)
	d.mu.Unlock()

	d.hub.NotifyRoom(roomID, notify.EventRoomDeleted)
	for _, id := range seated {
		d.players.setRoom(id, "")
	}
	d.hub.DropGroup(roomID)
	d.logger.Info("Room deleted", "room_id", roomID)
	d.hub.Broadcast(notify.EventRefreshRooms)
	return nil
}

// StartGame marks a full room as in game. Only the owner may start.
func (d *Rooms) StartGame(roomID, byPlayerID string) (Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[roomID]
	switch {
	case !ok:
		return Room{}, fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	case r.OwnerID != byPlayerID:
		return Room{}, ErrNotRoomOwner
	case r.InGame:
		return Room{}, ErrRoomInGame
	case !r.Full():
		return Room{}, fmt.Errorf("%w: %d of %d seats taken", ErrRoomNotFull, len(r.Players), r.MaxPlayers)
	}
	r.InGame = true
	return r.snapshot(), nil
}

// CancelGame reopens a room whose game could not be created.
func (d *Rooms) CancelGame(roomID string) error {
	d.mu.Lock()
	r, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	}
	r.InGame = false
	d.mu.Unlock()

	d.logger.Warn("Game start cancelled", "room_id", roomID)
	d.hub.NotifyRoom(roomID, notify.EventRefreshRoom)
	d.hub.Broadcast(notify.EventRefreshRooms)
	return nil
}

// Reattach puts a reconnected player's new connection back in their room's
// notification group.
func (d *Rooms) Reattach(playerID string) {
	p, err := d.players.Player(playerID)
	if err != nil || p.RoomID == "" || !p.Online() {
		return
	}
	d.hub.Join(p.RoomID, p.InstanceID)
}

// Len returns the number of open rooms.
func (d *Rooms) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
