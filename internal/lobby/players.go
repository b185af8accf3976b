package lobby

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lox/lantern/internal/errs"
)

// MaxUsernameLength bounds display names.
const MaxUsernameLength = 32

var (
	ErrPlayerNotFound  = fmt.Errorf("%w: player", errs.ErrNotFound)
	ErrInvalidUsername = fmt.Errorf("%w: username must be 1-%d characters", errs.ErrValidation, MaxUsernameLength)
)

// Player is a connected user. ID is durable across connections;
// InstanceID names the current connection and changes on reconnect.
type Player struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	InstanceID  string    `json:"instance_id"`
	RoomID      string    `json:"room_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Online reports whether the player has a live connection.
func (p Player) Online() bool {
	return p.InstanceID != ""
}

// Players is the player directory.
type Players struct {
	mu         sync.RWMutex
	byID       map[string]*Player
	byInstance map[string]string
	now        func() time.Time
}

// NewPlayers creates an empty directory.
func NewPlayers() *Players {
	return &Players{
		byID:       make(map[string]*Player),
		byInstance: make(map[string]string),
		now:        time.Now,
	}
}

// Connect registers a new connection for id, issuing a fresh instance id.
// An empty id is replaced with a generated one. A previous connection for
// the same player is superseded; room membership survives.
func (d *Players) Connect(id, username string) (Player, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > MaxUsernameLength {
		return Player{}, ErrInvalidUsername
	}
	if id == "" {
		id = uuid.NewString()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		p = &Player{ID: id}
		d.byID[id] = p
	}
	if p.InstanceID != "" {
		delete(d.byInstance, p.InstanceID)
	}
	p.Username = username
	p.InstanceID = uuid.NewString()
	p.ConnectedAt = d.now()
	d.byInstance[p.InstanceID] = id
	return *p, nil
}

// Disconnect ends the connection instanceID. It returns false when the
// instance was already superseded.
func (d *Players) Disconnect(instanceID string) (Player, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byInstance[instanceID]
	if !ok {
		return Player{}, false
	}
	delete(d.byInstance, instanceID)
	p := d.byID[id]
	p.InstanceID = ""
	return *p, true
}

// Player looks a player up by durable id.
func (d *Players) Player(id string) (Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[id]
	if !ok {
		return Player{}, fmt.Errorf("%w %s", ErrPlayerNotFound, id)
	}
	return *p, nil
}

// ByInstance looks a player up by connection instance id.
func (d *Players) ByInstance(instanceID string) (Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byInstance[instanceID]
	if !ok {
		return Player{}, fmt.Errorf("%w: instance %s", ErrPlayerNotFound, instanceID)
	}
	return *d.byID[id], nil
}

// Online returns the number of live connections.
func (d *Players) Online() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byInstance)
}

func (d *Players) setRoom(id, roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.byID[id]; ok {
		p.RoomID = roomID
	}
}
