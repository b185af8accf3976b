package lobby

import (
	"fmt"
	"sort"

	"github.com/lox/lantern/internal/errs"
	"github.com/lox/lantern/internal/notify"
)

var (
	ErrInviteOnly     = fmt.Errorf("%w: room is invite only", errs.ErrInvalidState)
	ErrAlreadyInvited = fmt.Errorf("%w: player already invited", errs.ErrDuplicate)
	ErrNotInvited     = fmt.Errorf("%w: invite", errs.ErrNotFound)
	ErrPlayerOffline  = fmt.Errorf("%w: player is offline", errs.ErrInvalidState)
)

// Invite is a pending invitation to a room.
type Invite struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	FromID   string `json:"from_id"`
}

// Invite lets inviteeID join roomID, private or not. The inviter must be
// seated in the room and the invitee online.
func (d *Rooms) Invite(roomID, inviterID, inviteeID string) error {
	invitee, err := d.players.Player(inviteeID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	r, ok := d.rooms[roomID]
	switch {
	case !ok:
		d.mu.Unlock()
		return fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	case !r.Has(inviterID):
		d.mu.Unlock()
		return ErrNotInRoom
	case r.InGame:
		d.mu.Unlock()
		return ErrRoomInGame
	case r.Has(inviteeID):
		d.mu.Unlock()
		return ErrAlreadyInRoom
	case r.Invited[inviteeID] != "":
		d.mu.Unlock()
		return ErrAlreadyInvited
	case !invitee.Online():
		d.mu.Unlock()
		return ErrPlayerOffline
	}
	if r.Invited == nil {
		r.Invited = make(map[string]string)
	}
	r.Invited[inviteeID] = inviterID
	d.mu.Unlock()

	d.logger.Debug("Player invited", "room_id", roomID, "from", inviterID, "player", invitee.Username)
	d.hub.NotifyPlayer(invitee.InstanceID, notify.EventRoomInvite)
	d.hub.NotifyRoom(roomID, notify.EventRefreshRoom)
	return nil
}

// RemoveInvite withdraws or declines playerID's invite to roomID.
func (d *Rooms) RemoveInvite(playerID, roomID string) error {
	d.mu.Lock()
	r, ok := d.rooms[roomID]
	switch {
	case !ok:
		d.mu.Unlock()
		return fmt.Errorf("%w %s", ErrRoomNotFound, roomID)
	case r.Invited[playerID] == "":
		d.mu.Unlock()
		return ErrNotInvited
	}
	delete(r.Invited, playerID)
	d.mu.Unlock()

	d.hub.NotifyRoom(roomID, notify.EventRefreshRoom)
	return nil
}

// Invites returns playerID's pending invites by room id.
func (d *Rooms) Invites(playerID string) []Invite {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Invite
	for _, r := range d.rooms {
		if from := r.Invited[playerID]; from != "" {
			out = append(out, Invite{RoomID: r.ID, RoomName: r.Name, FromID: from})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}
