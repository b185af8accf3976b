package notify

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(log.New(io.Discard))
}

func drain(sub *Subscription) []Event {
	var out []Event
	for {
		select {
		case n, ok := <-sub.C:
			if !ok {
				return out
			}
			out = append(out, n.Event)
		default:
			return out
		}
	}
}

func TestNotifyRoomReachesMembersOnly(t *testing.T) {
	h := newTestHub()
	a := h.Subscribe("a", 8)
	b := h.Subscribe("b", 8)
	outsider := h.Subscribe("c", 8)
	h.Join("room1", "a")
	h.Join("room1", "b")

	h.NotifyRoom("room1", EventGameStarting)
	h.NotifyRoomExcept("room1", "a", EventNextPlayerTurn)
	h.NotifyPlayer("a", EventMyTurn)

	assert.Equal(t, []Event{EventGameStarting, EventMyTurn}, drain(a))
	assert.Equal(t, []Event{EventGameStarting, EventNextPlayerTurn}, drain(b))
	assert.Empty(t, drain(outsider))
}

func TestNotificationCarriesGameID(t *testing.T) {
	h := newTestHub()
	a := h.Subscribe("a", 1)
	h.Join("room1", "a")

	h.NotifyRoom("room1", EventRoundOver)
	n := <-a.C
	assert.Equal(t, "room1", n.GameID)
	assert.Equal(t, EventRoundOver, n.Event)
	assert.False(t, n.At.IsZero())
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := newTestHub()
	a := h.Subscribe("a", 1)

	h.NotifyPlayer("a", EventMyTurn)
	h.NotifyPlayer("a", EventUpdateGameInfo)

	assert.Equal(t, []Event{EventMyTurn}, drain(a))
	assert.Equal(t, uint64(1), h.Dropped())
}

func TestUnsubscribeClosesAndLeavesGroups(t *testing.T) {
	h := newTestHub()
	a := h.Subscribe("a", 1)
	h.Join("room1", "a")

	h.Unsubscribe("a")
	_, ok := <-a.C
	assert.False(t, ok)
	assert.Empty(t, h.Members("room1"))

	// unknown ids are ignored
	h.NotifyPlayer("a", EventMyTurn)
	h.Unsubscribe("a")
}

func TestResubscribeReplacesOldChannel(t *testing.T) {
	h := newTestHub()
	old := h.Subscribe("a", 1)
	fresh := h.Subscribe("a", 1)

	_, ok := <-old.C
	assert.False(t, ok)

	h.Broadcast(EventRefreshRooms)
	assert.Equal(t, []Event{EventRefreshRooms}, drain(fresh))
}

func TestLeaveAndDropGroup(t *testing.T) {
	h := newTestHub()
	h.Subscribe("a", 1)
	h.Subscribe("b", 1)
	h.Join("room1", "a")
	h.Join("room1", "b")

	h.Leave("room1", "a")
	assert.Equal(t, []string{"b"}, h.Members("room1"))

	h.DropGroup("room1")
	assert.Empty(t, h.Members("room1"))
}

func TestEventNames(t *testing.T) {
	for ev, name := range eventNames {
		got, ok := ParseEvent(name)
		require.True(t, ok, name)
		assert.Equal(t, ev, got)
	}
	assert.Equal(t, "unknown", Event(0).String())
	_, ok := ParseEvent("nope")
	assert.False(t, ok)
}
