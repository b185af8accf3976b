// Package notify fans typed events out to connected players.
//
// Players are addressed by connection instance id and grouped by room.
// Delivery is at most once: a subscriber whose buffer is full misses the
// event instead of stalling the sender.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Notifier is what the game engine needs to reach players.
type Notifier interface {
	NotifyRoom(gameID string, ev Event)
	NotifyPlayer(instanceID string, ev Event)
	NotifyRoomExcept(gameID, exceptInstanceID string, ev Event)
}

// Notification is a delivered event.
type Notification struct {
	Event  Event     `json:"event"`
	GameID string    `json:"game_id,omitempty"`
	At     time.Time `json:"at"`
}

// Subscription receives notifications for one connection instance.
type Subscription struct {
	C <-chan Notification

	ch         chan Notification
	instanceID string
}

// Hub routes notifications to subscriptions by instance and by group.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	groups  map[string]map[string]struct{}
	logger  *log.Logger
	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]*Subscription),
		groups: make(map[string]map[string]struct{}),
		logger: logger.WithPrefix("notify"),
	}
}

// Subscribe registers instanceID, replacing and closing any previous
// subscription for it.
func (h *Hub) Subscribe(instanceID string, buffer int) *Subscription {
	ch := make(chan Notification, buffer)
	sub := &Subscription{C: ch, ch: ch, instanceID: instanceID}

	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.subs[instanceID]; ok {
		close(old.ch)
	}
	h.subs[instanceID] = sub
	return sub
}

// Unsubscribe closes instanceID's channel and removes it from every group.
func (h *Hub) Unsubscribe(instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[instanceID]; ok {
		close(sub.ch)
		delete(h.subs, instanceID)
	}
	for name, members := range h.groups {
		delete(members, instanceID)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
}

// Join adds instanceID to group.
func (h *Hub) Join(group, instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[instanceID] = struct{}{}
}

// Leave removes instanceID from group.
func (h *Hub) Leave(group, instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, instanceID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// DropGroup forgets group entirely.
func (h *Hub) DropGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, group)
}

// Members returns the instance ids in group.
func (h *Hub) Members(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	return out
}

// NotifyRoom sends ev to every member of the game's group.
func (h *Hub) NotifyRoom(gameID string, ev Event) {
	h.NotifyRoomExcept(gameID, "", ev)
}

// NotifyRoomExcept sends ev to every member of the game's group but one.
func (h *Hub) NotifyRoomExcept(gameID, exceptInstanceID string, ev Event) {
	n := Notification{Event: ev, GameID: gameID, At: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.groups[gameID] {
		if id == exceptInstanceID {
			continue
		}
		if sub, ok := h.subs[id]; ok {
			h.deliver(sub, n)
		}
	}
}

// NotifyPlayer sends ev to one connection instance.
func (h *Hub) NotifyPlayer(instanceID string, ev Event) {
	n := Notification{Event: ev, At: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if sub, ok := h.subs[instanceID]; ok {
		h.deliver(sub, n)
	}
}

// Broadcast sends ev to every subscription.
func (h *Hub) Broadcast(ev Event) {
	n := Notification{Event: ev, At: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		h.deliver(sub, n)
	}
}

// Dropped returns how many notifications were lost to full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(sub *Subscription, n Notification) {
	select {
	case sub.ch <- n:
	default:
		h.dropped.Add(1)
		h.logger.Warn("Subscriber buffer full, dropping event", "instance", sub.instanceID, "event", n.Event)
	}
}
