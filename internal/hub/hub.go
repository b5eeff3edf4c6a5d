// Package hub fans JSON snapshots out to WebSocket subscribers grouped by
// named channel.
package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
)

// Conn is the slice of *websocket.Conn the hub needs. Kept narrow so tests
// can subscribe fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

// Hub is a registry of named channels, each holding a set of live
// connections. A channel is created on first Join and empties naturally when
// everyone leaves. All access goes through the internal mutex; the subscriber
// sets are never handed out.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[Conn]struct{}
	log      *logger.Logger
}

func New(log *logger.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[Conn]struct{}),
		log:      log,
	}
}

// Join registers the connection in the named channel. Joining twice is a
// no-op (set semantics).
func (h *Hub) Join(channel string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[Conn]struct{})
		h.channels[channel] = set
	}
	set[c] = struct{}{}
	h.log.LogHub("JOIN", channel, fmt.Sprintf("%d subscriber(s)", len(set)))
}

// JoinWithSnapshot registers the connection and writes the snapshot frame to
// it in one step under the hub lock, so no broadcast can slip between the
// initial picture and membership. A failed write leaves the connection
// unregistered and returns the error.
func (h *Hub) JoinWithSnapshot(channel string, c Conn, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", channel, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[Conn]struct{})
		h.channels[channel] = set
	}
	set[c] = struct{}{}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		delete(set, c)
		return err
	}
	h.log.LogHub("JOIN", channel, fmt.Sprintf("%d subscriber(s)", len(set)))
	return nil
}

// Leave removes the connection from the channel if present.
func (h *Hub) Leave(channel string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(set, c)
	h.log.LogHub("LEAVE", channel, fmt.Sprintf("%d subscriber(s)", len(set)))
}

// Send serializes payload once and delivers it to every subscriber of the
// channel. A connection whose write fails is dropped from the set instead of
// retried; the broadcast continues with the rest. Sending to an empty or
// unknown channel is a cheap no-op.
func (h *Hub) Send(channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("HUB", fmt.Sprintf("Failed to marshal payload for channel %s: %v", channel, err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.channels[channel]
	if len(set) == 0 {
		return
	}

	dropped := 0
	for c := range set {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(set, c)
			dropped++
		}
	}
	if dropped > 0 {
		h.log.LogHub("SEND", channel, fmt.Sprintf("dropped %d dead connection(s), %d remain", dropped, len(set)))
	}
}

// Count reports the current subscriber count of a channel.
func (h *Hub) Count(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}
