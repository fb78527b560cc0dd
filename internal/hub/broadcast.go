package hub

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/thornpw/steuer/internal/gamepad"
	"github.com/thornpw/steuer/internal/logger"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Notice is a lifecycle event of one device.
type Notice struct {
	Event string
	State gamepad.DeviceState
}

// Broadcaster listens for device state changes and broadcasts them to the
// clients watching the device.
type Broadcaster struct {
	hub     *Hub
	changes <-chan gamepad.DeviceState
	notices <-chan Notice
	log     *logger.Logger

	mu         sync.RWMutex
	lastStates map[int]gamepad.DeviceState
	seq        int64
}

func NewBroadcaster(h *Hub, changes <-chan gamepad.DeviceState, notices <-chan Notice) *Broadcaster {
	return &Broadcaster{
		hub:        h,
		changes:    changes,
		notices:    notices,
		log:        h.log,
		lastStates: make(map[int]gamepad.DeviceState),
	}
}

// Select implements DeviceSelector over the last seen states.
func (b *Broadcaster) Select(device int) (gamepad.DeviceState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.lastStates[device]
	return s, ok
}

// Run starts the broadcaster loop until ctx is done or changes is closed.
// Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	deltaCount := make(map[int]int)

	for {
		select {
		case <-ctx.Done():
			return

		case state, ok := <-b.changes:
			if !ok {
				return
			}

			b.mu.Lock()
			last, seen := b.lastStates[state.Index]
			b.lastStates[state.Index] = state
			b.seq++
			seq := b.seq
			b.mu.Unlock()

			if !seen {
				b.sendFull(seq, state)
				continue
			}
			delta := gamepad.ComputeDelta(last, state)
			if delta.IsEmpty() {
				continue
			}

			// Send full sync periodically
			deltaCount[state.Index]++
			if deltaCount[state.Index] >= deltaCountSync {
				b.sendFull(seq, state)
				deltaCount[state.Index] = 0
			} else {
				b.sendDelta(seq, delta)
			}

		case n, ok := <-b.notices:
			if !ok {
				b.notices = nil
				continue
			}
			b.mu.Lock()
			b.lastStates[n.State.Index] = n.State
			b.seq++
			seq := b.seq
			b.mu.Unlock()
			b.broadcast(NewEventMessage(seq, n.Event, &n.State), n.State.Index)

		case <-ticker.C:
			b.mu.Lock()
			states := make([]gamepad.DeviceState, 0, len(b.lastStates))
			for _, s := range b.lastStates {
				states = append(states, s)
			}
			b.seq++
			seq := b.seq
			b.mu.Unlock()
			for _, s := range states {
				b.sendFull(seq, s)
			}
		}
	}
}

// SendInitialState sends the full state of the watched device to a newly
// connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	state, ok := b.Select(c.Device())
	if !ok {
		return
	}
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	data, err := json.Marshal(NewFullMessage(seq, &state))
	if err != nil {
		b.log.Error().Err(err).Msg("marshal initial state")
		return
	}
	c.Send(data)
}

func (b *Broadcaster) sendFull(seq int64, state gamepad.DeviceState) {
	b.broadcast(NewFullMessage(seq, &state), state.Index)
}

func (b *Broadcaster) sendDelta(seq int64, delta *gamepad.DeltaChanges) {
	b.broadcast(NewDeltaMessage(seq, delta), delta.Index)
}

func (b *Broadcaster) broadcast(msg *WSMessage, device int) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error().Err(err).Str("type", msg.Type).Msg("marshal message")
		return
	}
	b.hub.BroadcastToDevice(data, device)
}

// States returns the last seen state of every device, ordered by index.
func (b *Broadcaster) States() []gamepad.DeviceState {
	b.mu.RLock()
	out := make([]gamepad.DeviceState, 0, len(b.lastStates))
	for _, s := range b.lastStates {
		out = append(out, s)
	}
	b.mu.RUnlock()
	slices.SortFunc(out, func(a, b gamepad.DeviceState) int { return a.Index - b.Index })
	return out
}
