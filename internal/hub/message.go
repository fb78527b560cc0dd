package hub

import (
	"time"

	"github.com/thornpw/steuer/internal/gamepad"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string                `json:"type"`              // "full", "delta", "event", "device_selected"
	Seq       int64                 `json:"seq"`               // Sequence number for ordering
	Timestamp int64                 `json:"timestamp"`         // Unix timestamp in milliseconds
	Event     string                `json:"event,omitempty"`   // Event name for type "event"
	Data      *gamepad.DeviceState  `json:"data,omitempty"`    // Full device state for type "full" or "event"
	Changes   *gamepad.DeltaChanges `json:"changes,omitempty"` // Delta changes for type "delta"
	Device    int                   `json:"device"`
}

// NewFullMessage creates a "full" type message containing the complete device state.
func NewFullMessage(seq int64, state *gamepad.DeviceState) *WSMessage {
	return &WSMessage{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      state,
		Device:    state.Index,
	}
}

// NewDeltaMessage creates a "delta" type message containing only changed fields.
func NewDeltaMessage(seq int64, changes *gamepad.DeltaChanges) *WSMessage {
	return &WSMessage{
		Type:      "delta",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
		Device:    changes.Index,
	}
}

// NewEventMessage creates an "event" type message for lifecycle events such
// as a device getting its mapping.
func NewEventMessage(seq int64, event string, state *gamepad.DeviceState) *WSMessage {
	return &WSMessage{
		Type:      "event",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Event:     event,
		Data:      state,
		Device:    state.Index,
	}
}

// NewDeviceSelectedMessage confirms a select_device request.
func NewDeviceSelectedMessage(device int) *WSMessage {
	return &WSMessage{
		Type:      "device_selected",
		Timestamp: time.Now().UnixMilli(),
		Device:    device,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type   string `json:"type"`
	Device int    `json:"device"`
}
