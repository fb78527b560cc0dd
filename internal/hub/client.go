package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thornpw/steuer/internal/gamepad"
	"github.com/thornpw/steuer/internal/logger"
)

// DeviceSelector resolves the device a client asked to watch.
type DeviceSelector interface {
	// Select returns the current state of device, ok is false for unknown
	// devices.
	Select(device int) (state gamepad.DeviceState, ok bool)
}

// Client represents a connected WebSocket client.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	device atomic.Int64 // index of the device this client is watching
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Client attached to the hub, watching device 0.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	c.log = hub.log.Extend(hub.log.With().Str("client", c.id))
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) Device() int { return int(c.device.Load()) }

func (c *Client) SetDevice(index int) { c.device.Store(int64(index)) }

// Send queues msg without blocking. It reports false when the buffer is
// full or the client was closed.
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close ends WritePump. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client commands.
func (c *Client) ReadPumpWithHandler(selector DeviceSelector) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handle(message, selector)
	}
}

func (c *Client) handle(message []byte, selector DeviceSelector) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.log.Warn().Err(err).Msg("invalid client message")
		return
	}

	switch msg.Type {
	case "select_device":
		state, ok := selector.Select(msg.Device)
		if !ok {
			c.log.Warn().Int("device", msg.Device).Msg("select_device: unknown device")
			return
		}
		c.SetDevice(msg.Device)
		if data, err := json.Marshal(NewDeviceSelectedMessage(msg.Device)); err == nil {
			c.Send(data)
		}
		if data, err := json.Marshal(NewFullMessage(0, &state)); err == nil {
			c.Send(data)
		}
		c.log.Info().Int("device", msg.Device).Msg("client switched device")
	default:
		c.log.Debug().Str("type", msg.Type).Msg("unknown client message")
	}
}
