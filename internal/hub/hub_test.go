package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thornpw/steuer/internal/gamepad"
)

func receive(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return WSMessage{}
}

func nothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func start(t *testing.T) (*Hub, chan gamepad.DeviceState, chan Notice, *Broadcaster) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub(nil)
	go h.Run(ctx)
	changes := make(chan gamepad.DeviceState)
	notices := make(chan Notice)
	b := NewBroadcaster(h, changes, notices)
	go b.Run(ctx)
	return h, changes, notices, b
}

func TestBroadcastFullThenDelta(t *testing.T) {
	h, changes, _, _ := start(t)
	c := NewClient(h, nil)
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, time.Millisecond)

	state := gamepad.DeviceState{Index: 0, Name: "Pad", Mapped: true, Actions: []string{}}
	changes <- state
	msg := receive(t, c)
	assert.Equal(t, "full", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, "Pad", msg.Data.Name)

	state.Bits = 1
	state.Actions = []string{"DPAD_TOP"}
	changes <- state
	msg = receive(t, c)
	assert.Equal(t, "delta", msg.Type)
	require.NotNil(t, msg.Changes)
	require.NotNil(t, msg.Changes.Bits)
	assert.Equal(t, 1, *msg.Changes.Bits)
	assert.Nil(t, msg.Changes.Name)

	// unchanged state is not broadcast
	changes <- state
	nothing(t, c)
}

func TestBroadcastOnlyToWatchingClients(t *testing.T) {
	h, changes, notices, _ := start(t)
	c := NewClient(h, nil)
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, time.Millisecond)

	changes <- gamepad.DeviceState{Index: 1, Name: "Other"}
	nothing(t, c)

	notices <- Notice{Event: "controller_mapped", State: gamepad.DeviceState{Index: 0, Name: "Pad", Mapped: true}}
	msg := receive(t, c)
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, "controller_mapped", msg.Event)
}

func TestSelectDevice(t *testing.T) {
	h, changes, _, b := start(t)
	c := NewClient(h, nil)

	changes <- gamepad.DeviceState{Index: 1, Name: "Other"}
	require.Eventually(t, func() bool {
		_, ok := b.Select(1)
		return ok
	}, time.Second, time.Millisecond)

	c.handle([]byte(`{"type":"select_device","device":7}`), b)
	assert.Equal(t, 0, c.Device())

	c.handle([]byte(`{"type":"select_device","device":1}`), b)
	assert.Equal(t, 1, c.Device())
	assert.Equal(t, "device_selected", receive(t, c).Type)
	msg := receive(t, c)
	assert.Equal(t, "full", msg.Type)
	assert.Equal(t, "Other", msg.Data.Name)

	c.handle([]byte(`not json`), b)
	nothing(t, c)
}

func TestRegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	c := NewClient(h, nil)
	assert.False(t, h.Register(c))
	h.Unregister(c)
}

func TestClientIDsAreUnique(t *testing.T) {
	h := NewHub(nil)
	assert.NotEqual(t, NewClient(h, nil).ID(), NewClient(h, nil).ID())
}
