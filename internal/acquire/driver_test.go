package acquire

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
)

type queue struct {
	events  []event.Event
	cleared int
}

func (q *queue) Push(evs ...event.Event) { q.events = append(q.events, evs...) }

func (q *queue) Poll() (event.Event, bool) {
	if len(q.events) == 0 {
		return event.Event{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

func (q *queue) Clear() {
	q.events = nil
	q.cleared++
}

func registry(t *testing.T, names ...string) *action.Registry {
	t.Helper()
	r := action.NewRegistry()
	for i, n := range names {
		_, err := r.Register(n, 1<<i, n, n, nil, nil)
		require.NoError(t, err)
	}
	return r
}

func press(dev, button int) []event.Event {
	return []event.Event{event.Down(dev, button), event.Up(dev, button)}
}

func TestConfigureBindsEveryAction(t *testing.T) {
	reg := registry(t, "DPAD_TOP", "DPAD_RIGHT", "BUTTON_TOP")
	store, err := mapping.NewStore("mem", nil, nil)
	require.NoError(t, err)

	q := &queue{}
	script := map[string][]event.Event{
		"DPAD_TOP":   {event.Hat(0, 0, 0, 1), event.Hat(0, 0, 0, 0)},
		"DPAD_RIGHT": {event.Axis(0, 0, 1), event.Axis(0, 0, 0)},
		"BUTTON_TOP": press(0, 2),
	}
	var requested, mapped []string
	var waits int
	hooks := Hooks{
		OnRequestAction: func(d *device.Device, a *action.Action) {
			requested = append(requested, a.Name)
			q.Push(script[a.Name]...)
		},
		OnEventMapped: func(d *device.Device, a *action.Action) { mapped = append(mapped, a.Name) },
		OnWait:        func(*device.Device) { waits++ },
	}

	dev := device.New(0, "Pad")
	dr := NewDriver(reg, store, q, WithHooks(hooks), WithIdle(0), WithSettle(0))
	require.NoError(t, dr.Configure(context.Background(), dev))

	assert.Equal(t, []string{"DPAD_TOP", "DPAD_RIGHT", "BUTTON_TOP"}, requested)
	assert.Equal(t, requested, mapped)
	assert.Equal(t, 3*DelayIterations, waits)
	assert.Equal(t, 3*DelayIterations, q.cleared)

	assert.True(t, dev.Mapped)
	stored, ok := store.Lookup("Pad")
	require.True(t, ok)
	assert.Same(t, dev.Mapping, stored)

	for _, a := range reg.Actions() {
		keys := stored.Keys(a.Name)
		n := 0
		for _, k := range keys {
			n += len(k)
		}
		assert.Equal(t, 1, n, a.Name)
	}
	assert.Equal(t, map[mapping.Table][]string{mapping.HatTable: {"0:0:1"}}, stored.Keys("DPAD_TOP"))
	assert.Equal(t, map[mapping.Table][]string{mapping.AxisTable: {"0:>"}}, stored.Keys("DPAD_RIGHT"))
	assert.Equal(t, map[mapping.Table][]string{mapping.ButtonTable: {"2"}}, stored.Keys("BUTTON_TOP"))
}

func TestConfigureRetriesDuplicate(t *testing.T) {
	reg := registry(t, "A", "B")
	store, err := mapping.NewStore("mem", nil, nil)
	require.NoError(t, err)

	q := &queue{}
	var duplicates []string
	hooks := Hooks{
		OnRequestAction: func(d *device.Device, a *action.Action) {
			// both actions try button 1 first
			q.Push(press(0, 1)...)
		},
		OnEventAlreadyMapped: func(d *device.Device, a *action.Action) {
			duplicates = append(duplicates, a.Name)
			q.Push(press(0, 5)...)
		},
	}

	var logs bytes.Buffer
	dev := device.New(0, "Pad")
	dr := NewDriver(reg, store, q, WithHooks(hooks), WithIdle(0), WithSettle(0), WithLogger(logger.NewWriter(&logs)))
	require.NoError(t, dr.Configure(context.Background(), dev))

	assert.Equal(t, []string{"B"}, duplicates)
	assert.Contains(t, logs.String(), `"level":"warn","device":"0:Pad","action":"B","table":"button","key":"1","message":"event already mapped"`)
	got, _ := dev.Mapping.Lookup(mapping.ButtonTable, "1")
	assert.Equal(t, "A", got)
	got, _ = dev.Mapping.Lookup(mapping.ButtonTable, "5")
	assert.Equal(t, "B", got)
}

func TestConfigureIgnoresOtherDevices(t *testing.T) {
	reg := registry(t, "A")
	store, err := mapping.NewStore("mem", nil, nil)
	require.NoError(t, err)

	q := &queue{}
	q.Push(event.Down(1, 0), event.Up(1, 0))
	q.Push(press(0, 3)...)

	dev := device.New(0, "Pad")
	dr := NewDriver(reg, store, q, WithIdle(0), WithSettle(0))
	require.NoError(t, dr.Configure(context.Background(), dev))

	assert.False(t, dev.Mapping.Has(mapping.ButtonTable, "0"))
	assert.True(t, dev.Mapping.Has(mapping.ButtonTable, "3"))
}

func TestConfigureAllShortCircuitsKnownModel(t *testing.T) {
	reg := registry(t, "A")
	store, err := mapping.NewStore("mem", nil, nil)
	require.NoError(t, err)

	q := &queue{}
	var inits int
	hooks := Hooks{
		OnConfigurationInit: func(*device.Device) { inits++ },
		OnRequestAction:     func(d *device.Device, a *action.Action) { q.Push(press(d.Index, 0)...) },
	}

	devs := device.NewList()
	first := devs.Add("Same Pad")
	second := devs.Add("Same Pad")
	third := devs.Add("Other Pad")

	dr := NewDriver(reg, store, q, WithHooks(hooks), WithIdle(0), WithSettle(0))
	require.NoError(t, dr.ConfigureAll(context.Background(), devs.All()))

	assert.Equal(t, 2, inits)
	assert.True(t, first.Mapped)
	assert.True(t, second.Mapped)
	assert.True(t, third.Mapped)
	assert.Same(t, first.Mapping, second.Mapping)
	assert.Equal(t, []string{"Other Pad", "Same Pad"}, store.Models())
}

func TestConfigureCancelled(t *testing.T) {
	reg := registry(t, "A")
	store, err := mapping.NewStore("mem", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	dev := device.New(0, "Pad")
	dr := NewDriver(reg, store, &queue{}, WithIdle(time.Millisecond))
	err = dr.Configure(ctx, dev)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, dev.Mapped)
	assert.Empty(t, store.Models())
}

type brokenPersister struct{}

func (brokenPersister) Load() (map[string]*mapping.Mapping, bool, error) { return nil, false, nil }
func (brokenPersister) Save(map[string]*mapping.Mapping) error {
	return errors.New("read-only filesystem")
}

func TestConfigurePersistFailure(t *testing.T) {
	reg := registry(t, "A")
	store, err := mapping.NewStore("ro", brokenPersister{}, nil)
	require.NoError(t, err)

	q := &queue{}
	q.Push(press(0, 0)...)
	dev := device.New(0, "Pad")
	dr := NewDriver(reg, store, q, WithIdle(0), WithSettle(0))

	err = dr.Configure(context.Background(), dev)
	require.Error(t, err)
	assert.True(t, dev.Mapped)
	_, ok := store.Lookup("Pad")
	assert.True(t, ok)
}
