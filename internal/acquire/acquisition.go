// Package acquire learns the mapping of an unknown controller model by
// asking for every registered action in turn.
package acquire

import (
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/mapping"
)

// DelayIterations is the number of settle iterations after a binding.
const DelayIterations = 5

// Status is the acquisition state of one action on one device.
//
//	Unconfigured        --trigger-->      WaitingForRelease
//	WaitingForRelease   --release-->      TestingForDuplicate
//	TestingForDuplicate --key bound-->    Unconfigured
//	TestingForDuplicate --key free-->     Delayed
//	Delayed             --counter 0-->    Configured
type Status uint8

const (
	Unconfigured Status = iota
	WaitingForRelease
	TestingForDuplicate
	Delayed
	Configured
)

func (s Status) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case WaitingForRelease:
		return "waiting-for-release"
	case TestingForDuplicate:
		return "testing-for-duplicate"
	case Delayed:
		return "delayed"
	case Configured:
		return "configured"
	}
	return "unknown"
}

// Acquisition binds one action of one device.
type Acquisition struct {
	Action *action.Action
	Device *device.Device

	status  Status
	trigger event.Event
	table   mapping.Table
	key     string
	delay   int
}

func New(a *action.Action, d *device.Device) *Acquisition {
	return &Acquisition{Action: a, Device: d, status: Unconfigured, delay: DelayIterations}
}

func (a *Acquisition) Status() Status { return a.status }

// Key is the raw input key derived from the trigger once it was released.
func (a *Acquisition) Key() (mapping.Table, string) { return a.table, a.key }

// Feed consumes a raw event while waiting for a trigger or its release. It
// reports whether the event moved the acquisition on. Events of other
// devices and events in any other state are ignored.
func (a *Acquisition) Feed(ev event.Event) bool {
	if ev.Device != a.Device.Index {
		return false
	}
	switch a.status {
	case Unconfigured:
		if !isTrigger(ev) {
			return false
		}
		a.trigger = ev
		a.status = WaitingForRelease
		return true
	case WaitingForRelease:
		table, key, ok := releaseKey(a.trigger, ev)
		if !ok {
			return false
		}
		a.table, a.key = table, key
		a.status = TestingForDuplicate
		return true
	}
	return false
}

// Test checks the derived key against the mapping in progress. A free key
// is bound to the action and the acquisition starts settling; a taken key
// sends it back to Unconfigured. It reports whether the key was bound.
func (a *Acquisition) Test(m *mapping.Mapping) bool {
	if a.status != TestingForDuplicate {
		return false
	}
	if err := m.Bind(a.table, a.key, a.Action.Name); err != nil {
		a.status = Unconfigured
		a.trigger = event.Event{}
		return false
	}
	a.status = Delayed
	a.delay = DelayIterations
	return true
}

// Settle advances the debounce counter by one iteration.
func (a *Acquisition) Settle() {
	if a.status != Delayed {
		return
	}
	a.delay--
	if a.delay <= 0 {
		a.status = Configured
	}
}

// isTrigger reports whether ev can start a binding: a pressed button, an
// axis pushed to its end or a hat pushed in exactly one direction.
func isTrigger(ev event.Event) bool {
	switch ev.Kind {
	case event.ButtonDown:
		return true
	case event.AxisMotion:
		_, ok := mapping.AxisSymbol(ev.Value)
		return ok
	case event.HatMotion:
		return (ev.X == 0) != (ev.Y == 0)
	}
	return false
}

// releaseKey matches ev against the release of trigger and derives the key
// the trigger is stored under.
func releaseKey(trigger, ev event.Event) (mapping.Table, string, bool) {
	switch {
	case trigger.Kind == event.ButtonDown && ev.Kind == event.ButtonUp:
		if ev.Button == trigger.Button {
			return mapping.ButtonTable, mapping.ButtonKey(trigger.Button), true
		}
	case trigger.Kind == event.AxisMotion && ev.Kind == event.AxisMotion:
		if ev.Axis == trigger.Axis && ev.Value != trigger.Value {
			key, _ := mapping.AxisKey(trigger.Axis, trigger.Value)
			return mapping.AxisTable, key, true
		}
	case trigger.Kind == event.HatMotion && ev.Kind == event.HatMotion:
		if ev.Hat == trigger.Hat && ev.Centered() {
			return mapping.HatTable, mapping.HatKey(trigger.Hat, trigger.X, trigger.Y), true
		}
	}
	return 0, "", false
}
