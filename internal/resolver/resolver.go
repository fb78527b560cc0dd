// Package resolver turns raw controller events into action edges using the
// mapping learned for each device.
package resolver

import (
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
)

// Mode selects which callbacks Resolve fires. The bit accumulator is
// updated the same way in every mode.
type Mode uint8

const (
	// Directions fires action callbacks and direction heading callbacks.
	Directions Mode = iota
	// Actions fires action callbacks only, for consumers polling the bits.
	Actions
	// Quiet fires nothing. Button and hat releases report "", an axis
	// returning to the center reports the action it released.
	Quiet
)

func (m Mode) String() string {
	switch m {
	case Directions:
		return "directions"
	case Actions:
		return "actions"
	case Quiet:
		return "quiet"
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	for _, m := range []Mode{Directions, Actions, Quiet} {
		if m.String() == s {
			return m, true
		}
	}
	return Directions, false
}

type Resolver struct {
	registry *action.Registry
	devices  *device.List
	mode     Mode
	log      *logger.Logger
}

func New(registry *action.Registry, devices *device.List, mode Mode, log *logger.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		devices:  devices,
		mode:     mode,
		log:      logger.OrNop(log),
	}
}

func (r *Resolver) Mode() Mode { return r.mode }

// Resolve applies one raw event and returns the action it resolved to, or
// "" when the event is not mapped. Events of unknown devices or devices
// without a mapping are ignored.
func (r *Resolver) Resolve(ev event.Event) string {
	d, ok := r.devices.Get(ev.Device)
	if !ok || d.Mapping == nil {
		return ""
	}

	before := action.DirectionBits(d.Bits())
	var name string
	switch ev.Kind {
	case event.ButtonDown:
		name = r.buttonDown(d, ev)
	case event.ButtonUp:
		name = r.buttonUp(d, ev)
	case event.AxisMotion:
		name = r.axis(d, ev)
	case event.HatMotion:
		name = r.hat(d, ev)
	}
	if r.mode == Directions {
		r.heading(d, before, action.DirectionBits(d.Bits()))
	}
	return name
}

func (r *Resolver) buttonDown(d *device.Device, ev event.Event) string {
	name, ok := d.Mapping.Lookup(mapping.ButtonTable, mapping.ButtonKey(ev.Button))
	if !ok || !r.press(d, name) {
		return ""
	}
	return name
}

func (r *Resolver) buttonUp(d *device.Device, ev event.Event) string {
	name, ok := d.Mapping.Lookup(mapping.ButtonTable, mapping.ButtonKey(ev.Button))
	if !ok || !r.release(d, name) {
		return ""
	}
	return r.released(name)
}

// axis presses on a threshold cross and releases the remembered action
// when the axis returns towards the center.
func (r *Resolver) axis(d *device.Device, ev event.Event) string {
	last := d.LastAxisAction(ev.Axis)
	key, pushed := mapping.AxisKey(ev.Axis, ev.Value)
	if !pushed {
		if last == "" {
			return ""
		}
		d.SetLastAxisAction(ev.Axis, "")
		if !r.release(d, last) {
			return ""
		}
		// centering reports the released action in every mode
		return last
	}

	name, ok := d.Mapping.Lookup(mapping.AxisTable, key)
	if ok && name == last {
		return ""
	}
	var out string
	if last != "" {
		// flipped from one side to the other without passing the center
		d.SetLastAxisAction(ev.Axis, "")
		if r.release(d, last) {
			out = r.released(last)
		}
	}
	if ok && r.press(d, name) {
		d.SetLastAxisAction(ev.Axis, name)
		out = name
	}
	return out
}

// hat splits the event into a vertical and a horizontal digital axis. All
// releases are applied before any press.
func (r *Resolver) hat(d *device.Device, ev event.Event) string {
	var next [2]string
	if ev.Y != 0 {
		next[device.Vertical], _ = d.Mapping.Lookup(mapping.HatTable, mapping.HatKey(ev.Hat, 0, ev.Y))
	}
	if ev.X != 0 {
		next[device.Horizontal], _ = d.Mapping.Lookup(mapping.HatTable, mapping.HatKey(ev.Hat, ev.X, 0))
	}

	roles := [2]device.Role{device.Vertical, device.Horizontal}
	var last [2]string
	for _, role := range roles {
		last[role] = d.LastHatAction(ev.Hat, role)
	}

	var out string
	for _, role := range roles {
		if last[role] == "" || last[role] == next[role] {
			continue
		}
		d.SetLastHatAction(ev.Hat, role, "")
		if r.release(d, last[role]) {
			out = r.released(last[role])
		}
	}
	for _, role := range roles {
		if next[role] == "" || next[role] == last[role] {
			continue
		}
		if r.press(d, next[role]) {
			d.SetLastHatAction(ev.Hat, role, next[role])
			out = next[role]
		}
	}
	return out
}

func (r *Resolver) press(d *device.Device, name string) bool {
	a, ok := r.registry.Action(name)
	if !ok {
		r.log.Debug().Str("device", d.String()).Str("action", name).Msg("mapped action is not registered")
		return false
	}
	_, _ = d.ChangeBits(a.Value, true)
	if r.mode != Quiet {
		a.Pressed(d)
	}
	return true
}

func (r *Resolver) release(d *device.Device, name string) bool {
	a, ok := r.registry.Action(name)
	if !ok {
		return false
	}
	if _, err := d.ChangeBits(a.Value, false); err != nil {
		r.log.Debug().Err(err).Str("device", d.String()).Str("action", name).Msg("release without press dropped")
		return false
	}
	if r.mode != Quiet {
		a.Released(d)
	}
	return true
}

// released is the value reported for a button or hat release edge.
func (r *Resolver) released(name string) string {
	if r.mode == Quiet {
		return ""
	}
	return name
}

func (r *Resolver) heading(d *device.Device, before, after int) {
	if before == after {
		return
	}
	if before != 0 {
		if dir, ok := r.registry.Direction(before); ok {
			dir.Unheading(d)
		}
	}
	if after != 0 {
		if dir, ok := r.registry.Direction(after); ok {
			dir.Heading(d)
		}
	}
}
