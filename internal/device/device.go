// Package device keeps the runtime state of each connected controller.
package device

import (
	"errors"
	"fmt"

	"github.com/thornpw/steuer/internal/mapping"
)

// ErrBitsUnderflow is returned when a release would subtract a value that
// was never added.
var ErrBitsUnderflow = errors.New("device: bits underflow")

// Role is one of the two logical axes a hat is split into.
type Role uint8

const (
	Vertical Role = iota
	Horizontal
)

func (r Role) String() string {
	if r == Vertical {
		return "vertical"
	}
	return "horizontal"
}

type hatSlots [2]string

// Device is one connected controller.
type Device struct {
	Index   int
	Name    string // controller model name, the mapping store key
	Mapped  bool
	Mapping *mapping.Mapping

	bits     int
	lastAxis map[int]string
	lastHat  map[int]*hatSlots
}

func New(index int, name string) *Device {
	return &Device{
		Index:    index,
		Name:     name,
		lastAxis: make(map[int]string),
		lastHat:  make(map[int]*hatSlots),
	}
}

func (d *Device) String() string { return fmt.Sprintf("%d:%s", d.Index, d.Name) }

// SetMapping binds the learned mapping and marks the device mapped.
func (d *Device) SetMapping(m *mapping.Mapping) {
	d.Mapping = m
	d.Mapped = m != nil
}

// Bits is the sum of the values of every action currently held.
func (d *Device) Bits() int { return d.bits }

// ChangeBits adds or subtracts value and returns the new accumulator. The
// accumulator never goes negative: such a subtraction is refused.
func (d *Device) ChangeBits(value int, add bool) (int, error) {
	if add {
		d.bits += value
		return d.bits, nil
	}
	if d.bits-value < 0 {
		return d.bits, fmt.Errorf("%w: %d - %d", ErrBitsUnderflow, d.bits, value)
	}
	d.bits -= value
	return d.bits, nil
}

// LastAxisAction is the action remembered for axis, "" if none.
func (d *Device) LastAxisAction(axis int) string { return d.lastAxis[axis] }

func (d *Device) SetLastAxisAction(axis int, action string) {
	if action == "" {
		delete(d.lastAxis, axis)
		return
	}
	d.lastAxis[axis] = action
}

// LastHatAction is the action remembered for the given hat and role.
func (d *Device) LastHatAction(hat int, role Role) string {
	s, ok := d.lastHat[hat]
	if !ok {
		return ""
	}
	return s[role]
}

func (d *Device) SetLastHatAction(hat int, role Role, action string) {
	s, ok := d.lastHat[hat]
	if !ok {
		s = &hatSlots{}
		d.lastHat[hat] = s
	}
	s[role] = action
}

// Reset forgets every held action.
func (d *Device) Reset() {
	d.bits = 0
	d.lastAxis = make(map[int]string)
	d.lastHat = make(map[int]*hatSlots)
}

// List is the set of devices discovered at startup, addressed by index.
type List struct {
	devices []*Device
}

func NewList() *List { return &List{} }

// Add appends a device with the next free index.
func (l *List) Add(name string) *Device {
	d := New(len(l.devices), name)
	l.devices = append(l.devices, d)
	return d
}

// Get returns the device at index, ok is false for unknown indexes.
func (l *List) Get(index int) (*Device, bool) {
	if index < 0 || index >= len(l.devices) {
		return nil, false
	}
	return l.devices[index], true
}

func (l *List) All() []*Device { return l.devices }

func (l *List) Len() int { return len(l.devices) }
