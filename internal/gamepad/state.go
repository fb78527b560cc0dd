// Package gamepad normalises raw joystick values and builds the device
// state shown by the viewer. It does not depend on SDL.
package gamepad

import (
	"slices"

	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
)

// DeviceState is the viewer snapshot of one device.
type DeviceState struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Mapped    bool     `json:"mapped"`
	Bits      int      `json:"bits"`
	Actions   []string `json:"actions"`
	Direction string   `json:"direction"`
}

// Snapshot builds the state of d. Direction is empty when the directional
// bits match no registered direction.
func Snapshot(d *device.Device, r *action.Registry) DeviceState {
	s := DeviceState{
		Index:   d.Index,
		Name:    d.Name,
		Mapped:  d.Mapped,
		Bits:    d.Bits(),
		Actions: r.Active(d.Bits()),
	}
	if s.Actions == nil {
		s.Actions = []string{}
	}
	if dir, ok := r.Direction(action.DirectionBits(d.Bits())); ok {
		s.Direction = dir.Name
	}
	return s
}

type DeltaChanges struct {
	Index     int       `json:"index"`
	Name      *string   `json:"name,omitempty"`
	Mapped    *bool     `json:"mapped,omitempty"`
	Bits      *int      `json:"bits,omitempty"`
	Actions   *[]string `json:"actions,omitempty"`
	Direction *string   `json:"direction,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Name == nil &&
		d.Mapped == nil &&
		d.Bits == nil &&
		d.Actions == nil &&
		d.Direction == nil
}

// ComputeDelta returns the fields of new_ that differ from old. Index always
// carries the index of new_.
func ComputeDelta(old, new_ DeviceState) *DeltaChanges {
	d := &DeltaChanges{Index: new_.Index}

	if old.Name != new_.Name {
		d.Name = &new_.Name
	}
	if old.Mapped != new_.Mapped {
		d.Mapped = &new_.Mapped
	}
	if old.Bits != new_.Bits {
		d.Bits = &new_.Bits
	}
	if !slices.Equal(old.Actions, new_.Actions) {
		d.Actions = &new_.Actions
	}
	if old.Direction != new_.Direction {
		d.Direction = &new_.Direction
	}

	return d
}
