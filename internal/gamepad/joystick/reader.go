// Package joystick reads raw input from SDL3 joysticks. Importing it loads
// the SDL3 shared library.
package joystick

import (
	"context"
	"fmt"

	"github.com/jupiterrider/purego-sdl3/sdl"
	"github.com/pkg/errors"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/gamepad"
	"github.com/thornpw/steuer/internal/logger"
)

const pollDelayNS = 16_000_000 // ~60Hz

// Info describes a joystick known to the reader.
type Info struct {
	Index     int
	Name      string
	Family    string
	VendorID  uint16
	ProductID uint16
	Connected bool
}

type joystickInfo struct {
	joystick *sdl.Joystick
	info     Info
}

// Reader reads raw joystick events through the SDL3 Joystick API. Device
// indexes are assigned in the order joysticks are first seen and are never
// reused. All methods must be called from the thread that called Open.
type Reader struct {
	log       *logger.Logger
	joysticks map[sdl.JoystickID]*joystickInfo
	order     []sdl.JoystickID
	open      bool
}

func NewReader(log *logger.Logger) *Reader {
	return &Reader{
		log:       logger.OrNop(log),
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
	}
}

// Open initializes the SDL joystick subsystem and opens every joystick
// connected right now. The caller must have locked its OS thread.
func (r *Reader) Open() error {
	if !sdl.Init(sdl.InitJoystick) {
		return errors.Errorf("SDL init failed: %s", sdl.GetError())
	}
	r.open = true
	r.log.Info().Msg("SDL3 joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}
	return nil
}

// Close releases every joystick and shuts SDL down.
func (r *Reader) Close() {
	if !r.open {
		return
	}
	for _, js := range r.joysticks {
		if js.joystick != nil {
			sdl.CloseJoystick(js.joystick)
			js.joystick = nil
		}
	}
	sdl.Quit()
	r.open = false
}

// Devices returns the joysticks seen so far, ordered by index.
func (r *Reader) Devices() []Info {
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.joysticks[id].info)
	}
	return out
}

// Names returns the model names of the joysticks seen so far, ordered by
// index.
func (r *Reader) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.joysticks[id].info.Name)
	}
	return out
}

// Poll returns the next raw input event. Hotplug events are handled
// internally and never returned.
func (r *Reader) Poll() (event.Event, bool) {
	var e sdl.Event
	for sdl.PollEvent(&e) {
		if ev, ok := r.translate(&e); ok {
			return ev, true
		}
	}
	return event.Event{}, false
}

// Clear drops every queued input event.
func (r *Reader) Clear() {
	var e sdl.Event
	for sdl.PollEvent(&e) {
		r.translate(&e)
	}
}

// Run delivers every raw input event to handle until ctx is done.
func (r *Reader) Run(ctx context.Context, handle func(event.Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for {
			ev, ok := r.Poll()
			if !ok {
				break
			}
			handle(ev)
		}
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) translate(e *sdl.Event) (event.Event, bool) {
	switch e.Type() {
	case sdl.EventJoystickAdded:
		r.openJoystick(e.JDevice().Which)

	case sdl.EventJoystickRemoved:
		r.removeJoystick(e.JDevice().Which)

	case sdl.EventJoystickButtonDown:
		be := e.JButton()
		if idx, ok := r.index(be.Which); ok {
			return event.Down(idx, int(be.Button)), true
		}

	case sdl.EventJoystickButtonUp:
		be := e.JButton()
		if idx, ok := r.index(be.Which); ok {
			return event.Up(idx, int(be.Button)), true
		}

	case sdl.EventJoystickAxisMotion:
		ae := e.JAxis()
		if idx, ok := r.index(ae.Which); ok {
			return event.Axis(idx, int(ae.Axis), gamepad.NormalizeAxis(ae.Value)), true
		}

	case sdl.EventJoystickHatMotion:
		he := e.JHat()
		if idx, ok := r.index(he.Which); ok {
			x, y := gamepad.HatVector(he.Value)
			return event.Hat(idx, int(he.Hat), x, y), true
		}
	}
	return event.Event{}, false
}

func (r *Reader) index(id sdl.JoystickID) (int, bool) {
	js, ok := r.joysticks[id]
	if !ok || !js.info.Connected {
		return 0, false
	}
	return js.info.Index, true
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if js, ok := r.joysticks[instanceID]; ok && js.info.Connected {
		return
	}

	joystick := sdl.OpenJoystick(instanceID)
	if joystick == nil {
		r.log.Warn().Uint32("id", uint32(instanceID)).Str("err", sdl.GetError()).Msg("failed to open joystick")
		return
	}

	id := sdl.GetJoystickID(joystick)
	vendorID := sdl.GetJoystickVendor(joystick)
	productID := sdl.GetJoystickProduct(joystick)
	info := Info{
		Index:     len(r.order),
		Name:      sdl.GetJoystickName(joystick),
		Family:    gamepad.Family(vendorID, productID),
		VendorID:  vendorID,
		ProductID: productID,
		Connected: true,
	}
	r.joysticks[id] = &joystickInfo{joystick: joystick, info: info}
	r.order = append(r.order, id)

	r.log.Info().
		Int("index", info.Index).
		Str("name", info.Name).
		Str("family", info.Family).
		Str("vid", hex4(vendorID)).
		Str("pid", hex4(productID)).
		Msg("joystick connected")
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	js, ok := r.joysticks[instanceID]
	if !ok || !js.info.Connected {
		return
	}
	r.log.Info().Int("index", js.info.Index).Str("name", js.info.Name).Msg("joystick disconnected")
	sdl.CloseJoystick(js.joystick)
	js.joystick = nil
	js.info.Connected = false
}

func hex4(v uint16) string { return fmt.Sprintf("%04X", v) }
