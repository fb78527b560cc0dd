// Package event defines the raw controller input record consumed by the
// resolver and the mapping acquisition.
package event

import "fmt"

type Kind uint8

const (
	None Kind = iota
	ButtonDown
	ButtonUp
	AxisMotion
	HatMotion
)

func (k Kind) String() string {
	switch k {
	case ButtonDown:
		return "button-down"
	case ButtonUp:
		return "button-up"
	case AxisMotion:
		return "axis-motion"
	case HatMotion:
		return "hat-motion"
	}
	return "none"
}

// Event is one queued device event. Only the fields of its Kind are
// meaningful: Button for button events, Axis and Value for axis motion,
// Hat, X and Y for hat motion.
type Event struct {
	Kind   Kind
	Device int

	Button int

	Axis  int
	Value float64 // -1.0..1.0

	Hat  int
	X, Y int // each of -1, 0, 1; Y is +1 when pushed up
}

func Down(device, button int) Event {
	return Event{Kind: ButtonDown, Device: device, Button: button}
}

func Up(device, button int) Event {
	return Event{Kind: ButtonUp, Device: device, Button: button}
}

func Axis(device, axis int, value float64) Event {
	return Event{Kind: AxisMotion, Device: device, Axis: axis, Value: value}
}

func Hat(device, hat, x, y int) Event {
	return Event{Kind: HatMotion, Device: device, Hat: hat, X: x, Y: y}
}

// Centered reports whether a hat event is in the neutral position.
func (e Event) Centered() bool { return e.X == 0 && e.Y == 0 }

func (e Event) String() string {
	switch e.Kind {
	case ButtonDown, ButtonUp:
		return fmt.Sprintf("%s dev=%d button=%d", e.Kind, e.Device, e.Button)
	case AxisMotion:
		return fmt.Sprintf("%s dev=%d axis=%d value=%.3f", e.Kind, e.Device, e.Axis, e.Value)
	case HatMotion:
		return fmt.Sprintf("%s dev=%d hat=%d x=%d y=%d", e.Kind, e.Device, e.Hat, e.X, e.Y)
	}
	return e.Kind.String()
}
