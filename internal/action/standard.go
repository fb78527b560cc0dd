package action

// Spec describes an action or direction before registration.
type Spec struct {
	Name      string
	Value     int
	LongName  string
	ShortName string
}

// StandardActions is the catalog of a common 16 button pad, in the order
// the buttons are asked for when a new controller is configured.
var StandardActions = []Spec{
	{"DPAD_TOP", DpadTop, "DPad top", "Top"},
	{"DPAD_DOWN", DpadDown, "DPad down", "Down"},
	{"DPAD_LEFT", DpadLeft, "DPad left", "Left"},
	{"DPAD_RIGHT", DpadRight, "DPad right", "Right"},
	{"BUTTON_TOP", ButtonTop, "Button top", "BTop"},
	{"BUTTON_DOWN", ButtonDown, "Button down", "BDown"},
	{"BUTTON_LEFT", ButtonLeft, "Button left", "BLeft"},
	{"BUTTON_RIGHT", ButtonRight, "Button right", "BRight"},
	{"SHOULDER_L1", ShoulderL1, "Shoulder L1", "L1"},
	{"SHOULDER_L2", ShoulderL2, "Shoulder L2", "L2"},
	{"SHOULDER_R1", ShoulderR1, "Shoulder R1", "R1"},
	{"SHOULDER_R2", ShoulderR2, "Shoulder R2", "R2"},
	{"ANALOG_L3", AnalogL3, "Analog L3", "L3"},
	{"ANALOG_R3", AnalogR3, "Analog R3", "R3"},
	{"BUTTON_START", ButtonStart, "Button start", "BStart"},
	{"BUTTON_SELECT", ButtonSelect, "Button select", "BSelect"},
}

// StandardDirections are the eight pad directions.
var StandardDirections = []Spec{
	{"DPAD_TOP", DpadTop, "DPad top", "Top"},
	{"DPAD_DOWN", DpadDown, "DPad down", "Down"},
	{"DPAD_LEFT", DpadLeft, "DPad left", "Left"},
	{"DPAD_RIGHT", DpadRight, "DPad right", "Right"},
	{"DPAD_TOPLEFT", DpadTop | DpadLeft, "DPad top left", "Top Left"},
	{"DPAD_TOPRIGHT", DpadTop | DpadRight, "DPad top right", "Top Right"},
	{"DPAD_DOWNLEFT", DpadDown | DpadLeft, "DPad down left", "Down Left"},
	{"DPAD_DOWNRIGHT", DpadDown | DpadRight, "DPad down right", "Down Right"},
}

// HandlerFunc returns the pair of handlers for a spec. Either may be nil.
type HandlerFunc func(s Spec) (on, off Handler)

// RegisterStandard registers StandardActions and StandardDirections. The
// handler functions may be nil.
func RegisterStandard(r *Registry, actions, directions HandlerFunc) error {
	for _, s := range StandardActions {
		var on, off Handler
		if actions != nil {
			on, off = actions(s)
		}
		if _, err := r.Register(s.Name, s.Value, s.LongName, s.ShortName, on, off); err != nil {
			return err
		}
	}
	for _, s := range StandardDirections {
		var on, off Handler
		if directions != nil {
			on, off = directions(s)
		}
		if _, err := r.RegisterDirection(s.Name, s.Value, s.LongName, s.ShortName, on, off); err != nil {
			return err
		}
	}
	return nil
}
