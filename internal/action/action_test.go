package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thornpw/steuer/internal/device"
)

func TestRegisterKeepsOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"C", "A", "B"} {
		_, err := r.Register(name, 1<<(12+r.Len()), name, name, nil, nil)
		require.NoError(t, err)
	}
	var got []string
	for _, a := range r.Actions() {
		got = append(got, a.Name)
	}
	assert.Equal(t, []string{"C", "A", "B"}, got)
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("DPAD_TOP", DpadTop, "DPad top", "Top", nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value int
		err   error
	}{
		{name: "", value: 2, err: ErrEmptyName},
		{name: "DPAD_TOP", value: 2, err: ErrDuplicateName},
		{name: "X", value: 3, err: ErrInvalidValue},
		{name: "X", value: 0, err: ErrInvalidValue},
		{name: "X", value: -4, err: ErrInvalidValue},
		{name: "X", value: DpadTop, err: ErrDuplicateValue},
	}
	for _, tt := range tests {
		_, err := r.Register(tt.name, tt.value, "", "", nil, nil)
		assert.True(t, errors.Is(err, tt.err), "%s=%d: got %v", tt.name, tt.value, err)
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDirectionValidation(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterDirection("TOPRIGHT", DpadTop|DpadRight, "", "", nil, nil)
	require.NoError(t, err)

	_, err = r.RegisterDirection("NONE", 0, "", "", nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidDirection))
	_, err = r.RegisterDirection("STICK", LeftStickTop, "", "", nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidDirection))
	_, err = r.RegisterDirection("AGAIN", 9, "", "", nil, nil)
	assert.True(t, errors.Is(err, ErrDuplicateDirection))

	d, ok := r.Direction(9)
	require.True(t, ok)
	assert.Equal(t, "TOPRIGHT", d.Name)
}

func TestNilHandlersAreSafe(t *testing.T) {
	a := &Action{Name: "A"}
	d := &Direction{Name: "D"}
	dev := device.New(0, "pad")
	a.Pressed(dev)
	a.Released(dev)
	d.Heading(dev)
	d.Unheading(dev)
}

func TestRegisterStandard(t *testing.T) {
	r := NewRegistry()
	var pressed []string
	err := RegisterStandard(r, func(s Spec) (Handler, Handler) {
		return func(*device.Device) { pressed = append(pressed, s.Name) }, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, len(StandardActions), r.Len())

	a, ok := r.Action("BUTTON_START")
	require.True(t, ok)
	a.Pressed(device.New(0, "pad"))
	assert.Equal(t, []string{"BUTTON_START"}, pressed)

	for _, s := range StandardDirections {
		_, ok := r.Direction(s.Value)
		assert.True(t, ok, s.Name)
	}
}

func TestActive(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterStandard(r, nil, nil))
	assert.Equal(t, []string{"DPAD_TOP", "BUTTON_START"}, r.Active(DpadTop|ButtonStart))
	assert.Equal(t, 9, DirectionBits(DpadTop|DpadRight|ButtonStart))
}
