// Package action holds the catalogs of named actions and composite
// directions an application registers at startup.
package action

import (
	"errors"
	"fmt"

	"github.com/thornpw/steuer/internal/device"
)

var (
	ErrEmptyName          = errors.New("action: empty name")
	ErrDuplicateName      = errors.New("action: name already registered")
	ErrInvalidValue       = errors.New("action: value is not a power of two")
	ErrDuplicateValue     = errors.New("action: value already registered")
	ErrInvalidDirection   = errors.New("action: direction mask outside the directional bits")
	ErrDuplicateDirection = errors.New("action: direction already registered")
)

// Handler is called with the device an edge happened on.
type Handler func(d *device.Device)

// Action is a named edge-triggered input bound to one bit.
type Action struct {
	Name       string
	Value      int
	LongName   string
	ShortName  string
	OnPressed  Handler
	OnReleased Handler
}

func (a *Action) String() string { return a.Name }

// Pressed calls OnPressed when set.
func (a *Action) Pressed(d *device.Device) {
	if a.OnPressed != nil {
		a.OnPressed(d)
	}
}

// Released calls OnReleased when set.
func (a *Action) Released(d *device.Device) {
	if a.OnReleased != nil {
		a.OnReleased(d)
	}
}

// Direction is a combination of directional action bits.
type Direction struct {
	Name        string
	Value       int
	LongName    string
	ShortName   string
	OnHeading   Handler
	OnUnheading Handler
}

func (d *Direction) String() string { return d.Name }

func (d *Direction) Heading(dev *device.Device) {
	if d.OnHeading != nil {
		d.OnHeading(dev)
	}
}

func (d *Direction) Unheading(dev *device.Device) {
	if d.OnUnheading != nil {
		d.OnUnheading(dev)
	}
}

// Registry keeps actions in registration order, which is also the order
// they are configured in, and directions by mask.
type Registry struct {
	actions    []*Action
	byName     map[string]*Action
	byValue    map[int]*Action
	directions map[int]*Direction
}

func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]*Action),
		byValue:    make(map[int]*Action),
		directions: make(map[int]*Direction),
	}
}

// Register adds an action. value must be a power of two not used by any
// other action. pressed and released may be nil.
func (r *Registry) Register(name string, value int, longName, shortName string, pressed, released Handler) (*Action, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if !isPowerOfTwo(value) {
		return nil, fmt.Errorf("%w: %s=%d", ErrInvalidValue, name, value)
	}
	if other, ok := r.byValue[value]; ok {
		return nil, fmt.Errorf("%w: %s=%d used by %s", ErrDuplicateValue, name, value, other.Name)
	}
	a := &Action{
		Name:       name,
		Value:      value,
		LongName:   longName,
		ShortName:  shortName,
		OnPressed:  pressed,
		OnReleased: released,
	}
	r.actions = append(r.actions, a)
	r.byName[name] = a
	r.byValue[value] = a
	return a, nil
}

// RegisterDirection adds a direction for a nonzero mask of directional bits.
func (r *Registry) RegisterDirection(name string, mask int, longName, shortName string, heading, unheading Handler) (*Direction, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if mask == 0 || mask&^DirectionMask != 0 {
		return nil, fmt.Errorf("%w: %s=%#b", ErrInvalidDirection, name, mask)
	}
	if other, ok := r.directions[mask]; ok {
		return nil, fmt.Errorf("%w: %s=%#b used by %s", ErrDuplicateDirection, name, mask, other.Name)
	}
	d := &Direction{
		Name:        name,
		Value:       mask,
		LongName:    longName,
		ShortName:   shortName,
		OnHeading:   heading,
		OnUnheading: unheading,
	}
	r.directions[mask] = d
	return d, nil
}

// Action looks an action up by name.
func (r *Registry) Action(name string) (*Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Direction looks a direction up by mask.
func (r *Registry) Direction(mask int) (*Direction, bool) {
	d, ok := r.directions[mask]
	return d, ok
}

// Actions returns the actions in registration order.
func (r *Registry) Actions() []*Action {
	out := make([]*Action, len(r.actions))
	copy(out, r.actions)
	return out
}

func (r *Registry) Len() int { return len(r.actions) }

// Active returns the names of the actions whose bits are set, in
// registration order.
func (r *Registry) Active(bits int) []string {
	var out []string
	for _, a := range r.actions {
		if bits&a.Value != 0 {
			out = append(out, a.Name)
		}
	}
	return out
}
