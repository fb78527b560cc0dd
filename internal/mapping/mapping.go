// Package mapping holds the per controller model tables that translate raw
// input identifiers into action names, and the store they are kept in.
package mapping

import (
	"errors"
	"fmt"
	"strconv"
)

// Threshold is the absolute axis value at which an axis counts as pushed.
const Threshold = 1.0

const (
	AxisPositive = ">"
	AxisNegative = "<"
)

var ErrAlreadyBound = errors.New("mapping: key already bound")

// Table selects one of the three sub tables of a Mapping.
type Table uint8

const (
	ButtonTable Table = iota
	AxisTable
	HatTable
)

func (t Table) String() string {
	switch t {
	case ButtonTable:
		return "button"
	case AxisTable:
		return "axis"
	case HatTable:
		return "hat"
	}
	return "unknown"
}

// Binding is the value stored under a raw input key.
type Binding struct {
	Function string `json:"Function"`
}

// Mapping is the learned event to action table of one controller model.
type Mapping struct {
	Button map[string]Binding `json:"button"`
	Axis   map[string]Binding `json:"axis"`
	Hat    map[string]Binding `json:"hat"`
}

func New() *Mapping {
	return &Mapping{
		Button: make(map[string]Binding),
		Axis:   make(map[string]Binding),
		Hat:    make(map[string]Binding),
	}
}

func (m *Mapping) table(t Table) map[string]Binding {
	switch t {
	case ButtonTable:
		return m.Button
	case AxisTable:
		return m.Axis
	case HatTable:
		return m.Hat
	}
	return nil
}

// Lookup returns the action bound to key in table t.
func (m *Mapping) Lookup(t Table, key string) (string, bool) {
	b, ok := m.table(t)[key]
	if !ok {
		return "", false
	}
	return b.Function, true
}

func (m *Mapping) Has(t Table, key string) bool {
	_, ok := m.table(t)[key]
	return ok
}

// Bind stores action under key. A key is bound at most once.
func (m *Mapping) Bind(t Table, key, action string) error {
	tbl := m.table(t)
	if tbl == nil {
		return fmt.Errorf("mapping: unknown table %d", t)
	}
	if b, ok := tbl[key]; ok {
		return fmt.Errorf("%w: %s %q -> %s", ErrAlreadyBound, t, key, b.Function)
	}
	tbl[key] = Binding{Function: action}
	return nil
}

// Keys returns every key bound to action, across all tables.
func (m *Mapping) Keys(action string) map[Table][]string {
	out := make(map[Table][]string)
	for _, t := range []Table{ButtonTable, AxisTable, HatTable} {
		for k, b := range m.table(t) {
			if b.Function == action {
				out[t] = append(out[t], k)
			}
		}
	}
	return out
}

// Len is the total number of bound keys.
func (m *Mapping) Len() int { return len(m.Button) + len(m.Axis) + len(m.Hat) }

func (m *Mapping) Clone() *Mapping {
	c := New()
	for k, v := range m.Button {
		c.Button[k] = v
	}
	for k, v := range m.Axis {
		c.Axis[k] = v
	}
	for k, v := range m.Hat {
		c.Hat[k] = v
	}
	return c
}

// normalize replaces nil tables left over from decoding a partial document.
func (m *Mapping) normalize() {
	if m.Button == nil {
		m.Button = make(map[string]Binding)
	}
	if m.Axis == nil {
		m.Axis = make(map[string]Binding)
	}
	if m.Hat == nil {
		m.Hat = make(map[string]Binding)
	}
}

func ButtonKey(button int) string { return strconv.Itoa(button) }

// AxisSymbol classifies an axis value. ok is false while the axis is
// centered, i.e. strictly between -Threshold and +Threshold.
func AxisSymbol(value float64) (sym string, ok bool) {
	switch {
	case value >= Threshold:
		return AxisPositive, true
	case value <= -Threshold:
		return AxisNegative, true
	}
	return "", false
}

// AxisKey builds "<axis>:<symbol>" for a pushed axis.
func AxisKey(axis int, value float64) (string, bool) {
	sym, ok := AxisSymbol(value)
	if !ok {
		return "", false
	}
	return strconv.Itoa(axis) + ":" + sym, true
}

// HatKey builds "<hat>:<x>:<y>".
func HatKey(hat, x, y int) string {
	return strconv.Itoa(hat) + ":" + strconv.Itoa(x) + ":" + strconv.Itoa(y)
}
