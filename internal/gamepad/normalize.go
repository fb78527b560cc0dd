package gamepad

import "math"

const (
	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08
)

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// HatVector converts an SDL hat bitmask to x and y components, each of
// -1, 0 or 1. y is 1 when the hat is pushed up.
func HatVector(value uint8) (x, y int) {
	if value&hatLeft != 0 {
		x--
	}
	if value&hatRight != 0 {
		x++
	}
	if value&hatUp != 0 {
		y++
	}
	if value&hatDown != 0 {
		y--
	}
	return x, y
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]string{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: "xbox", // Xbox 360
	{0x045E, 0x02FF}: "xbox", // Xbox One
	{0x045E, 0x0B12}: "xbox", // Xbox Series X|S
	{0x045E, 0x0B13}: "xbox", // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: "playstation", // DualSense
	{0x054C, 0x09CC}: "playstation", // DualShock 4 v2
	{0x054C, 0x05C4}: "playstation", // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: "switch_pro",
}

// Family names the controller family of a vendor/product pair, "generic"
// when unknown. It is informational only; bindings are learned per model.
func Family(vendorID, productID uint16) string {
	if f, ok := knownDevices[deviceKey{vendorID, productID}]; ok {
		return f
	}
	return "generic"
}
