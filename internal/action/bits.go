package action

// Bit values of the standard actions. The low four bits are the directional
// pad; composite directions are built from them only.
const (
	DpadTop   = 1 << 0
	DpadDown  = 1 << 1
	DpadLeft  = 1 << 2
	DpadRight = 1 << 3

	// Reserved for analog stick directions.
	LeftStickTop    = 1 << 4
	LeftStickDown   = 1 << 5
	LeftStickLeft   = 1 << 6
	LeftStickRight  = 1 << 7
	RightStickTop   = 1 << 8
	RightStickDown  = 1 << 9
	RightStickLeft  = 1 << 10
	RightStickRight = 1 << 11

	ButtonTop    = 1 << 12
	ButtonDown   = 1 << 13
	ButtonLeft   = 1 << 14
	ButtonRight  = 1 << 15
	ShoulderL1   = 1 << 16
	ShoulderL2   = 1 << 17
	ShoulderR1   = 1 << 18
	ShoulderR2   = 1 << 19
	AnalogL3     = 1 << 20
	AnalogR3     = 1 << 21
	ButtonStart  = 1 << 22
	ButtonSelect = 1 << 23
	ButtonHome   = 1 << 24
)

const (
	// DirectionMask selects the directional slice of a bit accumulator.
	DirectionMask  = 0b1111
	LeftStickMask  = 0b1111 << 4
	RightStickMask = 0b1111 << 8
)

// DirectionBits returns the directional slice of bits.
func DirectionBits(bits int) int { return bits & DirectionMask }

func isPowerOfTwo(v int) bool { return v > 0 && v&(v-1) == 0 }
