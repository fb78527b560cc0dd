package tray

import (
	"bytes"
	"encoding/binary"
	"sync"
)

const iconSize = 16

var (
	iconOnce sync.Once
	iconData []byte
)

// GetIcon returns the tray icon, a 16x16 32-bit ICO with a round pad
// button.
func GetIcon() []byte {
	iconOnce.Do(func() { iconData = buildIcon() })
	return iconData
}

func buildIcon() []byte {
	const (
		pixels  = iconSize * iconSize * 4
		mask    = iconSize * 4 // 1 bpp rows padded to 32 bits
		header  = 40
		imgSize = header + pixels + mask
	)
	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR
	binary.Write(&buf, le, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	binary.Write(&buf, le, [2]uint16{1, 32})
	binary.Write(&buf, le, [2]uint32{imgSize, 6 + 16})
	// BITMAPINFOHEADER, height covers XOR and AND masks
	binary.Write(&buf, le, struct {
		Size, Width, Height         int32
		Planes, BitCount            uint16
		Compression, SizeImage      uint32
		XPPM, YPPM, Used, Important int32
	}{header, iconSize, 2 * iconSize, 1, 32, 0, pixels + mask, 0, 0, 0, 0})

	// BGRA rows, bottom-up
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			dx, dy := 2*x-iconSize+1, 2*y-iconSize+1
			switch d := dx*dx + dy*dy; {
			case d <= 9*9:
				buf.Write([]byte{0xF8, 0xF8, 0xF8, 0xFF})
			case d <= 15*15:
				buf.Write([]byte{0xA6, 0x8B, 0x14, 0xFF})
			default:
				buf.Write([]byte{0, 0, 0, 0})
			}
		}
	}
	buf.Write(make([]byte, mask))
	return buf.Bytes()
}
