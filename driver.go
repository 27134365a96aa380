package main

import "fmt"

// WS2812B timing over SPI: at 2.4 MHz every LED bit becomes three SPI bits,
// 110 for a one and 100 for a zero.
const (
	spiSpeedHz   = 2_400_000
	spiBitsPerWS = 3
	// resetBytes of low line (>50µs at 2.4 MHz) latch the frame.
	resetBytes = 40
)

// spiFrameLen is the SPI buffer size for ledCount LEDs.
func spiFrameLen(ledCount int) int {
	return ledCount*3*spiBitsPerWS + resetBytes
}

// encodeSPI writes colors, RGB triples, into dst as WS2812B SPI bits in GRB
// order, followed by the latch. dst must be spiFrameLen long.
func encodeSPI(dst, colors []byte) error {
	if len(colors)%3 != 0 {
		return fmt.Errorf("color buffer length %d is not a multiple of 3", len(colors))
	}
	if len(dst) != spiFrameLen(len(colors)/3) {
		return fmt.Errorf("spi buffer length %d, want %d", len(dst), spiFrameLen(len(colors)/3))
	}

	out := 0
	for i := 0; i < len(colors); i += 3 {
		for _, b := range [3]byte{colors[i+1], colors[i], colors[i+2]} {
			var bits uint32
			for k := 7; k >= 0; k-- {
				bits <<= spiBitsPerWS
				if b&(1<<k) != 0 {
					bits |= 0b110
				} else {
					bits |= 0b100
				}
			}
			dst[out] = byte(bits >> 16)
			dst[out+1] = byte(bits >> 8)
			dst[out+2] = byte(bits)
			out += 3
		}
	}
	clear(dst[out:])
	return nil
}
