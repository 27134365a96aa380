package display

import (
	"math"

	"formpix/internal/apperr"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// Buffer is the whole strip: the bar followed by the boards.
type Buffer struct {
	geo geometry.Geometry
	px  []rgb.Color
}

// NewBuffer returns a black buffer sized for g.
func NewBuffer(g geometry.Geometry) *Buffer {
	return &Buffer{geo: g, px: make([]rgb.Color, g.Len())}
}

// Len is the number of pixels.
func (b *Buffer) Len() int { return len(b.px) }

// At returns pixel i, or black when i is off the strip.
func (b *Buffer) At(i int) rgb.Color {
	if i < 0 || i >= len(b.px) {
		return rgb.Black
	}
	return b.px[i]
}

// Set writes pixel i.
func (b *Buffer) Set(i int, c rgb.Color) error {
	if i < 0 || i >= len(b.px) {
		return &apperr.BoundsError{Index: i, Limit: len(b.px)}
	}
	b.px[i] = c
	return nil
}

// span validates a start/length pair and clamps length to the strip.
func (b *Buffer) span(start, length int) (lo, hi int, err error) {
	if length < 0 {
		return 0, 0, apperr.Invalid("length", "length must not be negative")
	}
	if start < 0 || start > len(b.px) || (start == len(b.px) && length > 0) {
		return 0, 0, &apperr.BoundsError{Index: start, Limit: len(b.px)}
	}
	// Compared against the room left so a huge length cannot overflow.
	hi = len(b.px)
	if length < hi-start {
		hi = start + length
	}
	return start, hi, nil
}

// Fill paints length pixels from start with c. A length running past the end
// of the strip is cut short.
func (b *Buffer) Fill(c rgb.Color, start, length int) error {
	lo, hi, err := b.span(start, length)
	if err != nil {
		return err
	}
	b.fill(c, lo, hi)
	return nil
}

// Gradient blends linearly from one colour to another over length pixels from
// start. The first pixel is exactly from and, for two or more pixels, the last
// is exactly to.
func (b *Buffer) Gradient(from, to rgb.Color, start, length int) error {
	lo, hi, err := b.span(start, length)
	if err != nil {
		return err
	}
	n := hi - lo
	if n == 1 {
		b.px[lo] = from
		return nil
	}
	fr, fg, fb := rgb.Unpack(from)
	tr, tg, tb := rgb.Unpack(to)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		b.px[lo+i] = rgb.Pack(lerp(fr, tr, t), lerp(fg, tg, t), lerp(fb, tb, t))
	}
	return nil
}

func lerp(a, b uint8, t float64) uint8 {
	v := math.Round(float64(a) + (float64(b)-float64(a))*t)
	return uint8(math.Max(0, math.Min(255, v)))
}

// fill paints [lo, hi) clamped to the strip.
func (b *Buffer) fill(c rgb.Color, lo, hi int) {
	lo = max(lo, 0)
	hi = min(hi, len(b.px))
	for i := lo; i < hi; i++ {
		b.px[i] = c
	}
}

// Snapshot copies the buffer.
func (b *Buffer) Snapshot() []rgb.Color {
	out := make([]rgb.Color, len(b.px))
	copy(out, b.px)
	return out
}

func (b *Buffer) restore(frame []rgb.Color) {
	copy(b.px, frame)
}
