// Package geometry maps board coordinates onto the strip.
//
// The strip starts with the bar segment and continues into the boards. Board
// columns are wired serpentine: even columns run top to bottom, odd columns
// bottom to top.
package geometry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"formpix/internal/apperr"
)

// Defaults for the 32x8 boards the sign is built from.
const (
	BoardWidth  = 32
	BoardHeight = 8
)

// Geometry describes the strip layout. It is immutable once built.
type Geometry struct {
	BarLength int
	Boards    int
	Width     int
	Height    int
}

// New returns a Geometry for barLength bar pixels followed by boards
// standard boards.
func New(barLength, boards int) Geometry {
	return Geometry{BarLength: barLength, Boards: boards, Width: BoardWidth, Height: BoardHeight}
}

// Len is the number of pixels on the whole strip.
func (g Geometry) Len() int {
	return g.BarLength + g.Boards*g.Width*g.Height
}

// Columns is the number of board columns across all boards.
func (g Geometry) Columns() int {
	return g.Boards * g.Width
}

// ColumnStart is the strip index of the first pixel of board column x.
// x may equal Columns(), giving the end of the strip.
func (g Geometry) ColumnStart(x int) int {
	return g.BarLength + x*g.Height
}

// Column returns the board column holding strip index i, and false when i is
// on the bar or past the end of the strip.
func (g Geometry) Column(i int) (int, bool) {
	if i < g.BarLength || i >= g.Len() {
		return 0, false
	}
	return (i - g.BarLength) / g.Height, true
}

// Map converts a board coordinate to a strip index.
func (g Geometry) Map(x, y int) (int, error) {
	if x < 0 || x >= g.Columns() {
		return 0, apperr.Invalid("x", "x out of bounds")
	}
	if y < 0 || y >= g.Height {
		return 0, apperr.Invalid("y", "y out of bounds")
	}
	i := g.ColumnStart(x)
	if x%2 == 1 {
		return i + g.Height - 1 - y, nil
	}
	return i + y, nil
}

// MapValue is Map for loosely typed coordinates, as decoded from JSON.
func (g Geometry) MapValue(x, y any) (int, error) {
	xi, err := integer("x", x)
	if err != nil {
		return 0, err
	}
	yi, err := integer("y", y)
	if err != nil {
		return 0, err
	}
	return g.Map(xi, yi)
}

// PixelNumber resolves a control-surface pixel reference: a raw index (number
// or numeric string), a JSON string holding {"x":..,"y":..}, or such an
// object already decoded. Raw indices are not range checked here.
func (g Geometry) PixelNumber(input any) (int, error) {
	switch v := input.(type) {
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return integer("pixel", n)
		}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var obj any
		if err := dec.Decode(&obj); err != nil {
			return 0, apperr.Invalid("pixel", "Input is not a valid JSON string")
		}
		m, ok := obj.(map[string]any)
		if !ok {
			return 0, apperr.Invalid("pixel", "Parsed value is not an object")
		}
		return g.pixelObject(m)
	case map[string]any:
		return g.pixelObject(v)
	case nil:
		return 0, apperr.Invalid("pixel", "missing pixel")
	default:
		return integer("pixel", v)
	}
}

func (g Geometry) pixelObject(m map[string]any) (int, error) {
	x, hasX := m["x"]
	y, hasY := m["y"]
	if !hasX && !hasY {
		return 0, apperr.Invalid("pixel", "invalid pixel format")
	}
	if !hasX || x == nil {
		return 0, apperr.Invalid("x", "no x")
	}
	if !hasY || y == nil {
		return 0, apperr.Invalid("y", "no y")
	}
	return g.MapValue(x, y)
}

func integer(name string, v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, apperr.Invalid(name, "%s not a number", name)
		}
		f = parsed
	default:
		return 0, apperr.Invalid(name, "%s not a number", name)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.Invalid(name, "%s not a number", name)
	}
	if f != math.Trunc(f) {
		return 0, apperr.Invalid(name, "%s not an integer", name)
	}
	return int(f), nil
}
