package display

import (
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// Canvas is the strip as seen by one Paint call. It remembers the board
// columns it wrote so the engine can cancel the text regions underneath.
type Canvas struct {
	buf  *Buffer
	geo  geometry.Geometry
	cols []bool // allocated on the first board write
}

// touch marks the board columns under the strip indices [lo, hi). Bar pixels
// have no column.
func (c *Canvas) touch(lo, hi int) {
	lo = max(lo, c.geo.BarLength)
	if hi <= lo {
		return
	}
	first, ok := c.geo.Column(lo)
	if !ok {
		return
	}
	last, ok := c.geo.Column(hi - 1)
	if !ok {
		return
	}
	if c.cols == nil {
		c.cols = make([]bool, c.geo.Columns())
	}
	for col := first; col <= last; col++ {
		c.cols[col] = true
	}
}

// touchedColumns returns the written board columns as [start, end) runs.
func (c *Canvas) touchedColumns() [][2]int {
	var runs [][2]int
	for col := 0; col < len(c.cols); {
		if !c.cols[col] {
			col++
			continue
		}
		start := col
		for col < len(c.cols) && c.cols[col] {
			col++
		}
		runs = append(runs, [2]int{start, col})
	}
	return runs
}

// Len is the number of pixels on the strip.
func (c *Canvas) Len() int { return c.buf.Len() }

// Geometry returns the strip layout.
func (c *Canvas) Geometry() geometry.Geometry { return c.geo }

// At reads pixel i.
func (c *Canvas) At(i int) rgb.Color { return c.buf.At(i) }

// Set writes pixel i.
func (c *Canvas) Set(i int, color rgb.Color) error {
	if err := c.buf.Set(i, color); err != nil {
		return err
	}
	c.touch(i, i+1)
	return nil
}

// Fill paints length pixels from start.
func (c *Canvas) Fill(color rgb.Color, start, length int) error {
	lo, hi, err := c.buf.span(start, length)
	if err != nil {
		return err
	}
	c.buf.fill(color, lo, hi)
	c.touch(lo, hi)
	return nil
}

// Gradient blends over length pixels from start.
func (c *Canvas) Gradient(from, to rgb.Color, start, length int) error {
	lo, hi, err := c.buf.span(start, length)
	if err != nil {
		return err
	}
	if err := c.buf.Gradient(from, to, lo, hi-lo); err != nil {
		return err
	}
	c.touch(lo, hi)
	return nil
}
