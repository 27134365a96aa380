// Package glyph turns text into 8-row column bitmaps for the board.
package glyph

import "strings"

// Height is the number of rows in every glyph.
const Height = 8

// Column is one glyph column; bit y is row y, row 0 on top.
type Column uint8

// Lit reports whether row y of the column is on.
func (c Column) Lit(y int) bool {
	return y >= 0 && y < Height && c&(1<<y) != 0
}

// Blank is the spacer column placed after every glyph.
const Blank Column = 0

var table = build(font)

func build(art map[rune][]string) map[rune][]Column {
	t := make(map[rune][]Column, len(art))
	for r, rows := range art {
		cols := make([]Column, len(rows[0]))
		for y, row := range rows {
			for x, px := range row {
				if px == '#' {
					cols[x] |= 1 << (y + 1)
				}
			}
		}
		t[r] = cols
	}
	return t
}

// Lookup returns the columns of r. The slice is shared; callers must not
// modify it.
func Lookup(r rune) ([]Column, bool) {
	cols, ok := table[r]
	return cols, ok
}

// Columns renders text, lower-cased, as glyph columns each followed by a
// blank column. Runes missing from the font are skipped.
func Columns(text string) []Column {
	out := make([]Column, 0, ColumnLength(text))
	for _, r := range strings.ToLower(text) {
		cols, ok := table[r]
		if !ok {
			continue
		}
		out = append(out, cols...)
		out = append(out, Blank)
	}
	return out
}

// ColumnLength is len(Columns(text)) without building the columns.
func ColumnLength(text string) int {
	n := 0
	for _, r := range strings.ToLower(text) {
		if cols, ok := table[r]; ok {
			n += len(cols) + 1
		}
	}
	return n
}
