package glyph

import "testing"

func TestFontArtwork(t *testing.T) {
	for r, rows := range font {
		if len(rows) != Height-1 {
			t.Errorf("glyph %q has %d rows, want %d", r, len(rows), Height-1)
		}
		for _, row := range rows {
			if len(row) != len(rows[0]) {
				t.Errorf("glyph %q has ragged rows", r)
				break
			}
		}
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "one letter", text: "a", want: 6},
		{name: "narrow letter", text: "i", want: 4},
		{name: "upper case folds", text: "AB", want: 12},
		{name: "unknown skipped", text: "aé~b", want: 12},
		{name: "count text", text: "3/10 ", want: 6 + 6 + 4 + 6 + 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := Columns(tt.text)
			if len(cols) != tt.want {
				t.Errorf("len(Columns(%q)) = %d, want %d", tt.text, len(cols), tt.want)
			}
			if n := ColumnLength(tt.text); n != len(cols) {
				t.Errorf("ColumnLength(%q) = %d, len(Columns) = %d", tt.text, n, len(cols))
			}
			if len(cols) > 0 && cols[len(cols)-1] != Blank {
				t.Errorf("Columns(%q) does not end with a spacer", tt.text)
			}
		})
	}
}

func TestGlyphBits(t *testing.T) {
	cols, ok := Lookup('l')
	if !ok {
		t.Fatal("no glyph for 'l'")
	}
	// first column of L is lit on every glyph row
	for y := 1; y < Height; y++ {
		if !cols[0].Lit(y) {
			t.Errorf("l column 0 row %d not lit", y)
		}
	}
	if cols[0].Lit(0) {
		t.Error("row 0 should be blank")
	}
	// the foot of the L runs along the bottom row
	for x := range cols {
		if !cols[x].Lit(Height - 1) {
			t.Errorf("l column %d bottom row not lit", x)
		}
	}
	if _, ok := Lookup('~'); ok {
		t.Error("unexpected glyph for '~'")
	}
}
