package rgb

import (
	"errors"
	"strings"
	"testing"

	"formpix/internal/apperr"
)

func TestPackRoundTrip(t *testing.T) {
	for c := Color(0); c <= 0xFFFFFF; c += 0x010307 {
		r, g, b := Unpack(c)
		if got := Pack(r, g, b); got != c {
			t.Fatalf("Pack(Unpack(%06X)) = %06X", uint32(c), uint32(got))
		}
	}
	r, g, b := Unpack(0xFF00AA)
	if r != 0xFF || g != 0 || b != 0xAA {
		t.Errorf("Unpack(0xFF00AA) = (%d, %d, %d)", r, g, b)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    Color
		wantErr string
	}{
		{name: "hex", input: "#FF00AA", want: 0xFF00AA},
		{name: "lower hex", input: "#00ff80", want: 0x00FF80},
		{name: "short hex", input: "#FFF", wantErr: "must be 6 characters"},
		{name: "bad digit", input: "#GG0000", wantErr: "non-hex"},
		{name: "json rgb", input: `{"r":1,"g":2,"b":3}`, want: 0x010203},
		{name: "json long keys", input: `{"red":255,"green":0,"blue":0}`, want: 0xFF0000},
		{name: "object", input: map[string]any{"r": 0.0, "g": 255.0, "b": 0.0}, want: 0x00FF00},
		{name: "out of range", input: map[string]any{"r": 300.0, "g": 0.0, "b": 0.0}, wantErr: "between 0 and 255"},
		{name: "negative", input: `{"r":-1,"g":0,"b":0}`, wantErr: "between 0 and 255"},
		{name: "fraction", input: `{"r":1.5,"g":0,"b":0}`, wantErr: "integers"},
		{name: "string channel", input: `{"r":"1","g":0,"b":0}`, wantErr: "integers"},
		{name: "mixed keys", input: `{"r":1,"green":0,"b":0}`, wantErr: "Invalid color keys"},
		{name: "missing key", input: `{"r":1,"g":0}`, wantErr: "Invalid color keys"},
		{name: "not json", input: "red", wantErr: "not a valid JSON"},
		{name: "json array", input: "[1,2,3]", wantErr: "not an object"},
		{name: "number", input: 12, wantErr: "string or an object"},
		{name: "nil", input: nil, wantErr: "missing"},
		{name: "packed", input: Color(0x123456), want: 0x123456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != "" {
				var ve *apperr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Parse(%v) error = %v, want ValidationError", tt.input, err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Parse(%v) error = %q, want it to mention %q", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestColorString(t *testing.T) {
	if s := Color(0x00FF0A).String(); s != "#00FF0A" {
		t.Errorf("String() = %q", s)
	}
}
