package display

import (
	"errors"
	"math"
	"testing"

	"formpix/internal/apperr"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

func TestBufferFill(t *testing.T) {
	tests := []struct {
		name       string
		start, len int
		wantLo     int
		wantHi     int
		wantBounds bool
		wantInput  bool
	}{
		{name: "whole strip", start: 0, len: 266, wantLo: 0, wantHi: 266},
		{name: "clamped", start: 260, len: 100, wantLo: 260, wantHi: 266},
		{name: "empty at end", start: 266, len: 0, wantLo: 266, wantHi: 266},
		{name: "huge length", start: 10, len: math.MaxInt, wantLo: 10, wantHi: 266},
		{name: "start past end", start: 266, len: 1, wantBounds: true},
		{name: "negative start", start: -1, len: 2, wantBounds: true},
		{name: "negative length", start: 0, len: -2, wantInput: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(geometry.New(10, 1))
			err := b.Fill(rgb.Red, tt.start, tt.len)

			var be *apperr.BoundsError
			if tt.wantBounds {
				if !errors.As(err, &be) {
					t.Fatalf("Fill error = %v, want BoundsError", err)
				}
				return
			}
			if tt.wantInput {
				if !apperr.IsInput(err) {
					t.Fatalf("Fill error = %v, want input error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fill error = %v", err)
			}
			for i := 0; i < b.Len(); i++ {
				want := rgb.Black
				if i >= tt.wantLo && i < tt.wantHi {
					want = rgb.Red
				}
				if b.At(i) != want {
					t.Fatalf("pixel %d = %v, want %v", i, b.At(i), want)
				}
			}
		})
	}
}

func TestBufferGradientEndpoints(t *testing.T) {
	pairs := [][2]rgb.Color{
		{rgb.Blue, rgb.Red},
		{0x123456, 0xFEDCBA},
		{rgb.White, rgb.Black},
		{0x0A0B0C, 0x0A0B0C},
	}
	for _, p := range pairs {
		for length := 2; length <= 40; length++ {
			b := NewBuffer(geometry.New(40, 1))
			if err := b.Gradient(p[0], p[1], 0, length); err != nil {
				t.Fatalf("Gradient error = %v", err)
			}
			if b.At(0) != p[0] || b.At(length-1) != p[1] {
				t.Fatalf("Gradient(%v, %v, 0, %d) ends = %v, %v", p[0], p[1], length, b.At(0), b.At(length-1))
			}
		}
	}

	b := NewBuffer(geometry.New(10, 1))
	if err := b.Gradient(rgb.Blue, rgb.Red, 4, 1); err != nil {
		t.Fatalf("Gradient error = %v", err)
	}
	if b.At(4) != rgb.Blue {
		t.Errorf("single pixel gradient = %v, want start colour", b.At(4))
	}
}

func TestBufferGradientMidpoint(t *testing.T) {
	b := NewBuffer(geometry.New(3, 1))
	if err := b.Gradient(rgb.Black, rgb.White, 0, 3); err != nil {
		t.Fatalf("Gradient error = %v", err)
	}
	if got := b.At(1); got != 0x808080 {
		t.Errorf("midpoint = %v, want #808080", got)
	}
}

func TestBufferSet(t *testing.T) {
	b := NewBuffer(geometry.New(10, 1))
	if err := b.Set(b.Len(), rgb.Red); err == nil {
		t.Error("Set past the end did not fail")
	}
	if err := b.Set(3, rgb.Red); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	snap := b.Snapshot()
	snap[3] = rgb.Blue
	if b.At(3) != rgb.Red {
		t.Error("Snapshot shares memory with the buffer")
	}
}
