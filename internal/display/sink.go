package display

import "formpix/internal/rgb"

// Sink receives a copy of the whole strip after every mutation. It owns any
// retrying; the engine logs a failed push and moves on.
type Sink interface {
	Render(frame []rgb.Color) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame []rgb.Color) error

func (f SinkFunc) Render(frame []rgb.Color) error { return f(frame) }
