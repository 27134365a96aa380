// Package display is the sign's display engine: the strip buffer, the text
// regions scrolling on the boards and the poll bar.
//
// All state lives on one goroutine started by Engine.Run. Every exported
// method sends a command to that goroutine and waits for it, so buffer
// mutation and sink pushes are serialized without locks.
package display

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// ErrStopped is returned by calls made after Run has returned.
var ErrStopped = errors.New("display engine stopped")

// Sound cues the engine asks for.
const (
	CueBootup   = "bootup"
	CueSuccess  = "success"
	CueBruh     = "bruh"
	CueWompWomp = "wompwomp"
)

// NoClass is the class id upstream sends when the sign is in no class.
const NoClass = "noClass"

// Cues plays a named sound cue. It must not block.
type Cues interface {
	Cue(name string)
}

// Options configures an Engine. Geometry and Sink are required.
type Options struct {
	Geometry       geometry.Geometry
	Sink           Sink
	Scheduler      Scheduler
	Cues           Cues
	IdleText       string
	ScrollInterval time.Duration
	Logger         *log.Logger
	// Rand returns a number in [0, n). Defaults to math/rand/v2.
	Rand func(n int) int
}

// Engine owns the strip buffer.
type Engine struct {
	geo      geometry.Geometry
	buf      *Buffer
	sink     Sink
	anim     *Animator
	cues     Cues
	idleText string
	logger   *log.Logger
	rand     func(n int) int

	poll  *Snapshot
	timer TimerState
	class string

	connected atomic.Bool
	cmds      chan func()
	done      chan struct{}
}

func New(opts Options) *Engine {
	if opts.Scheduler == nil {
		opts.Scheduler = NewTickerScheduler()
	}
	if opts.ScrollInterval <= 0 {
		opts.ScrollInterval = DefaultScrollInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Rand == nil {
		opts.Rand = rand.IntN
	}
	if opts.Sink == nil {
		opts.Sink = SinkFunc(func([]rgb.Color) error { return nil })
	}

	buf := NewBuffer(opts.Geometry)
	e := &Engine{
		geo:      opts.Geometry,
		buf:      buf,
		sink:     opts.Sink,
		anim:     newAnimator(opts.Geometry, buf, opts.Scheduler, opts.ScrollInterval),
		cues:     opts.Cues,
		idleText: opts.IdleText,
		logger:   opts.Logger,
		rand:     opts.Rand,
		cmds:     make(chan func()),
		done:     make(chan struct{}),
	}
	e.anim.onTick = e.tick
	return e
}

// Run executes commands until ctx is cancelled. Regions still scrolling are
// stopped on the way out.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.anim.CancelAll()

	e.render()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.cmds:
			e.exec(cmd)
		}
	}
}

func (e *Engine) exec(cmd func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("command panicked: %v", r)
		}
	}()
	cmd()
}

// do runs fn on the engine goroutine and returns its error.
func (e *Engine) do(fn func() error) error {
	res := make(chan error, 1)
	select {
	case e.cmds <- func() { res <- fn() }:
	case <-e.done:
		return ErrStopped
	}
	select {
	case err := <-res:
		return err
	case <-e.done:
		return ErrStopped
	}
}

func (e *Engine) tick(r *Region) {
	e.do(func() error {
		if e.anim.advance(r) {
			e.render()
		}
		return nil
	})
}

func (e *Engine) render() {
	if err := e.sink.Render(e.buf.Snapshot()); err != nil {
		e.logger.Printf("render: %v", err)
	}
}

func (e *Engine) cue(name string, quiet bool) {
	if e.cues != nil && !quiet {
		e.cues.Cue(name)
	}
}

// Geometry returns the strip layout.
func (e *Engine) Geometry() geometry.Geometry { return e.geo }

// Frame returns a copy of the strip.
func (e *Engine) Frame() ([]rgb.Color, error) {
	var frame []rgb.Color
	err := e.do(func() error {
		frame = e.buf.Snapshot()
		return nil
	})
	return frame, err
}

// Regions lists the live text regions.
func (e *Engine) Regions() ([]RegionInfo, error) {
	var regions []RegionInfo
	err := e.do(func() error {
		regions = e.anim.Regions()
		return nil
	})
	return regions, err
}

// Paint runs fn against the strip as one mutation. If fn fails the strip is
// put back as it was. Text regions sharing a board column with a pixel fn
// wrote are cancelled so they do not scroll over it.
func (e *Engine) Paint(fn func(c *Canvas) error) error {
	return e.do(func() error {
		before := e.buf.Snapshot()
		c := &Canvas{buf: e.buf, geo: e.geo}
		if err := fn(c); err != nil {
			e.buf.restore(before)
			return err
		}
		for _, run := range c.touchedColumns() {
			e.anim.CancelOverlapping(run[0], run[1])
		}
		e.render()
		return nil
	})
}

// Fill paints length pixels from start.
func (e *Engine) Fill(color rgb.Color, start, length int) error {
	return e.Paint(func(c *Canvas) error { return c.Fill(color, start, length) })
}

// Gradient blends from one colour to another over length pixels from start.
func (e *Engine) Gradient(from, to rgb.Color, start, length int) error {
	return e.Paint(func(c *Canvas) error { return c.Gradient(from, to, start, length) })
}

// SetPixel writes one pixel.
func (e *Engine) SetPixel(i int, color rgb.Color) error {
	return e.Paint(func(c *Canvas) error { return c.Set(i, color) })
}

// SetPixels writes every pixel or, if any index is off the strip, none.
func (e *Engine) SetPixels(writes []PixelWrite) error {
	return e.Paint(func(c *Canvas) error {
		for _, w := range writes {
			if err := c.Set(w.Index, w.Color); err != nil {
				return err
			}
		}
		return nil
	})
}

// Say shows text across the whole board.
func (e *Engine) Say(text string, fg, bg rgb.Color) error {
	return e.do(func() error {
		if e.anim.Say(text, fg, bg, 0, e.geo.Columns()) {
			e.render()
		}
		return nil
	})
}

// IsConnected reports whether the upstream feed is connected.
func (e *Engine) IsConnected() bool { return e.connected.Load() }

// Class is the current class id, empty outside a class.
func (e *Engine) Class() string {
	var class string
	e.do(func() error {
		class = e.class
		return nil
	})
	return class
}

// Connected shows the idle text once the upstream feed is up.
func (e *Engine) Connected() {
	e.connected.Store(true)
	e.do(func() error {
		e.anim.Say(e.idleText, rgb.White, rgb.Black, 0, e.geo.Columns())
		e.cue(CueBootup, false)
		e.render()
		return nil
	})
}

// Disconnected stops all text, blanks the strip and forgets the poll and
// timer so the next ones are drawn from scratch.
func (e *Engine) Disconnected() {
	e.connected.Store(false)
	e.do(func() error {
		e.anim.CancelAll()
		e.buf.fill(rgb.Black, 0, e.buf.Len())
		e.poll = nil
		e.timer = TimerState{}
		e.render()
		return nil
	})
}

// SetClass records the class the sign follows. Leaving all classes clears
// the bar and shows the idle text.
func (e *Engine) SetClass(class string) {
	e.do(func() error {
		if class != NoClass {
			e.class = class
			return nil
		}
		e.class = ""
		e.poll = nil
		e.buf.fill(rgb.Black, 0, e.geo.BarLength)
		e.anim.Say(e.idleText, rgb.White, rgb.Black, 0, e.geo.Columns())
		e.render()
		return nil
	})
}

// UpdatePoll draws a poll snapshot unless it equals the current one.
func (e *Engine) UpdatePoll(s Snapshot) {
	e.do(func() error {
		e.applyPoll(s, false)
		return nil
	})
}

// UpdateTimer draws the class timer.
func (e *Engine) UpdateTimer(t TimerState) {
	e.do(func() error {
		e.applyTimer(t)
		return nil
	})
}
