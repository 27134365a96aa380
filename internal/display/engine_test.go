package display

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"formpix/internal/apperr"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

func TestEngineConnectedShowsIdleText(t *testing.T) {
	rig := newRig(t, 10)
	rig.engine.Connected()

	if !rig.engine.IsConnected() {
		t.Error("IsConnected() = false after Connected")
	}
	regions := rig.regions(t)
	if len(regions) != 1 || regions[0].Text != "formbar.local" || !regions[0].Scrolling {
		t.Errorf("regions = %+v, want scrolling idle text", regions)
	}
	if cues := rig.cues.played(); !slices.Equal(cues, []string{CueBootup}) {
		t.Errorf("cues = %v", cues)
	}
}

func TestEngineDisconnectedBlanks(t *testing.T) {
	rig := newRig(t, 10)
	rig.engine.Connected()
	rig.engine.UpdatePoll(Snapshot{Status: true, TotalResponders: 1, Choices: []Choice{{Name: "A", Color: rgb.Red, Responses: 1}}})
	rig.engine.Disconnected()

	if rig.engine.IsConnected() {
		t.Error("IsConnected() = true after Disconnected")
	}
	if got := rig.frame(t); slices.ContainsFunc(got, func(c rgb.Color) bool { return c != rgb.Black }) {
		t.Error("strip not blank after Disconnected")
	}
	if n := len(rig.regions(t)); n != 0 {
		t.Errorf("regions = %d, want 0", n)
	}
	if rig.sched.live() != 0 {
		t.Errorf("live tasks = %d, want 0", rig.sched.live())
	}

	// The stored poll is forgotten, so the same snapshot draws again.
	before := rig.sink.count()
	rig.engine.UpdatePoll(Snapshot{Status: true, TotalResponders: 1, Choices: []Choice{{Name: "A", Color: rgb.Red, Responses: 1}}})
	if rig.sink.count() == before {
		t.Error("poll after reconnect was skipped")
	}
}

func TestEngineTickAdvancesScroll(t *testing.T) {
	rig := newRig(t, 10)
	rig.engine.Say("hello world", rgb.White, rgb.Black)
	before := rig.sink.count()

	rig.sched.fireAll()
	regions := rig.regions(t)
	if len(regions) != 1 || regions[0].Offset != 1 {
		t.Fatalf("regions = %+v, want offset 1", regions)
	}
	if rig.sink.count() != before+1 {
		t.Errorf("tick pushed %d frames, want 1", rig.sink.count()-before)
	}
}

func TestEngineSayIsIdempotent(t *testing.T) {
	rig := newRig(t, 10)
	rig.engine.Say("hi", rgb.White, rgb.Black)
	before := rig.sink.count()
	rig.engine.Say("hi", rgb.White, rgb.Black)
	if rig.sink.count() != before {
		t.Error("repeated Say pushed a frame")
	}
}

func TestEngineBoardWritesCancelText(t *testing.T) {
	rig := newRig(t, 10)
	rig.engine.Say("hello world", rgb.White, rgb.Black)

	if err := rig.engine.Fill(rgb.Red, 0, 10); err != nil {
		t.Fatalf("Fill error = %v", err)
	}
	if n := len(rig.regions(t)); n != 1 {
		t.Fatalf("bar fill cancelled text: regions = %d", n)
	}

	idx, _ := rig.engine.Geometry().Map(5, 3)
	if err := rig.engine.SetPixel(idx, rgb.Blue); err != nil {
		t.Fatalf("SetPixel error = %v", err)
	}
	if n := len(rig.regions(t)); n != 0 {
		t.Errorf("regions = %d after a board write, want 0", n)
	}
	if rig.sched.live() != 0 {
		t.Errorf("live tasks = %d, want 0", rig.sched.live())
	}
	if got := rig.frame(t)[idx]; got != rgb.Blue {
		t.Errorf("pixel = %v, want blue", got)
	}
}

func TestEngineScatteredWritesCancelOnlyTheirColumns(t *testing.T) {
	rig := newRig(t, 10)
	g := rig.engine.Geometry()
	rig.engine.do(func() error {
		rig.engine.anim.Say("hi", rgb.White, rgb.Black, 0, 10)
		rig.engine.anim.Say("yo", rgb.White, rgb.Black, 20, 30)
		return nil
	})
	if n := len(rig.regions(t)); n != 2 {
		t.Fatalf("regions = %d, want 2", n)
	}

	under, _ := g.Map(21, 0)
	err := rig.engine.SetPixels([]PixelWrite{
		{Index: 0, Color: rgb.Red},
		{Index: under, Color: rgb.Red},
		{Index: g.Len() - 1, Color: rgb.Red},
	})
	if err != nil {
		t.Fatalf("SetPixels error = %v", err)
	}
	regions := rig.regions(t)
	if len(regions) != 1 || regions[0].Text != "hi" {
		t.Errorf("regions = %+v, want only the one at column 0", regions)
	}
}

func TestEngineSetPixelsIsAtomic(t *testing.T) {
	rig := newRig(t, 10)
	n := rig.engine.Geometry().Len()
	err := rig.engine.SetPixels([]PixelWrite{
		{Index: 0, Color: rgb.Red},
		{Index: n, Color: rgb.Blue},
	})

	var be *apperr.BoundsError
	if !errors.As(err, &be) {
		t.Fatalf("SetPixels error = %v, want BoundsError", err)
	}
	if got := rig.frame(t)[0]; got != rgb.Black {
		t.Errorf("pixel 0 = %v, want untouched", got)
	}
}

func TestEnginePaintRollsBack(t *testing.T) {
	rig := newRig(t, 10)
	boom := errors.New("boom")
	err := rig.engine.Paint(func(c *Canvas) error {
		if err := c.Fill(rgb.Red, 0, c.Len()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Paint error = %v", err)
	}
	if got := rig.frame(t); slices.ContainsFunc(got, func(c rgb.Color) bool { return c != rgb.Black }) {
		t.Error("failed paint left pixels behind")
	}
}

func TestEngineGradient(t *testing.T) {
	rig := newRig(t, 10)
	if err := rig.engine.Gradient(rgb.Blue, rgb.Red, 2, 5); err != nil {
		t.Fatalf("Gradient error = %v", err)
	}
	got := rig.frame(t)
	if got[2] != rgb.Blue || got[6] != rgb.Red || got[1] != rgb.Black || got[7] != rgb.Black {
		t.Errorf("gradient = %v", got[:10])
	}
}

func TestEngineSetClass(t *testing.T) {
	rig := newRig(t, 10)
	rig.engine.SetClass("class-7")
	if got := rig.engine.Class(); got != "class-7" {
		t.Errorf("Class() = %q", got)
	}

	rig.engine.Fill(rgb.Red, 0, 10)
	rig.engine.SetClass(NoClass)
	if got := rig.engine.Class(); got != "" {
		t.Errorf("Class() = %q after noClass", got)
	}
	if got := bar(rig.frame(t), 10); !slices.Equal(got, make([]rgb.Color, 10)) {
		t.Errorf("bar = %v, want black", got)
	}
	regions := rig.regions(t)
	if len(regions) != 1 || regions[0].Text != "formbar.local" {
		t.Errorf("regions = %+v, want idle text", regions)
	}
}

func TestEngineSinkErrorsAreLogged(t *testing.T) {
	rig := newRig(t, 10)
	rig.sink.mu.Lock()
	rig.sink.err = errors.New("strip unplugged")
	rig.sink.mu.Unlock()

	if err := rig.engine.Fill(rgb.Red, 0, 1); err != nil {
		t.Errorf("Fill error = %v, want sink failures kept out of mutations", err)
	}
}

func TestEngineStopped(t *testing.T) {
	e := New(Options{Geometry: geometry.New(10, 1), Scheduler: newManualScheduler()})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if err := e.Fill(rgb.Red, 0, 1); !errors.Is(err, ErrStopped) {
		t.Errorf("Fill after stop = %v, want ErrStopped", err)
	}
}

func TestTickerScheduler(t *testing.T) {
	s := NewTickerScheduler()
	ticks := make(chan struct{}, 8)
	s.Every("a", time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	s.Every("a", time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	if s.Running() != 1 {
		t.Fatalf("Running() = %d, want the replaced task only", s.Running())
	}

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}

	s.Stop("a")
	s.Stop("missing")
	if s.Running() != 0 {
		t.Errorf("Running() = %d after Stop", s.Running())
	}
	s.Every("b", time.Hour, func() {})
	s.StopAll()
	if s.Running() != 0 {
		t.Errorf("Running() = %d after StopAll", s.Running())
	}
}
