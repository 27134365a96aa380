package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// manualScheduler keeps tasks until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	tasks   map[string]func()
	started int
	stopped int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: make(map[string]func())}
}

func (s *manualScheduler) Every(key string, _ time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[key] = fn
	s.started++
}

func (s *manualScheduler) Stop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[key]; ok {
		delete(s.tasks, key)
		s.stopped++
	}
}

func (s *manualScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *manualScheduler) counts() (started, stopped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.stopped
}

func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.tasks))
	for _, fn := range s.tasks {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type frameSink struct {
	mu     sync.Mutex
	frames [][]rgb.Color
	err    error
}

func (s *frameSink) Render(frame []rgb.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return s.err
}

func (s *frameSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type cueRecorder struct {
	mu    sync.Mutex
	names []string
}

func (c *cueRecorder) Cue(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *cueRecorder) played() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

type testRig struct {
	engine *Engine
	sched  *manualScheduler
	sink   *frameSink
	cues   *cueRecorder
}

func newRig(t *testing.T, barLength int) *testRig {
	t.Helper()
	rig := &testRig{
		sched: newManualScheduler(),
		sink:  &frameSink{},
		cues:  &cueRecorder{},
	}
	rig.engine = New(Options{
		Geometry:  geometry.New(barLength, 1),
		Sink:      rig.sink,
		Scheduler: rig.sched,
		Cues:      rig.cues,
		IdleText:  "formbar.local",
		Rand:      func(int) int { return 0 },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- rig.engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return rig
}

func (r *testRig) frame(t *testing.T) []rgb.Color {
	t.Helper()
	frame, err := r.engine.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	return frame
}

func (r *testRig) regions(t *testing.T) []RegionInfo {
	t.Helper()
	regions, err := r.engine.Regions()
	if err != nil {
		t.Fatalf("Regions() error = %v", err)
	}
	return regions
}

func assertDisjoint(t *testing.T, regions []RegionInfo) {
	t.Helper()
	for i, a := range regions {
		for _, b := range regions[i+1:] {
			if a.StartColumn < b.EndColumn && b.StartColumn < a.EndColumn {
				t.Fatalf("regions overlap: %+v and %+v", a, b)
			}
		}
	}
}
