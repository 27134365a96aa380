// Package sim draws the strip in a terminal, laid out the way the sign
// hangs: the bar on top and the boards below it.
package sim

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"

	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// cellWidth is how many terminal cells one LED takes, so pixels look square.
const cellWidth = 2

const pixelRune = '█'

// Screen is a display sink backed by a tcell screen.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	geo    geometry.Geometry
}

// Open starts a terminal screen.
func Open(g geometry.Geometry) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return New(screen, g), nil
}

// New wraps an initialized screen.
func New(screen tcell.Screen, g geometry.Geometry) *Screen {
	screen.HideCursor()
	return &Screen{screen: screen, geo: g}
}

// barRows is how many rows the bar wraps onto, one board-width per row.
func (s *Screen) barRows() int {
	perRow := max(1, s.geo.Columns())
	return (s.geo.BarLength + perRow - 1) / perRow
}

func (s *Screen) Render(frame []rgb.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	perRow := max(1, s.geo.Columns())
	for i := 0; i < s.geo.BarLength && i < len(frame); i++ {
		s.set(i%perRow, i/perRow, frame[i])
	}

	top := s.barRows() + 1
	for x := 0; x < s.geo.Columns(); x++ {
		for y := 0; y < s.geo.Height; y++ {
			i, err := s.geo.Map(x, y)
			if err != nil || i >= len(frame) {
				continue
			}
			s.set(x, top+y, frame[i])
		}
	}
	s.screen.Show()
	return nil
}

func (s *Screen) set(x, y int, c rgb.Color) {
	r, g, b := rgb.Unpack(c)
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	for k := 0; k < cellWidth; k++ {
		s.screen.SetContent(x*cellWidth+k, y, pixelRune, nil, style)
	}
}

// WaitQuit blocks until the user presses Esc, q or Ctrl-C, or ctx ends.
func (s *Screen) WaitQuit(ctx context.Context) {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return
				}
			case *tcell.EventResize:
				s.mu.Lock()
				s.screen.Sync()
				s.mu.Unlock()
			}
		}
	}
}

// Close restores the terminal.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}
