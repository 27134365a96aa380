package display

import (
	"fmt"
	"math"
	"slices"

	"formpix/internal/glyph"
	"formpix/internal/rgb"
)

// Choice is one poll answer with its running count.
type Choice struct {
	Name      string
	Color     rgb.Color
	Responses int
}

// Snapshot is the poll as last reported upstream. Choices keep upstream
// order.
type Snapshot struct {
	Status          bool
	Prompt          string
	Choices         []Choice
	TotalResponders int
	Blind           bool
	MultiRes        bool
}

// Responses sums the responses over all choices.
func (s Snapshot) Responses() int {
	n := 0
	for _, c := range s.Choices {
		n += c.Responses
	}
	return n
}

// Count returns the responses for the named choice, 0 if there is none.
func (s Snapshot) Count(name string) int {
	for _, c := range s.Choices {
		if c.Name == name {
			return c.Responses
		}
	}
	return 0
}

// Equal reports whether two snapshots are identical, choice order included.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Status == o.Status &&
		s.Prompt == o.Prompt &&
		s.TotalResponders == o.TotalResponders &&
		s.Blind == o.Blind &&
		s.MultiRes == o.MultiRes &&
		slices.Equal(s.Choices, o.Choices)
}

func (s Snapshot) clone() Snapshot {
	s.Choices = slices.Clone(s.Choices)
	return s
}

// TimerState is the class timer. While Active it owns the bar.
type TimerState struct {
	StartTime float64
	TimeLeft  float64
	Active    bool
}

// Bar colours.
const (
	barBase   = rgb.Gray
	barBlind  = rgb.Orange
	barSpacer = rgb.Magenta
)

// ThumbsPrompt is the prompt of the quick thumbs up/wiggle/down poll.
const ThumbsPrompt = "Thumbs?"

var wiggleMessages = []string{
	"Wiggle Nation: Where democracy meets indecision!",
	"Wiggle-o-mania: The cure for decision-making paralysis!",
}

// PixelsPerResponder is the block width each response gets on a bar of
// barLength pixels, keeping one pixel per non-empty choice for spacing.
func PixelsPerResponder(barLength, nonEmpty, totalResponders int) int {
	if totalResponders <= 0 {
		return 0
	}
	return max(0, (barLength-nonEmpty)/totalResponders)
}

// layoutBar draws one block per response, choices in order, with a spacer
// pixel between consecutive blocks. Blind mode paints every block the same
// colour. Writes stop at the end of bar; pixels past the last block keep
// their colour. It returns how many pixels it wrote.
func layoutBar(bar []rgb.Color, s Snapshot, blind bool) int {
	nonEmpty := 0
	for _, c := range s.Choices {
		if c.Responses > 0 {
			nonEmpty++
		}
	}
	width := PixelsPerResponder(len(bar), nonEmpty, s.TotalResponders)
	blocks := s.Responses()

	cursor, drawn := 0, 0
	for _, c := range s.Choices {
		color := c.Color
		if blind {
			color = barBlind
		}
		for n := 0; n < c.Responses; n++ {
			for p := 0; p < width && cursor < len(bar); p++ {
				bar[cursor] = color
				cursor++
			}
			drawn++
			if drawn < blocks && cursor < len(bar) {
				bar[cursor] = barSpacer
				cursor++
			}
		}
	}
	return cursor
}

// consensus returns the only choice holding responses, if exactly one does.
func consensus(s Snapshot) (Choice, bool) {
	var only Choice
	n := 0
	for _, c := range s.Choices {
		if c.Responses > 0 {
			only = c
			n++
		}
	}
	return only, n == 1
}

// applyPoll draws a poll snapshot. Identical snapshots are skipped unless
// replay is set, which also keeps the sound cues quiet.
func (e *Engine) applyPoll(s Snapshot, replay bool) {
	if !replay && e.poll != nil && e.poll.Equal(s) {
		return
	}
	s = s.clone()
	e.poll = &s

	barLen := e.geo.BarLength
	if !s.Status {
		e.buf.fill(rgb.Black, 0, barLen)
		e.anim.Say(e.idleText, rgb.White, rgb.Black, 0, e.geo.Columns())
		e.render()
		return
	}

	responses := s.Responses()
	special := false

	if !e.timer.Active {
		e.buf.fill(barBase, 0, barLen)
		blind := s.Blind
		full := responses == s.TotalResponders && responses > 0 && !s.MultiRes

		if full {
			blind = false
			if s.Prompt == ThumbsPrompt {
				switch s.TotalResponders {
				case s.Count("Up"):
					e.clearBoard()
					e.buf.Gradient(rgb.Blue, rgb.Red, 0, barLen)
					e.anim.Say("Max Gamer", rgb.Green, rgb.Black, 0, e.geo.Columns())
					e.cue(CueSuccess, replay)
					e.render()
					return
				case s.Count("Wiggle"):
					e.clearBoard()
					msg := wiggleMessages[e.rand(len(wiggleMessages))]
					e.anim.Say(msg, rgb.Cyan, rgb.Black, 0, e.geo.Columns())
					e.cue(CueBruh, replay)
					special = true
				case s.Count("Down"):
					e.clearBoard()
					e.anim.Say("Git Gud", rgb.Red, rgb.Black, 0, e.geo.Columns())
					e.cue(CueWompWomp, replay)
					special = true
				}
			}
		}

		if only, ok := consensus(s); full && ok {
			e.buf.fill(only.Color, 0, barLen)
		} else {
			layoutBar(e.buf.px[:barLen], s, blind)
		}
	}

	if !special {
		e.pollText(s, responses)
	}
	e.render()
}

// pollText lays out "<responses>/<total> " and the prompt as two regions side
// by side so each can scroll on its own.
func (e *Engine) pollText(s Snapshot, responses int) {
	count := fmt.Sprintf("%d/%d ", responses, s.TotalResponders)
	prompt := s.Prompt
	if prompt == "" {
		prompt = "Poll"
	}

	cols := e.geo.Columns()
	used := min(glyph.ColumnLength(count+prompt), cols)
	e.anim.CancelOverlapping(used, cols)
	e.buf.fill(rgb.Black, e.geo.ColumnStart(used), e.geo.Len())

	e.anim.Say(count, rgb.White, rgb.Black, 0, cols)
	e.anim.Say(prompt, rgb.White, rgb.Black, glyph.ColumnLength(count), cols)
}

func (e *Engine) clearBoard() {
	e.anim.CancelAll()
	e.buf.fill(rgb.Black, e.geo.BarLength, e.geo.Len())
}

// applyTimer draws the timer over the bar. When a running timer stops, the
// bar is cleared and the stored poll drawn again.
func (e *Engine) applyTimer(t TimerState) {
	barLen := e.geo.BarLength
	if !t.Active {
		if e.timer.Active {
			e.timer = t
			e.buf.fill(rgb.Black, 0, barLen)
			e.render()
			if e.poll != nil {
				e.applyPoll(*e.poll, true)
			}
		}
		return
	}

	e.timer = t
	if t.TimeLeft > 0 && t.StartTime > 0 {
		left := int(math.Round(float64(barLen) * t.TimeLeft / t.StartTime))
		left = max(0, min(left, barLen))
		e.buf.fill(rgb.Blue, 0, left)
		e.buf.fill(rgb.White, left, barLen)
	} else {
		e.buf.fill(rgb.Red, 0, barLen)
	}
	e.render()
}
