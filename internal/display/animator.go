package display

import (
	"fmt"
	"strings"
	"time"

	"formpix/internal/geometry"
	"formpix/internal/glyph"
	"formpix/internal/rgb"
)

// DefaultScrollInterval is how often a scrolling region moves one column.
const DefaultScrollInterval = 200 * time.Millisecond

// scrollLead is the blank run put in front of scrolling text: two glyph
// widths plus a spacer.
const scrollLead = 2*6 + 1

// Region is one block of text on the board, owning the columns
// [StartColumn, EndColumn).
type Region struct {
	id         string
	text       string
	fg, bg     rgb.Color
	start, end int
	cols       []glyph.Column
	offset     int
	scrolling  bool
	cancelled  bool
}

// RegionInfo is a read-only view of a live region.
type RegionInfo struct {
	Text        string
	TextColor   rgb.Color
	Background  rgb.Color
	StartColumn int
	EndColumn   int
	Offset      int
	Scrolling   bool
}

func (r *Region) info() RegionInfo {
	return RegionInfo{
		Text:        r.text,
		TextColor:   r.fg,
		Background:  r.bg,
		StartColumn: r.start,
		EndColumn:   r.end,
		Offset:      r.offset,
		Scrolling:   r.scrolling,
	}
}

func (r *Region) overlaps(start, end int) bool {
	return start < r.end && end > r.start
}

// Animator keeps the live regions, and with them the guarantee that no two
// live regions share a column. It is only touched from the engine goroutine.
type Animator struct {
	geo      geometry.Geometry
	buf      *Buffer
	sched    Scheduler
	interval time.Duration
	// onTick is called from the scheduler for a scrolling region; the engine
	// routes it back onto its own goroutine.
	onTick  func(r *Region)
	regions []*Region
	seq     int
}

func newAnimator(g geometry.Geometry, buf *Buffer, sched Scheduler, interval time.Duration) *Animator {
	return &Animator{geo: g, buf: buf, sched: sched, interval: interval}
}

// Say shows text over board columns [start, end). It returns false when
// nothing was done: an identical region is already live, or the range holds
// no columns once clamped to the board and to the text's width.
func (a *Animator) Say(text string, fg, bg rgb.Color, start, end int) bool {
	text = strings.ToLower(text)
	start = max(0, min(start, a.geo.Columns()))
	end = max(start, min(end, a.geo.Columns()))

	width := glyph.ColumnLength(text)
	if start+width < end {
		end = start + width
	}
	// No columns left, or nothing to draw.
	if end <= start {
		return false
	}

	for _, r := range a.regions {
		if r.text == text && r.fg == fg && r.bg == bg && r.start == start && r.end == end {
			return false
		}
	}
	a.CancelOverlapping(start, end)

	a.seq++
	r := &Region{
		id:    fmt.Sprintf("region-%d", a.seq),
		text:  text,
		fg:    fg,
		bg:    bg,
		start: start,
		end:   end,
		cols:  append([]glyph.Column{glyph.Blank}, glyph.Columns(text)...),
	}
	a.regions = append(a.regions, r)

	if len(r.cols)-1 <= end-start {
		a.render(r)
		return true
	}

	lead := make([]glyph.Column, scrollLead, scrollLead+len(r.cols))
	r.cols = append(lead, r.cols...)
	r.scrolling = true
	a.render(r)
	a.sched.Every(r.id, a.interval, func() {
		if a.onTick != nil {
			a.onTick(r)
		}
	})
	return true
}

// advance moves a scrolling region one column and redraws it. It reports
// false for a region cancelled while its tick was in flight.
func (a *Animator) advance(r *Region) bool {
	if r.cancelled || !r.scrolling {
		return false
	}
	r.offset = (r.offset + 1) % len(r.cols)
	a.render(r)
	return true
}

// render blanks the region and draws its columns from the current offset,
// wrapping around. Odd board columns are wired bottom to top, so their
// columns are written mirrored. Drawing stops at the region's last pixel.
func (a *Animator) render(r *Region) {
	lo, hi := a.geo.ColumnStart(r.start), a.geo.ColumnStart(r.end)
	a.buf.fill(rgb.Black, lo, hi)

	h := a.geo.Height
	cursor := lo
	for k := 0; k < len(r.cols); k++ {
		col := r.cols[(r.offset+k)%len(r.cols)]
		mirrored := (r.start+k)%2 == 1
		for j := 0; j < h; j++ {
			if cursor >= hi {
				return
			}
			y := j
			if mirrored {
				y = h - 1 - j
			}
			c := r.bg
			if col.Lit(y) {
				c = r.fg
			}
			a.buf.px[cursor] = c
			cursor++
		}
	}
}

func (a *Animator) cancel(r *Region) {
	r.cancelled = true
	if r.scrolling {
		a.sched.Stop(r.id)
	}
}

// CancelOverlapping stops and forgets every region sharing a column with
// [start, end). Their pixels stay where they are.
func (a *Animator) CancelOverlapping(start, end int) int {
	kept := a.regions[:0]
	n := 0
	for _, r := range a.regions {
		if r.overlaps(start, end) {
			a.cancel(r)
			n++
			continue
		}
		kept = append(kept, r)
	}
	clear(a.regions[len(kept):])
	a.regions = kept
	return n
}

// CancelAll stops every region.
func (a *Animator) CancelAll() {
	for _, r := range a.regions {
		a.cancel(r)
	}
	clear(a.regions)
	a.regions = a.regions[:0]
}

// Regions lists the live regions.
func (a *Animator) Regions() []RegionInfo {
	out := make([]RegionInfo, len(a.regions))
	for i, r := range a.regions {
		out[i] = r.info()
	}
	return out
}
