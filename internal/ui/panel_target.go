package ui

import (
	"math"
	"time"

	"stockdash/internal/flip"
)

// panelTarget is the terminal side of a FLIP move: a panel's laid-out
// rectangle plus a visual offset that frame ticks ease back to zero.
//
// It mirrors how a browser applies transforms: without a transition a new
// offset is applied at once; Flush commits it as the starting point; with a
// transition enabled, SetTransform starts a Motion from the committed offset.
type panelTarget struct {
	rect   flip.Rect
	placed bool

	offX, offY   float64 // current visual offset
	baseX, baseY float64 // offset committed by the last Flush
	transition   *flip.Transition
	motion       *flip.Motion
	onEnd        func()

	now func() time.Time
}

var _ flip.Target = (*panelTarget)(nil)

func newPanelTarget(now func() time.Time) *panelTarget {
	if now == nil {
		now = time.Now
	}
	return &panelTarget{now: now}
}

// place sets the laid-out rectangle. Moving to a new slot drops any running
// motion; the next Animate starts from where the panel was last drawn.
func (p *panelTarget) place(r flip.Rect) {
	if p.placed && r != p.rect {
		p.stop()
	}
	p.rect = r
	p.placed = true
}

// unplace marks the panel as not rendered (hidden).
func (p *panelTarget) unplace() {
	p.placed = false
	p.stop()
}

func (p *panelTarget) stop() {
	p.motion = nil
	p.transition = nil
	p.onEnd = nil
	p.offX, p.offY = 0, 0
	p.baseX, p.baseY = 0, 0
}

// Bounds is the drawn rectangle, running offset included.
func (p *panelTarget) Bounds() (flip.Rect, bool) {
	r := p.rect
	r.Left += p.offX
	r.Top += p.offY
	return r, p.placed
}

func (p *panelTarget) SetTransition(t *flip.Transition) {
	p.transition = t
}

func (p *panelTarget) SetTransform(dx, dy float64) {
	if p.transition == nil {
		p.motion = nil
		p.offX, p.offY = dx, dy
		return
	}
	p.motion = &flip.Motion{
		FromX:    p.baseX - dx,
		FromY:    p.baseY - dy,
		Start:    p.now(),
		Duration: p.transition.Duration,
		Easing:   p.transition.Easing,
	}
	// the motion ends at (dx, dy)
	p.baseX, p.baseY = dx, dy
	p.offX, p.offY = dx+p.motion.FromX, dy+p.motion.FromY
}

func (p *panelTarget) Flush() {
	p.baseX, p.baseY = p.offX, p.offY
}

func (p *panelTarget) OnTransitionEnd(fn func()) {
	p.onEnd = fn
}

// advance moves the running motion to now. It reports whether the panel is
// still moving; the end callback fires once when the motion completes.
func (p *panelTarget) advance(now time.Time) bool {
	if p.motion == nil {
		return false
	}
	dx, dy, done := p.motion.Offset(now)
	p.offX, p.offY = p.baseX+dx, p.baseY+dy
	if !done {
		return true
	}
	p.motion = nil
	p.offX, p.offY = p.baseX, p.baseY
	if fn := p.onEnd; fn != nil {
		p.onEnd = nil
		fn()
	}
	return false
}

// moving reports whether a motion is running.
func (p *panelTarget) moving() bool {
	return p.motion != nil
}

// position returns the on-screen cell of the panel's top-left corner.
func (p *panelTarget) position() (x, y int) {
	return int(math.Round(p.rect.Left + p.offX)), int(math.Round(p.rect.Top + p.offY))
}
