// Package flip animates panels from their previous position to their new one
// after a reorder (First, Last, Invert, Play).
//
// Usage: Capture before the mutation, let the view re-render, then Animate.
// Each moved target is first offset back onto its old position with
// transitions disabled, then released toward zero offset with the easing
// transition enabled.
package flip

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultDuration is the length of a reorder animation.
const DefaultDuration = 220 * time.Millisecond

// DefaultEasing is cubic-bezier(0.22, 1, 0.36, 1), an ease-out curve.
var DefaultEasing = CubicBezier{X1: 0.22, Y1: 1, X2: 0.36, Y2: 1}

// Rect is a panel's bounding box in canvas units (terminal cells).
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// Transition describes an active offset transition.
type Transition struct {
	Property string
	Duration time.Duration
	Easing   CubicBezier
}

func (t Transition) String() string {
	return fmt.Sprintf("%s %dms %s", t.Property, t.Duration.Milliseconds(), t.Easing)
}

// Target is an element the animator can measure and move.
type Target interface {
	// Bounds reports the current rectangle; false when not laid out.
	Bounds() (Rect, bool)
	// SetTransition enables (non-nil) or disables (nil) offset transitions.
	SetTransition(t *Transition)
	// SetTransform sets the visual offset from the laid-out position.
	SetTransform(dx, dy float64)
	// Flush commits pending transform/transition changes so the next
	// SetTransform animates from the value just set.
	Flush()
	// OnTransitionEnd registers a one-shot callback for the end of the
	// running transition.
	OnTransitionEnd(fn func())
}

// Animator tracks targets by id. It is not safe for concurrent use; call it
// from the UI event loop.
type Animator struct {
	targets  map[string]Target
	captured map[string]Rect
}

// New returns an empty Animator.
func New() *Animator {
	return &Animator{
		targets:  make(map[string]Target),
		captured: make(map[string]Rect),
	}
}

// Register associates id with t. A nil target stops tracking id. The last
// registration for an id wins.
func (a *Animator) Register(id string, t Target) {
	if t == nil {
		delete(a.targets, id)
		return
	}
	a.targets[id] = t
}

// Capture snapshots the bounds of every registered target. Call it before
// the state mutation that moves panels.
func (a *Animator) Capture() {
	a.captured = a.snapshot()
}

// Animate measures the new bounds and plays the move for every target that
// has a captured rect and moved by at least one unit on some axis. It
// returns the ids that were animated. The new snapshot replaces the
// captured one.
func (a *Animator) Animate(d time.Duration) []string {
	if d <= 0 {
		d = DefaultDuration
	}
	next := a.snapshot()

	ids := make([]string, 0, len(next))
	for id := range next {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var moved []string
	for _, id := range ids {
		prev, ok := a.captured[id]
		if !ok {
			continue
		}
		cur := next[id]
		dx := prev.Left - cur.Left
		dy := prev.Top - cur.Top
		if math.Abs(dx) < 1 && math.Abs(dy) < 1 {
			continue
		}
		t := a.targets[id]
		t.SetTransition(nil)
		t.SetTransform(dx, dy)
		t.Flush()
		t.SetTransition(&Transition{Property: "transform", Duration: d, Easing: DefaultEasing})
		t.SetTransform(0, 0)
		t.OnTransitionEnd(func() { t.SetTransition(nil) })
		moved = append(moved, id)
	}

	a.captured = next
	return moved
}

func (a *Animator) snapshot() map[string]Rect {
	out := make(map[string]Rect, len(a.targets))
	for id, t := range a.targets {
		if r, ok := t.Bounds(); ok {
			out[id] = r
		}
	}
	return out
}
