package flip

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	rect   Rect
	placed bool
	calls  []string
	onEnd  []func()
	trans  *Transition
}

func newFake(left, top float64) *fakeTarget {
	return &fakeTarget{rect: Rect{Left: left, Top: top, Width: 10, Height: 4}, placed: true}
}

func (f *fakeTarget) Bounds() (Rect, bool) { return f.rect, f.placed }

func (f *fakeTarget) SetTransition(t *Transition) {
	f.trans = t
	if t == nil {
		f.calls = append(f.calls, "transition:none")
		return
	}
	f.calls = append(f.calls, "transition:"+t.String())
}

func (f *fakeTarget) SetTransform(dx, dy float64) {
	f.calls = append(f.calls, fmt.Sprintf("transform:%g,%g", dx, dy))
}

func (f *fakeTarget) Flush() { f.calls = append(f.calls, "flush") }

func (f *fakeTarget) OnTransitionEnd(fn func()) {
	f.calls = append(f.calls, "on-end")
	f.onEnd = append(f.onEnd, fn)
}

func TestAnimate_PlaysInvertedMove(t *testing.T) {
	a := New()
	moved := newFake(0, 0)
	a.Register("a", moved)

	a.Capture()
	moved.rect.Top = 8
	ids := a.Animate(0)

	assert.Equal(t, []string{"a"}, ids)
	assert.Equal(t, []string{
		"transition:none",
		"transform:0,-8",
		"flush",
		"transition:transform 220ms cubic-bezier(0.22, 1, 0.36, 1)",
		"transform:0,0",
		"on-end",
	}, moved.calls)

	require.Len(t, moved.onEnd, 1)
	moved.onEnd[0]()
	assert.Nil(t, moved.trans)
}

func TestAnimate_SubUnitMovesAreIgnored(t *testing.T) {
	a := New()
	still := newFake(3, 3)
	a.Register("still", still)

	a.Capture()
	still.rect.Left = 3.6
	still.rect.Top = 2.2
	ids := a.Animate(DefaultDuration)

	assert.Empty(t, ids)
	assert.Empty(t, still.calls)
}

func TestAnimate_WithoutCaptureIsNoOp(t *testing.T) {
	a := New()
	f := newFake(0, 0)
	a.Register("a", f)
	f.rect.Left = 40

	assert.Empty(t, a.Animate(DefaultDuration))
	assert.Empty(t, f.calls)
}

func TestAnimate_SkipsUnplacedAndUnregistered(t *testing.T) {
	a := New()
	gone := newFake(0, 0)
	hidden := newFake(0, 10)
	a.Register("gone", gone)
	a.Register("hidden", hidden)

	a.Capture()
	a.Register("gone", nil)
	hidden.placed = false
	gone.rect.Top = 20

	assert.Empty(t, a.Animate(DefaultDuration))
	assert.Empty(t, gone.calls)
	assert.Empty(t, hidden.calls)
}

func TestAnimate_ReplacesCapturedSnapshot(t *testing.T) {
	a := New()
	f := newFake(0, 0)
	a.Register("a", f)

	a.Capture()
	f.rect.Top = 5
	require.Len(t, a.Animate(DefaultDuration), 1)

	f.calls = nil
	assert.Empty(t, a.Animate(DefaultDuration), "second animate compares against the last snapshot")
	assert.Empty(t, f.calls)
}

func TestRegister_LastWriteWins(t *testing.T) {
	a := New()
	first := newFake(0, 0)
	second := newFake(0, 0)
	a.Register("a", first)
	a.Register("a", second)

	a.Capture()
	second.rect.Left = 12
	a.Animate(DefaultDuration)

	assert.Empty(t, first.calls)
	assert.NotEmpty(t, second.calls)
}

func TestCubicBezier_Ease(t *testing.T) {
	e := DefaultEasing
	assert.Equal(t, 0.0, e.Ease(0))
	assert.Equal(t, 1.0, e.Ease(1))

	prev := 0.0
	for i := 1; i < 20; i++ {
		v := e.Ease(float64(i) / 20)
		assert.GreaterOrEqual(t, v, prev, "monotonic at %d", i)
		prev = v
	}
	assert.Greater(t, e.Ease(0.5), 0.5, "ease-out front-loads progress")

	linear := CubicBezier{X1: 0, Y1: 0, X2: 1, Y2: 1}
	assert.InDelta(t, 0.3, linear.Ease(0.3), 1e-4)
}

func TestMotion_Offset(t *testing.T) {
	start := time.Unix(100, 0)
	m := Motion{FromX: 0, FromY: -8, Start: start, Duration: 200 * time.Millisecond, Easing: DefaultEasing}

	dx, dy, done := m.Offset(start)
	assert.False(t, done)
	assert.Equal(t, 0.0, dx)
	assert.Equal(t, -8.0, dy)

	_, mid, done := m.Offset(start.Add(100 * time.Millisecond))
	assert.False(t, done)
	assert.Greater(t, mid, -4.0)
	assert.Less(t, mid, 0.0)

	_, end, done := m.Offset(start.Add(200 * time.Millisecond))
	assert.True(t, done)
	assert.Equal(t, 0.0, end)
}
