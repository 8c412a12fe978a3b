package flip

import (
	"fmt"
	"math"
	"time"
)

// CubicBezier is a timing curve through (0,0), (X1,Y1), (X2,Y2), (1,1).
type CubicBezier struct {
	X1, Y1, X2, Y2 float64
}

func (c CubicBezier) String() string {
	return fmt.Sprintf("cubic-bezier(%g, %g, %g, %g)", c.X1, c.Y1, c.X2, c.Y2)
}

// Ease maps animation progress p in [0,1] to eased progress.
func (c CubicBezier) Ease(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return bezier(c.solveT(p), c.Y1, c.Y2)
}

// solveT finds t with x(t) == p: Newton first, bisection when the slope is
// too flat to trust.
func (c CubicBezier) solveT(p float64) float64 {
	const eps = 1e-6
	t := p
	for i := 0; i < 8; i++ {
		x := bezier(t, c.X1, c.X2) - p
		if math.Abs(x) < eps {
			return t
		}
		d := bezierSlope(t, c.X1, c.X2)
		if math.Abs(d) < eps {
			break
		}
		t -= x / d
	}

	lo, hi := 0.0, 1.0
	t = p
	for i := 0; i < 64 && hi-lo > eps; i++ {
		x := bezier(t, c.X1, c.X2)
		if math.Abs(x-p) < eps {
			return t
		}
		if x < p {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}

// bezier evaluates one axis of the curve with endpoints 0 and 1.
func bezier(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierSlope(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

// Motion is one running offset transition from (FromX, FromY) to zero.
type Motion struct {
	FromX, FromY float64
	Start        time.Time
	Duration     time.Duration
	Easing       CubicBezier
}

// Offset returns the offset at now and whether the motion has finished.
func (m Motion) Offset(now time.Time) (dx, dy float64, done bool) {
	if m.Duration <= 0 {
		return 0, 0, true
	}
	elapsed := now.Sub(m.Start)
	if elapsed >= m.Duration {
		return 0, 0, true
	}
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := 1 - m.Easing.Ease(float64(elapsed)/float64(m.Duration))
	return m.FromX * remaining, m.FromY * remaining, false
}
