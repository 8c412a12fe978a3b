// Package textutil provides unicode-aware text helpers and a line-based
// canvas for compositing rendered blocks at cell offsets.
package textutil

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateEllipsis is the unicode ellipsis character used for truncation.
const TruncateEllipsis = "…"

// VisualWidth returns the number of terminal columns s occupies. ANSI escape
// sequences count as zero.
func VisualWidth(s string) int {
	return ansi.StringWidth(s)
}

// Truncate shortens plain text s to at most maxWidth columns, ending with an
// ellipsis when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, TruncateEllipsis)
}

// PadRight pads (or truncates) plain text s to exactly width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// PadLeft right-aligns plain text s in width columns.
func PadLeft(s string, width int) string {
	return runewidth.FillLeft(Truncate(s, width), width)
}

// Canvas is a fixed-size grid of lines that blocks can be drawn onto at any
// cell position. Later draws cover earlier ones.
type Canvas struct {
	width, height int
	lines         []string
}

// NewCanvas returns a blank canvas.
func NewCanvas(width, height int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c := &Canvas{width: width, height: height, lines: make([]string, height)}
	blank := strings.Repeat(" ", width)
	for i := range c.lines {
		c.lines[i] = blank
	}
	return c
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in lines.
func (c *Canvas) Height() int { return c.height }

// Draw places block with its top-left corner at (x, y). Parts falling
// outside the canvas are clipped.
func (c *Canvas) Draw(block string, x, y int) {
	for i, line := range strings.Split(block, "\n") {
		row := y + i
		if row < 0 || row >= c.height {
			continue
		}
		c.drawLine(row, line, x)
	}
}

func (c *Canvas) drawLine(row int, line string, x int) {
	if x < 0 {
		line = ansi.TruncateLeft(line, -x, "")
		x = 0
	}
	if x >= c.width {
		return
	}
	if ansi.StringWidth(line) > c.width-x {
		line = ansi.Truncate(line, c.width-x, "")
	}
	w := ansi.StringWidth(line)

	base := c.lines[row]
	left := ansi.Truncate(base, x, "")
	if lw := ansi.StringWidth(left); lw < x {
		left += strings.Repeat(" ", x-lw)
	}
	right := ansi.TruncateLeft(base, x+w, "")
	c.lines[row] = left + line + right
}

// Center draws block centered on the canvas.
func (c *Canvas) Center(block string) {
	lines := strings.Split(block, "\n")
	w := 0
	for _, l := range lines {
		if lw := ansi.StringWidth(l); lw > w {
			w = lw
		}
	}
	c.Draw(block, (c.width-w)/2, (c.height-len(lines))/2)
}

// String joins the canvas lines.
func (c *Canvas) String() string {
	return strings.Join(c.lines, "\n")
}
