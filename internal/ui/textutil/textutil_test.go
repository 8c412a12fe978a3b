package textutil

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"AAPL", 10, "AAPL"},
		{"Market Leaders", 8, "Market …"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPad(t *testing.T) {
	if got := PadRight("AAPL", 6); got != "AAPL  " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadLeft("1.5%", 6); got != "  1.5%" {
		t.Errorf("PadLeft = %q", got)
	}
	if got := VisualWidth(PadRight("Quick Stats and more", 8)); got != 8 {
		t.Errorf("PadRight width = %d, want 8", got)
	}
}

func TestCanvas_Draw(t *testing.T) {
	c := NewCanvas(10, 3)
	c.Draw("ab\ncd", 2, 1)

	want := strings.Join([]string{
		"          ",
		"  ab      ",
		"  cd      ",
	}, "\n")
	if got := c.String(); got != want {
		t.Errorf("canvas =\n%q\nwant\n%q", got, want)
	}
}

func TestCanvas_LaterDrawCovers(t *testing.T) {
	c := NewCanvas(6, 1)
	c.Draw("xxxx", 0, 0)
	c.Draw("yy", 1, 0)
	if got := c.String(); got != "xyyx  " {
		t.Errorf("canvas = %q", got)
	}
}

func TestCanvas_Clips(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Draw("abcdef", -2, 0)
	c.Draw("zz\nzz\nzz", 3, 1)
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[0] != "cdef" {
		t.Errorf("row 0 = %q, want %q", lines[0], "cdef")
	}
	if lines[1] != "   z" {
		t.Errorf("row 1 = %q, want %q", lines[1], "   z")
	}
}

func TestCanvas_StyledBlocks(t *testing.T) {
	box := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Render("hi")
	c := NewCanvas(12, 4)
	c.Draw(box, 3, 0)
	for i, line := range strings.Split(c.String(), "\n") {
		if w := VisualWidth(line); w != 12 {
			t.Errorf("row %d width = %d, want 12", i, w)
		}
	}
	if !strings.Contains(c.String(), "hi") {
		t.Error("box content missing")
	}
}
