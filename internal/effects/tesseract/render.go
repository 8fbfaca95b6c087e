package tesseract

import (
	"fmt"
	"math"
	"strings"
)

const (
	strokeColor = "#2d2d2d"
	strokeWidth = 3

	// rasterFit keeps the widest projection (just under 2.9x size from the
	// centre) inside the canvas.
	rasterFit = 6.4
)

// SVG renders the wireframe at theta as a standalone SVG document.
func SVG(width, height int, theta float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&b, `<g stroke="%s" stroke-width="%d" stroke-linecap="round">`, strokeColor, strokeWidth)
	for _, s := range Segments(theta, float64(width)/2, float64(height)/2, DefaultSize) {
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`, s.A.X, s.A.Y, s.B.X, s.B.Y)
	}
	b.WriteString(`</g></svg>`)
	return b.String()
}

// Canvas is a grid of runes for terminal rendering.
type Canvas struct {
	W, H  int
	cells [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{W: w, H: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *Canvas) Set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return
	}
	c.cells[y][x] = r
}

func (c *Canvas) At(x, y int) rune {
	if x < 0 || y < 0 || x >= c.W || y >= c.H {
		return 0
	}
	return c.cells[y][x]
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int, r rune) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0, r)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	lines := make([]string, c.H)
	for y, row := range c.cells {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

// Rasterise draws the wireframe at theta onto c. Terminal cells are roughly
// twice as tall as they are wide, so x is stretched to keep the cube square.
func Rasterise(c *Canvas, theta float64) {
	c.Clear()
	size := math.Min(float64(c.W)/2, float64(c.H)) / rasterFit
	cx, cy := float64(c.W)/2, float64(c.H)/2
	for _, s := range Segments(theta, 0, 0, size) {
		c.Line(
			int(math.Round(cx+s.A.X*2)), int(math.Round(cy+s.A.Y)),
			int(math.Round(cx+s.B.X*2)), int(math.Round(cy+s.B.Y)),
			'·',
		)
	}
	for _, p := range Project(theta, 0, 0, size) {
		c.Set(int(math.Round(cx+p.X*2)), int(math.Round(cy+p.Y)), '●')
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
