package tesseract

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometry(t *testing.T) {
	vs := Vertices()
	es := Edges()
	require.Len(t, vs, 16)
	require.Len(t, es, 32)

	degree := make(map[int]int)
	for _, e := range es {
		degree[e[0]]++
		degree[e[1]]++
	}
	for i := range vs {
		assert.Equal(t, 4, degree[i], "vertex %d", i)
	}
}

func TestProjectVertex_AtRest(t *testing.T) {
	// theta=0: no rotation; w=-1 enlarges (3/2), z=-1 enlarges again
	p := ProjectVertex(Vec4{1, 1, -1, -1}, 0, 100, 100, 30)

	scale4 := 3.0 / 2.0
	scale3 := 5.0 / (5.0 - scale4)
	assert.InDelta(t, 100+scale4*30*scale3, p.X, 1e-9)
	assert.InDelta(t, 100+scale4*30*scale3, p.Y, 1e-9)
}

func TestProject_CentredAndSymmetric(t *testing.T) {
	pts := Project(0.7, 100, 100, 30)
	var sx, sy float64
	for _, p := range pts {
		assert.False(t, math.IsNaN(p.X) || math.IsInf(p.X, 0))
		sx += p.X - 100
		sy += p.Y - 100
	}
	// perspective skews the mean slightly but it stays near the centre
	assert.InDelta(t, 0, sx/16, 15)
	assert.InDelta(t, 0, sy/16, 15)
}

func TestSpinner(t *testing.T) {
	var s Spinner
	assert.InDelta(t, 0.01, s.Advance(), 1e-12)
	assert.InDelta(t, 0.02, s.Advance(), 1e-12)

	s.Theta = 2*math.Pi - 0.005
	assert.InDelta(t, 0.005, s.Advance(), 1e-9)
}

func TestSVG(t *testing.T) {
	svg := SVG(200, 200, 0.3)
	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200"`))
	assert.Equal(t, 32, strings.Count(svg, "<line "))
	assert.Contains(t, svg, `stroke="#2d2d2d"`)
}

func TestCanvas_Line(t *testing.T) {
	c := NewCanvas(5, 3)
	c.Line(0, 0, 4, 2, '#')

	assert.Equal(t, '#', c.At(0, 0))
	assert.Equal(t, '#', c.At(2, 1))
	assert.Equal(t, '#', c.At(4, 2))
	assert.Equal(t, rune(0), c.At(9, 9))

	c.Set(-1, 0, 'x') // ignored
	assert.Equal(t, 3, len(strings.Split(c.String(), "\n")))
}

func TestRasterise(t *testing.T) {
	c := NewCanvas(40, 20)
	Rasterise(c, 0.4)
	out := c.String()
	assert.Equal(t, 16, strings.Count(out, "●")+countHidden(c))
	assert.Contains(t, out, "·")
}

// countHidden counts vertices that landed on another vertex's cell.
func countHidden(c *Canvas) int {
	seen := make(map[[2]int]bool)
	hidden := 0
	size := math.Min(float64(c.W)/2, float64(c.H)) / rasterFit
	for _, p := range Project(0.4, 0, 0, size) {
		k := [2]int{int(math.Round(float64(c.W)/2 + p.X*2)), int(math.Round(float64(c.H)/2 + p.Y))}
		if seen[k] {
			hidden++
		}
		seen[k] = true
	}
	return hidden
}
