// Package tesseract projects a rotating 8-cell (4D hypercube) to 2D.
//
// The hypercube rotates isoclinically in the x-w and y-z planes by the same
// angle, is perspective-projected from 4D to 3D, then again from 3D to 2D.
package tesseract

import "math"

const (
	// ThetaStep is the rotation added per frame.
	ThetaStep = 0.01

	viewDistance4D = 3.0
	viewDistance3D = 5.0

	DefaultSize = 30.0
)

type Vec4 [4]float64

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Edge [2]int

var (
	vertices = buildVertices()
	edges    = buildEdges(vertices)
)

// Vertices returns the 16 corners of the unit-±1 hypercube.
func Vertices() []Vec4 { return append([]Vec4(nil), vertices...) }

// Edges returns the 32 vertex pairs that differ in exactly one coordinate.
func Edges() []Edge { return append([]Edge(nil), edges...) }

func buildVertices() []Vec4 {
	out := make([]Vec4, 0, 16)
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				for _, w := range []float64{-1, 1} {
					out = append(out, Vec4{x, y, z, w})
				}
			}
		}
	}
	return out
}

func buildEdges(vs []Vec4) []Edge {
	var out []Edge
	for i := 0; i < len(vs); i++ {
		for j := i + 1; j < len(vs); j++ {
			diff := 0
			for k := 0; k < 4; k++ {
				if vs[i][k] != vs[j][k] {
					diff++
				}
			}
			if diff == 1 {
				out = append(out, Edge{i, j})
			}
		}
	}
	return out
}

// ProjectVertex rotates v by theta and projects it around (cx, cy).
func ProjectVertex(v Vec4, theta, cx, cy, size float64) Point {
	c, s := math.Cos(theta), math.Sin(theta)
	x, y, z, w := v[0], v[1], v[2], v[3]

	x1 := x*c - w*s
	w1 := x*s + w*c
	y1 := y*c - z*s
	z1 := y*s + z*c

	scale4 := viewDistance4D / (viewDistance4D + w1)
	x3, y3, z3 := x1*scale4, y1*scale4, z1*scale4

	scale3 := viewDistance3D / (viewDistance3D + z3)
	return Point{
		X: cx + x3*size*scale3,
		Y: cy + y3*size*scale3,
	}
}

// Project returns all 16 projected vertices, indexed like Vertices.
func Project(theta, cx, cy, size float64) []Point {
	pts := make([]Point, len(vertices))
	for i, v := range vertices {
		pts[i] = ProjectVertex(v, theta, cx, cy, size)
	}
	return pts
}

type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Segments returns the projected wireframe as line segments.
func Segments(theta, cx, cy, size float64) []Segment {
	pts := Project(theta, cx, cy, size)
	segs := make([]Segment, len(edges))
	for i, e := range edges {
		segs[i] = Segment{A: pts[e[0]], B: pts[e[1]]}
	}
	return segs
}

// Spinner accumulates the rotation angle frame by frame.
type Spinner struct {
	Theta float64
}

// Advance moves one frame and returns the new angle.
func (s *Spinner) Advance() float64 {
	s.Theta += ThetaStep
	if s.Theta > 2*math.Pi {
		s.Theta -= 2 * math.Pi
	}
	return s.Theta
}
