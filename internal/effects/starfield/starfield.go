// Package starfield simulates the drifting, twinkling star particles drawn
// behind the portfolio window. Positions live in normalised [0,1] space and
// are scaled to pixels only when a frame is taken.
package starfield

import (
	"math"
	"math/rand"
	"time"
)

const (
	DefaultCount = 60

	maxDrift         = 0.0002 // normalised units per frame
	maxRotationSpeed = 0.0002 // radians per frame
	minSize          = 0.5
	sizeRange        = 3.0
	starPoints       = 5
	innerRatio       = 0.5
	twinkleRate      = 0.002 // per millisecond
	twinkleFloor     = 0.4
)

type Particle struct {
	X, Y          float64
	VX, VY        float64
	Size          float64
	Rotation      float64
	RotationSpeed float64
	TwinkleOffset float64
	Alpha         float64
}

// Field is a fixed-size set of particles.
type Field struct {
	Particles []Particle
}

// New seeds count particles from rng. A non-positive count uses DefaultCount.
func New(count int, rng *rand.Rand) *Field {
	if count <= 0 {
		count = DefaultCount
	}
	f := &Field{Particles: make([]Particle, count)}
	for i := range f.Particles {
		f.Particles[i] = Particle{
			X:             rng.Float64(),
			Y:             rng.Float64(),
			VX:            (rng.Float64() - 0.5) * maxDrift,
			VY:            (rng.Float64() - 0.5) * maxDrift,
			Size:          rng.Float64()*sizeRange + minSize,
			Rotation:      rng.Float64() * math.Pi * 2,
			RotationSpeed: (rng.Float64() - 0.5) * maxRotationSpeed,
			TwinkleOffset: rng.Float64() * math.Pi * 2,
			Alpha:         1,
		}
	}
	return f
}

// Update advances every particle by one frame. Particles bounce off the
// edges of the unit square.
func (f *Field) Update(now time.Duration) {
	ms := float64(now) / float64(time.Millisecond)
	for i := range f.Particles {
		p := &f.Particles[i]
		p.X += p.VX
		p.Y += p.VY
		p.Rotation += p.RotationSpeed

		if p.X <= 0 || p.X >= 1 {
			p.VX = -p.VX
		}
		if p.Y <= 0 || p.Y >= 1 {
			p.VY = -p.VY
		}
		p.Alpha = Twinkle(ms, p.TwinkleOffset)
	}
}

// Twinkle returns the star opacity at time ms, in [0.4, 1].
func Twinkle(ms, offset float64) float64 {
	return twinkleFloor + (1-twinkleFloor)*math.Abs(math.Sin(ms*twinkleRate+offset))
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StarPoints returns the outline of a five-pointed star centred on (x, y),
// alternating outer and inner vertices.
func StarPoints(x, y, outer, rotation float64) []Point {
	inner := outer * innerRatio
	pts := make([]Point, 0, starPoints*2)
	for i := 0; i < starPoints*2; i++ {
		angle := float64(i)*math.Pi/starPoints + rotation
		r := outer
		if i%2 == 1 {
			r = inner
		}
		pts = append(pts, Point{X: x + math.Cos(angle)*r, Y: y + math.Sin(angle)*r})
	}
	return pts
}

// Star is one particle in pixel space.
type Star struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Rotation float64 `json:"rotation"`
	Alpha    float64 `json:"alpha"`
}

// Frame projects the field onto a width x height surface.
func (f *Field) Frame(width, height float64) []Star {
	stars := make([]Star, len(f.Particles))
	for i, p := range f.Particles {
		stars[i] = Star{
			X:        p.X * width,
			Y:        p.Y * height,
			Size:     p.Size,
			Rotation: p.Rotation,
			Alpha:    p.Alpha,
		}
	}
	return stars
}
