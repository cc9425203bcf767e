// Package scene describes the orbital body table and the pure functions that
// place each body at a given simulated time.
package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OrbitRate scales a body's Speed into radians per simulated second.
const OrbitRate = 0.5

// SpinRate is the self-rotation speed of a unit-radius body in radians per
// second; larger bodies spin proportionally slower.
const SpinRate = 0.6

// Ring describes a flat ring around a body, sized relative to its radius.
type Ring struct {
	Inner float64 `yaml:"inner" json:"inner"`
	Outer float64 `yaml:"outer" json:"outer"`
	Color string  `yaml:"color" json:"color"`
	Tilt  float64 `yaml:"tilt" json:"tilt"`
}

// Body is one entry in the scene's orbital table. Distance is measured from
// the parent (the scene origin for planets, the parent's surface for moons).
type Body struct {
	ID         string  `yaml:"id" json:"id"`
	Name       string  `yaml:"name" json:"name"`
	Radius     float64 `yaml:"radius" json:"radius"`
	Distance   float64 `yaml:"distance" json:"distance"`
	Speed      float64 `yaml:"speed" json:"speed"`
	StartAngle float64 `yaml:"start_angle" json:"startAngle"`
	Color      string  `yaml:"color" json:"color"`
	Ring       *Ring   `yaml:"ring,omitempty" json:"ring,omitempty"`
	Moons      []Body  `yaml:"moons,omitempty" json:"moons,omitempty"`
}

func finite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Orbits reports whether the body moves at all. Bodies at distance zero sit
// at their parent's origin and skip the orbital trig entirely.
func (b *Body) Orbits() bool {
	return b.Distance > 0 && finite(b.Distance, b.Speed, b.StartAngle)
}

// Angle returns the body's orbital angle at elapsed time t.
func (b *Body) Angle(t float64) float64 {
	if !b.Orbits() || !finite(t) {
		return 0
	}
	return b.StartAngle + t*b.Speed*OrbitRate
}

// Position returns the body's position on its circular orbit in the XZ plane
// at elapsed time t.
func (b *Body) Position(t float64) r3.Vec {
	if !b.Orbits() || !finite(t) {
		return r3.Vec{}
	}
	s, c := math.Sincos(b.Angle(t))
	return r3.Vec{X: c * b.Distance, Z: s * b.Distance}
}

// MoonOffset returns a moon's offset from its parent's centre at time t.
// Moons orbit at their full Speed, measured from the parent's surface.
func (b *Body) MoonOffset(parentRadius, t float64) r3.Vec {
	d := parentRadius + b.Distance
	if d <= 0 || !finite(d, b.Speed, b.StartAngle, t) {
		return r3.Vec{}
	}
	s, c := math.Sincos(b.StartAngle + t*b.Speed)
	return r3.Vec{X: c * d, Z: s * d}
}

// Spin returns the body's self-rotation angle about Y at time t.
func (b *Body) Spin(t float64) float64 {
	if b.Radius <= 0 || !finite(b.Radius, t) {
		return 0
	}
	return t * SpinRate / b.Radius
}

// OrbitPoints samples a closed circle of the given radius in the XZ plane.
// The returned slice has segments+1 points with the last equal to the first.
func OrbitPoints(radius float64, segments int) []r3.Vec {
	if segments < 3 || radius <= 0 || !finite(radius) {
		return nil
	}
	points := make([]r3.Vec, segments+1)
	for i := 0; i <= segments; i++ {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		s, c := math.Sincos(theta)
		points[i] = r3.Vec{X: c * radius, Z: s * radius}
	}
	points[segments] = points[0]
	return points
}
