package orbit

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// polarMargin keeps the polar angle strictly inside (MinPolar, MaxPolar).
const polarMargin = 1e-6

// Controls holds a camera orbiting a target. Angles are measured the way
// orbit cameras usually are: polar from +Y, azimuth around Y from +Z toward +X.
type Controls struct {
	Position r3.Vec
	Target   r3.Vec

	MinDistance float64
	MaxDistance float64
	MinPolar    float64
	MaxPolar    float64

	AutoRotate      bool
	AutoRotateSpeed float64 // full turns per minute, as orbit controls define it
}

func (c *Controls) offset() r3.Vec {
	return r3.Sub(c.Position, c.Target)
}

// Distance returns the camera-to-target distance.
func (c *Controls) Distance() float64 {
	return r3.Norm(c.offset())
}

// Polar returns the angle between +Y and the target-to-camera direction.
func (c *Controls) Polar() float64 {
	off := c.offset()
	d := r3.Norm(off)
	if d == 0 {
		return c.MinPolar + polarMargin
	}
	return math.Acos(math.Max(-1, math.Min(1, off.Y/d)))
}

// Azimuth returns the camera's angle around the Y axis.
func (c *Controls) Azimuth() float64 {
	off := c.offset()
	return math.Atan2(off.X, off.Z)
}

func (c *Controls) clampPolar(p float64) float64 {
	lo, hi := c.MinPolar+polarMargin, c.MaxPolar-polarMargin
	if math.IsNaN(p) {
		return lo
	}
	return math.Max(lo, math.Min(hi, p))
}

func (c *Controls) clampDistance(d float64) float64 {
	if math.IsNaN(d) {
		return c.MinDistance
	}
	return math.Max(c.MinDistance, math.Min(c.MaxDistance, d))
}

// place puts the camera at the given spherical coordinates around Target,
// enforcing the distance and polar limits. A non-finite azimuth keeps the
// current one.
func (c *Controls) place(distance, polar, azimuth float64) {
	if math.IsNaN(azimuth) || math.IsInf(azimuth, 0) {
		azimuth = c.Azimuth()
	}
	distance = c.clampDistance(distance)
	polar = c.clampPolar(polar)
	sp, cp := math.Sincos(polar)
	sa, ca := math.Sincos(azimuth)
	c.Position = r3.Add(c.Target, r3.Vec{
		X: distance * sp * sa,
		Y: distance * cp,
		Z: distance * sp * ca,
	})
}

// SetAzimuth rotates the camera around Y to angle a.
func (c *Controls) SetAzimuth(a float64) {
	c.place(c.Distance(), c.Polar(), a)
}

// SetPolar tilts the camera to polar angle p, clamped inside the limits.
func (c *Controls) SetPolar(p float64) {
	c.place(c.Distance(), p, c.Azimuth())
}

// SetDistance moves the camera along its view direction to distance d.
func (c *Controls) SetDistance(d float64) {
	c.place(d, c.Polar(), c.Azimuth())
}

// Dolly scales the camera distance; scale < 1 moves in.
func (c *Controls) Dolly(scale float64) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return
	}
	c.SetDistance(c.Distance() * scale)
}

// Translate moves camera and target together.
func (c *Controls) Translate(delta r3.Vec) {
	c.Position = r3.Add(c.Position, delta)
	c.Target = r3.Add(c.Target, delta)
}

// AutoRotateAngle returns the azimuth change auto-rotation applies over dt.
func (c *Controls) AutoRotateAngle(dt float64) float64 {
	return 2 * math.Pi / 60 * c.AutoRotateSpeed * dt
}

// Update applies auto-rotation for dt seconds and re-asserts all limits.
func (c *Controls) Update(dt float64) {
	az := c.Azimuth()
	if c.AutoRotate && dt > 0 {
		az -= c.AutoRotateAngle(dt)
	}
	c.place(c.Distance(), c.Polar(), az)
}
