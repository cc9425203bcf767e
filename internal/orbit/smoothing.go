package orbit

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReferenceRate is the frame rate at which per-frame factors are defined.
const ReferenceRate = 60.0

// FrameFactor converts a per-reference-frame smoothing factor into the
// fraction of remaining distance to cover over dt seconds. At dt equal to
// one reference frame the factor is returned unchanged.
func FrameFactor(factor, dt float64) float64 {
	switch {
	case dt <= 0 || math.IsNaN(dt) || factor <= 0:
		return 0
	case factor >= 1:
		return 1
	}
	return 1 - math.Pow(1-factor, dt*ReferenceRate)
}

// Approach moves cur toward target by the fraction k of the gap.
func Approach(cur, target, k float64) float64 {
	return cur + (target-cur)*k
}

// ApproachVec moves cur toward target by the fraction k of the gap.
func ApproachVec(cur, target r3.Vec, k float64) r3.Vec {
	return r3.Add(cur, r3.Scale(k, r3.Sub(target, cur)))
}
