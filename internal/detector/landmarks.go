// Package detector provides hand detection interfaces and landmark types.
package detector

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position in normalized image space. X and Y are in
// [0,1] with Y growing downward; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all coordinates are finite numbers.
func (p Point3D) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// Hand is a single detected hand as returned by a Detector.
type Hand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Frame is one video frame's worth of landmark output. Landmarks is nil when
// no hand was visible. Timestamp is the monotonic video time of the source
// frame and is used to detect frames the decoder has not advanced past.
type Frame struct {
	Landmarks []Point3D     `json:"landmarks"`
	Timestamp time.Duration `json:"timestamp"`
}

// HasHand reports whether the frame carries any landmarks.
func (f *Frame) HasHand() bool {
	return f != nil && len(f.Landmarks) > 0
}

// Valid reports whether the frame holds exactly NumLandmarks finite points.
func (f *Frame) Valid() bool {
	if f == nil || len(f.Landmarks) != NumLandmarks {
		return false
	}
	for _, p := range f.Landmarks {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// FrameFromHands builds a frame from detector output, keeping only the
// first hand.
func FrameFromHands(hands []Hand, ts time.Duration) *Frame {
	f := &Frame{Timestamp: ts}
	if len(hands) > 0 && len(hands[0].Points) > 0 {
		f.Landmarks = append([]Point3D(nil), hands[0].Points...)
	}
	return f
}
