package gesture

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/orrery/internal/detector"
)

// ErrMalformedFrame is returned for landmark sets that are not exactly
// detector.NumLandmarks finite points.
var ErrMalformedFrame = errors.New("malformed landmark frame")

// fingers lists the (tip, pip) landmark pairs tested for extension. The thumb
// folds sideways and is not part of the alphabet.
var fingers = [4][2]int{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// ClassifyLandmarks maps a 21-point hand to a gesture. A finger is extended
// when its tip is higher on screen (smaller Y) than its PIP joint.
func ClassifyLandmarks(points []detector.Point3D) (Gesture, error) {
	f := detector.Frame{Landmarks: points}
	if !f.Valid() {
		return Neutral, fmt.Errorf("%w: %d points", ErrMalformedFrame, len(points))
	}

	var ext [4]bool
	count := 0
	for i, pair := range fingers {
		ext[i] = points[pair[0]].Y < points[pair[1]].Y
		if ext[i] {
			count++
		}
	}

	switch {
	case count == 4:
		return Open, nil
	case count == 0:
		return Closed, nil
	case count == 1 && ext[0]:
		return Pointing, nil
	default:
		return Neutral, nil
	}
}

// Pointer remaps the wrist to [-1,1] around the image centre. X is mirrored
// because the camera feed is shown mirrored.
func Pointer(wrist detector.Point3D) (x, y float64) {
	return -(wrist.X - 0.5) * 2, (wrist.Y - 0.5) * 2
}

// Classifier turns the latest landmark frame into a State, skipping frames
// the video decoder has not advanced past.
type Classifier struct {
	lastTimestamp time.Duration
	seen          bool
	last          State
}

// NewClassifier creates a Classifier with no frame history.
func NewClassifier() *Classifier {
	return &Classifier{last: NotDetected()}
}

// Classify returns the gesture state for frame. A nil frame means nothing is
// available and yields NotDetected. A frame whose timestamp matches the
// previously processed one is a duplicate and returns the previous state
// unchanged.
func (c *Classifier) Classify(frame *detector.Frame) State {
	if frame == nil {
		c.last = NotDetected()
		return c.last
	}
	if c.seen && frame.Timestamp == c.lastTimestamp {
		return c.last
	}
	c.seen = true
	c.lastTimestamp = frame.Timestamp

	if !frame.HasHand() {
		c.last = NotDetected()
		return c.last
	}

	g, err := ClassifyLandmarks(frame.Landmarks)
	if err != nil {
		log.Printf("gesture: dropping frame at %v: %v", frame.Timestamp, err)
		c.last = NotDetected()
		return c.last
	}

	x, y := Pointer(frame.Landmarks[detector.Wrist])
	c.last = State{Detected: true, Gesture: g, X: x, Y: y}
	return c.last
}

// Last returns the most recently emitted state.
func (c *Classifier) Last() State {
	return c.last
}

// Reset forgets the frame history.
func (c *Classifier) Reset() {
	c.seen = false
	c.lastTimestamp = 0
	c.last = NotDetected()
}
