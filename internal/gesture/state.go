// Package gesture classifies hand landmark frames into the small gesture
// alphabet that drives the camera.
package gesture

// Gesture is one of the four classified hand poses.
type Gesture string

const (
	// Neutral is any finger combination without a dedicated meaning.
	Neutral Gesture = "NEUTRAL"
	// Open has all four fingers extended.
	Open Gesture = "OPEN"
	// Closed has all four fingers folded.
	Closed Gesture = "CLOSED"
	// Pointing has only the index finger extended.
	Pointing Gesture = "POINTING"
)

// State is the classifier output for one frame. X and Y are the wrist
// position remapped to [-1,1] with X mirrored.
type State struct {
	Detected bool    `json:"isDetected"`
	Gesture  Gesture `json:"gesture"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// NotDetected is the state reported when no usable hand is present.
func NotDetected() State {
	return State{Gesture: Neutral}
}

// HUDLabel returns the status line shown while a hand is tracked. focusName
// is the currently toured body's display name, or empty while scanning.
func HUDLabel(s State, focusName string) string {
	if !s.Detected {
		return ""
	}
	switch s.Gesture {
	case Open:
		return "ZOOMING IN"
	case Closed:
		return "ZOOMING OUT"
	case Pointing:
		if focusName == "" {
			focusName = "Scan..."
		}
		return "TRACKING: " + focusName
	default:
		return "CONTROL ACTIVE"
	}
}
