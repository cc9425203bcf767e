package gesture

import "github.com/ayusman/orrery/internal/scene"

// Tour advances through the scene's bodies on each rising edge of the
// Pointing gesture. The body at index 0 is the centre and is skipped.
type Tour struct {
	bodies []scene.Body
	index  int
	prev   Gesture
}

// NewTour creates a tour over bodies that has not yet visited any of them.
func NewTour(bodies []scene.Body) *Tour {
	return &Tour{bodies: bodies, index: -1, prev: Neutral}
}

// Observe feeds one gesture state and returns the focused body, which is
// non-nil only while the hand keeps pointing at a toured body.
func (t *Tour) Observe(s State) *scene.Body {
	g := s.Gesture
	if !s.Detected {
		g = Neutral
	}
	if g == Pointing && t.prev != Pointing {
		t.advance()
	}
	t.prev = g

	if g != Pointing {
		return nil
	}
	return t.Current()
}

func (t *Tour) advance() {
	if len(t.bodies) < 2 {
		return
	}
	t.index++
	if t.index >= len(t.bodies) || t.index == 0 {
		t.index = 1
	}
}

// Current returns the body at the tour index regardless of the gesture, or
// nil before the first advance.
func (t *Tour) Current() *scene.Body {
	if t.index <= 0 || t.index >= len(t.bodies) {
		return nil
	}
	return &t.bodies[t.index]
}

// Index returns the tour position; -1 before the first advance.
func (t *Tour) Index() int {
	return t.index
}

// Reset returns the tour to its start.
func (t *Tour) Reset() {
	t.index = -1
	t.prev = Neutral
}
