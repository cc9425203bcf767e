package app

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/orrery/internal/detector"
	"github.com/ayusman/orrery/internal/gesture"
	"github.com/ayusman/orrery/internal/orbit"
	"github.com/ayusman/orrery/internal/scene"
)

// Snapshot is everything the renderer and UI need after one tick.
type Snapshot struct {
	Frame       uint64                 `json:"frame"`
	Time        float64                `json:"time"`
	Gesture     gesture.State          `json:"gesture"`
	Focus       string                 `json:"focus,omitempty"`
	Tour        string                 `json:"tour,omitempty"`
	HUD         string                 `json:"hud"`
	HandControl bool                   `json:"handControl"`
	Pose        orbit.Pose             `json:"pose"`
	Positions   map[string]r3.Vec      `json:"positions"`
	Styles      map[string]scene.Style `json:"styles"`
}

// Pipeline is the per-tick chain from a landmark frame to a camera pose.
// It is not safe for concurrent use; one goroutine owns it.
type Pipeline struct {
	scene      *scene.Scene
	classifier *gesture.Classifier
	tour       *gesture.Tour
	controller *orbit.Controller
	focus      *scene.Body
	elapsed    float64
	frames     uint64
}

// NewPipeline creates a pipeline over sc starting at simulated time zero.
func NewPipeline(sc *scene.Scene, cam orbit.Config) (*Pipeline, error) {
	controller, err := orbit.NewController(cam)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		scene:      sc,
		classifier: gesture.NewClassifier(),
		tour:       gesture.NewTour(sc.Bodies),
		controller: controller,
	}, nil
}

// Tick advances simulated time by dt and runs one frame. A nil frame means
// the detector has nothing, which the classifier treats as no hand.
func (p *Pipeline) Tick(frame *detector.Frame, dt float64, handControl bool) Snapshot {
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = 0
	}
	p.elapsed += dt
	p.frames++

	if !handControl {
		frame = nil
	}
	state := p.classifier.Classify(frame)
	focus := p.tour.Observe(state)
	p.focus = focus
	pose := p.controller.Update(orbit.Input{
		Time:  p.elapsed,
		Dt:    dt,
		Hand:  state,
		Focus: focus,
	})

	return p.snapshot(state, focus, pose, handControl)
}

// Current returns the snapshot for the present state without advancing,
// including the focus of the last tick.
func (p *Pipeline) Current(handControl bool) Snapshot {
	return p.snapshot(p.classifier.Last(), p.focus, p.controller.Pose(), handControl)
}

func (p *Pipeline) snapshot(state gesture.State, focus *scene.Body, pose orbit.Pose, handControl bool) Snapshot {
	snap := Snapshot{
		Frame:       p.frames,
		Time:        p.elapsed,
		Gesture:     state,
		HandControl: handControl,
		Pose:        pose,
		Positions:   p.positions(),
		Styles:      p.scene.Styles(focus),
	}
	focusName := ""
	if focus != nil {
		snap.Focus = focus.ID
		focusName = focus.Name
	}
	if cur := p.tour.Current(); cur != nil {
		snap.Tour = cur.Name
	}
	snap.HUD = gesture.HUDLabel(state, focusName)
	return snap
}

func (p *Pipeline) positions() map[string]r3.Vec {
	out := make(map[string]r3.Vec, len(p.scene.Bodies))
	for i := range p.scene.Bodies {
		b := &p.scene.Bodies[i]
		out[b.ID], _ = p.scene.WorldPosition(b.ID, p.elapsed)
		for _, m := range b.Moons {
			out[m.ID], _ = p.scene.WorldPosition(m.ID, p.elapsed)
		}
	}
	return out
}

// Elapsed returns the simulated time in seconds.
func (p *Pipeline) Elapsed() float64 {
	return p.elapsed
}

// Reset returns the pipeline to time zero with a fresh camera and tour.
func (p *Pipeline) Reset() {
	p.classifier.Reset()
	p.tour.Reset()
	p.controller.Reset()
	p.focus = nil
	p.elapsed = 0
	p.frames = 0
}

// Replay runs frames through a fresh pipeline, one tick of dt per frame,
// with hand control on. The result depends only on its inputs.
func Replay(sc *scene.Scene, cam orbit.Config, frames []*detector.Frame, dt float64) ([]Snapshot, error) {
	p, err := NewPipeline(sc, cam)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(frames))
	for _, f := range frames {
		out = append(out, p.Tick(f, dt, true))
	}
	return out, nil
}
