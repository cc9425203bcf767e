// Package orbit drives the scene camera. Each update picks one of three
// modes by priority (focus, hand, idle) and moves the camera with
// exponential smoothing so mode switches never jump.
package orbit

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/orrery/internal/gesture"
	"github.com/ayusman/orrery/internal/scene"
)

// Mode names the behaviour that produced a pose.
type Mode string

const (
	ModeFocus Mode = "FOCUS"
	ModeHand  Mode = "HAND"
	ModeIdle  Mode = "IDLE"
)

// MaxDt bounds the time step of a single update in seconds. Longer gaps,
// such as a stalled render loop, advance the camera by MaxDt.
const MaxDt = 1.0

// Input is everything the controller needs for one tick.
type Input struct {
	Time  float64 // elapsed simulated seconds
	Dt    float64 // seconds since the previous tick
	Hand  gesture.State
	Focus *scene.Body
}

// Pose is the camera state after an update.
type Pose struct {
	Position   r3.Vec  `json:"position"`
	Target     r3.Vec  `json:"target"`
	Azimuth    float64 `json:"azimuth"`
	Polar      float64 `json:"polar"`
	Distance   float64 `json:"distance"`
	Mode       Mode    `json:"mode"`
	AutoRotate bool    `json:"autoRotate"`
}

// Controller blends focus, hand and idle camera motion.
type Controller struct {
	cfg      Config
	controls Controls

	vx, vy          float64
	lastInteraction float64
	mode            Mode
}

// NewController creates a controller at the configured initial pose.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg: cfg,
		controls: Controls{
			Position:        cfg.InitialPosition,
			Target:          cfg.InitialTarget,
			MinDistance:     cfg.MinDistance,
			MaxDistance:     cfg.MaxDistance,
			MinPolar:        cfg.MinPolar,
			MaxPolar:        cfg.MaxPolar,
			AutoRotateSpeed: cfg.AutoRotateSpeed,
		},
		mode: ModeIdle,
	}
	c.controls.Update(0)
	return c, nil
}

// Update advances the camera by one tick and returns the resulting pose.
func (c *Controller) Update(in Input) Pose {
	dt := in.Dt
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = 0
	}
	dt = math.Min(dt, MaxDt)

	switch {
	case in.Focus != nil:
		c.focus(in.Focus, in.Time, dt)
	case in.Hand.Detected:
		c.hand(in.Hand, in.Time, dt)
	default:
		c.idle(in.Time, dt)
	}
	c.controls.Update(c.frames(dt) / ReferenceRate)
	return c.Pose()
}

// Pose returns the current camera pose without advancing it.
func (c *Controller) Pose() Pose {
	return Pose{
		Position:   c.controls.Position,
		Target:     c.controls.Target,
		Azimuth:    c.controls.Azimuth(),
		Polar:      c.controls.Polar(),
		Distance:   c.controls.Distance(),
		Mode:       c.mode,
		AutoRotate: c.controls.AutoRotate,
	}
}

// Velocity returns the smoothed hand rotation velocity in radians per frame.
func (c *Controller) Velocity() (vx, vy float64) {
	return c.vx, c.vy
}

// LastInteraction returns the simulated time of the last focus or hand tick.
func (c *Controller) LastInteraction() float64 {
	return c.lastInteraction
}

// Reset returns the camera to its initial pose and clears all motion.
func (c *Controller) Reset() {
	c.controls.Position = c.cfg.InitialPosition
	c.controls.Target = c.cfg.InitialTarget
	c.controls.AutoRotate = false
	c.controls.Update(0)
	c.vx, c.vy = 0, 0
	c.lastInteraction = 0
	c.mode = ModeIdle
}

func (c *Controller) factor(f, dt float64) float64 {
	if c.cfg.FrameLocked {
		return f
	}
	return FrameFactor(f, dt)
}

// frames returns how many reference frames dt covers.
func (c *Controller) frames(dt float64) float64 {
	if c.cfg.FrameLocked {
		return 1
	}
	return dt * ReferenceRate
}

func (c *Controller) focus(body *scene.Body, t, dt float64) {
	c.mode = ModeFocus
	c.lastInteraction = t
	c.controls.AutoRotate = false

	// Velocity is not applied while focused but keeps settling.
	k := c.factor(c.cfg.VelocityDecay, dt)
	c.vx -= c.vx * k
	c.vy -= c.vy * k

	pos := body.Position(t)
	s, co := math.Sincos(body.Angle(t))
	standoff := body.Radius + c.cfg.Standoff
	desired := r3.Vec{
		X: pos.X + co*standoff,
		Y: c.cfg.Altitude,
		Z: pos.Z + s*standoff,
	}

	k = c.factor(c.cfg.FocusSmoothing, dt)
	c.controls.Position = ApproachVec(c.controls.Position, desired, k)
	c.controls.Target = ApproachVec(c.controls.Target, pos, k)
}

func (c *Controller) hand(s gesture.State, t, dt float64) {
	c.mode = ModeHand
	c.lastInteraction = t
	c.controls.AutoRotate = false

	x, y := s.X, s.Y
	if !finite(x) {
		x = 0
	}
	if !finite(y) {
		y = 0
	}
	k := c.factor(c.cfg.VelocitySmoothing, dt)
	c.vx = Approach(c.vx, -x*c.cfg.RotationGain, k)
	c.vy = Approach(c.vy, y*c.cfg.RotationGain, k)

	n := c.frames(dt)
	c.rotate(n)

	switch s.Gesture {
	case gesture.Open:
		c.controls.Dolly(1 / math.Pow(c.cfg.ZoomStep, n))
	case gesture.Closed:
		c.controls.Dolly(math.Pow(c.cfg.ZoomStep, n))
	}
}

func (c *Controller) idle(t, dt float64) {
	c.mode = ModeIdle
	c.controls.AutoRotate = true

	k := c.factor(c.cfg.VelocityDecay, dt)
	c.vx -= c.vx * k
	c.vy -= c.vy * k
	c.rotate(c.frames(dt))

	if t-c.lastInteraction <= c.cfg.IdleGrace.Seconds() {
		return
	}

	k = c.factor(c.cfg.IdleSmoothing, dt)
	if p := c.controls.Polar(); math.Abs(p-c.cfg.IdlePolar) > c.cfg.PolarTolerance {
		c.controls.SetPolar(Approach(p, c.cfg.IdlePolar, k))
	}
	if d := c.controls.Distance(); math.Abs(d-c.cfg.IdleDistance) > c.cfg.DistTolerance {
		c.controls.SetDistance(Approach(d, c.cfg.IdleDistance, k))
	}
	next := ApproachVec(c.controls.Target, r3.Vec{}, k)
	c.controls.Translate(r3.Sub(next, c.controls.Target))
}

// rotate applies the smoothed velocity over n reference frames. Tilt is
// skipped entirely when it would leave the hand polar interval.
func (c *Controller) rotate(n float64) {
	if n == 0 {
		return
	}
	if math.Abs(c.vx) > c.cfg.VelocityDeadband {
		c.controls.SetAzimuth(c.controls.Azimuth() + c.vx*n)
	}
	if math.Abs(c.vy) > c.cfg.VelocityDeadband {
		p := c.controls.Polar() + c.vy*n
		if p > c.cfg.HandMinPolar && p < c.cfg.HandMaxPolar {
			c.controls.SetPolar(p)
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
