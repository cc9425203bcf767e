package orbit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the camera controller's limits and tuning. Smoothing factors
// are fractions of the remaining gap covered per 60 Hz reference frame.
type Config struct {
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	MinPolar    float64 `yaml:"min_polar"`
	MaxPolar    float64 `yaml:"max_polar"`

	// Hand rotation only tilts the camera while the result stays inside this
	// interval.
	HandMinPolar float64 `yaml:"hand_min_polar"`
	HandMaxPolar float64 `yaml:"hand_max_polar"`

	RotationGain      float64 `yaml:"rotation_gain"`
	VelocitySmoothing float64 `yaml:"velocity_smoothing"`
	VelocityDecay     float64 `yaml:"velocity_decay"`
	VelocityDeadband  float64 `yaml:"velocity_deadband"`
	ZoomStep          float64 `yaml:"zoom_step"`

	FocusSmoothing float64 `yaml:"focus_smoothing"`
	Standoff       float64 `yaml:"standoff"`
	Altitude       float64 `yaml:"altitude"`

	AutoRotateSpeed float64       `yaml:"auto_rotate_speed"`
	IdleGrace       time.Duration `yaml:"idle_grace"`
	IdlePolar       float64       `yaml:"idle_polar"`
	IdleDistance    float64       `yaml:"idle_distance"`
	IdleSmoothing   float64       `yaml:"idle_smoothing"`
	PolarTolerance  float64       `yaml:"polar_tolerance"`
	DistTolerance   float64       `yaml:"distance_tolerance"`

	InitialPosition r3.Vec `yaml:"initial_position"`
	InitialTarget   r3.Vec `yaml:"initial_target"`

	// FrameLocked applies every factor and increment once per Update call
	// regardless of Dt, reproducing frame-rate-dependent motion.
	FrameLocked bool `yaml:"frame_locked"`
}

// DefaultConfig returns the tuning the scene was designed around.
func DefaultConfig() Config {
	return Config{
		MinDistance:       40,
		MaxDistance:       150,
		MinPolar:          0.05,
		MaxPolar:          math.Pi/2 - 0.1,
		HandMinPolar:      0.1,
		HandMaxPolar:      math.Pi/2 - 0.1,
		RotationGain:      0.08,
		VelocitySmoothing: 0.1,
		VelocityDecay:     0.2,
		VelocityDeadband:  0.001,
		ZoomStep:          1.02,
		FocusSmoothing:    0.1,
		Standoff:          25,
		Altitude:          30,
		AutoRotateSpeed:   0.5,
		IdleGrace:         2 * time.Second,
		IdlePolar:         0.6,
		IdleDistance:      120,
		IdleSmoothing:     0.01,
		PolarTolerance:    0.01,
		DistTolerance:     1,
		InitialPosition:   r3.Vec{X: 0, Y: 80, Z: 100},
	}
}

var errInvalidConfig = errors.New("invalid camera config")

// Validate checks that the limits are consistent and the factors usable.
func (c Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", errInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.MinDistance <= 0 || c.MaxDistance <= c.MinDistance:
		return fail("distance limits [%g, %g]", c.MinDistance, c.MaxDistance)
	case c.MinPolar < 0 || c.MaxPolar <= c.MinPolar || c.MaxPolar > math.Pi:
		return fail("polar limits (%g, %g)", c.MinPolar, c.MaxPolar)
	case c.HandMinPolar < c.MinPolar || c.HandMaxPolar > c.MaxPolar || c.HandMaxPolar <= c.HandMinPolar:
		return fail("hand polar interval (%g, %g)", c.HandMinPolar, c.HandMaxPolar)
	case c.ZoomStep <= 1:
		return fail("zoom step %g must exceed 1", c.ZoomStep)
	case c.IdleGrace < 0:
		return fail("negative idle grace %s", c.IdleGrace)
	case c.IdleDistance < c.MinDistance || c.IdleDistance > c.MaxDistance:
		return fail("idle distance %g outside distance limits", c.IdleDistance)
	case c.IdlePolar <= c.MinPolar || c.IdlePolar >= c.MaxPolar:
		return fail("idle polar %g outside polar limits", c.IdlePolar)
	}
	factors := map[string]float64{
		"velocity_smoothing": c.VelocitySmoothing,
		"velocity_decay":     c.VelocityDecay,
		"focus_smoothing":    c.FocusSmoothing,
		"idle_smoothing":     c.IdleSmoothing,
	}
	for name, f := range factors {
		if !(f > 0 && f <= 1) {
			return fail("%s %g must be in (0, 1]", name, f)
		}
	}
	if r3.Norm(r3.Sub(c.InitialPosition, c.InitialTarget)) == 0 {
		return fail("initial position equals initial target")
	}
	return nil
}
