package scene

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Orbit line resolution.
const (
	PlanetOrbitSegments = 128
	MoonOrbitSegments   = 64
)

// ErrInvalidScene is returned when a body table fails validation.
var ErrInvalidScene = errors.New("invalid scene")

// Scene is the static body table for a session. Bodies[0] is the central
// body the tour never visits.
type Scene struct {
	Bodies []Body `yaml:"bodies" json:"bodies"`
}

// Find returns the top-level body with the given id, or nil.
func (s *Scene) Find(id string) *Body {
	if s == nil || id == "" {
		return nil
	}
	for i := range s.Bodies {
		if s.Bodies[i].ID == id {
			return &s.Bodies[i]
		}
	}
	return nil
}

// WorldPosition returns the world position of any body, moons included, at
// time t. The second result is false when no body has that id.
func (s *Scene) WorldPosition(id string, t float64) (r3.Vec, bool) {
	if s == nil {
		return r3.Vec{}, false
	}
	for i := range s.Bodies {
		parent := &s.Bodies[i]
		if parent.ID == id {
			return parent.Position(t), true
		}
		for j := range parent.Moons {
			if parent.Moons[j].ID == id {
				return r3.Add(parent.Position(t), parent.Moons[j].MoonOffset(parent.Radius, t)), true
			}
		}
	}
	return r3.Vec{}, false
}

// OrbitLine is a sampled orbit path for the renderer. Moon lines are in the
// parent's local frame.
type OrbitLine struct {
	BodyID   string   `json:"bodyId"`
	ParentID string   `json:"parentId,omitempty"`
	Points   []r3.Vec `json:"points"`
}

// OrbitLines returns the orbit path of every orbiting body.
func (s *Scene) OrbitLines() []OrbitLine {
	var lines []OrbitLine
	for _, b := range s.Bodies {
		if b.Orbits() {
			lines = append(lines, OrbitLine{BodyID: b.ID, Points: OrbitPoints(b.Distance, PlanetOrbitSegments)})
		}
		for _, m := range b.Moons {
			lines = append(lines, OrbitLine{
				BodyID:   m.ID,
				ParentID: b.ID,
				Points:   OrbitPoints(b.Radius+m.Distance, MoonOrbitSegments),
			})
		}
	}
	return lines
}

// Validate checks that ids are unique and all parameters are finite and
// non-negative where they must be.
func (s *Scene) Validate() error {
	if s == nil || len(s.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidScene)
	}
	if s.Bodies[0].Distance != 0 {
		return fmt.Errorf("%w: first body %q must sit at the origin", ErrInvalidScene, s.Bodies[0].ID)
	}

	seen := make(map[string]bool)
	var check func(b *Body) error
	check = func(b *Body) error {
		if b.ID == "" {
			return fmt.Errorf("%w: body without id", ErrInvalidScene)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidScene, b.ID)
		}
		seen[b.ID] = true
		if !finite(b.Radius, b.Distance, b.Speed, b.StartAngle) {
			return fmt.Errorf("%w: %q has non-finite parameters", ErrInvalidScene, b.ID)
		}
		if b.Radius < 0 || b.Distance < 0 {
			return fmt.Errorf("%w: %q has negative radius or distance", ErrInvalidScene, b.ID)
		}
		if r := b.Ring; r != nil && (r.Inner <= 0 || r.Outer <= r.Inner) {
			return fmt.Errorf("%w: %q ring must satisfy 0 < inner < outer", ErrInvalidScene, b.ID)
		}
		for i := range b.Moons {
			if err := check(&b.Moons[i]); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range s.Bodies {
		if err := check(&s.Bodies[i]); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes a YAML body table and validates it.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a YAML body table from disk.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the scene as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// DefaultSolarSystem returns the Sun, eight planets and Pluto. Planet start
// angles are drawn from rng in [0,6); a nil rng leaves them at zero.
func DefaultSolarSystem(rng *rand.Rand) *Scene {
	start := func() float64 {
		if rng == nil {
			return 0
		}
		return rng.Float64() * 6
	}

	tilt := -math.Pi / 3
	return &Scene{Bodies: []Body{
		{ID: "sun", Name: "Sun", Radius: 4, Color: "#FDB813"},
		{ID: "mercury", Name: "Mercury", Radius: 0.8, Distance: 8, Speed: 0.8, StartAngle: start(), Color: "#A5A5A5"},
		{ID: "venus", Name: "Venus", Radius: 1.5, Distance: 12, Speed: 0.6, StartAngle: start(), Color: "#E3BB76"},
		{ID: "earth", Name: "Earth", Radius: 1.6, Distance: 18, Speed: 0.4, StartAngle: start(), Color: "#657F48",
			Moons: []Body{{ID: "moon", Name: "Moon", Radius: 0.4, Distance: 3, Speed: 1.5, Color: "#DDDDDD"}}},
		{ID: "mars", Name: "Mars", Radius: 1.2, Distance: 24, Speed: 0.3, StartAngle: start(), Color: "#EB4D4B"},
		{ID: "jupiter", Name: "Jupiter", Radius: 3.5, Distance: 34, Speed: 0.15, StartAngle: start(), Color: "#F0932B"},
		{ID: "saturn", Name: "Saturn", Radius: 3, Distance: 46, Speed: 0.1, StartAngle: start(), Color: "#F6E58D",
			Ring: &Ring{Inner: 1.4, Outer: 2.3, Color: "#C4A484", Tilt: tilt}},
		{ID: "uranus", Name: "Uranus", Radius: 2.2, Distance: 58, Speed: 0.07, StartAngle: start(), Color: "#7ED6DF"},
		{ID: "neptune", Name: "Neptune", Radius: 2.1, Distance: 70, Speed: 0.05, StartAngle: start(), Color: "#4834D4"},
		{ID: "pluto", Name: "Pluto", Radius: 0.4, Distance: 82, Speed: 0.03, StartAngle: start(), Color: "#D3D3D3"},
	}}
}
