package scene

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const epsilon = 1e-9

func vecNaN(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

func TestBody_Position(t *testing.T) {
	star := Body{ID: "sun", Radius: 4}
	planet := Body{ID: "p", Radius: 1, Distance: 10, Speed: 1, StartAngle: 0}

	t.Run("planet starts on +X", func(t *testing.T) {
		p := planet.Position(0)
		assert.InDelta(t, 10, p.X, epsilon)
		assert.InDelta(t, 0, p.Y, epsilon)
		assert.InDelta(t, 0, p.Z, epsilon)
	})

	t.Run("star is at origin and never NaN", func(t *testing.T) {
		for _, tm := range []float64{0, 1, 1e6} {
			p := star.Position(tm)
			require.False(t, vecNaN(p))
			assert.Equal(t, r3.Vec{}, p)
		}
		assert.Equal(t, 0.0, star.Angle(10))
	})

	t.Run("angle advances at half speed", func(t *testing.T) {
		tm := math.Pi // angle = pi * 1 * 0.5 = pi/2
		p := planet.Position(tm)
		assert.InDelta(t, 0, p.X, epsilon)
		assert.InDelta(t, 10, p.Z, epsilon)
	})

	t.Run("non-finite inputs collapse to origin", func(t *testing.T) {
		bad := Body{ID: "bad", Distance: 5, Speed: math.Inf(1)}
		assert.Equal(t, r3.Vec{}, bad.Position(1))
		assert.Equal(t, r3.Vec{}, planet.Position(math.NaN()))
	})

	t.Run("zero speed body stays at start angle", func(t *testing.T) {
		still := Body{ID: "still", Distance: 4, StartAngle: math.Pi / 2}
		p := still.Position(100)
		assert.InDelta(t, 0, p.X, epsilon)
		assert.InDelta(t, 4, p.Z, epsilon)
	})
}

func TestBody_MoonOffset(t *testing.T) {
	moon := Body{ID: "moon", Radius: 0.4, Distance: 3, Speed: 1.5}

	p := moon.MoonOffset(1.6, 0)
	assert.InDelta(t, 4.6, p.X, epsilon)
	assert.InDelta(t, 0, p.Z, epsilon)

	// Full speed, not half.
	p = moon.MoonOffset(1.6, math.Pi/3)
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 4.6, p.Z, 1e-9)
}

func TestBody_Spin(t *testing.T) {
	b := Body{Radius: 2}
	assert.InDelta(t, 0.3, b.Spin(1), epsilon)
	assert.Equal(t, 0.0, (&Body{}).Spin(5))
}

func TestOrbitPoints(t *testing.T) {
	points := OrbitPoints(10, 128)
	require.Len(t, points, 129)
	assert.Equal(t, points[0], points[128])
	for i, p := range points {
		assert.InDelta(t, 10, r3.Norm(p), 1e-9, "point %d off the circle", i)
		assert.Equal(t, 0.0, p.Y)
	}

	assert.Nil(t, OrbitPoints(0, 128))
	assert.Nil(t, OrbitPoints(10, 2))
}

func TestScene_WorldPosition(t *testing.T) {
	s := DefaultSolarSystem(nil)

	p, ok := s.WorldPosition("earth", 0)
	require.True(t, ok)
	assert.InDelta(t, 18, p.X, epsilon)

	p, ok = s.WorldPosition("moon", 0)
	require.True(t, ok)
	assert.InDelta(t, 18+1.6+3, p.X, epsilon)

	p, ok = s.WorldPosition("sun", 42)
	require.True(t, ok)
	assert.False(t, vecNaN(p))

	_, ok = s.WorldPosition("vulcan", 0)
	assert.False(t, ok)
}

func TestScene_Find(t *testing.T) {
	s := DefaultSolarSystem(nil)
	require.NotNil(t, s.Find("saturn"))
	assert.Equal(t, "Saturn", s.Find("saturn").Name)
	assert.NotNil(t, s.Find("saturn").Ring)
	assert.Nil(t, s.Find("moon"), "moons are not top-level bodies")
	assert.Nil(t, s.Find(""))

	var empty *Scene
	assert.Nil(t, empty.Find("sun"))
}

func TestDefaultSolarSystem(t *testing.T) {
	s := DefaultSolarSystem(rand.New(rand.NewSource(7)))
	require.NoError(t, s.Validate())
	require.Len(t, s.Bodies, 10)
	assert.Equal(t, "sun", s.Bodies[0].ID)
	for _, b := range s.Bodies[1:] {
		assert.GreaterOrEqual(t, b.StartAngle, 0.0)
		assert.Less(t, b.StartAngle, 6.0)
	}
}

func TestScene_Validate(t *testing.T) {
	tests := []struct {
		name   string
		bodies []Body
	}{
		{"empty", nil},
		{"centre not at origin", []Body{{ID: "a", Distance: 3}}},
		{"missing id", []Body{{ID: "sun"}, {Distance: 3}}},
		{"duplicate id", []Body{{ID: "sun"}, {ID: "sun", Distance: 3}}},
		{"duplicate moon id", []Body{{ID: "sun"}, {ID: "e", Distance: 3, Moons: []Body{{ID: "sun"}}}}},
		{"negative radius", []Body{{ID: "sun", Radius: -1}}},
		{"NaN speed", []Body{{ID: "sun"}, {ID: "x", Distance: 1, Speed: math.NaN()}}},
		{"bad ring", []Body{{ID: "sun"}, {ID: "x", Distance: 1, Ring: &Ring{Inner: 2, Outer: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scene{Bodies: tt.bodies}
			assert.ErrorIs(t, s.Validate(), ErrInvalidScene)
		})
	}
}

func TestParseAndLoad(t *testing.T) {
	t.Run("round trips the default table", func(t *testing.T) {
		orig := DefaultSolarSystem(rand.New(rand.NewSource(1)))
		data, err := orig.Marshal()
		require.NoError(t, err)

		parsed, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, orig.Bodies, parsed.Bodies)
	})

	t.Run("loads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scene.yaml")
		yamlDoc := `
bodies:
  - id: star
    radius: 2
  - id: rock
    radius: 1
    distance: 10
    speed: 1
`
		require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

		s, err := Load(path)
		require.NoError(t, err)
		p := s.Find("rock").Position(0)
		assert.InDelta(t, 10, p.X, epsilon)
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("bodies: [::"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestOrbitStyle(t *testing.T) {
	s := DefaultSolarSystem(nil)
	earth := s.Find("earth")
	mars := s.Find("mars")

	assert.Equal(t, Style{Color: "#444444", Opacity: 0.3, Width: 1}, OrbitStyle(earth, nil))
	assert.Equal(t, Style{Color: earth.Color, Opacity: 1, Width: 2}, OrbitStyle(earth, earth))
	assert.Equal(t, Style{Color: "#222222", Opacity: 0.1, Width: 1}, OrbitStyle(mars, earth))

	styles := s.Styles(earth)
	_, hasSun := styles["sun"]
	assert.False(t, hasSun, "the centre has no orbit line")
	assert.Equal(t, 2.0, styles["earth"].Width)
	assert.Equal(t, MoonOrbitStyle(), styles["moon"])
	assert.Len(t, s.OrbitLines(), 10) // nine planets plus the moon
}
