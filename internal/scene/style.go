package scene

// Style is how the renderer should draw one orbit line.
type Style struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Width   float64 `json:"width"`
}

var (
	dimmedStyle  = Style{Color: "#222222", Opacity: 0.1, Width: 1}
	neutralStyle = Style{Color: "#444444", Opacity: 0.3, Width: 1}
	moonStyle    = Style{Color: "#ffffff", Opacity: 0.1, Width: 1}
)

// OrbitStyle returns the highlight for body's orbit line given the current
// focus, which may be nil.
func OrbitStyle(body, focus *Body) Style {
	switch {
	case focus == nil:
		return neutralStyle
	case body != nil && body.ID == focus.ID:
		return Style{Color: body.Color, Opacity: 1, Width: 2}
	default:
		return dimmedStyle
	}
}

// MoonOrbitStyle is the fixed style of moon orbit lines.
func MoonOrbitStyle() Style {
	return moonStyle
}

// Styles returns the orbit style of every orbiting top-level body keyed by id.
func (s *Scene) Styles(focus *Body) map[string]Style {
	styles := make(map[string]Style, len(s.Bodies))
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if b.Orbits() {
			styles[b.ID] = OrbitStyle(b, focus)
		}
		for _, m := range b.Moons {
			styles[m.ID] = MoonOrbitStyle()
		}
	}
	return styles
}
