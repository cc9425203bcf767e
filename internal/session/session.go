// Package session describes scripted hand sessions: a sequence of poses held
// for a number of camera frames, expanded into detector output. Scripts
// drive replays and tests without a webcam.
package session

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/orrery/internal/capture"
	"github.com/ayusman/orrery/internal/detector"
)

//go:embed sessions/*.yaml
var builtinFS embed.FS

// ErrInvalidSession is wrapped by every parse and validation failure.
var ErrInvalidSession = errors.New("invalid session")

// centre is the wrist position that maps to a zero pointer offset.
const centre = 0.5

// Pose names a hand shape in a script.
type Pose string

const (
	PoseNone     Pose = "none"
	PoseOpen     Pose = "open"
	PoseClosed   Pose = "closed"
	PosePointing Pose = "pointing"
	PoseNeutral  Pose = "neutral"
)

// fingers returns which of index, middle, ring and pinky are extended.
func (p Pose) fingers() (index, middle, ring, pinky bool, ok bool) {
	switch p {
	case PoseOpen:
		return true, true, true, true, true
	case PoseClosed:
		return false, false, false, false, true
	case PosePointing:
		return true, false, false, false, true
	case PoseNeutral:
		return true, true, false, false, true
	}
	return false, false, false, false, false
}

// Step holds one pose for Frames camera frames. The wrist starts at (X, Y)
// in normalized image coordinates and moves linearly to (ToX, ToY) when
// those are set. Unset coordinates default to the image centre.
type Step struct {
	Pose   Pose     `yaml:"pose"`
	X      *float64 `yaml:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty"`
	ToX    *float64 `yaml:"to_x,omitempty"`
	ToY    *float64 `yaml:"to_y,omitempty"`
	Frames int      `yaml:"frames"`
}

func coord(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// wrist returns the wrist position for frame i of the step.
func (s Step) wrist(i int) (x, y float64) {
	x0, y0 := coord(s.X, centre), coord(s.Y, centre)
	x1, y1 := coord(s.ToX, x0), coord(s.ToY, y0)
	if s.Frames <= 1 {
		return x0, y0
	}
	f := float64(i) / float64(s.Frames-1)
	return x0 + (x1-x0)*f, y0 + (y1-y0)*f
}

// Script is a named scripted session.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	FPS         int    `yaml:"fps,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Parse decodes a YAML (or JSON) script and validates it. A missing fps
// defaults to the camera rate.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if s.FPS == 0 {
		s.FPS = capture.DefaultFPS
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks the frame rate, every step's pose and frame count, and
// that wrist coordinates are finite.
func (s *Script) Validate() error {
	if s.FPS <= 0 {
		return fmt.Errorf("%w: fps %d must be positive", ErrInvalidSession, s.FPS)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidSession)
	}
	for i, st := range s.Steps {
		if st.Frames <= 0 {
			return fmt.Errorf("%w: step %d: frames %d must be positive", ErrInvalidSession, i, st.Frames)
		}
		if _, _, _, _, ok := st.Pose.fingers(); !ok && st.Pose != PoseNone {
			return fmt.Errorf("%w: step %d: unknown pose %q", ErrInvalidSession, i, st.Pose)
		}
		for _, v := range []*float64{st.X, st.Y, st.ToX, st.ToY} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return fmt.Errorf("%w: step %d: wrist coordinate is not finite", ErrInvalidSession, i)
			}
		}
	}
	return nil
}

// Interval is the time between consecutive frames.
func (s *Script) Interval() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

// Dt is Interval in seconds, the tick length a replay uses.
func (s *Script) Dt() float64 {
	return 1 / float64(s.FPS)
}

// Len returns the total number of frames.
func (s *Script) Len() int {
	n := 0
	for _, st := range s.Steps {
		n += st.Frames
	}
	return n
}

// Frames expands the script into detector frames with distinct, increasing
// timestamps. Frames of a none step carry no landmarks.
func (s *Script) Frames() []*detector.Frame {
	frames := make([]*detector.Frame, 0, s.Len())
	interval := s.Interval()
	for _, st := range s.Steps {
		index, middle, ring, pinky, hand := st.Pose.fingers()
		for i := 0; i < st.Frames; i++ {
			f := &detector.Frame{Timestamp: time.Duration(len(frames)) * interval}
			if hand {
				x, y := st.wrist(i)
				f.Landmarks = detector.PoseLandmarks(x, y, index, middle, ring, pinky)
			}
			frames = append(frames, f)
		}
	}
	return frames
}

// Names lists the built-in scripts.
func Names() []string {
	entries, err := builtinFS.ReadDir("sessions")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	return names
}

// Builtin returns the built-in script called name.
func Builtin(name string) (*Script, error) {
	data, err := builtinFS.ReadFile("sessions/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", name, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", name, err)
	}
	return s, nil
}
