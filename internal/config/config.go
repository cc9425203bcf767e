// Package config loads the YAML configuration that ties the camera,
// detector, controller and server settings together.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/orrery/internal/capture"
	"github.com/ayusman/orrery/internal/detector"
	"github.com/ayusman/orrery/internal/orbit"
)

const (
	DefaultListen    = ":8080"
	DefaultRenderFPS = 60
	DefaultDBName    = "orrery.db"
	dataDirName      = ".orrery"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	DataDir   string `yaml:"data_dir"`
	Listen    string `yaml:"listen"`
	WebDir    string `yaml:"web_dir"`
	ScenePath string `yaml:"scene"`
	// Seed fixes the bodies' start angles; 0 picks a random seed.
	Seed        uint64 `yaml:"seed"`
	RenderFPS   int    `yaml:"render_fps"`
	HandControl bool   `yaml:"hand_control"`
	Record      bool   `yaml:"record"`
	Tray        bool   `yaml:"tray"`

	Capture  capture.Config  `yaml:"capture"`
	Detector detector.Config `yaml:"detector"`
	Camera   orbit.Config    `yaml:"camera"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:     DefaultDataDir(),
		Listen:      DefaultListen,
		RenderFPS:   DefaultRenderFPS,
		HandControl: true,
		Capture:     capture.DefaultConfig(),
		Detector:    detector.DefaultConfig(),
		Camera:      orbit.DefaultConfig(),
	}
}

// DefaultDataDir returns ~/.orrery, or .orrery when there is no home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dataDirName
	}
	return filepath.Join(home, dataDirName)
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the top-level settings and the camera limits.
func (c *Config) Validate() error {
	switch {
	case c.RenderFPS <= 0:
		return fmt.Errorf("%w: render_fps %d must be positive", ErrInvalid, c.RenderFPS)
	case c.Capture.FPS < 0:
		return fmt.Errorf("%w: capture fps %d is negative", ErrInvalid, c.Capture.FPS)
	case c.Capture.MotionThreshold < 0:
		return fmt.Errorf("%w: motion_threshold %g is negative", ErrInvalid, c.Capture.MotionThreshold)
	case c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1:
		return fmt.Errorf("%w: min_confidence %g outside [0, 1]", ErrInvalid, c.Detector.MinConfidence)
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("%w: camera: %v", ErrInvalid, err)
	}
	return nil
}

// DBPath returns the recordings database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DefaultDBName)
}
