// Command orrery runs the hand-controlled solar system: the render and
// detection loops, the HTTP API for the web renderer and the tray menu.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/orrery/internal/config"
	"github.com/ayusman/orrery/internal/scene"
	"github.com/ayusman/orrery/internal/store"
)

const configFileName = "config.yaml"

var (
	configPath string
	dataDir    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "orrery",
		Short:        "hand-controlled solar system",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <data>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default ~/.orrery)")

	rootCmd.AddCommand(
		newServeCmd(),
		newReplayCmd(),
		newRecordingsCmd(),
		newSessionsCmd(),
		newSceneCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file when there is one and applies --data.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	path := configPath
	if path == "" {
		path = filepath.Join(cfg.DataDir, configFileName)
	}

	loaded, err := config.Load(path)
	switch {
	case err == nil:
		cfg = loaded
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
	case errors.Is(err, fs.ErrNotExist) && configPath == "":
		// No config file is fine; defaults apply.
	default:
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openStore creates the data directory and opens the recordings database.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, nil
}

// loadScene reads the configured body table, or builds the default solar
// system. With random set and no seed configured the start angles differ
// on every run; otherwise they are fixed by the seed.
func loadScene(cfg *config.Config, random bool) (*scene.Scene, error) {
	if cfg.ScenePath != "" {
		return scene.Load(cfg.ScenePath)
	}

	seed := int64(cfg.Seed)
	switch {
	case seed != 0:
	case random:
		seed = time.Now().UnixNano()
	default:
		return scene.DefaultSolarSystem(nil), nil
	}
	log.Printf("orrery: scene seed %d", seed)
	return scene.DefaultSolarSystem(rand.New(rand.NewSource(seed))), nil
}

// findWebDir searches for the web renderer in common locations.
// It checks: "web", "../web", "../../web", and <data>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(cfg *config.Config) string {
	if cfg.WebDir != "" {
		return cfg.WebDir
	}

	candidates := []string{"web", "../web", "../../web", filepath.Join(cfg.DataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
