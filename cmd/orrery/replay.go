package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/orrery/internal/app"
	"github.com/ayusman/orrery/internal/capture"
	"github.com/ayusman/orrery/internal/config"
	"github.com/ayusman/orrery/internal/detector"
	"github.com/ayusman/orrery/internal/session"
	"github.com/ayusman/orrery/internal/store"
)

type replayOptions struct {
	session string
	dt      float64
	every   int
	asJSON  bool
}

func newReplayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay [recording_id]",
		Short: "run a recording or scripted session through the camera controller",
		Long: "replay feeds stored detector output, or a scripted session given with\n" +
			"--session (a built-in name or a YAML file), through a fresh controller\n" +
			"and prints the resulting camera poses.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (opts.session != "") {
				return errors.New("give either a recording id or --session")
			}
			if opts.every <= 0 {
				return fmt.Errorf("--every must be positive, got %d", opts.every)
			}
			return runReplay(cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.session, "session", "", "built-in session name or script path")
	cmd.Flags().Float64Var(&opts.dt, "dt", 0, "tick length in seconds (default: the recording's frame interval)")
	cmd.Flags().IntVar(&opts.every, "every", 1, "print every Nth tick")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print snapshots as JSON lines")
	return cmd
}

func runReplay(out io.Writer, args []string, opts replayOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sc, err := loadScene(cfg, false)
	if err != nil {
		return err
	}

	var frames []*detector.Frame
	var dt float64
	if opts.session != "" {
		script, err := loadSession(opts.session)
		if err != nil {
			return err
		}
		frames, dt = script.Frames(), script.Dt()
	} else {
		frames, dt, err = loadRecording(cfg, args[0])
		if err != nil {
			return err
		}
	}
	if opts.dt > 0 {
		dt = opts.dt
	}

	snaps, err := app.Replay(sc, cfg.Camera, frames, dt)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		for i, s := range snaps {
			if i%opts.every != 0 && i != len(snaps)-1 {
				continue
			}
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tTIME\tMODE\tGESTURE\tFOCUS\tDISTANCE\tAZIMUTH\tPOLAR\tHUD")
	for i, s := range snaps {
		if i%opts.every != 0 && i != len(snaps)-1 {
			continue
		}
		gesture := "-"
		if s.Gesture.Detected {
			gesture = string(s.Gesture.Gesture)
		}
		focus := s.Focus
		if focus == "" {
			focus = "-"
		}
		fmt.Fprintf(w, "%d\t%.2fs\t%s\t%s\t%s\t%.2f\t%.3f\t%.3f\t%s\n",
			s.Frame, s.Time, s.Pose.Mode, gesture, focus,
			s.Pose.Distance, s.Pose.Azimuth, s.Pose.Polar, s.HUD)
	}
	return w.Flush()
}

// loadSession resolves a built-in session name first, then a file path.
func loadSession(name string) (*session.Script, error) {
	if s, err := session.Builtin(name); err == nil {
		return s, nil
	}
	return session.Load(name)
}

// loadRecording reads a stored recording and derives the tick length from
// its frame timestamps.
func loadRecording(cfg *config.Config, id string) ([]*detector.Frame, float64, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, 0, err
	}
	defer st.Close()

	rec, err := st.Recordings().GetByID(id)
	if err != nil {
		return nil, 0, fmt.Errorf("recording %s: %w", id, err)
	}
	rows, err := st.Recordings().Frames(id)
	if err != nil {
		return nil, 0, fmt.Errorf("recording %s: %w", id, err)
	}

	frames := make([]*detector.Frame, 0, len(rows))
	for _, r := range rows {
		frames = append(frames, r.Frame())
	}
	return frames, recordingDt(rec), nil
}

// recordingDt is the mean frame interval, or the camera default when the
// recording is too short to tell.
func recordingDt(rec *store.Recording) float64 {
	if rec.FrameCount < 2 || rec.DurationMs <= 0 {
		return 1 / float64(capture.DefaultFPS)
	}
	return float64(rec.DurationMs) / 1000 / float64(rec.FrameCount-1)
}
