package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/orrery/internal/session"
	"github.com/ayusman/orrery/internal/store"
)

func newRecordingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "manage stored detector recordings",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st *store.Store) error {
				recs, err := st.Recordings().List()
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no recordings")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCREATED\tFRAMES\tDURATION")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						r.ID,
						r.Name,
						r.CreatedAt.Format("2006-01-02 15:04:05"),
						r.FrameCount,
						(time.Duration(r.DurationMs) * time.Millisecond).String(),
					)
				}
				return w.Flush()
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [recording_id]",
		Short: "delete a recording and its frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st *store.Store) error {
				if err := st.Recordings().Delete(args[0]); err != nil {
					return fmt.Errorf("recording %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import [session]",
		Short: "store a scripted session as a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadSession(args[0])
			if err != nil {
				return err
			}
			return withStore(func(st *store.Store) error {
				id, err := importSession(st, script)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, deleteCmd, importCmd)
	return cmd
}

func withStore(fn func(*store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// importSession writes script's frames as a new recording and returns its ID.
func importSession(st *store.Store, script *session.Script) (string, error) {
	rec := &store.Recording{Name: script.Name}
	if err := st.Recordings().Create(rec); err != nil {
		return "", err
	}
	frames := script.Frames()
	rows := make([]store.RecordedFrame, 0, len(frames))
	for _, f := range frames {
		rows = append(rows, store.FromFrame(f))
	}
	if err := st.Recordings().AppendFrames(rec.ID, rows); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "list built-in scripted sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFRAMES\tFPS\tDESCRIPTION")
			for _, name := range session.Names() {
				s, err := session.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Name, s.Len(), s.FPS, s.Description)
			}
			return w.Flush()
		},
	}
}
