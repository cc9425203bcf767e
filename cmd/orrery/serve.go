package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/orrery/internal/app"
	"github.com/ayusman/orrery/internal/config"
	"github.com/ayusman/orrery/internal/server"
	"github.com/ayusman/orrery/internal/store"
	"github.com/ayusman/orrery/internal/tray"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	listen        string
	web           string
	noHand        bool
	record        bool
	recordingName string
	tray          bool
	logRequests   bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the camera loops and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = opts.listen
			}
			if cmd.Flags().Changed("web") {
				cfg.WebDir = opts.web
			}
			if cmd.Flags().Changed("record") {
				cfg.Record = opts.record
			}
			if cmd.Flags().Changed("tray") {
				cfg.Tray = opts.tray
			}
			return serve(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", config.DefaultListen, "HTTP listen address")
	cmd.Flags().StringVar(&opts.web, "web", "", "web renderer directory")
	cmd.Flags().BoolVar(&opts.noHand, "no-hand", false, "start with hand control off")
	cmd.Flags().BoolVar(&opts.record, "record", false, "record detector output to the store")
	cmd.Flags().StringVar(&opts.recordingName, "name", "", "recording name (default: start time)")
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "show the system tray menu")
	cmd.Flags().BoolVar(&opts.logRequests, "log-requests", false, "log every HTTP request")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, opts serveOptions) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sc, err := loadScene(cfg, true)
	if err != nil {
		return err
	}

	handControl := st.Settings().Bool(store.SettingHandControl, cfg.HandControl)
	if opts.noHand {
		handControl = false
	}

	application, err := app.New(app.Config{
		Scene:         sc,
		Camera:        cfg.Camera,
		Capture:       cfg.Capture,
		Detection:     cfg.Detector,
		RenderFPS:     cfg.RenderFPS,
		HandControl:   handControl,
		Store:         st,
		Record:        cfg.Record,
		RecordingName: opts.recordingName,
		Preview:       true,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer application.Stop()
	if id := application.RecordingID(); id != "" {
		log.Printf("orrery: recording to %s", id)
	}

	webDir := findWebDir(cfg)
	if webDir != "" {
		log.Printf("orrery: serving static files from %s", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:   webDir,
		Store:       st,
		Source:      application,
		LogRequests: opts.logRequests,
	})
	httpServer := srv.Handler(cfg.Listen)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("orrery: listening on %s", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Tray {
		runTray(ctx, stop, application, st, cfg.Listen)
	}

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	log.Println("orrery: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// runTray shows the tray menu and blocks until it quits or ctx is done.
// Toggles made in the menu are saved to the store.
func runTray(ctx context.Context, quit context.CancelFunc, a *app.App, st *store.Store, listen string) {
	t := tray.New(a.HandControl())
	t.OnToggle(func(enabled bool) {
		a.SetHandControl(enabled)
		if err := st.Settings().SetBool(store.SettingHandControl, enabled); err != nil {
			log.Printf("orrery: failed to save hand control: %v", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(viewerURL(listen)); err != nil {
			log.Printf("orrery: failed to open browser: %v", err)
		}
	})
	t.OnQuit(quit)

	snaps, cancel := a.Subscribe()
	defer cancel()
	go t.Follow(snaps)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func viewerURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		listen = "localhost" + listen
	}
	return "http://" + listen + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
