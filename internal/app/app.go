// Package app wires the webcam, hand detector, gesture classifier and camera
// controller into two loops: detection at the camera rate and ticks at the
// render rate, joined by a single-slot mailbox.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/orrery/internal/capture"
	"github.com/ayusman/orrery/internal/detector"
	"github.com/ayusman/orrery/internal/orbit"
	"github.com/ayusman/orrery/internal/scene"
	"github.com/ayusman/orrery/internal/store"
)

// DefaultRenderFPS is the tick rate when Config.RenderFPS is unset.
const DefaultRenderFPS = 60

// ErrRunning is returned by Start when the loops are already running.
var ErrRunning = errors.New("app already running")

// Config holds configuration options for the application.
type Config struct {
	Scene     *scene.Scene
	Camera    orbit.Config
	Capture   capture.Config
	Detection detector.Config
	RenderFPS int

	HandControl bool

	// Source and Detector override the webcam and MediaPipe helper.
	Source   capture.Camera
	Detector detector.Detector

	// Store receives a recording of every detector frame when Record is set.
	Store         *store.Store
	Record        bool
	RecordingName string

	// Preview keeps the latest camera frame as JPEG for the MJPEG stream.
	Preview bool
}

// App is the running application.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	gate     *capture.Gate
	detector detector.Detector

	frames  capture.Mailbox[detector.Frame]
	preview capture.Mailbox[[]byte]

	tickMu   sync.Mutex
	pipeline *Pipeline

	mu          sync.RWMutex
	handControl bool
	latest      Snapshot
	subs        map[int]chan Snapshot
	nextSub     int

	runMu    sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	recorder *recorder
	start    time.Time
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Scene == nil {
		config.Scene = scene.DefaultSolarSystem(nil)
	}
	if err := config.Scene.Validate(); err != nil {
		return nil, err
	}
	if config.RenderFPS <= 0 {
		config.RenderFPS = DefaultRenderFPS
	}

	pipeline, err := NewPipeline(config.Scene, config.Camera)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:      config,
		camera:      config.Source,
		detector:    config.Detector,
		pipeline:    pipeline,
		handControl: config.HandControl,
		subs:        make(map[int]chan Snapshot),
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(config.Capture)
	}

	var sensor capture.MotionSensor
	if config.Capture.MotionThreshold > 0 {
		a.motion = capture.NewMotionDetector(config.Capture.MotionThreshold)
		sensor = a.motion
	}
	a.gate = capture.NewGate(sensor, config.Capture.HoldTimeout)

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.Detection); err == nil {
			a.detector = mp
			log.Println("app: using MediaPipe hand detection")
		} else {
			log.Printf("app: MediaPipe not available (%v), hands will never be seen", err)
			a.detector = detector.NewMockDetector()
		}
	}

	a.latest = pipeline.Current(config.HandControl)
	return a, nil
}

// Start opens the camera and runs the detection and render loops until ctx
// is cancelled or Stop is called. Without a working camera only the render
// loop runs and the camera idles.
func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.cancel != nil {
		return ErrRunning
	}

	if a.config.Record && a.config.Store != nil {
		name := a.config.RecordingName
		if name == "" {
			name = time.Now().Format("2006-01-02 15:04:05")
		}
		rec, err := newRecorder(a.config.Store, name)
		if err != nil {
			return err
		}
		a.recorder = rec
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.start = time.Now()

	if err := a.camera.Open(); err != nil {
		log.Printf("app: camera unavailable, running without hand input: %v", err)
	} else {
		a.wg.Add(1)
		go a.detectLoop(ctx)
	}

	a.wg.Add(1)
	go a.renderLoop(ctx)

	log.Println("app: started")
	return nil
}

// Stop halts both loops and releases the camera, motion detector and hand
// detector. It is safe to call more than once.
func (a *App) Stop() {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.cancel == nil {
		return
	}
	a.cancel()
	a.wg.Wait()
	a.cancel = nil

	if err := a.camera.Close(); err != nil {
		log.Printf("app: error closing camera: %v", err)
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("app: error closing detector: %v", err)
	}
	if a.recorder != nil {
		if err := a.recorder.flush(); err != nil {
			log.Printf("app: recording write failed: %v", err)
		}
		a.recorder = nil
	}

	a.mu.Lock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.mu.Unlock()

	log.Println("app: stopped")
}

func (a *App) detectLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.Capture.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !a.HandControl() {
				continue
			}
			a.detectOnce(now)
		}
	}
}

// detectOnce reads one camera frame and publishes the detector's verdict.
func (a *App) detectOnce(now time.Time) {
	mat, err := a.camera.ReadFrame()
	if err != nil {
		log.Printf("app: error reading frame: %v", err)
		return
	}
	defer mat.Close()

	if a.config.Preview {
		a.publishPreview(mat)
	}

	var hands []detector.Hand
	if a.gate.Open(mat, now) {
		hands, err = a.detector.Detect(mat)
		if err != nil {
			log.Printf("app: error detecting hands: %v", err)
			hands = nil
		}
	}

	frame := detector.FrameFromHands(hands, now.Sub(a.start))
	a.gate.ObserveHand(frame.HasHand())
	a.frames.Publish(frame)

	if a.recorder != nil {
		a.recorder.add(frame)
	}
}

func (a *App) publishPreview(mat *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *mat)
	if err != nil {
		return
	}
	defer buf.Close()
	data := append([]byte(nil), buf.GetBytes()...)
	a.preview.Publish(&data)
}

func (a *App) renderLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Step runs one tick with the most recent detector frame and notifies
// subscribers. A frame already seen by a previous tick is passed again;
// the classifier recognises it by timestamp.
func (a *App) Step(dt float64) Snapshot {
	a.tickMu.Lock()
	frame, _ := a.frames.Latest()
	snap := a.pipeline.Tick(frame, dt, a.HandControl())
	a.tickMu.Unlock()

	a.mu.Lock()
	a.latest = snap
	for _, ch := range a.subs {
		offer(ch, snap)
	}
	a.mu.Unlock()
	return snap
}

// offer delivers snap without blocking, replacing an unread snapshot.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Publish feeds a detector frame as if the detection loop had produced it.
func (a *App) Publish(frame *detector.Frame) {
	a.frames.Publish(frame)
}

// Replay runs frames through a fresh pipeline built from this app's scene
// and camera config. The live pipeline is not touched.
func (a *App) Replay(frames []*detector.Frame, dt float64) ([]Snapshot, error) {
	return Replay(a.config.Scene, a.config.Camera, frames, dt)
}

// Subscribe returns a channel of snapshots and a function to cancel the
// subscription. A slow subscriber only ever sees the newest snapshot.
func (a *App) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			if _, ok := a.subs[id]; ok {
				delete(a.subs, id)
				close(ch)
			}
			a.mu.Unlock()
		})
	}
}

// Latest returns the snapshot of the most recent tick.
func (a *App) Latest() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Preview returns the latest camera frame as JPEG, or nil.
func (a *App) Preview() ([]byte, uint64) {
	data, seq := a.preview.Latest()
	if data == nil {
		return nil, seq
	}
	return *data, seq
}

// SetHandControl enables or disables hand input. While disabled the camera
// behaves as if no hand were visible.
func (a *App) SetHandControl(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handControl = enabled
}

// HandControl reports whether hand input is enabled.
func (a *App) HandControl() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handControl
}

// Scene returns the body table.
func (a *App) Scene() *scene.Scene {
	return a.config.Scene
}

// RecordingID returns the ID of the active recording, or "".
func (a *App) RecordingID() string {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.recorder == nil {
		return ""
	}
	return a.recorder.rec.ID
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
