// Package tray provides the system tray menu for the orrery: the hand
// control toggle, the HUD status line and the tour label.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/orrery/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	hud      string
	tour     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuHUD    *systray.MenuItem
	menuTour   *systray.MenuItem
}

// New creates a new Tray with hand control initially set to enabled.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when hand control is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the viewer menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Orrery")
	systray.SetTooltip("Orrery hand-controlled solar system")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand control")
	systray.AddSeparator()

	t.menuHUD = systray.AddMenuItem(hudTitle(t.hud), "Hand tracking status")
	t.menuHUD.Disable()
	t.menuTour = systray.AddMenuItem(tourTitle(t.tour), "Body selected by the tour")
	t.menuTour.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the renderer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Orrery")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle flips hand control and reports the new state.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleOpen handles the viewer menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled shows enabled without calling the toggle callback, for changes
// made elsewhere.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.enabled == enabled {
		return
	}
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetHUD updates the status line.
func (t *Tray) SetHUD(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hud == label {
		return
	}
	t.hud = label
	if t.menuHUD != nil {
		t.menuHUD.SetTitle(hudTitle(label))
	}
}

// SetTour updates the tour label with a body's display name.
func (t *Tray) SetTour(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tour == name {
		return
	}
	t.tour = name
	if t.menuTour != nil {
		t.menuTour.SetTitle(tourTitle(name))
	}
}

// Update shows the state carried by one tick's snapshot.
func (t *Tray) Update(snap app.Snapshot) {
	t.SetEnabled(snap.HandControl)
	t.SetHUD(snap.HUD)
	t.SetTour(snap.Tour)
}

// Follow applies snapshots until snaps is closed.
func (t *Tray) Follow(snaps <-chan app.Snapshot) {
	for snap := range snaps {
		t.Update(snap)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// HUD returns the current status line.
func (t *Tray) HUD() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hud
}

// Tour returns the current tour label.
func (t *Tray) Tour() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tour
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Hand Control"
	}
	return "○ Hand Control"
}

func hudTitle(label string) string {
	if label == "" {
		return "Status: idle"
	}
	return "Status: " + label
}

func tourTitle(name string) string {
	if name == "" {
		return "Tour: none"
	}
	return "Tour: " + name
}
