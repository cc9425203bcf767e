package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ayusman/orrery/internal/app"
	"github.com/ayusman/orrery/internal/gesture"
	"github.com/ayusman/orrery/internal/scene"
	"github.com/ayusman/orrery/internal/store"
)

// fakeSource is a Source whose snapshots are pushed by the test.
type fakeSource struct {
	mu      sync.Mutex
	scene   *scene.Scene
	latest  app.Snapshot
	hand    bool
	preview []byte
	seq     uint64
	subs    map[chan app.Snapshot]bool
}

func newFakeSource() *fakeSource {
	sc := scene.DefaultSolarSystem(nil)
	return &fakeSource{
		scene: sc,
		latest: app.Snapshot{
			Frame:   1,
			Gesture: gesture.NotDetected(),
			HUD:     gesture.HUDLabel(gesture.NotDetected(), ""),
			Styles:  sc.Styles(nil),
		},
		hand: true,
		subs: make(map[chan app.Snapshot]bool),
	}
}

func (f *fakeSource) Latest() app.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *fakeSource) Subscribe() (<-chan app.Snapshot, func()) {
	ch := make(chan app.Snapshot, 1)
	f.mu.Lock()
	f.subs[ch] = true
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.subs[ch] {
			delete(f.subs, ch)
			close(ch)
		}
	}
}

func (f *fakeSource) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// push makes snap the latest snapshot and hands it to every subscriber.
func (f *fakeSource) push(snap app.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = snap
	for ch := range f.subs {
		ch <- snap
	}
}

func (f *fakeSource) Preview() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preview, f.seq
}

func (f *fakeSource) setPreview(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preview = data
	f.seq++
}

func (f *fakeSource) Scene() *scene.Scene {
	return f.scene
}

func (f *fakeSource) HandControl() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hand
}

func (f *fakeSource) SetHandControl(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hand = enabled
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})

	t.Run("reports hand control with a source", func(t *testing.T) {
		src := newFakeSource()
		src.SetHandControl(false)
		s := New(Config{Source: src})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["handControl"] != false {
			t.Errorf("expected handControl false, got %v", response["handControl"])
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_RoutesNeedSource(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/scene", "/api/state", "/api/control", "/api/pose", "/api/stream", "/api/recordings"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_Scene(t *testing.T) {
	src := newFakeSource()
	s := New(Config{Source: src})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scene", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Bodies []scene.Body           `json:"bodies"`
		Orbits []scene.OrbitLine      `json:"orbits"`
		Styles map[string]scene.Style `json:"styles"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Bodies) != len(src.scene.Bodies) {
		t.Errorf("expected %d bodies, got %d", len(src.scene.Bodies), len(response.Bodies))
	}
	if len(response.Orbits) != len(src.scene.OrbitLines()) {
		t.Errorf("expected %d orbit lines, got %d", len(src.scene.OrbitLines()), len(response.Orbits))
	}
	if style, ok := response.Styles["earth"]; !ok || style != scene.OrbitStyle(nil, nil) {
		t.Errorf("expected earth orbit in the neutral style, got %+v (present=%v)", style, ok)
	}
}

func TestServer_State(t *testing.T) {
	src := newFakeSource()
	s := New(Config{Source: src})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var snap app.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snap.Frame != 1 {
		t.Errorf("expected frame 1, got %d", snap.Frame)
	}
	if snap.Gesture.Gesture != gesture.Neutral || snap.Gesture.Detected {
		t.Errorf("expected no hand, got %+v", snap.Gesture)
	}
}

func TestServer_Control(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		s := New(Config{Source: newFakeSource()})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/control", nil))

		if body := strings.TrimSpace(rec.Body.String()); body != `{"handControl":true}` {
			t.Errorf("unexpected body %s", body)
		}
	})

	t.Run("put persists the setting", func(t *testing.T) {
		src := newFakeSource()
		st := newTestStore(t)
		s := New(Config{Source: src, Store: st})

		req := httptest.NewRequest(http.MethodPut, "/api/control", bytes.NewBufferString(`{"handControl": false}`))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if src.HandControl() {
			t.Error("hand control should be off")
		}
		if st.Settings().Bool(store.SettingHandControl, true) {
			t.Error("setting should be stored as false")
		}
	})

	t.Run("rejects bad bodies", func(t *testing.T) {
		s := New(Config{Source: newFakeSource()})

		for _, body := range []string{"not json", `{}`} {
			req := httptest.NewRequest(http.MethodPut, "/api/control", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
			}
		}
	})
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	jsContent := "console.log('orrery');"
	if err := os.WriteFile(filepath.Join(tmpDir, "main.js"), []byte(jsContent), 0644); err != nil {
		t.Fatalf("failed to create test JS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/main.js", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != jsContent {
			t.Errorf("expected body %q, got %q", jsContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})

	t.Run("http server uses the address", func(t *testing.T) {
		hs := New(Config{}).Handler(":9999")
		if hs.Addr != ":9999" || hs.Handler == nil {
			t.Errorf("unexpected http.Server %+v", hs)
		}
	})
}

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}
