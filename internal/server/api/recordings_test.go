package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/orrery/internal/detector"
	"github.com/ayusman/orrery/internal/store"
)

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

func newRouter(s *store.Store) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/recordings", NewRecordingHandler(s).Routes)
	return r
}

// seedRecording stores a recording with one empty frame and one open palm.
func seedRecording(t *testing.T, s *store.Store, name string) *store.Recording {
	t.Helper()

	rec := &store.Recording{Name: name}
	if err := s.Recordings().Create(rec); err != nil {
		t.Fatalf("failed to create recording: %v", err)
	}
	frames := []store.RecordedFrame{
		store.FromFrame(&detector.Frame{Timestamp: 0}),
		store.FromFrame(&detector.Frame{Landmarks: detector.OpenPalmLandmarks(), Timestamp: 66 * time.Millisecond}),
	}
	if err := s.Recordings().AppendFrames(rec.ID, frames); err != nil {
		t.Fatalf("failed to append frames: %v", err)
	}
	return rec
}

func TestRecordingHandler_List(t *testing.T) {
	s := newTestStore(t)
	seedRecording(t, s, "first")
	h := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/api/recordings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listRecordingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Recordings) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(response.Recordings))
	}
	got := response.Recordings[0]
	if got.Name != "first" || got.FrameCount != 2 || got.DurationMs != 66 {
		t.Errorf("unexpected recording %+v", got)
	}
	if _, err := time.Parse(timeFormat, got.CreatedAt); err != nil {
		t.Errorf("created_at %q is not RFC3339: %v", got.CreatedAt, err)
	}
}

func TestRecordingHandler_ListEmpty(t *testing.T) {
	h := newRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/recordings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body := rec.Body.String(); body != "{\"recordings\":[]}\n" {
		t.Errorf("expected an empty list, got %q", body)
	}
}

func TestRecordingHandler_Get(t *testing.T) {
	s := newTestStore(t)
	seeded := seedRecording(t, s, "session")
	h := newRouter(s)

	t.Run("existing recording", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings/"+seeded.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var response recordingResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ID != seeded.ID {
			t.Errorf("expected ID %s, got %s", seeded.ID, response.ID)
		}
	})

	t.Run("unknown recording", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings/missing", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
		var response errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Error != "Recording not found" {
			t.Errorf("unexpected error %q", response.Error)
		}
	})
}

func TestRecordingHandler_Frames(t *testing.T) {
	s := newTestStore(t)
	seeded := seedRecording(t, s, "session")
	h := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/api/recordings/"+seeded.ID+"/frames", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response framesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.RecordingID != seeded.ID {
		t.Errorf("expected recording_id %s, got %s", seeded.ID, response.RecordingID)
	}
	if len(response.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(response.Frames))
	}
	if len(response.Frames[0].Landmarks) != 0 {
		t.Errorf("first frame should have no landmarks, got %d", len(response.Frames[0].Landmarks))
	}
	if response.Frames[1].Seq != 1 || len(response.Frames[1].Landmarks) != detector.NumLandmarks {
		t.Errorf("unexpected second frame %+v", response.Frames[1])
	}

	t.Run("unknown recording", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/recordings/missing/frames", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestRecordingHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	seeded := seedRecording(t, s, "session")
	h := newRouter(s)

	req := httptest.NewRequest(http.MethodDelete, "/api/recordings/"+seeded.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := s.Recordings().GetByID(seeded.ID); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/recordings/"+seeded.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestRecordingHandler_MethodNotAllowed(t *testing.T) {
	h := newRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/recordings/abc/frames", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
