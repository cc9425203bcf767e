// Package api provides the JSON handlers for stored recordings.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/orrery/internal/store"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// RecordingHandler serves the /api/recordings routes.
type RecordingHandler struct {
	store *store.Store
}

// NewRecordingHandler creates a new RecordingHandler backed by s.
func NewRecordingHandler(s *store.Store) *RecordingHandler {
	return &RecordingHandler{store: s}
}

// Routes mounts the handler's endpoints on r.
func (h *RecordingHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/frames", h.frames)
}

type recordingResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FrameCount int    `json:"frame_count"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listRecordingsResponse struct {
	Recordings []recordingResponse `json:"recordings"`
}

type framesResponse struct {
	RecordingID string                `json:"recording_id"`
	Frames      []store.RecordedFrame `json:"frames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(rec *store.Recording) recordingResponse {
	return recordingResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		FrameCount: rec.FrameCount,
		DurationMs: rec.DurationMs,
		CreatedAt:  rec.CreatedAt.Format(timeFormat),
		UpdatedAt:  rec.UpdatedAt.Format(timeFormat),
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/recordings.
func (h *RecordingHandler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.Recordings().List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}

	response := listRecordingsResponse{
		Recordings: make([]recordingResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		response.Recordings = append(response.Recordings, toResponse(rec))
	}

	WriteJSON(w, http.StatusOK, response)
}

// get handles GET /api/recordings/{id}.
func (h *RecordingHandler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Recordings().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "Failed to get recording")
		return
	}

	WriteJSON(w, http.StatusOK, toResponse(rec))
}

// delete handles DELETE /api/recordings/{id}.
func (h *RecordingHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Recordings().Delete(chi.URLParam(r, "id")); err != nil {
		h.fail(w, err, "Failed to delete recording")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// frames handles GET /api/recordings/{id}/frames.
func (h *RecordingHandler) frames(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	frames, err := h.store.Recordings().Frames(id)
	if err != nil {
		h.fail(w, err, "Failed to get frames")
		return
	}

	WriteJSON(w, http.StatusOK, framesResponse{RecordingID: id, Frames: frames})
}

func (h *RecordingHandler) fail(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Recording not found")
		return
	}
	WriteError(w, http.StatusInternalServerError, message)
}
