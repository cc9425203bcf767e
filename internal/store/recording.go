package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/orrery/internal/detector"
)

// Recording is a captured session of detector output.
type Recording struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FrameCount int       `json:"frame_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordedFrame is one detector result. Landmarks is empty when no hand was
// visible.
type RecordedFrame struct {
	Seq         int                `json:"seq"`
	TimestampMs int64              `json:"timestamp_ms"`
	Landmarks   []detector.Point3D `json:"landmarks"`
}

// Frame converts the recorded row back into detector output.
func (f RecordedFrame) Frame() *detector.Frame {
	return &detector.Frame{
		Landmarks: f.Landmarks,
		Timestamp: time.Duration(f.TimestampMs) * time.Millisecond,
	}
}

// FromFrame builds a row for frame. Sequence numbers are assigned on append.
func FromFrame(frame *detector.Frame) RecordedFrame {
	if frame == nil {
		return RecordedFrame{}
	}
	return RecordedFrame{
		TimestampMs: frame.Timestamp.Milliseconds(),
		Landmarks:   frame.Landmarks,
	}
}

// RecordingRepository provides CRUD operations for recordings and their frames.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

// Create inserts a new, empty recording. An ID is generated when r.ID is empty.
func (r *RecordingRepository) Create(rec *Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO recordings (id, name, frame_count, duration_ms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.FrameCount, rec.DurationMs, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	return nil
}

// GetByID retrieves a recording by its ID.
func (r *RecordingRepository) GetByID(id string) (*Recording, error) {
	rec := &Recording{}
	err := r.db.QueryRow(
		`SELECT id, name, frame_count, duration_ms, created_at, updated_at
		 FROM recordings WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Name, &rec.FrameCount, &rec.DurationMs, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(
		`SELECT id, name, frame_count, duration_ms, created_at, updated_at
		 FROM recordings ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec := &Recording{}
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.FrameCount, &rec.DurationMs, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// Delete removes a recording and its frames.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// AppendFrames adds frames to the end of a recording in a single
// transaction, assigning their sequence numbers, and updates the frame count
// and duration.
func (r *RecordingRepository) AppendFrames(id string, frames []RecordedFrame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	var duration int64
	err = tx.QueryRow(`SELECT frame_count, duration_ms FROM recordings WHERE id = ?`, id).Scan(&count, &duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO recording_frames (recording_id, seq, timestamp_ms, landmarks) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range frames {
		frames[i].Seq = count
		count++

		points := frames[i].Landmarks
		if points == nil {
			points = []detector.Point3D{}
		}
		data, err := json.Marshal(points)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", frames[i].Seq, err)
		}
		if _, err := stmt.Exec(id, frames[i].Seq, frames[i].TimestampMs, string(data)); err != nil {
			return err
		}
		duration = max(duration, frames[i].TimestampMs)
	}

	_, err = tx.Exec(`UPDATE recordings SET frame_count = ?, duration_ms = ?, updated_at = ? WHERE id = ?`,
		count, duration, time.Now(), id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Frames returns every frame of a recording in sequence order.
func (r *RecordingRepository) Frames(id string) ([]RecordedFrame, error) {
	if _, err := r.GetByID(id); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT seq, timestamp_ms, landmarks
		 FROM recording_frames
		 WHERE recording_id = ?
		 ORDER BY seq`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	frames := []RecordedFrame{}
	for rows.Next() {
		var f RecordedFrame
		var data string
		if err := rows.Scan(&f.Seq, &f.TimestampMs, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &f.Landmarks); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", f.Seq, err)
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}
