package app

import (
	"fmt"
	"log"

	"github.com/ayusman/orrery/internal/detector"
	"github.com/ayusman/orrery/internal/store"
)

// recordBatch is how many frames are buffered before a write.
const recordBatch = 30

// recorder appends detector output to a stored recording. It is owned by
// the detection goroutine; the final flush happens after that goroutine exits.
type recorder struct {
	repo *store.RecordingRepository
	rec  *store.Recording
	buf  []store.RecordedFrame
}

func newRecorder(st *store.Store, name string) (*recorder, error) {
	rec := &store.Recording{Name: name}
	repo := st.Recordings()
	if err := repo.Create(rec); err != nil {
		return nil, fmt.Errorf("start recording: %w", err)
	}
	log.Printf("app: recording to %s (%s)", rec.ID, name)
	return &recorder{repo: repo, rec: rec, buf: make([]store.RecordedFrame, 0, recordBatch)}, nil
}

func (r *recorder) add(frame *detector.Frame) {
	r.buf = append(r.buf, store.FromFrame(frame))
	if len(r.buf) >= recordBatch {
		if err := r.flush(); err != nil {
			log.Printf("app: recording write failed: %v", err)
		}
	}
}

func (r *recorder) flush() error {
	if len(r.buf) == 0 {
		return nil
	}
	err := r.repo.AppendFrames(r.rec.ID, r.buf)
	r.buf = r.buf[:0]
	return err
}
