package detector

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFrame_Valid(t *testing.T) {
	t.Run("full hand is valid", func(t *testing.T) {
		f := &Frame{Landmarks: OpenPalmLandmarks()}
		if !f.Valid() {
			t.Error("expected 21 finite points to be valid")
		}
	})

	t.Run("nil frame is invalid", func(t *testing.T) {
		var f *Frame
		if f.Valid() {
			t.Error("expected nil frame to be invalid")
		}
		if f.HasHand() {
			t.Error("expected nil frame to carry no hand")
		}
	})

	t.Run("short frame is invalid", func(t *testing.T) {
		f := &Frame{Landmarks: OpenPalmLandmarks()[:20]}
		if f.Valid() {
			t.Error("expected 20 points to be invalid")
		}
		if !f.HasHand() {
			t.Error("expected short frame to still report a hand")
		}
	})

	t.Run("NaN coordinate is invalid", func(t *testing.T) {
		points := OpenPalmLandmarks()
		points[IndexTip].Y = math.NaN()
		f := &Frame{Landmarks: points}
		if f.Valid() {
			t.Error("expected NaN coordinate to be invalid")
		}
	})
}

func TestFrameFromHands(t *testing.T) {
	t.Run("keeps first hand only", func(t *testing.T) {
		hands := []Hand{
			{Points: PointingLandmarks(), Handedness: "Right", Score: 0.9},
			{Points: FistLandmarks(), Handedness: "Left", Score: 0.8},
		}
		f := FrameFromHands(hands, 40*time.Millisecond)
		if f.Timestamp != 40*time.Millisecond {
			t.Errorf("expected timestamp 40ms, got %v", f.Timestamp)
		}
		if len(f.Landmarks) != NumLandmarks {
			t.Fatalf("expected %d landmarks, got %d", NumLandmarks, len(f.Landmarks))
		}
		if f.Landmarks[IndexTip] != hands[0].Points[IndexTip] {
			t.Error("expected landmarks from the first hand")
		}
	})

	t.Run("copies landmarks", func(t *testing.T) {
		hands := []Hand{{Points: OpenPalmLandmarks()}}
		f := FrameFromHands(hands, 0)
		hands[0].Points[Wrist].X = 99
		if f.Landmarks[Wrist].X == 99 {
			t.Error("frame should not alias detector output")
		}
	})

	t.Run("no hands yields empty frame", func(t *testing.T) {
		f := FrameFromHands(nil, time.Second)
		if f.HasHand() {
			t.Error("expected no hand")
		}
		if f.Timestamp != time.Second {
			t.Errorf("expected timestamp to be kept, got %v", f.Timestamp)
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]Hand{{Points: OpenPalmLandmarks()}})

		hands, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Errorf("expected 1 hand, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()
		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected mock to report closed")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func extended(points []Point3D, tip, pip int) bool {
	return points[tip].Y < points[pip].Y
}

func TestPoseLandmarks(t *testing.T) {
	fingers := []struct {
		name     string
		tip, pip int
	}{
		{"index", IndexTip, IndexPIP},
		{"middle", MiddleTip, MiddlePIP},
		{"ring", RingTip, RingPIP},
		{"pinky", PinkyTip, PinkyPIP},
	}

	t.Run("open palm extends every finger", func(t *testing.T) {
		points := OpenPalmLandmarks()
		for _, f := range fingers {
			if !extended(points, f.tip, f.pip) {
				t.Errorf("%s finger should be extended", f.name)
			}
		}
	})

	t.Run("fist folds every finger", func(t *testing.T) {
		points := FistLandmarks()
		for _, f := range fingers {
			if extended(points, f.tip, f.pip) {
				t.Errorf("%s finger should be folded", f.name)
			}
		}
	})

	t.Run("pointing extends only index", func(t *testing.T) {
		points := PointingLandmarks()
		for _, f := range fingers {
			want := f.name == "index"
			if got := extended(points, f.tip, f.pip); got != want {
				t.Errorf("%s finger extended = %v, want %v", f.name, got, want)
			}
		}
	})

	t.Run("wrist is placed where asked", func(t *testing.T) {
		points := PoseLandmarks(0.2, 0.7, true, true, true, true)
		if points[Wrist].X != 0.2 || points[Wrist].Y != 0.7 {
			t.Errorf("unexpected wrist %+v", points[Wrist])
		}
		if len(points) != NumLandmarks {
			t.Errorf("expected %d points, got %d", NumLandmarks, len(points))
		}
	})
}
