package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []Hand
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// finger lays out the four joints of a finger from its MCP knuckle. Extended
// fingers run straight up the image; folded fingers curl back so the tip
// sits below the PIP joint.
func finger(points []Point3D, mcp int, x, baseY float64, extended bool) {
	if extended {
		points[mcp] = Point3D{X: x, Y: baseY}
		points[mcp+1] = Point3D{X: x, Y: baseY - 0.12}
		points[mcp+2] = Point3D{X: x, Y: baseY - 0.21}
		points[mcp+3] = Point3D{X: x, Y: baseY - 0.29}
		return
	}
	points[mcp] = Point3D{X: x, Y: baseY, Z: -0.02}
	points[mcp+1] = Point3D{X: x, Y: baseY - 0.03, Z: -0.05}
	points[mcp+2] = Point3D{X: x - 0.02, Y: baseY - 0.01, Z: -0.04}
	points[mcp+3] = Point3D{X: x - 0.03, Y: baseY + 0.02, Z: -0.02}
}

// PoseLandmarks returns a right hand with its wrist at (wristX, wristY) and
// the index, middle, ring and pinky fingers extended or folded as given.
func PoseLandmarks(wristX, wristY float64, index, middle, ring, pinky bool) []Point3D {
	points := make([]Point3D, NumLandmarks)
	points[Wrist] = Point3D{X: wristX, Y: wristY}

	// Thumb out to the side; its state never affects classification.
	points[ThumbCMC] = Point3D{X: wristX + 0.05, Y: wristY - 0.05, Z: 0.02}
	points[ThumbMCP] = Point3D{X: wristX + 0.12, Y: wristY - 0.10, Z: 0.03}
	points[ThumbIP] = Point3D{X: wristX + 0.18, Y: wristY - 0.15, Z: 0.03}
	points[ThumbTip] = Point3D{X: wristX + 0.23, Y: wristY - 0.20, Z: 0.03}

	base := wristY - 0.12
	finger(points, IndexMCP, wristX+0.05, base, index)
	finger(points, MiddleMCP, wristX, base-0.02, middle)
	finger(points, RingMCP, wristX-0.05, base, ring)
	finger(points, PinkyMCP, wristX-0.10, base+0.02, pinky)
	return points
}

// OpenPalmLandmarks returns a hand with all four fingers extended.
func OpenPalmLandmarks() []Point3D {
	return PoseLandmarks(0.5, 0.8, true, true, true, true)
}

// FistLandmarks returns a hand with all four fingers folded.
func FistLandmarks() []Point3D {
	return PoseLandmarks(0.5, 0.8, false, false, false, false)
}

// PointingLandmarks returns a hand with only the index finger extended.
func PointingLandmarks() []Point3D {
	return PoseLandmarks(0.5, 0.8, true, false, false, false)
}

// PeaceLandmarks returns a hand with index and middle fingers extended.
func PeaceLandmarks() []Point3D {
	return PoseLandmarks(0.5, 0.8, true, true, false, false)
}
