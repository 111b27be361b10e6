package detector

import (
	"context"
	"errors"
	"sync"
)

// MockDetector is a test implementation of the Detector interface.
// Frames are queued and handed out one per Detect call, which lets
// tests script a three-photo password sequence.
type MockDetector struct {
	mu     sync.Mutex
	frames []*Frame
	err    error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// Queue appends frames to be returned by subsequent Detect calls.
func (m *MockDetector) Queue(frames ...*Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued frame or the configured error.
func (m *MockDetector) Detect(ctx context.Context, image []byte) (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return nil, errors.New("mock detector: no frames queued")
	}

	frame := m.frames[0]
	m.frames = m.frames[1:]
	return frame, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// basePose returns a neutral standing pose: shoulders level, hips level,
// legs straight. Fixture frames below vary the arms on top of it.
func basePose() *PoseLandmarks {
	pose := &PoseLandmarks{}
	set := func(joint int, x, y float64) {
		pose.Joints[joint] = PoseJoint{
			Point:      Point3D{X: x, Y: y},
			Visibility: 0.95,
		}
	}

	set(LeftShoulder, 0.35, 0.30)
	set(RightShoulder, 0.65, 0.30)
	set(LeftElbow, 0.30, 0.45)
	set(RightElbow, 0.70, 0.45)
	set(LeftWrist, 0.28, 0.58)
	set(RightWrist, 0.72, 0.58)
	set(LeftHip, 0.42, 0.55)
	set(RightHip, 0.58, 0.55)
	set(LeftKnee, 0.42, 0.75)
	set(RightKnee, 0.58, 0.75)
	set(LeftAnkle, 0.42, 0.95)
	set(RightAnkle, 0.58, 0.95)

	return pose
}

// TPoseFrame returns a frame with both arms extended horizontally and an
// open right palm.
func TPoseFrame() *Frame {
	pose := basePose()
	pose.Joints[LeftElbow].Point = Point3D{X: 0.20, Y: 0.30}
	pose.Joints[RightElbow].Point = Point3D{X: 0.80, Y: 0.30}
	pose.Joints[LeftWrist].Point = Point3D{X: 0.05, Y: 0.30}
	pose.Joints[RightWrist].Point = Point3D{X: 0.95, Y: 0.30}

	return &Frame{
		Pose:  pose,
		Hands: []HandLandmarks{OpenPalmLandmarks("Right")},
	}
}

// ArmsRaisedFrame returns a frame with both arms raised overhead, an
// open left palm and a closed right fist.
func ArmsRaisedFrame() *Frame {
	pose := basePose()
	pose.Joints[LeftElbow].Point = Point3D{X: 0.30, Y: 0.18}
	pose.Joints[RightElbow].Point = Point3D{X: 0.70, Y: 0.18}
	pose.Joints[LeftWrist].Point = Point3D{X: 0.32, Y: 0.05}
	pose.Joints[RightWrist].Point = Point3D{X: 0.68, Y: 0.05}

	return &Frame{
		Pose:  pose,
		Hands: []HandLandmarks{OpenPalmLandmarks("Left"), FistLandmarks("Right")},
	}
}

// HandsOnHipsFrame returns a frame with elbows out and wrists at the
// hips, with no hands detected.
func HandsOnHipsFrame() *Frame {
	pose := basePose()
	pose.Joints[LeftElbow].Point = Point3D{X: 0.25, Y: 0.42}
	pose.Joints[RightElbow].Point = Point3D{X: 0.75, Y: 0.42}
	pose.Joints[LeftWrist].Point = Point3D{X: 0.40, Y: 0.55}
	pose.Joints[RightWrist].Point = Point3D{X: 0.60, Y: 0.55}

	return &Frame{Pose: pose}
}

// HeadlessFrame returns a frame where the person is cut off at the
// waist: hips and legs are below the visibility floor, so no
// fingerprint can be built from it.
func HeadlessFrame() *Frame {
	pose := basePose()
	for _, joint := range []int{LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle} {
		pose.Joints[joint].Visibility = 0.1
	}
	return &Frame{Pose: pose}
}

// OpenPalmLandmarks returns a preset hand with all fingers extended.
// The left-handed variant is the mirror image of the right.
func OpenPalmLandmarks(handedness string) HandLandmarks {
	lm := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	set := func(point int, x, y, z float64) {
		if handedness == "Left" {
			x = 1.0 - x
		}
		lm.Points[point] = Point3D{X: x, Y: y, Z: z}
	}

	set(Wrist, 0.50, 0.80, 0.0)

	set(ThumbCMC, 0.55, 0.75, 0.02)
	set(ThumbMCP, 0.62, 0.70, 0.03)
	set(ThumbIP, 0.68, 0.65, 0.03)
	set(ThumbTip, 0.73, 0.60, 0.03)

	set(IndexMCP, 0.55, 0.68, 0.0)
	set(IndexPIP, 0.57, 0.55, 0.0)
	set(IndexDIP, 0.58, 0.45, 0.0)
	set(IndexTip, 0.58, 0.35, 0.0)

	set(MiddleMCP, 0.50, 0.66, 0.0)
	set(MiddlePIP, 0.50, 0.52, 0.0)
	set(MiddleDIP, 0.50, 0.40, 0.0)
	set(MiddleTip, 0.50, 0.28, 0.0)

	set(RingMCP, 0.45, 0.68, 0.0)
	set(RingPIP, 0.43, 0.55, 0.0)
	set(RingDIP, 0.42, 0.45, 0.0)
	set(RingTip, 0.42, 0.35, 0.0)

	set(PinkyMCP, 0.40, 0.70, 0.0)
	set(PinkyPIP, 0.37, 0.60, 0.0)
	set(PinkyDIP, 0.35, 0.50, 0.0)
	set(PinkyTip, 0.34, 0.42, 0.0)

	return lm
}

// FistLandmarks returns a preset hand with all fingers curled into the
// palm. The left-handed variant is the mirror image of the right.
func FistLandmarks(handedness string) HandLandmarks {
	lm := HandLandmarks{
		Handedness: handedness,
		Score:      0.93,
	}

	set := func(point int, x, y, z float64) {
		if handedness == "Left" {
			x = 1.0 - x
		}
		lm.Points[point] = Point3D{X: x, Y: y, Z: z}
	}

	set(Wrist, 0.50, 0.80, 0.0)

	set(ThumbCMC, 0.55, 0.76, 0.01)
	set(ThumbMCP, 0.58, 0.72, 0.0)
	set(ThumbIP, 0.56, 0.69, -0.02)
	set(ThumbTip, 0.52, 0.68, -0.04)

	set(IndexMCP, 0.55, 0.68, -0.01)
	set(IndexPIP, 0.56, 0.64, -0.05)
	set(IndexDIP, 0.54, 0.67, -0.07)
	set(IndexTip, 0.52, 0.70, -0.06)

	set(MiddleMCP, 0.50, 0.67, -0.01)
	set(MiddlePIP, 0.51, 0.62, -0.05)
	set(MiddleDIP, 0.49, 0.66, -0.08)
	set(MiddleTip, 0.47, 0.70, -0.06)

	set(RingMCP, 0.45, 0.68, -0.01)
	set(RingPIP, 0.45, 0.63, -0.05)
	set(RingDIP, 0.44, 0.67, -0.07)
	set(RingTip, 0.43, 0.70, -0.05)

	set(PinkyMCP, 0.41, 0.70, -0.01)
	set(PinkyPIP, 0.40, 0.66, -0.04)
	set(PinkyDIP, 0.39, 0.69, -0.06)
	set(PinkyTip, 0.39, 0.72, -0.05)

	return lm
}
