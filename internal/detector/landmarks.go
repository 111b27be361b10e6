// Package detector provides pose and hand landmark extraction for the
// Deco gesture-password lock. A Detector turns one photo into a Frame:
// the twelve body joints we care about plus up to two hands, each with
// per-point confidence. Frames are ephemeral and never persisted.
package detector

import "math"

// Pose joint indices. These are the limb joints extracted from the
// MediaPipe pose model; face landmarks are deliberately excluded.
const (
	LeftShoulder  = 0
	RightShoulder = 1
	LeftElbow     = 2
	RightElbow    = 3
	LeftWrist     = 4
	RightWrist    = 5
	LeftHip       = 6
	RightHip      = 7
	LeftKnee      = 8
	RightKnee     = 9
	LeftAnkle     = 10
	RightAnkle    = 11
	NumPoseJoints = 12
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Point3D represents a 3D point in normalized image coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PoseJoint is a single body joint with its detection confidence.
type PoseJoint struct {
	Point      Point3D `json:"point"`
	Visibility float64 `json:"visibility"`
}

// PoseLandmarks holds the twelve limb joints detected in a photo.
type PoseLandmarks struct {
	Joints [NumPoseJoints]PoseJoint `json:"joints"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumHandLandmarks]Point3D `json:"points"`
	Handedness string                    `json:"handedness"` // "Left" or "Right"
	Score      float64                   `json:"score"`
}

// Frame is the full keypoint set extracted from one photo.
// Pose is nil when no person was detected.
type Frame struct {
	Pose  *PoseLandmarks  `json:"pose"`
	Hands []HandLandmarks `json:"hands"`
}

// Hand returns the first detected hand with the given handedness,
// or nil if none was detected.
func (f *Frame) Hand(handedness string) *HandLandmarks {
	for i := range f.Hands {
		if f.Hands[i].Handedness == handedness {
			return &f.Hands[i]
		}
	}
	return nil
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Normalize normalizes the hand landmarks relative to wrist position and
// hand size. The normalized landmarks have the wrist at origin (0,0,0)
// and are scaled so that the distance from wrist to middle finger MCP is
// 1.0, which makes hands comparable across photo position and distance
// from the camera. Returns a new HandLandmarks instance.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	for i := 0; i < NumHandLandmarks; i++ {
		normalized.Points[i] = Point3D{
			X: h.Points[i].X - wrist.X,
			Y: h.Points[i].Y - wrist.Y,
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	scale := distance3D(Point3D{}, normalized.Points[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := 0; i < NumHandLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}
