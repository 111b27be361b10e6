// Package fingerprint reduces a detected pose to a fixed-length numeric
// vector and scores the similarity between two such vectors. The vector
// is invariant to where the person stands and how far they are from the
// camera: body joints are expressed relative to the hip midpoint and
// scaled by hip width, and each hand is normalized to its own wrist and
// size. Raw photos and landmarks are never stored; fingerprints are the
// only representation of a gesture password that survives a request.
package fingerprint

import (
	"errors"
	"math"

	"github.com/tristanduncombe/DECO3500/internal/detector"
)

const (
	// Dim is the fingerprint dimension: 6 upper-body joints (x, y),
	// 4 arm angles, and 21 landmarks (x, y) per hand for two hands.
	// Every fingerprint in the system has this dimension, so any two
	// are comparable.
	Dim = 12 + 4 + 2*2*detector.NumHandLandmarks

	// SequenceLen is the number of poses in a gesture password.
	SequenceLen = 3

	// VisibilityFloor is the minimum per-point detection confidence.
	// Points below it take the neutral fill value instead of their
	// coordinates, preserving the fixed dimension.
	VisibilityFloor = 0.5

	// DefaultThreshold is the per-position similarity score an unlock
	// attempt must reach.
	DefaultThreshold = 0.8
)

// Vector layout offsets.
const (
	angleOffset     = 12
	leftHandOffset  = 16
	rightHandOffset = leftHandOffset + 2*detector.NumHandLandmarks
)

// neutralFill is written for landmarks that are missing or below the
// visibility floor.
const neutralFill = 0.0

// ErrInsufficientLandmarks is returned when too few high-confidence
// points exist to compute the normalization reference.
var ErrInsufficientLandmarks = errors.New("insufficient landmarks to build fingerprint")

// Fingerprint is a fixed-length vector derived from one pose photo.
type Fingerprint [Dim]float64

// Sequence is the ordered three-pose gesture password. Position i is
// only ever compared against attempt position i; the order is part of
// the secret.
type Sequence [SequenceLen]Fingerprint

// upperJoints are the joints whose normalized coordinates make up the
// first section of the vector, in layout order.
var upperJoints = [6]int{
	detector.LeftShoulder,
	detector.RightShoulder,
	detector.LeftElbow,
	detector.RightElbow,
	detector.LeftWrist,
	detector.RightWrist,
}

// Build constructs a Fingerprint from one detected frame.
//
// The hip midpoint is the origin and the hip width the unit length, so
// both hips must be visible; Build fails with ErrInsufficientLandmarks
// when they are not, or when they coincide. Everything else degrades
// gracefully to the neutral fill.
func Build(frame *detector.Frame) (Fingerprint, error) {
	var fp Fingerprint

	if frame == nil || frame.Pose == nil {
		return fp, ErrInsufficientLandmarks
	}
	pose := frame.Pose

	leftHip := pose.Joints[detector.LeftHip]
	rightHip := pose.Joints[detector.RightHip]
	if leftHip.Visibility < VisibilityFloor || rightHip.Visibility < VisibilityFloor {
		return fp, ErrInsufficientLandmarks
	}

	originX := (leftHip.Point.X + rightHip.Point.X) / 2
	originY := (leftHip.Point.Y + rightHip.Point.Y) / 2
	scale := math.Hypot(leftHip.Point.X-rightHip.Point.X, leftHip.Point.Y-rightHip.Point.Y)
	if scale < 1e-6 {
		return fp, ErrInsufficientLandmarks
	}

	for i, joint := range upperJoints {
		j := pose.Joints[joint]
		if j.Visibility < VisibilityFloor {
			fp[2*i] = neutralFill
			fp[2*i+1] = neutralFill
			continue
		}
		fp[2*i] = (j.Point.X - originX) / scale
		fp[2*i+1] = (j.Point.Y - originY) / scale
	}

	fp[angleOffset] = jointAngle(pose, detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist)
	fp[angleOffset+1] = jointAngle(pose, detector.RightShoulder, detector.RightElbow, detector.RightWrist)
	fp[angleOffset+2] = jointAngle(pose, detector.LeftHip, detector.LeftShoulder, detector.LeftElbow)
	fp[angleOffset+3] = jointAngle(pose, detector.RightHip, detector.RightShoulder, detector.RightElbow)

	writeHand(&fp, leftHandOffset, frame.Hand("Left"))
	writeHand(&fp, rightHandOffset, frame.Hand("Right"))

	return fp, nil
}

// jointAngle returns the angle at joint b between segments b->a and
// b->c, normalized to [0, 1] by dividing by pi. Returns the neutral
// fill when any involved joint is below the visibility floor or the
// segments are degenerate.
func jointAngle(pose *detector.PoseLandmarks, a, b, c int) float64 {
	ja, jb, jc := pose.Joints[a], pose.Joints[b], pose.Joints[c]
	if ja.Visibility < VisibilityFloor || jb.Visibility < VisibilityFloor || jc.Visibility < VisibilityFloor {
		return neutralFill
	}

	ux := ja.Point.X - jb.Point.X
	uy := ja.Point.Y - jb.Point.Y
	vx := jc.Point.X - jb.Point.X
	vy := jc.Point.Y - jb.Point.Y

	nu := math.Hypot(ux, uy)
	nv := math.Hypot(vx, vy)
	if nu < 1e-9 || nv < 1e-9 {
		return neutralFill
	}

	cos := (ux*vx + uy*vy) / (nu * nv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) / math.Pi
}

// writeHand writes the normalized x/y coordinates of one hand into the
// vector at the given offset. A missing or low-confidence hand leaves
// the neutral fill in place.
func writeHand(fp *Fingerprint, offset int, hand *detector.HandLandmarks) {
	if hand == nil || hand.Score < VisibilityFloor {
		return
	}

	normalized := hand.Normalize()
	for i := 0; i < detector.NumHandLandmarks; i++ {
		fp[offset+2*i] = normalized.Points[i].X
		fp[offset+2*i+1] = normalized.Points[i].Y
	}
}

// maxDistance is the distance mapped to a score of zero. Normalized
// coordinates mostly live in [-2, 2], so per-dimension differences
// rarely exceed 2; beyond that the poses share nothing.
var maxDistance = 2 * math.Sqrt(Dim)

// Compare returns a similarity score in [0, 1] between two
// fingerprints: 1 for identical vectors, falling off linearly with
// Euclidean distance. Compare is symmetric.
func Compare(a, b Fingerprint) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	score := 1 - math.Sqrt(sum)/maxDistance
	if score < 0 {
		return 0
	}
	return score
}
