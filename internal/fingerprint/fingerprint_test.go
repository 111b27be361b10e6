package fingerprint

import (
	"errors"
	"math"
	"testing"

	"github.com/tristanduncombe/DECO3500/internal/detector"
)

// jitter returns a copy of the frame with every pose joint shifted by a
// small, deterministic offset, simulating the capture noise between two
// photos of the same physical pose.
func jitter(frame *detector.Frame, amount float64) *detector.Frame {
	pose := *frame.Pose
	for i := range pose.Joints {
		sign := 1.0
		if i%2 == 0 {
			sign = -1.0
		}
		pose.Joints[i].Point.X += sign * amount
		pose.Joints[i].Point.Y += amount
	}
	return &detector.Frame{Pose: &pose, Hands: frame.Hands}
}

func mustBuild(t *testing.T, frame *detector.Frame) Fingerprint {
	t.Helper()
	fp, err := Build(frame)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return fp
}

func TestBuild_Deterministic(t *testing.T) {
	frame := detector.TPoseFrame()

	a := mustBuild(t, frame)
	b := mustBuild(t, frame)

	if a != b {
		t.Error("building the same frame twice should yield bit-identical fingerprints")
	}
}

func TestBuild_TranslationAndScaleInvariant(t *testing.T) {
	frame := detector.TPoseFrame()
	base := mustBuild(t, frame)

	// Same pose, person standing elsewhere and closer to the camera.
	moved := &detector.Frame{Pose: &detector.PoseLandmarks{}, Hands: frame.Hands}
	for i, j := range frame.Pose.Joints {
		moved.Pose.Joints[i] = detector.PoseJoint{
			Point: detector.Point3D{
				X: j.Point.X*1.3 + 0.1,
				Y: j.Point.Y*1.3 - 0.05,
				Z: j.Point.Z * 1.3,
			},
			Visibility: j.Visibility,
		}
	}

	got := mustBuild(t, moved)
	for i := range base {
		if math.Abs(base[i]-got[i]) > 1e-9 {
			t.Fatalf("dimension %d changed under translation+scale: %f vs %f", i, base[i], got[i])
		}
	}
}

func TestBuild_MissingPose(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrInsufficientLandmarks) {
		t.Errorf("Build(nil) error = %v, want ErrInsufficientLandmarks", err)
	}

	if _, err := Build(&detector.Frame{}); !errors.Is(err, ErrInsufficientLandmarks) {
		t.Errorf("Build(no pose) error = %v, want ErrInsufficientLandmarks", err)
	}
}

func TestBuild_HipsBelowFloor(t *testing.T) {
	_, err := Build(detector.HeadlessFrame())
	if !errors.Is(err, ErrInsufficientLandmarks) {
		t.Errorf("Build() error = %v, want ErrInsufficientLandmarks", err)
	}
}

func TestBuild_CoincidentHips(t *testing.T) {
	frame := detector.TPoseFrame()
	pose := *frame.Pose
	pose.Joints[detector.RightHip] = pose.Joints[detector.LeftHip]

	_, err := Build(&detector.Frame{Pose: &pose})
	if !errors.Is(err, ErrInsufficientLandmarks) {
		t.Errorf("Build() error = %v, want ErrInsufficientLandmarks", err)
	}
}

func TestBuild_NeutralFillForLowConfidencePoints(t *testing.T) {
	frame := detector.HandsOnHipsFrame()
	pose := *frame.Pose
	pose.Joints[detector.LeftWrist].Visibility = 0.2

	fp := mustBuild(t, &detector.Frame{Pose: &pose})

	// Left wrist occupies dimensions 8 and 9 of the joint section.
	if fp[8] != neutralFill || fp[9] != neutralFill {
		t.Errorf("low-confidence wrist should take the neutral fill, got (%f, %f)", fp[8], fp[9])
	}

	// Dimension is fixed regardless of what was filled.
	if len(fp) != Dim {
		t.Errorf("fingerprint dimension = %d, want %d", len(fp), Dim)
	}
}

func TestBuild_AbsentHandsLeaveNeutralFill(t *testing.T) {
	fp := mustBuild(t, detector.HandsOnHipsFrame())

	for i := leftHandOffset; i < Dim; i++ {
		if fp[i] != neutralFill {
			t.Fatalf("dimension %d should be the neutral fill without hands, got %f", i, fp[i])
		}
	}
}

func TestCompare_SelfSimilarity(t *testing.T) {
	fp := mustBuild(t, detector.ArmsRaisedFrame())

	if score := Compare(fp, fp); score != 1.0 {
		t.Errorf("Compare(a, a) = %f, want 1.0", score)
	}
}

func TestCompare_Symmetric(t *testing.T) {
	a := mustBuild(t, detector.TPoseFrame())
	b := mustBuild(t, detector.ArmsRaisedFrame())

	if Compare(a, b) != Compare(b, a) {
		t.Errorf("Compare is not symmetric: %f vs %f", Compare(a, b), Compare(b, a))
	}
}

func TestCompare_DistinctPosesScoreBelowThreshold(t *testing.T) {
	frames := map[string]Fingerprint{
		"t-pose":        mustBuild(t, detector.TPoseFrame()),
		"arms-raised":   mustBuild(t, detector.ArmsRaisedFrame()),
		"hands-on-hips": mustBuild(t, detector.HandsOnHipsFrame()),
	}

	for nameA, a := range frames {
		for nameB, b := range frames {
			if nameA == nameB {
				continue
			}
			if score := Compare(a, b); score >= DefaultThreshold {
				t.Errorf("Compare(%s, %s) = %f, want < %f", nameA, nameB, score, DefaultThreshold)
			}
		}
	}
}

func TestCompare_NoisyRecaptureScoresAboveThreshold(t *testing.T) {
	stored := mustBuild(t, detector.TPoseFrame())
	attempt := mustBuild(t, jitter(detector.TPoseFrame(), 0.005))

	if score := Compare(stored, attempt); score < DefaultThreshold {
		t.Errorf("Compare() = %f for a noisy recapture, want >= %f", score, DefaultThreshold)
	}
}

func TestDecide_AcceptsMatchingSequence(t *testing.T) {
	stored := Sequence{
		mustBuild(t, detector.TPoseFrame()),
		mustBuild(t, detector.ArmsRaisedFrame()),
		mustBuild(t, detector.HandsOnHipsFrame()),
	}
	attempt := Sequence{
		mustBuild(t, jitter(detector.TPoseFrame(), 0.004)),
		mustBuild(t, jitter(detector.ArmsRaisedFrame(), 0.004)),
		mustBuild(t, jitter(detector.HandsOnHipsFrame(), 0.004)),
	}

	decision := Decide(stored, attempt, DefaultThreshold)
	if !decision.Accepted {
		t.Errorf("Decide() rejected a matching sequence, scores = %v", decision.Scores)
	}
	for i, score := range decision.Scores {
		if score < DefaultThreshold {
			t.Errorf("score[%d] = %f, want >= %f", i, score, DefaultThreshold)
		}
	}
}

func TestDecide_RejectsReorderedSequence(t *testing.T) {
	a := mustBuild(t, detector.TPoseFrame())
	b := mustBuild(t, detector.ArmsRaisedFrame())
	c := mustBuild(t, detector.HandsOnHipsFrame())

	stored := Sequence{a, b, c}
	reordered := Sequence{b, a, c}

	decision := Decide(stored, reordered, DefaultThreshold)
	if decision.Accepted {
		t.Error("Decide() accepted a reordered sequence; position order must be part of the secret")
	}

	// Position 2 still matches; only the swapped positions fail.
	if decision.Scores[2] < DefaultThreshold {
		t.Errorf("score[2] = %f, want >= %f for the unswapped position", decision.Scores[2], DefaultThreshold)
	}
}

func TestDecide_NoPartialCredit(t *testing.T) {
	a := mustBuild(t, detector.TPoseFrame())
	b := mustBuild(t, detector.ArmsRaisedFrame())
	c := mustBuild(t, detector.HandsOnHipsFrame())

	stored := Sequence{a, b, c}
	// Two perfect positions cannot carry one wrong one.
	attempt := Sequence{a, b, a}

	decision := Decide(stored, attempt, DefaultThreshold)
	if decision.Accepted {
		t.Error("Decide() accepted a sequence with one failing position")
	}
	if decision.Scores[0] != 1.0 || decision.Scores[1] != 1.0 {
		t.Errorf("matching positions should still score 1.0, got %v", decision.Scores)
	}
}
