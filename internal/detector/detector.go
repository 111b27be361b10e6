package detector

import "context"

// Detector defines the interface for landmark extraction implementations.
type Detector interface {
	// Detect analyzes a single photo and returns the landmarks found in
	// it. The returned Frame has a nil Pose when no person was detected;
	// an error indicates the photo could not be processed at all.
	Detect(ctx context.Context, image []byte) (*Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark extraction.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MaxImageWidth is the width photos are downscaled to before being
	// handed to the model. Zero disables downscaling.
	MaxImageWidth int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.3,
		MaxImageWidth: 960,
	}
}
