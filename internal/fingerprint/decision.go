package fingerprint

// Decision is the outcome of matching an attempt sequence against a
// stored password sequence. Scores are always populated, accepted or
// not, so the caller can tell the user how close each pose was.
type Decision struct {
	Accepted bool
	Scores   [SequenceLen]float64
}

// Decide accepts an unlock attempt only if every positional pair
// (attempt[i], stored[i]) scores at or above the threshold. There is no
// partial credit across positions and no reordering search: reproducing
// the poses in the wrong order fails.
func Decide(stored, attempt Sequence, threshold float64) Decision {
	decision := Decision{Accepted: true}
	for i := range stored {
		decision.Scores[i] = Compare(stored[i], attempt[i])
		if decision.Scores[i] < threshold {
			decision.Accepted = false
		}
	}
	return decision
}
