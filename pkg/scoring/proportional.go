// Package scoring implements the proportional scoring function and the
// certification grades derived from an overall score. Scoring is pure:
// the same measurement, threshold, and polarity always produce the same
// score, with no I/O and no shared state.
package scoring

import "github.com/gradekit/repograde/pkg/attribute"

// Score maps a raw measurement onto the 0-100 scale according to the
// attribute's polarity and threshold.
//
// For higher_is_better, meeting the threshold earns full credit, zero or
// negative measurements earn none, and values between score
// proportionally. For lower_is_better the direction flips: at or under
// the threshold earns full credit, and the score decays linearly to zero
// at twice the threshold.
func Score(measured, threshold float64, polarity attribute.Polarity) float64 {
	if polarity == attribute.LowerIsBetter {
		return scoreLower(measured, threshold)
	}
	return scoreHigher(measured, threshold)
}

func scoreHigher(measured, threshold float64) float64 {
	if measured >= threshold {
		return 100
	}
	if measured <= 0 {
		return 0
	}
	return clamp(measured / threshold * 100)
}

func scoreLower(measured, threshold float64) float64 {
	if measured <= threshold {
		return 100
	}
	if threshold == 0 {
		// Any positive finding against a zero-tolerance threshold
		// forfeits all credit.
		return 0
	}
	return clamp(100 - (measured-threshold)/threshold*100)
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
