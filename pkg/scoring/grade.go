package scoring

// Grade is the certification level awarded for an overall weighted score.
type Grade string

const (
	GradePlatinum         Grade = "Platinum"
	GradeGold             Grade = "Gold"
	GradeSilver           Grade = "Silver"
	GradeBronze           Grade = "Bronze"
	GradeNeedsImprovement Grade = "Needs Improvement"
)

// GradeFromScore converts an overall 0-100 score into its certification
// grade. Boundary scores certify at the higher grade: exactly 90 is
// Platinum, exactly 75 is Gold, and so on.
func GradeFromScore(score float64) Grade {
	switch {
	case score >= 90:
		return GradePlatinum
	case score >= 75:
		return GradeGold
	case score >= 60:
		return GradeSilver
	case score >= 40:
		return GradeBronze
	default:
		return GradeNeedsImprovement
	}
}
