package assess

import (
	"slices"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/scoring"
	"github.com/gradekit/repograde/pkg/weights"
)

// Aggregate folds scored attributes and resolved weights into a Result.
// Only attributes with StatusAssessed contribute; skipped, not
// applicable, and errored attributes are excluded from both the weighted
// sum and the total assessed weight, not scored as zero. The overall
// score is the weighted sum normalized by the total assessed weight, so
// partial assessments still land on the 0-100 scale.
//
// Aggregate is pure: callers may re-run it with edited weights against
// the same scored attributes and get a deterministic re-aggregation.
// The weight vector is authoritative; weights carried on the input
// lines are overwritten with the vector's values in the output.
func Aggregate(scored []ScoredAttribute, wv weights.Vector) (*Result, error) {
	out := slices.Clone(scored)
	var raw, total float64
	for i := range out {
		out[i].Weight = wv[out[i].AttributeID]
		if out[i].Status != StatusAssessed || out[i].Score == nil {
			continue
		}
		raw += *out[i].Score * out[i].Weight
		total += out[i].Weight
	}
	if total == 0 {
		return nil, ErrNoAssessableAttributes
	}

	overall := raw / total
	return &Result{
		OverallScore:        overall,
		Certification:       scoring.GradeFromScore(overall),
		TotalWeightAssessed: total,
		Attributes:          out,
	}, nil
}

// scoreOne turns a measurement into its scored line. Attributes that are
// not assessed keep a nil score.
func scoreOne(attr attribute.Attribute, m Measurement, weight float64) ScoredAttribute {
	sa := ScoredAttribute{
		AttributeID: attr.ID,
		Name:        attr.Name,
		Tier:        attr.Tier,
		Status:      m.Status,
		Weight:      weight,
		Value:       m.Value,
		Threshold:   thresholdFor(attr, m),
		Note:        m.Note,
	}
	if m.Status == StatusAssessed {
		s := scoring.Score(m.Value, sa.Threshold, attr.Polarity)
		sa.Score = &s
	}
	return sa
}
