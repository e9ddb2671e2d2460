package assess

import (
	"errors"
	"time"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/scoring"
	"github.com/gradekit/repograde/pkg/weights"
)

// ErrNoAssessableAttributes is returned when every attribute was
// skipped, not applicable, or errored: there is no weight to normalize
// against, so no score can honestly be produced.
var ErrNoAssessableAttributes = errors.New("assess: no assessable attributes carry weight")

// ScoredAttribute is the per-attribute line of a result: the measurement
// context, the resolved weight, and the sub-score. Score is nil whenever
// the status is anything but assessed.
type ScoredAttribute struct {
	AttributeID attribute.ID   `json:"attribute_id" yaml:"attribute_id"`
	Name        string         `json:"name" yaml:"name"`
	Tier        attribute.Tier `json:"tier" yaml:"tier"`
	Status      Status         `json:"status" yaml:"status"`
	Score       *float64       `json:"score,omitempty" yaml:"score,omitempty"`
	Weight      float64        `json:"weight" yaml:"weight"`
	Value       float64        `json:"value" yaml:"value"`
	Threshold   float64        `json:"threshold" yaml:"threshold"`
	Note        string         `json:"note,omitempty" yaml:"note,omitempty"`
}

// Result is the terminal outcome of one assessment run. It is created
// once by aggregation and never mutated afterwards.
type Result struct {
	Target              string            `json:"target,omitempty" yaml:"target,omitempty"`
	GeneratedAt         time.Time         `json:"generated_at" yaml:"generated_at"`
	OverallScore        float64           `json:"overall_score" yaml:"overall_score"`
	Certification       scoring.Grade     `json:"certification_level" yaml:"certification_level"`
	TotalWeightAssessed float64           `json:"total_weight_assessed" yaml:"total_weight_assessed"`
	Attributes          []ScoredAttribute `json:"attributes" yaml:"attributes"`
	Warnings            []weights.Issue   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Tree renders the result as a plain key/value tree of maps, slices,
// strings, and numbers, with no package types left inside. Report
// renderers and template pipelines consume this instead of reaching into
// Result directly.
func (r *Result) Tree() map[string]any {
	attrs := make([]any, len(r.Attributes))
	for i, sa := range r.Attributes {
		node := map[string]any{
			"attribute_id": string(sa.AttributeID),
			"name":         sa.Name,
			"tier":         int(sa.Tier),
			"tier_name":    sa.Tier.String(),
			"status":       string(sa.Status),
			"weight":       sa.Weight,
			"value":        sa.Value,
			"threshold":    sa.Threshold,
		}
		if sa.Score != nil {
			node["score"] = *sa.Score
		}
		if sa.Note != "" {
			node["note"] = sa.Note
		}
		attrs[i] = node
	}

	tree := map[string]any{
		"overall_score":         r.OverallScore,
		"certification_level":   string(r.Certification),
		"total_weight_assessed": r.TotalWeightAssessed,
		"attributes":            attrs,
	}
	if r.Target != "" {
		tree["target"] = r.Target
	}
	if !r.GeneratedAt.IsZero() {
		tree["generated_at"] = r.GeneratedAt.UTC().Format(time.RFC3339)
	}
	if len(r.Warnings) > 0 {
		warns := make([]any, len(r.Warnings))
		for i, w := range r.Warnings {
			warns[i] = w.Message
		}
		tree["warnings"] = warns
	}
	return tree
}

// AssessedCount returns how many attributes contributed to the score.
func (r *Result) AssessedCount() int {
	n := 0
	for _, sa := range r.Attributes {
		if sa.Status == StatusAssessed {
			n++
		}
	}
	return n
}
