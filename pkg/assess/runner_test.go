package assess

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/scoring"
	"github.com/gradekit/repograde/pkg/weights"
)

// meetAllThresholds builds one assessed measurement per catalog
// attribute, each landing exactly on its threshold for full credit.
func meetAllThresholds() []Measurement {
	var ms []Measurement
	for _, a := range attribute.Catalog() {
		ms = append(ms, Measurement{
			AttributeID: a.ID,
			Value:       a.Threshold,
			Status:      StatusAssessed,
		})
	}
	return ms
}

func TestRunnerPerfectScore(t *testing.T) {
	res, err := NewRunner().Run(context.Background(), "example/repo", meetAllThresholds(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(res.OverallScore-100) > 1e-9 {
		t.Errorf("overall score = %v, expected 100", res.OverallScore)
	}
	if res.Certification != scoring.GradePlatinum {
		t.Errorf("certification = %q, expected Platinum", res.Certification)
	}
	if math.Abs(res.TotalWeightAssessed-1.0) > 1e-6 {
		t.Errorf("total weight = %v, expected 1.0", res.TotalWeightAssessed)
	}
	if res.AssessedCount() != 25 {
		t.Errorf("assessed count = %d, expected 25", res.AssessedCount())
	}
	if res.Target != "example/repo" {
		t.Errorf("target = %q", res.Target)
	}
	if res.GeneratedAt.IsZero() {
		t.Error("generated_at not set")
	}
}

func TestRunnerPartialAssessmentNormalizes(t *testing.T) {
	ms := []Measurement{
		{AttributeID: attribute.ClaudeMDFile, Value: 1, Status: StatusAssessed},
		{AttributeID: attribute.TestCoverage, Value: 40, Status: StatusAssessed},
	}

	res, err := NewRunner().Run(context.Background(), "partial", ms, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// claude_md_file scores 100 at weight 0.10, test_coverage scores 50
	// at weight 0.03; normalizing by the assessed weight 0.13 gives
	// (10 + 1.5) / 0.13. The rescale factor cancels out of the ratio.
	want := 11.5 / 0.13
	if math.Abs(res.OverallScore-want) > 1e-9 {
		t.Errorf("overall score = %v, expected %v", res.OverallScore, want)
	}
	if len(res.Attributes) != 25 {
		t.Fatalf("result has %d attribute lines, expected all 25", len(res.Attributes))
	}

	for _, sa := range res.Attributes {
		switch sa.AttributeID {
		case attribute.ClaudeMDFile, attribute.TestCoverage:
			if sa.Status != StatusAssessed || sa.Score == nil {
				t.Errorf("%s: expected an assessed score", sa.AttributeID)
			}
		default:
			if sa.Status != StatusSkipped {
				t.Errorf("%s: status %q, expected skipped", sa.AttributeID, sa.Status)
			}
			if sa.Score != nil {
				t.Errorf("%s: skipped attribute has score %v", sa.AttributeID, *sa.Score)
			}
		}
	}
}

func TestRunnerNormalizedMatchesManualFold(t *testing.T) {
	ms := []Measurement{
		{AttributeID: attribute.ReadmeFile, Value: 1, Status: StatusAssessed},
		{AttributeID: attribute.TodoDensity, Value: 7.5, Status: StatusAssessed},
		{AttributeID: attribute.APIDocumentation, Value: 35, Status: StatusAssessed},
	}

	res, err := NewRunner().Run(context.Background(), "fold", ms, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw, total float64
	for _, sa := range res.Attributes {
		if sa.Status != StatusAssessed {
			continue
		}
		raw += *sa.Score * sa.Weight
		total += sa.Weight
	}
	if math.Abs(res.OverallScore-raw/total) > 1e-9 {
		t.Errorf("overall %v does not equal weighted fold %v", res.OverallScore, raw/total)
	}
	if math.Abs(res.TotalWeightAssessed-total) > 1e-9 {
		t.Errorf("total weight %v does not equal fold total %v", res.TotalWeightAssessed, total)
	}
}

func TestRunnerThresholdOverride(t *testing.T) {
	ms := []Measurement{
		{AttributeID: attribute.TestCoverage, Value: 60, Threshold: fp(60), Status: StatusAssessed},
	}

	res, err := NewRunner().Run(context.Background(), "override", ms, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.OverallScore-100) > 1e-9 {
		t.Errorf("overall score = %v, expected 100 with lowered threshold", res.OverallScore)
	}
}

func TestRunnerRejectsInvalidMeasurements(t *testing.T) {
	cases := []struct {
		name string
		ms   []Measurement
		want string
	}{
		{
			"unknown attribute",
			[]Measurement{{AttributeID: "no_such_attribute", Value: 1, Status: StatusAssessed}},
			"unknown attribute",
		},
		{
			"duplicate attribute",
			[]Measurement{
				{AttributeID: attribute.ReadmeFile, Value: 1, Status: StatusAssessed},
				{AttributeID: attribute.ReadmeFile, Value: 0, Status: StatusAssessed},
			},
			"duplicate measurement",
		},
		{
			"undefined status",
			[]Measurement{{AttributeID: attribute.ReadmeFile, Value: 1, Status: "pending"}},
			"undefined status",
		},
		{
			"non-finite value",
			[]Measurement{{AttributeID: attribute.ReadmeFile, Value: math.NaN(), Status: StatusAssessed}},
			"non-finite value",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRunner().Run(context.Background(), "bad", tc.ms, nil, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestRunnerPropagatesWeightErrors(t *testing.T) {
	cli := weights.Vector{attribute.ReadmeFile: -1}

	_, err := NewRunner().Run(context.Background(), "bad-weights", meetAllThresholds(), nil, cli)
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *weights.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a wrapped *weights.ValidationError, got %v", err)
	}
}

func TestRunnerStrictWeights(t *testing.T) {
	config := weights.Vector{attribute.ClaudeMDFile: 0.5}

	if _, err := NewRunner(WithStrictWeights()).Run(context.Background(), "strict", meetAllThresholds(), config, nil); err == nil {
		t.Error("strict runner: expected sum-deviation error")
	}

	res, err := NewRunner().Run(context.Background(), "lenient", meetAllThresholds(), config, nil)
	if err != nil {
		t.Fatalf("default runner: unexpected error: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Error("default runner: expected resolution warnings on the result")
	}
}

func TestRunnerAllSkipped(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), "empty", nil, nil, nil)
	if !errors.Is(err, ErrNoAssessableAttributes) {
		t.Fatalf("expected ErrNoAssessableAttributes, got %v", err)
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(WithJobs(2)).Run(ctx, "cancelled", meetAllThresholds(), nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunnerDeterministicAcrossJobCounts(t *testing.T) {
	ms := []Measurement{
		{AttributeID: attribute.ClaudeMDFile, Value: 1, Status: StatusAssessed},
		{AttributeID: attribute.TestCoverage, Value: 72, Status: StatusAssessed},
		{AttributeID: attribute.TodoDensity, Value: 9, Status: StatusAssessed},
		{AttributeID: attribute.LicenseFile, Value: 0, Status: StatusAssessed},
	}

	serial, err := NewRunner(WithJobs(1)).Run(context.Background(), "t", ms, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := NewRunner(WithJobs(8)).Run(context.Background(), "t", ms, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if serial.OverallScore != parallel.OverallScore {
		t.Errorf("job count changed the score: %v vs %v", serial.OverallScore, parallel.OverallScore)
	}
	for i := range serial.Attributes {
		if serial.Attributes[i].AttributeID != parallel.Attributes[i].AttributeID {
			t.Fatalf("attribute order diverged at %d", i)
		}
	}
}
