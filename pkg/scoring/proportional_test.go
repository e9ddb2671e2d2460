package scoring

import (
	"math"
	"testing"

	"github.com/gradekit/repograde/pkg/attribute"
)

func TestScoreHigherIsBetter(t *testing.T) {
	tests := []struct {
		name      string
		measured  float64
		threshold float64
		want      float64
	}{
		{"at threshold earns full credit", 80, 80, 100},
		{"above threshold earns full credit", 95, 80, 100},
		{"far above threshold stays at 100", 500, 80, 100},
		{"partial credit is proportional", 65, 80, 81.25},
		{"three quarters of threshold", 60, 80, 75},
		{"zero measurement earns nothing", 0, 80, 0},
		{"negative measurement clamps to zero", -5, 80, 0},
		{"boolean-style presence", 1, 1, 100},
		{"boolean-style absence", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.measured, tt.threshold, attribute.HigherIsBetter)
			if !closeTo(got, tt.want) {
				t.Errorf("Score(%v, %v, higher) = %v, expected %v",
					tt.measured, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestScoreLowerIsBetter(t *testing.T) {
	tests := []struct {
		name      string
		measured  float64
		threshold float64
		want      float64
	}{
		{"at threshold earns full credit", 5, 5, 100},
		{"under threshold earns full credit", 2, 5, 100},
		{"meets threshold exactly", 5, 10, 100},
		{"fifty percent over threshold", 450, 300, 50},
		{"linear decay past threshold", 7.5, 5, 50},
		{"twice the threshold exhausts credit", 600, 300, 0},
		{"far past threshold clamps to zero", 700, 300, 0},
		{"zero tolerance with a finding", 2, 0, 0},
		{"zero tolerance clean", 0, 0, 100},
		{"negative measurement still full credit", -1, 5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.measured, tt.threshold, attribute.LowerIsBetter)
			if !closeTo(got, tt.want) {
				t.Errorf("Score(%v, %v, lower) = %v, expected %v",
					tt.measured, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestScoreRange(t *testing.T) {
	// Every score lands in [0,100] across a sweep of inputs.
	values := []float64{-100, -1, 0, 0.5, 1, 5, 50, 99, 100, 1000}
	for _, m := range values {
		for _, th := range values {
			for _, p := range []attribute.Polarity{attribute.HigherIsBetter, attribute.LowerIsBetter} {
				got := Score(m, th, p)
				if got < 0 || got > 100 {
					t.Errorf("Score(%v, %v, %s) = %v, out of range", m, th, p, got)
				}
			}
		}
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
