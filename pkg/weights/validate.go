package weights

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gradekit/repograde/pkg/attribute"
)

// Issue describes one validation finding: the attribute it concerns (if
// any), the offending value, and a rendered message. Hard errors and
// advisory warnings share the shape; which list an Issue is returned in
// determines its severity. On the wire an Issue is just its message,
// which already names the attribute and the numeric delta.
type Issue struct {
	AttributeID attribute.ID
	Value       float64
	Message     string
}

func (i Issue) String() string {
	return i.Message
}

func (i Issue) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Message)
}

func (i Issue) MarshalYAML() (any, error) {
	return i.Message, nil
}

// ValidationError carries the hard findings that prevented resolution
// from producing a usable weight vector.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "weights: " + e.Issues[0].Message
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("weights: %d validation errors: %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Report is the structured outcome of a standalone validation request:
// whether the configuration is usable, every hard error and advisory
// warning found, and the effective post-rescale vector when valid.
type Report struct {
	Valid     bool    `json:"valid" yaml:"valid"`
	Errors    []Issue `json:"errors" yaml:"errors"`
	Warnings  []Issue `json:"warnings" yaml:"warnings"`
	Effective Vector  `json:"effective_weights,omitempty" yaml:"effective_weights,omitempty"`
}

// Validate resolves config and CLI weight fragments into a Report
// instead of an error, so commands and the HTTP API can show warnings
// and errors side by side without unwrapping.
func Validate(config, cli Vector, opts ...Option) Report {
	final, warnings, err := Resolve(config, cli, opts...)
	rep := Report{
		Valid:     err == nil,
		Warnings:  warnings,
		Effective: final,
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			rep.Errors = verr.Issues
		} else {
			rep.Errors = []Issue{{Message: err.Error()}}
		}
	}
	return rep
}

// checkCompleteness verifies every catalog attribute resolves to a
// weight. Overlay starts from the complete default table, so a miss here
// means the defaults themselves are broken.
func checkCompleteness(v Vector) []Issue {
	var errs []Issue
	for _, id := range attribute.IDs() {
		if _, ok := v[id]; !ok {
			errs = append(errs, Issue{
				AttributeID: id,
				Message:     fmt.Sprintf("attribute %q has no weight and no tier default", id),
			})
		}
	}
	return errs
}

// checkPositivity requires every weight to be a positive finite number.
func checkPositivity(v Vector) []Issue {
	var errs []Issue
	for _, id := range v.sortedIDs() {
		w := v[id]
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			errs = append(errs, Issue{
				AttributeID: id,
				Value:       w,
				Message:     fmt.Sprintf("weight for %q must be a positive finite number, got %v", id, w),
			})
		}
	}
	return errs
}

// checkSum reports whether the pre-rescale total is within SumTolerance
// of 1.0. The finding is advisory unless resolution runs in strict mode.
func checkSum(v Vector) (Issue, bool) {
	sum := v.Sum()
	delta := sum - 1.0
	if math.Abs(delta) <= SumTolerance {
		return Issue{}, true
	}
	return Issue{
		Value: sum,
		Message: fmt.Sprintf("weights sum to %.4f, off from 1.0 by %+.4f (tolerance %.3f)",
			sum, delta, SumTolerance),
	}, false
}

// checkFinalSum verifies the finalized vector sums to 1.0 within
// SumTolerance. Individually finite weights can still overflow the
// merged total to +Inf, which rescales every weight to zero.
func checkFinalSum(v Vector) (Issue, bool) {
	sum := v.Sum()
	if math.Abs(sum-1.0) <= SumTolerance {
		return Issue{}, true
	}
	return Issue{
		Value: sum,
		Message: fmt.Sprintf("rescaled weights sum to %g, not 1.0 within tolerance %.3f; the merged weights cannot be normalized",
			sum, SumTolerance),
	}, false
}

// checkBounds flags final weights outside [MinWeight, MaxWeight]. These
// findings never block resolution.
func checkBounds(v Vector) []Issue {
	var warns []Issue
	for _, id := range v.sortedIDs() {
		w := v[id]
		switch {
		case w < MinWeight:
			warns = append(warns, Issue{
				AttributeID: id,
				Value:       w,
				Message: fmt.Sprintf("weight for %q is %.4f, %.4f under the %.3f floor",
					id, w, MinWeight-w, MinWeight),
			})
		case w > MaxWeight:
			warns = append(warns, Issue{
				AttributeID: id,
				Value:       w,
				Message: fmt.Sprintf("weight for %q is %.4f, %.4f over the %.2f ceiling",
					id, w, w-MaxWeight, MaxWeight),
			})
		}
	}
	return warns
}
