package weights

import (
	"fmt"

	"github.com/gradekit/repograde/pkg/attribute"
)

// Option adjusts resolution behavior.
type Option func(*options)

type options struct {
	strict bool
}

// WithStrict makes the pre-rescale sum check a hard error instead of an
// advisory warning. Use when the caller supplies a complete weight
// configuration and expects no silent rescaling.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// Resolve produces the effective weight vector for one run.
//
// The config fragment overlays the tier defaults and the CLI fragment
// overlays both; on conflicting keys the CLI value wins. The merged
// vector is validated before rescaling: unknown attribute IDs and
// non-positive weights are hard errors, and in strict mode so is a
// pre-rescale sum outside SumTolerance. Rescaling then divides every
// weight by the merged total, exactly once, so the returned vector sums
// to 1.0 no matter how far the overlays drifted; a total too large to
// normalize (overflow to +Inf) is a hard error. Bounds findings on the
// final vector come back as warnings alongside a usable vector.
func Resolve(config, cli Vector, opts ...Option) (Vector, []Issue, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	merged, errs := overlay(config, cli)
	errs = append(errs, checkCompleteness(merged)...)
	errs = append(errs, checkPositivity(merged)...)

	var warnings []Issue
	if issue, ok := checkSum(merged); !ok {
		if o.strict {
			errs = append(errs, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	if len(errs) > 0 {
		return nil, warnings, &ValidationError{Issues: errs}
	}

	final := merged.rescale()
	if issue, ok := checkFinalSum(final); !ok {
		return nil, warnings, &ValidationError{Issues: []Issue{issue}}
	}
	warnings = append(warnings, checkBounds(final)...)
	return final, warnings, nil
}

// overlay applies the config and CLI fragments over the tier defaults.
// Unknown attribute IDs are rejected here rather than silently dropped,
// so a typo in an override surfaces immediately.
func overlay(config, cli Vector) (Vector, []Issue) {
	merged := Defaults()
	var errs []Issue
	layers := []struct {
		name string
		v    Vector
	}{
		{"config", config},
		{"cli", cli},
	}
	for _, layer := range layers {
		for _, id := range layer.v.sortedIDs() {
			if !attribute.IsValid(id) {
				errs = append(errs, Issue{
					AttributeID: id,
					Value:       layer.v[id],
					Message:     fmt.Sprintf("unknown attribute %q in %s weights", id, layer.name),
				})
				continue
			}
			merged[id] = layer.v[id]
		}
	}
	return merged, errs
}

// rescale divides every weight by the vector total so the result sums
// to 1.0. Callers must have validated positivity first.
func (v Vector) rescale() Vector {
	sum := v.Sum()
	out := make(Vector, len(v))
	for id, w := range v {
		out[id] = w / sum
	}
	return out
}
