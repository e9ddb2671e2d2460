// Package assess ties the engine together. It models the raw
// measurements produced by attribute detectors, scores them against the
// catalog, and aggregates scores and resolved weights into one terminal
// assessment result.
package assess

import (
	"fmt"
	"math"
	"strings"

	"github.com/gradekit/repograde/pkg/attribute"
)

// Status describes what a detector concluded about one attribute.
type Status string

const (
	// StatusAssessed means the detector produced a usable measurement.
	StatusAssessed Status = "assessed"
	// StatusSkipped means the detector did not run for this attribute.
	StatusSkipped Status = "skipped"
	// StatusNotApplicable means the attribute does not apply to the target.
	StatusNotApplicable Status = "not_applicable"
	// StatusError means the detector ran and failed.
	StatusError Status = "error"
)

// Valid reports whether s is a defined status.
func (s Status) Valid() bool {
	switch s {
	case StatusAssessed, StatusSkipped, StatusNotApplicable, StatusError:
		return true
	}
	return false
}

// Measurement is one detector reading for one catalog attribute. The
// threshold is optional; when nil the catalog default applies. Polarity
// is not part of a measurement: the catalog is authoritative, so a
// detector cannot flip an attribute's scoring direction.
type Measurement struct {
	AttributeID attribute.ID `json:"attribute_id" yaml:"attribute_id"`
	Value       float64      `json:"value" yaml:"value"`
	Threshold   *float64     `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Status      Status       `json:"status" yaml:"status"`
	Note        string       `json:"note,omitempty" yaml:"note,omitempty"`
}

// ValidateMeasurements rejects measurement sets that cannot be scored:
// unknown attribute IDs, duplicate entries, undefined statuses, and
// non-finite numbers. A nil error means every entry is usable.
func ValidateMeasurements(ms []Measurement) error {
	var problems []string
	seen := make(map[attribute.ID]bool, len(ms))
	for _, m := range ms {
		if !attribute.IsValid(m.AttributeID) {
			problems = append(problems, fmt.Sprintf("unknown attribute %q", m.AttributeID))
			continue
		}
		if seen[m.AttributeID] {
			problems = append(problems, fmt.Sprintf("duplicate measurement for %q", m.AttributeID))
			continue
		}
		seen[m.AttributeID] = true

		if !m.Status.Valid() {
			problems = append(problems, fmt.Sprintf("%s: undefined status %q", m.AttributeID, m.Status))
		}
		if m.Status == StatusAssessed && !isFinite(m.Value) {
			problems = append(problems, fmt.Sprintf("%s: non-finite value %v", m.AttributeID, m.Value))
		}
		if m.Threshold != nil && !isFinite(*m.Threshold) {
			problems = append(problems, fmt.Sprintf("%s: non-finite threshold %v", m.AttributeID, *m.Threshold))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("assess: invalid measurements: %s", strings.Join(problems, "; "))
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// thresholdFor returns the effective threshold for a measurement: the
// measurement's own when present, the catalog default otherwise.
func thresholdFor(attr attribute.Attribute, m Measurement) float64 {
	if m.Threshold != nil {
		return *m.Threshold
	}
	return attr.Threshold
}
