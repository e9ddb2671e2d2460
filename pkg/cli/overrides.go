package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/weights"
)

// ParseWeightOverrides converts repeated --weight attribute_id=value
// flags into a weight fragment. Malformed pairs and duplicates fail
// here; unknown attribute IDs are left for resolution to reject so the
// finding carries the same shape as config-file mistakes.
func ParseWeightOverrides(pairs []string) (weights.Vector, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	v := make(weights.Vector, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		raw = strings.TrimSpace(raw)
		if !ok || id == "" || raw == "" {
			return nil, fmt.Errorf("cli: weight override %q must look like attribute_id=value", pair)
		}

		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("cli: weight override %q: value %q is not a number", pair, raw)
		}

		aid := attribute.ID(id)
		if _, dup := v[aid]; dup {
			return nil, fmt.Errorf("cli: duplicate weight override for %q", id)
		}
		v[aid] = w
	}
	return v, nil
}
