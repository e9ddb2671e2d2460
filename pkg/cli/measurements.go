package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gradekit/repograde/pkg/assess"
)

// MeasurementsDoc is one YAML document of detector measurements for one
// target repository.
type MeasurementsDoc struct {
	Target       string               `yaml:"target" json:"target"`
	Measurements []assess.Measurement `yaml:"measurements" json:"measurements"`
}

// LoadMeasurements reads measurement documents from a YAML file. A file
// may hold several documents separated by "---", one per target, so a
// single invocation can assess a whole fleet.
func LoadMeasurements(path string) ([]MeasurementsDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: opening measurements %s: %w", path, err)
	}
	defer f.Close()

	var docs []MeasurementsDoc
	dec := yaml.NewDecoder(f)
	for {
		var doc MeasurementsDoc
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("cli: parsing measurements %s: %w", path, err)
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("cli: measurements %s: no documents found", path)
	}
	return docs, nil
}
