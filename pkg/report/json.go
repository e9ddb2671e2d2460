package report

import (
	"encoding/json"
	"io"

	"github.com/gradekit/repograde/pkg/assess"
)

// JSONFormatter writes a result as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON result formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the result's key/value tree to the given writer. The
// tree form keeps downstream consumers decoupled from the Result struct.
func (f *JSONFormatter) Format(w io.Writer, res *assess.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Tree())
}
