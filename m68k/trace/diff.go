package trace

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Divergence describes the first step at which two recordings differ.
type Divergence struct {
	Index    int
	Expected *Step
	Actual   *Step
	Report   string
}

// Diff walks both recordings in lockstep and returns the first differing
// step, or nil when they agree. A recording that ends early diverges at its
// length. coloring adds ANSI colors to the report.
func Diff(expected, actual []*Step, coloring bool) (*Divergence, error) {
	differ := gojsondiff.New()
	n := len(expected)
	if len(actual) < n {
		n = len(actual)
	}
	for i := 0; i < n; i++ {
		expJSON, err := json.Marshal(expected[i])
		if err != nil {
			return nil, err
		}
		actJSON, err := json.Marshal(actual[i])
		if err != nil {
			return nil, err
		}
		delta, err := differ.Compare(expJSON, actJSON)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if !delta.Modified() {
			continue
		}
		var leftObj map[string]interface{}
		if err := json.Unmarshal(expJSON, &leftObj); err != nil {
			return nil, err
		}
		cfg := formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
			Coloring:       coloring,
		}
		report, err := formatter.NewAsciiFormatter(leftObj, cfg).Format(delta)
		if err != nil {
			return nil, err
		}
		return &Divergence{Index: i, Expected: expected[i], Actual: actual[i], Report: report}, nil
	}
	if len(expected) != len(actual) {
		d := &Divergence{Index: n, Report: fmt.Sprintf("length mismatch: expected %d steps, got %d", len(expected), len(actual))}
		if n < len(expected) {
			d.Expected = expected[n]
		}
		if n < len(actual) {
			d.Actual = actual[n]
		}
		return d, nil
	}
	return nil, nil
}
