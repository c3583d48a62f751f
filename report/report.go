// Package report collects the results of a self-test run and exports
// them as JSON or CSV, in the spirit of a build-to-build regression log.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// PropertyResult records the outcome of one algebraic-property check
// (for example, "Select is idempotent on cond==0") run over a number
// of randomized iterations.
type PropertyResult struct {
	Name          string `json:"name"`
	Passed        bool   `json:"passed"`
	Iterations    int    `json:"iterations"`
	FailureDetail string `json:"failure_detail,omitempty"`
}

// ScenarioResult records the outcome of one named fixed-input scenario
// (for example, "S3: padding string shorter than eight bytes").
type ScenarioResult struct {
	Name          string `json:"name"`
	Passed        bool   `json:"passed"`
	FailureDetail string `json:"failure_detail,omitempty"`
}

// TimingResult records the outcome of a statistical timing-variance
// check over repeated calls with different secret-dependent inputs.
type TimingResult struct {
	Name         string  `json:"name"`
	Passed       bool    `json:"passed"`
	Samples      int     `json:"samples"`
	SkewRatio    float64 `json:"skew_ratio"`
	MaxSkewRatio float64 `json:"max_skew_ratio"`
}

// Report aggregates every check performed during one self-test run.
type Report struct {
	Properties []PropertyResult `json:"properties"`
	Scenarios  []ScenarioResult `json:"scenarios"`
	Timing     []TimingResult   `json:"timing"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// New creates an empty report with its start time recorded.
func New(startedAt time.Time) *Report {
	return &Report{StartedAt: startedAt}
}

// AddProperty appends a property-check outcome.
func (r *Report) AddProperty(res PropertyResult) {
	r.Properties = append(r.Properties, res)
}

// AddScenario appends a scenario outcome.
func (r *Report) AddScenario(res ScenarioResult) {
	r.Scenarios = append(r.Scenarios, res)
}

// AddTiming appends a timing-check outcome.
func (r *Report) AddTiming(res TimingResult) {
	r.Timing = append(r.Timing, res)
}

// Finalize records the total wall-clock duration since StartedAt.
func (r *Report) Finalize() {
	r.Duration = time.Since(r.StartedAt)
}

// Passed reports whether every check in the report succeeded.
func (r *Report) Passed() bool {
	for _, p := range r.Properties {
		if !p.Passed {
			return false
		}
	}
	for _, s := range r.Scenarios {
		if !s.Passed {
			return false
		}
	}
	for _, t := range r.Timing {
		if !t.Passed {
			return false
		}
	}
	return true
}

// FailureCount returns the number of failed checks across all categories.
func (r *Report) FailureCount() int {
	n := 0
	for _, p := range r.Properties {
		if !p.Passed {
			n++
		}
	}
	for _, s := range r.Scenarios {
		if !s.Passed {
			n++
		}
	}
	for _, t := range r.Timing {
		if !t.Passed {
			n++
		}
	}
	return n
}

// ExportJSON writes the report as indented JSON.
func (r *Report) ExportJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// ExportCSV writes a flattened CSV: one row per check, across all
// three categories, sorted by category then name for stable output.
func (r *Report) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Category", "Name", "Passed", "Detail"}
	if err := writer.Write(header); err != nil {
		return err
	}

	properties := append([]PropertyResult(nil), r.Properties...)
	sort.Slice(properties, func(i, j int) bool { return properties[i].Name < properties[j].Name })
	for _, p := range properties {
		row := []string{"property", p.Name, fmt.Sprintf("%t", p.Passed), p.FailureDetail}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	scenarios := append([]ScenarioResult(nil), r.Scenarios...)
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	for _, s := range scenarios {
		row := []string{"scenario", s.Name, fmt.Sprintf("%t", s.Passed), s.FailureDetail}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	timing := append([]TimingResult(nil), r.Timing...)
	sort.Slice(timing, func(i, j int) bool { return timing[i].Name < timing[j].Name })
	for _, t := range timing {
		detail := fmt.Sprintf("skew=%.4f max=%.4f samples=%d", t.SkewRatio, t.MaxSkewRatio, t.Samples)
		row := []string{"timing", t.Name, fmt.Sprintf("%t", t.Passed), detail}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}
