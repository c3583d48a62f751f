package api

import "github.com/lookbusy1344/constant-time-go/report"

// RunRequest configures a self-test run requested over the API. A group
// of checks runs only when its Run* flag is set, so the zero value runs
// no checks; Iterations, TimingSamples and MaxSkewRatio fall back to
// selftest's defaults when zero.
type RunRequest struct {
	Iterations    int     `json:"iterations,omitempty"`
	RunProperties bool    `json:"runProperties"`
	RunScenarios  bool    `json:"runScenarios"`
	RunTiming     bool    `json:"runTiming"`
	TimingSamples int     `json:"timingSamples,omitempty"`
	MaxSkewRatio  float64 `json:"maxSkewRatio,omitempty"`
	FailFast      bool    `json:"failFast"`
}

// RunResponse wraps a completed report with its pass/fail summary.
type RunResponse struct {
	RunID        string         `json:"runId"`
	Passed       bool           `json:"passed"`
	FailureCount int            `json:"failureCount"`
	Report       *report.Report `json:"report"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
