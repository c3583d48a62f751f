package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestReportPassed(t *testing.T) {
	r := New(time.Now())
	r.AddProperty(PropertyResult{Name: "select-idempotent", Passed: true, Iterations: 100})
	r.AddScenario(ScenarioResult{Name: "S1", Passed: true})
	r.AddTiming(TimingResult{Name: "memcompare-skew", Passed: true, Samples: 1000, SkewRatio: 0.02, MaxSkewRatio: 0.15})

	if !r.Passed() {
		t.Error("Passed() = false, want true")
	}
	if r.FailureCount() != 0 {
		t.Errorf("FailureCount() = %d, want 0", r.FailureCount())
	}
}

func TestReportFailure(t *testing.T) {
	r := New(time.Now())
	r.AddProperty(PropertyResult{Name: "select-idempotent", Passed: true})
	r.AddScenario(ScenarioResult{Name: "S2", Passed: false, FailureDetail: "expected ErrInvalidPadding"})

	if r.Passed() {
		t.Error("Passed() = true, want false")
	}
	if r.FailureCount() != 1 {
		t.Errorf("FailureCount() = %d, want 1", r.FailureCount())
	}
}

func TestExportJSON(t *testing.T) {
	r := New(time.Now())
	r.AddProperty(PropertyResult{Name: "p1", Passed: true, Iterations: 10})
	r.Finalize()

	var buf bytes.Buffer
	if err := r.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("exported JSON did not round-trip: %v", err)
	}
	if len(decoded.Properties) != 1 || decoded.Properties[0].Name != "p1" {
		t.Errorf("decoded properties = %+v", decoded.Properties)
	}
}

func TestExportCSV(t *testing.T) {
	r := New(time.Now())
	r.AddProperty(PropertyResult{Name: "p1", Passed: true})
	r.AddScenario(ScenarioResult{Name: "S1", Passed: false, FailureDetail: "bad"})
	r.AddTiming(TimingResult{Name: "t1", Passed: true, Samples: 500, SkewRatio: 0.01, MaxSkewRatio: 0.15})

	var buf bytes.Buffer
	if err := r.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Category,Name,Passed,Detail") {
		t.Error("CSV missing header")
	}
	if !strings.Contains(out, "property,p1,true,") {
		t.Error("CSV missing property row")
	}
	if !strings.Contains(out, "scenario,S1,false,bad") {
		t.Error("CSV missing scenario row")
	}
}
