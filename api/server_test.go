package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth(t *testing.T) {
	s := NewServer(0)
	defer func() { _ = s.Shutdown(context.Background()) }()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestHandleRunSelftest(t *testing.T) {
	s := NewServer(0)
	defer func() { _ = s.Shutdown(context.Background()) }()

	reqBody := RunRequest{
		Iterations:    50,
		RunProperties: true,
		RunScenarios:  true,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/selftest", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !resp.Passed {
		t.Errorf("expected self-test run to pass, failures=%d", resp.FailureCount)
	}
	if resp.RunID == "" {
		t.Error("expected a non-empty run id")
	}
}

func TestHandleRunSelftestRejectsGet(t *testing.T) {
	s := NewServer(0)
	defer func() { _ = s.Shutdown(context.Background()) }()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/selftest", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestCORSAllowsLocalhost(t *testing.T) {
	s := NewServer(0)
	defer func() { _ = s.Shutdown(context.Background()) }()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want echoed localhost origin", got)
	}
}

func TestCORSRejectsRemoteOrigin(t *testing.T) {
	s := NewServer(0)
	defer func() { _ = s.Shutdown(context.Background()) }()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty for remote origin", got)
	}
}
