package twincore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestTwin(cfg Config) *Twin {
	return NewWithWriter(cfg, io.Discard)
}

// ---------------------------------------------------------------------------
// JSON helper
// ---------------------------------------------------------------------------

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"key": "value"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if body["key"] != "value" {
		t.Errorf("expected key=value, got %+v", body)
	}
}

func TestJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Error helper
// ---------------------------------------------------------------------------

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "Denúncia não encontrada")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["error"] != "Denúncia não encontrada" {
		t.Errorf("unexpected error message %v", body["error"])
	}
	if int(body["status_code"].(float64)) != 404 {
		t.Errorf("expected status_code 404, got %v", body["status_code"])
	}
}

// ---------------------------------------------------------------------------
// Twin creation and runtime config
// ---------------------------------------------------------------------------

func TestNewTwin(t *testing.T) {
	cfg := Config{Port: 9999, Name: "test-twin"}
	twin := newTestTwin(cfg)

	if twin.Config() != cfg {
		t.Errorf("expected config %+v, got %+v", cfg, twin.Config())
	}
	if twin.Router == nil || twin.Logger == nil || twin.Metrics == nil {
		t.Error("expected router, logger and metrics to be set")
	}
	if twin.Middleware() == nil {
		t.Error("expected non-nil Middleware")
	}
}

func TestTwinServeHTTP(t *testing.T) {
	twin := newTestTwin(Config{Name: "test-twin"})
	twin.Router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"pong": "true"})
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if len(twin.Middleware().ReqLog.Entries()) != 1 {
		t.Error("expected request to be logged")
	}
}

func TestGetConfig(t *testing.T) {
	twin := newTestTwin(Config{Name: "denuncia", Port: 8080, Latency: 50 * time.Millisecond})
	got := twin.GetConfig()

	if got["name"] != "denuncia" || got["port"] != 8080 {
		t.Errorf("unexpected config map: %+v", got)
	}
	if got["latency"] != "50ms" {
		t.Errorf("expected latency 50ms, got %v", got["latency"])
	}
}

func TestUpdateConfig(t *testing.T) {
	twin := newTestTwin(Config{Name: "denuncia"})

	err := twin.UpdateConfig(map[string]any{"latency": "10ms", "fail_rate": 0.5, "verbose": true})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	cfg := twin.Config()
	if cfg.Latency != 10*time.Millisecond || cfg.FailRate != 0.5 || !cfg.Verbose {
		t.Errorf("config not applied: %+v", cfg)
	}
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	tests := []map[string]any{
		{"latency": "soon"},
		{"latency": "-1s"},
		{"latency": 10},
		{"fail_rate": 2.0},
		{"fail_rate": "half"},
		{"verbose": "yes"},
		{"port": 1234.0},
		{"unknown": true},
	}

	for _, updates := range tests {
		twin := newTestTwin(Config{Name: "denuncia"})
		if err := twin.UpdateConfig(updates); err == nil {
			t.Errorf("expected error for %+v", updates)
		}
	}
}

func TestUpdateConfigIsAtomic(t *testing.T) {
	twin := newTestTwin(Config{Name: "denuncia"})
	if err := twin.UpdateConfig(map[string]any{"fail_rate": 0.3, "latency": "bogus"}); err == nil {
		t.Fatal("expected error")
	}
	if twin.Config().FailRate != 0 {
		t.Error("fail_rate should not be applied when another key is invalid")
	}
}

func TestRandomFailureFollowsRuntimeConfig(t *testing.T) {
	twin := newTestTwin(Config{Name: "denuncia"})
	twin.Router.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := twin.UpdateConfig(map[string]any{"fail_rate": 1.0}); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	twin.ServeHTTP(rec, httptest.NewRequest("GET", "/ok", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 with fail_rate=1, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Serve
// ---------------------------------------------------------------------------

func TestServeStopsOnContextCancel(t *testing.T) {
	twin := newTestTwin(Config{Name: "denuncia", Port: 0})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- twin.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestMetricsRecordRoutePattern(t *testing.T) {
	twin := newTestTwin(Config{Name: "denuncia"})
	twin.Router.Get("/api/denuncias/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	twin.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/denuncias/abc", nil))

	rec := httptest.NewRecorder()
	twin.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()

	want := `twin_http_requests_total{method="GET",route="/api/denuncias/{id}",status="404"} 1`
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in metrics output:\n%s", want, out)
	}
}

// ---------------------------------------------------------------------------
// statusRecorder
// ---------------------------------------------------------------------------

func TestStatusRecorderExplicitCode(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, statusCode: 200}

	sr.WriteHeader(404)
	if sr.statusCode != 404 {
		t.Errorf("expected 404, got %d", sr.statusCode)
	}
}
