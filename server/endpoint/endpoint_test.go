package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/discoveryping/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.GET(path, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		components []component.Health
		wantCode   int
		wantStatus string
	}{
		{"no checker results", nil, http.StatusOK, "healthy"},
		{"all healthy", []component.Health{{Name: "discovery", Status: component.StatusHealthy}}, http.StatusOK, "healthy"},
		{"degraded", []component.Health{{Name: "discovery", Status: component.StatusDegraded}}, http.StatusOK, "degraded"},
		{"unhealthy", []component.Health{
			{Name: "httpclient", Status: component.StatusHealthy},
			{Name: "discovery", Status: component.StatusUnhealthy, Message: "agent down"},
		}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := func(context.Context) []component.Health { return tc.components }
			rr := serve(t, Health("discoveryping", checker), "/health")

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["status"] != tc.wantStatus {
				t.Errorf("expected status %q, got %v", tc.wantStatus, body["status"])
			}
			if body["service"] != "discoveryping" {
				t.Errorf("unexpected service %v", body["service"])
			}
		})
	}
}

func TestHealthNilChecker(t *testing.T) {
	rr := serve(t, Health("svc", nil), "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestInfo(t *testing.T) {
	rr := serve(t, Info("discoveryping", time.Now().Add(-90*time.Second)), "/info")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["service"] != "discoveryping" {
		t.Errorf("unexpected service %v", body["service"])
	}
	for _, key := range []string{"version", "git_commit", "go_version"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %s field", key)
		}
	}
	if body["uptime"] != "1m30s" {
		t.Errorf("expected uptime 1m30s, got %v", body["uptime"])
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	rr := serve(t, Metrics(reg), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "test_total 3") {
		t.Errorf("expected counter in exposition, got %q", rr.Body.String())
	}
}
