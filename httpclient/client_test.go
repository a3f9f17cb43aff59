package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/ping" {
			t.Errorf("expected /ping, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	c, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Get(context.Background(), srv.URL+"/ping", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() || string(resp.Body) != "pong" {
		t.Errorf("unexpected response %d %q", resp.StatusCode, resp.Body)
	}
	if resp.ContentType() != "text/plain;charset=UTF-8" {
		t.Errorf("unexpected content type %q", resp.ContentType())
	}
}

func TestClient_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Default"); got != "d" {
			t.Errorf("expected default header, got %q", got)
		}
		if got := r.Header.Get("X-Request-Id"); got != "req-1" {
			t.Errorf("expected request header, got %q", got)
		}
		if got := r.Header.Get("X-Override"); got != "request" {
			t.Errorf("expected request header to win, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "discoveryping/test" {
			t.Errorf("expected user agent, got %q", got)
		}
	}))
	defer srv.Close()

	c, err := New(Config{
		UserAgent: "discoveryping/test",
		Headers:   map[string]string{"X-Default": "d", "X-Override": "client"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.Get(context.Background(), srv.URL, map[string]string{
		"X-Request-Id": "req-1",
		"X-Override":   "request",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_InjectsTraceContext(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
	}))
	defer srv.Close()

	c, _ := New(Config{})
	if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(traceparent, "00-") {
		t.Errorf("expected traceparent header, got %q", traceparent)
	}
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{http.StatusNotFound, ErrCodeClient, false},
		{http.StatusTooManyRequests, ErrCodeClient, true},
		{http.StatusInternalServerError, ErrCodeServer, true},
		{http.StatusServiceUnavailable, ErrCodeServer, true},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			c, _ := New(Config{})
			resp, err := c.Get(context.Background(), srv.URL, nil)

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if e.Code != tc.code || e.Retryable != tc.retryable {
				t.Errorf("got code=%s retryable=%v", e.Code, e.Retryable)
			}
			if StatusCode(err) != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, StatusCode(err))
			}
			if resp == nil || string(resp.Body) != "nope" {
				t.Error("expected response body alongside status error")
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), srv.URL, nil)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("timeouts should be retryable")
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Get(ctx, srv.URL, nil); !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClient_CallerCanceled(t *testing.T) {
	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{Timeout: 5 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	_, err := c.Get(ctx, srv.URL, nil)
	if !IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if IsConnection(err) || IsRetryable(err) {
		t.Error("caller cancellation is neither a connection failure nor retryable")
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{})
	_, err := c.Get(context.Background(), url, nil)
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestClient_InvalidURL(t *testing.T) {
	c, _ := New(Config{})
	_, err := c.Do(context.Background(), Request{Method: "BAD METHOD", URL: "http://x"})
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeRequest {
		t.Fatalf("expected request error, got %v", err)
	}
}

func TestClient_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 32)))
	}))
	defer srv.Close()

	c, _ := New(Config{MaxBodyBytes: 16})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
	if len(resp.Body) != 16 {
		t.Errorf("expected truncated body, got %d bytes", len(resp.Body))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Timeout: -time.Second}); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %v", cfg.Timeout)
	}
	if cfg.MaxIdleConnsPerHost != 10 || cfg.MaxBodyBytes != 10<<20 {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	kept := Config{Timeout: time.Second}
	kept.ApplyDefaults()
	if kept.Timeout != time.Second {
		t.Errorf("expected explicit timeout to be kept, got %v", kept.Timeout)
	}
}
