package pingproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/discoveryping/discovery"
	"github.com/kbukum/discoveryping/discovery/testutil"
	apperrors "github.com/kbukum/discoveryping/errors"
	"github.com/kbukum/discoveryping/httpclient"
	"github.com/kbukum/discoveryping/logger"
	"github.com/kbukum/discoveryping/observability"
)

// downstream is an httptest server that counts requests and records the
// last path and request id it saw.
type downstream struct {
	*httptest.Server
	calls     atomic.Int32
	mu        sync.Mutex
	lastPath  string
	requestID string
}

func newDownstream(t *testing.T, handler http.HandlerFunc) *downstream {
	t.Helper()
	d := &downstream{}
	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.calls.Add(1)
		d.mu.Lock()
		d.lastPath = r.URL.Path
		d.requestID = r.Header.Get("X-Request-Id")
		d.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(d.Close)
	return d
}

func (d *downstream) path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPath
}

func (d *downstream) receivedRequestID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requestID
}

func pongServer(t *testing.T, body string) *downstream {
	return newDownstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		_, _ = w.Write([]byte(body))
	})
}

func instanceFor(t *testing.T, id string, srv *httptest.Server) discovery.ServiceInstance {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return discovery.ServiceInstance{
		ID:      id,
		Name:    DefaultTargetService,
		Scheme:  u.Scheme,
		Address: u.Hostname(),
		Port:    port,
	}
}

func newClient(t *testing.T, timeout time.Duration) *httpclient.Client {
	t.Helper()
	c, err := httpclient.New(httpclient.Config{Timeout: timeout})
	require.NoError(t, err)
	return c
}

func newTestHandler(t *testing.T, d discovery.Discovery, opts ...Option) *Handler {
	t.Helper()
	return NewHandler(d, newClient(t, 2*time.Second), Config{}, opts...)
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode, status int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
	return appErr
}

func TestHandlePingProxy_SingleInstance(t *testing.T) {
	srv := pongServer(t, "pong from A")
	fake := testutil.NewDiscovery(instanceFor(t, "a", srv.Server))
	h := newTestHandler(t, fake)

	body, contentType, err := h.HandlePingProxy(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pong from A", string(body))
	assert.Equal(t, "text/plain;charset=UTF-8", contentType)
	assert.Equal(t, int32(1), srv.calls.Load())
	assert.Equal(t, "/ping", srv.path())
	assert.Equal(t, []string{DefaultTargetService}, fake.Names())
}

func TestHandlePingProxy_EmptyDiscovery(t *testing.T) {
	srv := pongServer(t, "unused")
	h := newTestHandler(t, testutil.NewDiscovery())

	body, _, err := h.HandlePingProxy(context.Background())

	assert.Nil(t, body)
	appErr := requireAppError(t, err, apperrors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable)
	assert.Equal(t, DefaultTargetService, appErr.Details["service"])
	assert.Equal(t, int32(0), srv.calls.Load())
}

func TestHandlePingProxy_FirstInstanceWins(t *testing.T) {
	a := pongServer(t, "A")
	b := pongServer(t, "B")
	h := newTestHandler(t, testutil.NewDiscovery(instanceFor(t, "a", a.Server), instanceFor(t, "b", b.Server)))

	for i := 0; i < 3; i++ {
		body, _, err := h.HandlePingProxy(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "A", string(body))
	}
	assert.Equal(t, int32(3), a.calls.Load())
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestHandlePingProxy_DiscoveryError(t *testing.T) {
	srv := pongServer(t, "unused")
	fake := testutil.NewDiscovery(instanceFor(t, "a", srv.Server))
	fake.SetError(assert.AnError)
	h := newTestHandler(t, fake)

	_, _, err := h.HandlePingProxy(context.Background())

	appErr := requireAppError(t, err, apperrors.ErrCodeDiscoveryUnavailable, http.StatusServiceUnavailable)
	assert.ErrorIs(t, appErr, discovery.ErrDiscoveryUnavailable)
	assert.ErrorIs(t, appErr, assert.AnError)
	assert.Equal(t, int32(0), srv.calls.Load())
}

// blockingDiscovery waits for the query context to end.
type blockingDiscovery struct{}

func (blockingDiscovery) Discover(ctx context.Context, _ string) ([]discovery.ServiceInstance, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingDiscovery) Close() error { return nil }

func TestHandlePingProxy_DiscoveryTimeout(t *testing.T) {
	h := NewHandler(blockingDiscovery{}, newClient(t, time.Second), Config{DiscoveryTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, _, err := h.HandlePingProxy(context.Background())

	requireAppError(t, err, apperrors.ErrCodeDiscoveryUnavailable, http.StatusServiceUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandlePingProxy_DownstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		code    apperrors.ErrorCode
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			timeout: time.Second,
			code:    apperrors.ErrCodeExternalService,
			status:  http.StatusBadGateway,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
			timeout: time.Second,
			code:    apperrors.ErrCodeExternalService,
			status:  http.StatusBadGateway,
		},
		{
			name: "slow downstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			code:    apperrors.ErrCodeTimeout,
			status:  http.StatusGatewayTimeout,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newDownstream(t, tc.handler)
			h := NewHandler(testutil.NewDiscovery(instanceFor(t, "a", srv.Server)), newClient(t, tc.timeout), Config{})

			_, _, err := h.HandlePingProxy(context.Background())

			requireAppError(t, err, tc.code, tc.status)
			assert.Equal(t, int32(1), srv.calls.Load())
		})
	}
}

func TestHandlePingProxy_StatusDetail(t *testing.T) {
	srv := newDownstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h := newTestHandler(t, testutil.NewDiscovery(instanceFor(t, "a", srv.Server)))

	_, _, err := h.HandlePingProxy(context.Background())

	appErr := requireAppError(t, err, apperrors.ErrCodeExternalService, http.StatusBadGateway)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Details["status"])
	assert.Equal(t, srv.URL+"/ping", appErr.Details["url"])
}

func TestHandlePingProxy_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	instance := instanceFor(t, "a", srv)
	srv.Close()
	h := newTestHandler(t, testutil.NewDiscovery(instance))

	_, _, err := h.HandlePingProxy(context.Background())

	requireAppError(t, err, apperrors.ErrCodeExternalService, http.StatusBadGateway)
}

func TestHandlePingProxy_CallerCanceled(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := observability.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	arrived := make(chan struct{})
	srv := newDownstream(t, func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	h := newTestHandler(t, testutil.NewDiscovery(instanceFor(t, "a", srv.Server)), WithMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()
	_, _, err = h.HandlePingProxy(ctx)

	requireAppError(t, err, apperrors.ErrCodeClientClosed, apperrors.StatusClientClosedRequest)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var upstreamErrors int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok && md.Name == observability.MetricUpstreamErrors {
				for _, dp := range sum.DataPoints {
					upstreamErrors += dp.Value
				}
			}
		}
	}
	assert.Zero(t, upstreamErrors, "caller cancellation is not an upstream error")
}

func TestHandlePingProxy_ForwardsRequestID(t *testing.T) {
	srv := pongServer(t, "pong")
	h := newTestHandler(t, testutil.NewDiscovery(instanceFor(t, "a", srv.Server)))

	ctx := logger.ContextWithRequestID(context.Background(), "req-7")
	_, _, err := h.HandlePingProxy(ctx)

	require.NoError(t, err)
	assert.Equal(t, "req-7", srv.receivedRequestID())
}

func TestHandlePingProxy_CustomTargetPath(t *testing.T) {
	srv := pongServer(t, "ok")
	h := NewHandler(testutil.NewDiscovery(instanceFor(t, "a", srv.Server)), newClient(t, time.Second),
		Config{TargetService: "other", TargetPath: "/status/ping"})

	_, _, err := h.HandlePingProxy(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/status/ping", srv.path())
}

// failingGetter returns a non-httpclient error.
type failingGetter struct{}

func (failingGetter) Get(context.Context, string, map[string]string) (*httpclient.Response, error) {
	return nil, assert.AnError
}

func TestHandlePingProxy_UnclassifiedError(t *testing.T) {
	instance := discovery.ServiceInstance{ID: "a", Address: "10.0.0.1", Port: 8080}
	h := NewHandler(testutil.NewDiscovery(instance), failingGetter{}, Config{})

	_, _, err := h.HandlePingProxy(context.Background())

	requireAppError(t, err, apperrors.ErrCodeInternal, http.StatusInternalServerError)
}

func TestHandlePingProxy_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := observability.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	srv := pongServer(t, "pong")
	fake := testutil.NewDiscovery(instanceFor(t, "a", srv.Server))
	h := newTestHandler(t, fake, WithMetrics(m))

	_, _, err = h.HandlePingProxy(context.Background())
	require.NoError(t, err)

	fake.SetInstances()
	_, _, err = h.HandlePingProxy(context.Background())
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(3), totals[observability.MetricUpstreamRequests], "two discovers and one ping")
	assert.Equal(t, int64(1), totals[observability.MetricUpstreamErrors])
}

func TestConstantHandlers(t *testing.T) {
	h := NewHandler(testutil.NewDiscovery(), failingGetter{}, Config{})
	assert.Equal(t, "pong", h.HandlePing())
	assert.Equal(t, "I am okay.", h.HandleHealthCheck())
}

func TestTargetURL(t *testing.T) {
	tests := []struct {
		name string
		base *url.URL
		path string
		want string
	}{
		{"host and port", &url.URL{Scheme: "http", Host: "10.0.0.1:8080"}, "/ping", "http://10.0.0.1:8080/ping"},
		{"base path replaced", &url.URL{Scheme: "http", Host: "svc:80", Path: "/api/v1"}, "/ping", "http://svc:80/ping"},
		{"ipv6", discovery.ServiceInstance{Address: "::1", Port: 9000}.BaseURL(), "/ping", "http://[::1]:9000/ping"},
		{"https", discovery.ServiceInstance{Scheme: "https", Address: "svc.local", Port: 443}.BaseURL(), "/ping", "https://svc.local:443/ping"},
		{"query kept", &url.URL{Scheme: "http", Host: "svc"}, "/ping?verbose=1", "http://svc/ping?verbose=1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TargetURL(tc.base, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}

	_, err := TargetURL(&url.URL{Scheme: "http", Host: "svc"}, "%zz")
	assert.Error(t, err)

	_, err = TargetURL(&url.URL{Scheme: "http", Host: "svc:8080"}, "//other-host/ping")
	assert.Error(t, err, "path must not move the call to another host")
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultTargetService, cfg.TargetService)
	assert.Equal(t, "/ping", cfg.TargetPath)
	assert.Equal(t, 5*time.Second, cfg.DiscoveryTimeout)
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing service", Config{TargetPath: "/ping", DiscoveryTimeout: time.Second}, "target_service"},
		{"relative path", Config{TargetService: "svc", TargetPath: "ping", DiscoveryTimeout: time.Second}, "target_path"},
		{"zero timeout", Config{TargetService: "svc", TargetPath: "/ping"}, "discovery_timeout"},
		{"network path", Config{TargetService: "svc", TargetPath: "//other-host/ping", DiscoveryTimeout: time.Second}, "target_path"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			appErr := requireAppError(t, err, apperrors.ErrCodeInvalidInput, http.StatusBadRequest)
			raw, jerr := json.Marshal(appErr.Details["fields"])
			require.NoError(t, jerr)
			assert.Contains(t, string(raw), tc.field)
		})
	}
}
