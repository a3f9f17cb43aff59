package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/discoveryping/component"
	"github.com/kbukum/discoveryping/config"
	"github.com/kbukum/discoveryping/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name, Version: "1.0.0", Environment: "development"}}
}

// recorder collects lifecycle events across components and hooks.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

type mockComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
	status   component.HealthStatus
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	m.rec.add("start:" + m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	m.rec.add("stop:" + m.name)
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health {
	status := m.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

func (m *mockComponent) Describe() component.Description {
	return component.Description{Type: "mock", Details: "in-memory", Port: 9000}
}

func (m *mockComponent) Routes() []component.Route {
	return []component.Route{{Method: "GET", Path: "/" + m.name, Handler: "mock"}}
}

func newTestApp(t *testing.T, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithLogger(logger.Nop()), WithSummaryOutput(&out)}, opts...)
	app, err := NewApp(newTestConfig("test-svc"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &out
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected name/version %q %q", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected typed config, got %+v", app.Cfg)
	}
	if app.Components == nil || app.Summary == nil {
		t.Fatal("expected registry and summary")
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("unexpected graceful timeout %v", app.gracefulTimeout)
	}
}

func TestNewAppAppliesDefaultsAndValidates(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected default environment, got %q", app.Cfg.Environment)
	}

	if _, err := NewApp(&testConfig{}, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestNewAppInitializesLogger(t *testing.T) {
	app, err := NewApp(newTestConfig("svc"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Logger == nil || app.Logger != logger.GetGlobalLogger() {
		t.Error("expected the global logger to be initialized from config")
	}
}

func TestRunLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app, out := newTestApp(t, WithGracefulTimeout(time.Second))
	_ = app.RegisterComponent(&mockComponent{name: "discovery", rec: rec})
	_ = app.RegisterComponent(&mockComponent{name: "server", rec: rec})

	app.OnStart(func(context.Context) error { rec.add("onStart"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		rec.add("configure:" + a.Cfg.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { rec.add("onReady"); return nil })
	app.OnStop(func(context.Context) error { rec.add("onStop"); return nil })

	if err := app.Run(cancelledContext()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "start:discovery,start:server,onStart,configure:test-svc,onReady,onStop,stop:server,stop:discovery"
	if got := rec.String(); got != want {
		t.Errorf("unexpected order\n got: %s\nwant: %s", got, want)
	}
	for _, s := range []string{"test-svc", "Infrastructure", "GET     /server", "Health Check"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("summary missing %q:\n%s", s, out.String())
		}
	}
}

func TestRunStartFailureStopsStartedComponents(t *testing.T) {
	rec := &recorder{}
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "discovery", rec: rec})
	_ = app.RegisterComponent(&mockComponent{name: "server", rec: rec, startErr: errors.New("bind failed")})

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bind failed") {
		t.Fatalf("expected start error, got %v", err)
	}
	if got := rec.String(); got != "start:discovery,start:server,stop:discovery" {
		t.Errorf("unexpected events %s", got)
	}
}

func TestRunConfigureFailure(t *testing.T) {
	rec := &recorder{}
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "discovery", rec: rec})
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("wiring failed") })

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "configuration failed") {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(rec.String(), "stop:discovery") {
		t.Error("expected started component to be stopped")
	}
}

func TestShutdownReportsStopErrors(t *testing.T) {
	rec := &recorder{}
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "discovery", rec: rec, stopErr: errors.New("deregister failed")})

	if err := app.Run(cancelledContext()); err == nil {
		t.Fatal("expected stop error")
	}
}

func TestShutdownHookError(t *testing.T) {
	app, _ := newTestApp(t)
	app.OnStop(func(context.Context) error { return errors.New("drain failed") })
	if err := app.Shutdown(); err == nil || !strings.Contains(err.Error(), "drain failed") {
		t.Fatalf("expected hook error, got %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	rec := &recorder{}
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "ok", rec: rec})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected ready, got %v", err)
	}

	_ = app.RegisterComponent(&mockComponent{name: "consul", rec: rec, status: component.StatusUnhealthy})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "consul=unhealthy") {
		t.Errorf("expected consul to be reported, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	rec := &recorder{}
	app, _ := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "a", rec: rec}); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "a", rec: rec}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestSummaryRender(t *testing.T) {
	rec := &recorder{}
	reg := component.NewRegistry(nil)
	_ = reg.Register(&mockComponent{name: "server", rec: rec, status: component.StatusDegraded})

	s := NewSummary("discoveryping", "")
	s.SetStartupDuration(1500 * time.Millisecond)

	var out bytes.Buffer
	s.Render(context.Background(), &out, reg)

	text := out.String()
	for _, want := range []string{
		"discoveryping dev started in 1.50s",
		"server: in-memory (:9000)",
		"/server → mock",
		"⚠️ server: degraded",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestSummaryRenderNilRegistry(t *testing.T) {
	var out bytes.Buffer
	NewSummary("svc", "1.0.0").Render(context.Background(), &out, nil)
	if !strings.Contains(out.String(), "svc 1.0.0") {
		t.Errorf("unexpected output %q", out.String())
	}
}
