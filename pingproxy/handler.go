package pingproxy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/discoveryping/discovery"
	apperrors "github.com/kbukum/discoveryping/errors"
	"github.com/kbukum/discoveryping/httpclient"
	"github.com/kbukum/discoveryping/logger"
	"github.com/kbukum/discoveryping/observability"
	"github.com/kbukum/discoveryping/server/middleware"
)

const (
	// PongBody is the /ping response.
	PongBody = "pong"
	// HealthCheckBody is the /app-health-check response.
	HealthCheckBody = "I am okay."
)

const componentName = "pingproxy"

// Getter issues outbound GET requests. *httpclient.Client and
// *httpclient.Component satisfy it.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*httpclient.Response, error)
}

// Handler implements the route logic. It holds no per-request state.
type Handler struct {
	discovery discovery.Discovery
	client    Getter
	cfg       Config
	log       *logger.Logger
	metrics   *observability.Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. The default discards output.
func WithLogger(log *logger.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics records discovery and downstream operations on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates a Handler. cfg defaults are applied.
func NewHandler(d discovery.Discovery, client Getter, cfg Config, opts ...Option) *Handler {
	cfg.ApplyDefaults()
	h := &Handler{
		discovery: d,
		client:    client,
		cfg:       cfg,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent(componentName)
	return h
}

// HandlePing returns the constant ping body.
func (h *Handler) HandlePing() string { return PongBody }

// HandleHealthCheck returns the constant health check body.
func (h *Handler) HandleHealthCheck() string { return HealthCheckBody }

// HandlePingProxy discovers the target service, calls TargetPath on the
// first instance and returns the response body and content type unchanged.
// Errors are *apperrors.AppError values.
func (h *Handler) HandlePingProxy(ctx context.Context) (body []byte, contentType string, err error) {
	ctx, span := observability.StartSpan(ctx, "pingproxy.HandlePingProxy",
		trace.WithAttributes(attribute.String("discovery.service", h.cfg.TargetService)))
	defer func() { observability.EndSpan(span, err) }()

	instance, err := h.selectInstance(ctx)
	if err != nil {
		return nil, "", err
	}

	target, err := TargetURL(instance.BaseURL(), h.cfg.TargetPath)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}
	span.SetAttributes(attribute.String("proxy.target_url", target.String()))

	return h.callTarget(ctx, target)
}

// selectInstance runs the discovery query under DiscoveryTimeout and picks
// the first instance.
func (h *Handler) selectInstance(ctx context.Context) (discovery.ServiceInstance, error) {
	service := h.cfg.TargetService
	log := h.log.WithContext(ctx)

	dctx, cancel := context.WithTimeout(ctx, h.cfg.DiscoveryTimeout)
	defer cancel()

	start := time.Now()
	instances, err := h.discovery.Discover(dctx, service)
	elapsed := time.Since(start)
	if err != nil {
		h.metrics.RecordOperation(ctx, service, "discover", "error", elapsed)
		h.metrics.RecordError(ctx, string(apperrors.ErrCodeDiscoveryUnavailable), componentName)
		log.Warn("Discovery query failed", logger.Fields(
			logger.FieldService, service,
			logger.FieldError, err.Error(),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return discovery.ServiceInstance{}, apperrors.DiscoveryUnavailable(service, err)
	}
	h.metrics.RecordOperation(ctx, service, "discover", "ok", elapsed)

	instance, ok := discovery.SelectFirst(instances)
	if !ok {
		h.metrics.RecordError(ctx, string(apperrors.ErrCodeServiceUnavailable), componentName)
		log.Warn("No instance available", logger.Fields(logger.FieldService, service))
		return discovery.ServiceInstance{}, apperrors.ServiceUnavailable(service)
	}

	log.Info("Instance selected", logger.Fields(
		logger.FieldService, service,
		logger.FieldInstance, instance.ID,
		logger.FieldURL, instance.BaseURL().String(),
		"candidates", len(instances),
	))
	return instance, nil
}

func (h *Handler) callTarget(ctx context.Context, target *url.URL) ([]byte, string, error) {
	service := h.cfg.TargetService
	headers := map[string]string{}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		headers[middleware.HeaderRequestID] = id
	}

	start := time.Now()
	resp, err := h.client.Get(ctx, target.String(), headers)
	elapsed := time.Since(start)
	if httpclient.IsCanceled(err) {
		h.metrics.RecordOperation(ctx, service, "ping", "canceled", elapsed)
		h.log.WithContext(ctx).Debug("Caller canceled downstream call", logger.Fields(
			logger.FieldService, service,
			logger.FieldURL, target.String(),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, "", apperrors.Canceled("GET "+target.Path, err)
	}
	if err != nil {
		appErr := downstreamError(service, target, err)
		h.metrics.RecordOperation(ctx, service, "ping", "error", elapsed)
		h.metrics.RecordError(ctx, string(appErr.Code), componentName)
		h.log.WithContext(ctx).Warn("Downstream call failed", logger.Fields(
			logger.FieldService, service,
			logger.FieldURL, target.String(),
			logger.FieldError, err.Error(),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, "", appErr
	}
	h.metrics.RecordOperation(ctx, service, "ping", "ok", elapsed)

	return resp.Body, resp.ContentType(), nil
}

// downstreamError maps an outbound call failure to TIMEOUT,
// EXTERNAL_SERVICE_ERROR or INTERNAL_ERROR.
func downstreamError(service string, target *url.URL, err error) *apperrors.AppError {
	if httpclient.IsTimeout(err) {
		return apperrors.Timeout("GET "+target.Path).
			WithCause(err).
			WithDetail("service", service)
	}
	var clientErr *httpclient.Error
	if errors.As(err, &clientErr) {
		appErr := apperrors.ExternalServiceError(service, err).WithDetail("url", target.String())
		if clientErr.StatusCode > 0 {
			appErr.WithDetail("status", clientErr.StatusCode)
		}
		return appErr
	}
	return apperrors.Internal(err)
}

// TargetURL resolves path against base using RFC 3986 reference resolution,
// so an absolute path replaces any path on base. The result must stay on
// base's host.
func TargetURL(base *url.URL, path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	target := base.ResolveReference(ref)
	if target.Host != base.Host || target.Scheme != base.Scheme {
		return nil, fmt.Errorf("target path %q leaves instance %s", path, base.Host)
	}
	return target, nil
}
