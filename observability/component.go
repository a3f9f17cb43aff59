package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/discoveryping/component"
	"github.com/kbukum/discoveryping/logger"
)

// Component installs the configured providers on Start and flushes them on
// Stop. Register it first so it stops last.
type Component struct {
	cfg         Config
	serviceName string
	version     string
	environment string
	log         *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the component for the named service.
func NewComponent(cfg Config, serviceName, version, environment string, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()
	return &Component{
		cfg:         cfg,
		serviceName: serviceName,
		version:     version,
		environment: environment,
		log:         log.WithComponent("observability"),
	}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start initializes the enabled providers.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	if c.cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, TracerConfig{
			ServiceName:    c.serviceName,
			ServiceVersion: c.version,
			Environment:    c.environment,
			Endpoint:       c.cfg.Tracing.Endpoint,
			Insecure:       c.cfg.Tracing.Insecure,
			SampleRate:     c.cfg.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		c.tp = tp
		c.log.Info("Tracer initialized", logger.Fields(
			"endpoint", c.cfg.Tracing.Endpoint,
			"sample_rate", c.cfg.Tracing.SampleRate,
		))
	}

	if c.cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, MeterConfig{
			ServiceName:    c.serviceName,
			ServiceVersion: c.version,
			Environment:    c.environment,
			Endpoint:       c.cfg.Metrics.Endpoint,
			Insecure:       c.cfg.Metrics.Insecure,
			Interval:       c.cfg.Metrics.Interval,
		})
		if err != nil {
			if c.tp != nil {
				_ = c.tp.Shutdown(ctx)
				c.tp = nil
			}
			return fmt.Errorf("metrics: %w", err)
		}
		c.mp = mp
		c.log.Info("Meter initialized", logger.Fields(
			"endpoint", c.cfg.Metrics.Endpoint,
			"interval", c.cfg.Metrics.Interval.String(),
		))
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
		c.tp = nil
	}
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
		c.mp = nil
	}
	return errors.Join(errs...)
}

// Health is always healthy; export failures are reported by the SDK.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: c.mode()}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{Name: "Observability", Type: "observability", Details: c.mode()}
}

func (c *Component) mode() string {
	switch {
	case c.cfg.Tracing.Enabled && c.cfg.Metrics.Enabled:
		return "tracing+metrics"
	case c.cfg.Tracing.Enabled:
		return "tracing"
	case c.cfg.Metrics.Enabled:
		return "metrics"
	default:
		return "disabled"
	}
}
