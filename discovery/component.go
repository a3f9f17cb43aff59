package discovery

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/discoveryping/component"
	"github.com/kbukum/discoveryping/logger"
)

// ProviderFactory builds the Registry and Discovery pair for a backend.
// The Registry may be nil when the backend cannot register services.
type ProviderFactory func(cfg Config, log *logger.Logger) (Registry, Discovery, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]ProviderFactory)
)

// RegisterProviderFactory makes a backend available under name. Backend
// packages call it from init.
func RegisterProviderFactory(name string, f ProviderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

func lookupFactory(name string) (ProviderFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

const pingTimeout = 2 * time.Second

// Component owns the discovery backend for the process lifetime and
// implements Discovery by delegating to it.
type Component struct {
	cfg Config
	log *logger.Logger

	mu         sync.RWMutex
	registry   Registry
	discovery  Discovery
	registered string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
	_ Discovery             = (*Component)(nil)
)

// NewComponent creates a discovery component. The backend is built on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("discovery")}
}

// Name returns the component name.
func (c *Component) Name() string { return "discovery" }

func (c *Component) provider() string {
	if !c.cfg.Enabled {
		return ProviderStatic
	}
	return c.cfg.Provider
}

// Start builds the configured backend and, when enabled, registers this
// process with an HTTP check on the health check path.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("discovery config: %w", err)
	}

	name := c.provider()
	f, ok := lookupFactory(name)
	if !ok {
		return fmt.Errorf("discovery provider %q not registered", name)
	}
	reg, disc, err := f(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("discovery provider %s: %w", name, err)
	}

	if c.cfg.Enabled && c.cfg.Register && reg != nil {
		info, err := c.serviceInfo()
		if err != nil {
			_ = disc.Close()
			return err
		}
		if err := reg.Register(ctx, info); err != nil {
			_ = disc.Close()
			return fmt.Errorf("discovery: register self: %w", err)
		}
		c.registered = info.ID
	}

	c.mu.Lock()
	c.registry = reg
	c.discovery = disc
	c.mu.Unlock()

	c.log.Info("Discovery started", logger.Fields(
		"provider", name,
		"registered", c.registered != "",
	))
	return nil
}

func (c *Component) serviceInfo() (*ServiceInfo, error) {
	addr := c.cfg.ServiceAddress
	if addr == "" {
		ip, err := localIP()
		if err != nil {
			return nil, fmt.Errorf("discovery: resolve local IP: %w", err)
		}
		addr = ip
	}

	check := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(addr, strconv.Itoa(c.cfg.ServicePort)),
		Path:   c.cfg.HealthCheckPath,
	}
	return &ServiceInfo{
		ID:       c.cfg.ServiceID,
		Name:     c.cfg.ServiceName,
		Address:  addr,
		Port:     c.cfg.ServicePort,
		Tags:     c.cfg.Tags,
		Metadata: c.cfg.Metadata,
		Check: &HealthCheck{
			URL:             check.String(),
			Interval:        c.cfg.HealthCheckInterval,
			Timeout:         c.cfg.HealthCheckTimeout,
			DeregisterAfter: c.cfg.DeregisterAfter,
		},
	}, nil
}

// Stop deregisters this process and closes the backend.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	reg, disc, id := c.registry, c.discovery, c.registered
	c.registry, c.discovery, c.registered = nil, nil, ""
	c.mu.Unlock()

	if reg != nil && id != "" {
		if err := reg.Deregister(ctx, id); err != nil {
			c.log.Warn("Deregister on stop failed", logger.ErrorFields("deregister", err))
		}
	}
	if disc != nil {
		return disc.Close()
	}
	return nil
}

// Discover delegates to the started backend.
func (c *Component) Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error) {
	c.mu.RLock()
	disc := c.discovery
	c.mu.RUnlock()

	if disc == nil {
		return nil, fmt.Errorf("%w: discovery not started", ErrDiscoveryUnavailable)
	}
	return disc.Discover(ctx, serviceName)
}

// Close is a no-op; the backend is released by Stop.
func (c *Component) Close() error { return nil }

// Health reports unhealthy before Start or when the registry cannot be
// reached.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	disc := c.discovery
	c.mu.RUnlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if disc == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}
	if p, ok := disc.(Pinger); ok {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			h.Status = component.StatusUnhealthy
			h.Message = err.Error()
			return h
		}
	}
	h.Message = c.provider()
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := "provider=" + c.provider()
	if c.cfg.Enabled && c.provider() == ProviderConsul {
		details += " " + c.cfg.Consul.Scheme + "://" + c.cfg.Consul.Address
	}
	if c.cfg.Enabled && c.cfg.Register {
		details += " register=" + c.cfg.ServiceName
	}
	return component.Description{Name: "Discovery", Type: "discovery", Details: details}
}

// localIP returns the address of the interface used for outbound traffic.
// No packets are sent.
func localIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
