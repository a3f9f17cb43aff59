// Package consul implements discovery and self-registration against a
// HashiCorp Consul agent.
package consul

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/kbukum/discoveryping/discovery"
	"github.com/kbukum/discoveryping/logger"
)

func init() {
	discovery.RegisterProviderFactory(discovery.ProviderConsul, func(cfg discovery.Config, log *logger.Logger) (discovery.Registry, discovery.Discovery, error) {
		p, err := NewProvider(cfg.Consul, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	})
}

// Provider implements discovery.Registry and discovery.Discovery using the
// Consul health and agent endpoints.
type Provider struct {
	client      *api.Client
	tag         string
	passingOnly bool
	log         *logger.Logger

	mu    sync.RWMutex
	stats discovery.RegistryStats
}

var (
	_ discovery.Registry  = (*Provider)(nil)
	_ discovery.Discovery = (*Provider)(nil)
	_ discovery.Pinger    = (*Provider)(nil)
)

// NewProvider creates a Provider for the agent described by cfg.
func NewProvider(cfg discovery.ConsulConfig, log *logger.Logger) (*Provider, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg.ApplyDefaults()

	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Address
	apiCfg.Scheme = cfg.Scheme
	apiCfg.Token = cfg.Token
	if cfg.Datacenter != "" {
		apiCfg.Datacenter = cfg.Datacenter
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	return &Provider{
		client:      client,
		tag:         cfg.Tag,
		passingOnly: *cfg.PassingOnly,
		log:         log,
	}, nil
}

// Discover queries the health endpoint for serviceName. Entry order is kept.
func (p *Provider) Discover(ctx context.Context, serviceName string) ([]discovery.ServiceInstance, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	entries, _, err := p.client.Health().Service(serviceName, p.tag, p.passingOnly, q)
	if err != nil {
		return nil, fmt.Errorf("%w: consul query %q: %w", discovery.ErrDiscoveryUnavailable, serviceName, err)
	}

	instances := make([]discovery.ServiceInstance, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Service == nil {
			continue
		}
		instances = append(instances, toInstance(e))
	}
	return instances, nil
}

// Register registers svc with the local agent, including its HTTP check.
func (p *Provider) Register(ctx context.Context, svc *discovery.ServiceInfo) error {
	reg := &api.AgentServiceRegistration{
		ID:      svc.ID,
		Name:    svc.Name,
		Address: svc.Address,
		Port:    svc.Port,
		Tags:    svc.Tags,
		Meta:    svc.Metadata,
	}
	if svc.Check != nil {
		reg.Check = &api.AgentServiceCheck{
			HTTP:                           svc.Check.URL,
			Method:                         "GET",
			Interval:                       svc.Check.Interval.String(),
			Timeout:                        svc.Check.Timeout.String(),
			DeregisterCriticalServiceAfter: svc.Check.DeregisterAfter.String(),
		}
	}

	opts := api.ServiceRegisterOpts{ReplaceExistingChecks: true}.WithContext(ctx)
	if err := p.client.Agent().ServiceRegisterOpts(reg, opts); err != nil {
		return fmt.Errorf("consul register %q: %w", svc.ID, err)
	}

	p.mu.Lock()
	p.stats.RegisteredServices++
	p.stats.LastRegistered = time.Now()
	p.mu.Unlock()

	p.log.Info("Service registered", logger.Fields(
		"service_id", svc.ID,
		logger.FieldService, svc.Name,
		"address", svc.Address,
		"port", svc.Port,
	))
	return nil
}

// Deregister removes serviceID from the local agent.
func (p *Provider) Deregister(ctx context.Context, serviceID string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := p.client.Agent().ServiceDeregisterOpts(serviceID, q); err != nil {
		return fmt.Errorf("consul deregister %q: %w", serviceID, err)
	}

	p.mu.Lock()
	if p.stats.RegisteredServices > 0 {
		p.stats.RegisteredServices--
	}
	p.mu.Unlock()

	p.log.Info("Service deregistered", logger.Fields("service_id", serviceID))
	return nil
}

// Stats returns local registration counters.
func (p *Provider) Stats() discovery.RegistryStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Ping asks the agent for the current raft leader.
func (p *Provider) Ping(ctx context.Context) error {
	leader, err := p.client.Status().LeaderWithQueryOptions((&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: consul status: %w", discovery.ErrDiscoveryUnavailable, err)
	}
	if leader == "" {
		return fmt.Errorf("%w: consul has no leader", discovery.ErrDiscoveryUnavailable)
	}
	return nil
}

// Close is a no-op; the api client holds no resources that need releasing.
func (p *Provider) Close() error { return nil }

func toInstance(e *api.ServiceEntry) discovery.ServiceInstance {
	addr := e.Service.Address
	if addr == "" && e.Node != nil {
		addr = e.Node.Address
	}

	health := discovery.HealthUnknown
	if len(e.Checks) > 0 {
		health = discovery.HealthUnhealthy
		if e.Checks.AggregatedStatus() == api.HealthPassing {
			health = discovery.HealthHealthy
		}
	}

	return discovery.ServiceInstance{
		ID:       e.Service.ID,
		Name:     e.Service.Service,
		Scheme:   schemeOf(e.Service.Meta),
		Address:  addr,
		Port:     e.Service.Port,
		Tags:     e.Service.Tags,
		Metadata: e.Service.Meta,
		Health:   health,
	}
}

// schemeOf reads the scheme from service meta: "scheme" when set, https
// when "secure" is true, http otherwise.
func schemeOf(meta map[string]string) string {
	if s := strings.ToLower(meta["scheme"]); s == "http" || s == "https" {
		return s
	}
	if strings.EqualFold(meta["secure"], "true") {
		return "https"
	}
	return "http"
}
