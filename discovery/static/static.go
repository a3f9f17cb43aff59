// Package static serves discovery from a fixed, in-memory endpoint list. It
// is the provider used when discovery is disabled and in local development.
package static

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/discoveryping/discovery"
	"github.com/kbukum/discoveryping/logger"
)

func init() {
	discovery.RegisterProviderFactory(discovery.ProviderStatic, func(cfg discovery.Config, _ *logger.Logger) (discovery.Registry, discovery.Discovery, error) {
		p := NewProvider(cfg.StaticEndpoints)
		return p, p, nil
	})
}

// Provider keeps instances per service name in insertion order.
type Provider struct {
	mu        sync.RWMutex
	instances map[string][]discovery.ServiceInstance
	stats     discovery.RegistryStats
}

var (
	_ discovery.Registry  = (*Provider)(nil)
	_ discovery.Discovery = (*Provider)(nil)
)

// NewProvider creates a Provider pre-populated from configuration.
func NewProvider(endpoints []discovery.StaticEndpoint) *Provider {
	p := &Provider{instances: make(map[string][]discovery.ServiceInstance)}
	for _, ep := range endpoints {
		id := ep.ID
		if id == "" {
			id = fmt.Sprintf("%s-%s-%d", ep.Name, ep.Address, ep.Port)
		}
		p.instances[ep.Name] = append(p.instances[ep.Name], discovery.ServiceInstance{
			ID:       id,
			Name:     ep.Name,
			Scheme:   ep.Scheme,
			Address:  ep.Address,
			Port:     ep.Port,
			Tags:     ep.Tags,
			Metadata: ep.Metadata,
			Health:   discovery.HealthHealthy,
		})
	}
	return p
}

// Register appends an instance for svc.Name.
func (p *Provider) Register(_ context.Context, svc *discovery.ServiceInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.instances[svc.Name] = append(p.instances[svc.Name], discovery.ServiceInstance{
		ID:       svc.ID,
		Name:     svc.Name,
		Address:  svc.Address,
		Port:     svc.Port,
		Tags:     svc.Tags,
		Metadata: svc.Metadata,
		Health:   discovery.HealthHealthy,
	})
	p.stats.RegisteredServices++
	p.stats.LastRegistered = time.Now()
	return nil
}

// Deregister removes the instance with serviceID. Unknown IDs are ignored.
func (p *Provider) Deregister(_ context.Context, serviceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, list := range p.instances {
		for i, inst := range list {
			if inst.ID != serviceID {
				continue
			}
			p.instances[name] = append(list[:i:i], list[i+1:]...)
			if p.stats.RegisteredServices > 0 {
				p.stats.RegisteredServices--
			}
			return nil
		}
	}
	return nil
}

// Stats returns registration counters.
func (p *Provider) Stats() discovery.RegistryStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Discover returns a copy of the instances for serviceName, empty when the
// name is unknown.
func (p *Provider) Discover(_ context.Context, serviceName string) ([]discovery.ServiceInstance, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	list := p.instances[serviceName]
	out := make([]discovery.ServiceInstance, len(list))
	copy(out, list)
	return out, nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
