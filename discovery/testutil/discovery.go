package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/discoveryping/discovery"
)

// Discovery returns a fixed instance list, or a fixed error, for every
// service name, and records the names it was asked for.
type Discovery struct {
	mu        sync.Mutex
	instances []discovery.ServiceInstance
	err       error
	names     []string
	closed    bool
}

var _ discovery.Discovery = (*Discovery)(nil)

// NewDiscovery creates a fake that returns instances in the given order.
func NewDiscovery(instances ...discovery.ServiceInstance) *Discovery {
	return &Discovery{instances: instances}
}

// SetInstances replaces the returned instances.
func (d *Discovery) SetInstances(instances ...discovery.ServiceInstance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.instances = instances
}

// SetError makes Discover fail with err wrapped in
// discovery.ErrDiscoveryUnavailable. Nil clears it.
func (d *Discovery) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Discover implements discovery.Discovery. It respects ctx cancellation.
func (d *Discovery) Discover(ctx context.Context, serviceName string) ([]discovery.ServiceInstance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.names = append(d.names, serviceName)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", discovery.ErrDiscoveryUnavailable, err)
	}
	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", discovery.ErrDiscoveryUnavailable, d.err)
	}
	out := make([]discovery.ServiceInstance, len(d.instances))
	copy(out, d.instances)
	return out, nil
}

// Close marks the fake closed.
func (d *Discovery) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Calls returns the number of Discover calls.
func (d *Discovery) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.names)
}

// Names returns the service names passed to Discover, in call order.
func (d *Discovery) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Closed reports whether Close was called.
func (d *Discovery) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
