package discovery

import (
	"context"
	"time"
)

// ServiceInfo describes this process for registration.
type ServiceInfo struct {
	ID       string
	Name     string
	Address  string
	Port     int
	Tags     []string
	Metadata map[string]string
	Check    *HealthCheck
}

// HealthCheck is an HTTP check the registry runs against a registered
// service.
type HealthCheck struct {
	URL             string
	Interval        time.Duration
	Timeout         time.Duration
	DeregisterAfter time.Duration
}

// Registry registers and deregisters service instances.
type Registry interface {
	Register(ctx context.Context, service *ServiceInfo) error
	Deregister(ctx context.Context, serviceID string) error
	Stats() RegistryStats
}

// RegistryStats reports local registration state.
type RegistryStats struct {
	RegisteredServices int
	LastRegistered     time.Time
}
