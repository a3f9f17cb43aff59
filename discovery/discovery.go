package discovery

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
)

// ErrDiscoveryUnavailable is wrapped by every failed registry query.
var ErrDiscoveryUnavailable = errors.New("discovery unavailable")

// HealthStatus represents the registry's view of an instance.
type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ServiceInstance is one network location registered under a service name.
// Values are snapshots of a single query.
type ServiceInstance struct {
	ID       string
	Name     string
	Scheme   string
	Address  string
	Port     int
	Tags     []string
	Metadata map[string]string
	Health   HealthStatus
}

// BaseURL returns scheme://host:port. The scheme defaults to http and
// IPv6 hosts are bracketed.
func (i ServiceInstance) BaseURL() *url.URL {
	scheme := i.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := i.Address
	if i.Port > 0 {
		host = net.JoinHostPort(i.Address, strconv.Itoa(i.Port))
	}
	return &url.URL{Scheme: scheme, Host: host}
}

// Discovery returns the instances registered under a service name.
type Discovery interface {
	// Discover returns instances in registry order. An empty slice with a nil
	// error means none are registered.
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Pinger is implemented by backends that can check registry reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
