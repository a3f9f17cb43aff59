package discovery

import (
	"strconv"
	"time"

	"github.com/kbukum/discoveryping/validation"
)

// Provider names.
const (
	ProviderConsul = "consul"
	ProviderStatic = "static"
)

// DefaultHealthCheckPath is the path the registry probes on this service.
const DefaultHealthCheckPath = "/app-health-check"

// Config holds discovery and self-registration settings.
type Config struct {
	// Enabled selects the configured provider. When false the static
	// provider serves StaticEndpoints and nothing is registered.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Provider is "consul" or "static".
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Register announces this process to the registry on start.
	Register bool `yaml:"register" mapstructure:"register"`

	ServiceName    string `yaml:"service_name" mapstructure:"service_name"`
	ServiceID      string `yaml:"service_id" mapstructure:"service_id"`
	ServiceAddress string `yaml:"service_address" mapstructure:"service_address"`
	ServicePort    int    `yaml:"service_port" mapstructure:"service_port"`

	HealthCheckPath     string        `yaml:"health_check_path" mapstructure:"health_check_path"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" mapstructure:"health_check_interval"`
	HealthCheckTimeout  time.Duration `yaml:"health_check_timeout" mapstructure:"health_check_timeout"`
	DeregisterAfter     time.Duration `yaml:"deregister_after" mapstructure:"deregister_after"`

	Tags     []string          `yaml:"tags" mapstructure:"tags"`
	Metadata map[string]string `yaml:"metadata" mapstructure:"metadata"`

	Consul          ConsulConfig     `yaml:"consul" mapstructure:"consul"`
	StaticEndpoints []StaticEndpoint `yaml:"static_endpoints" mapstructure:"static_endpoints"`
}

// ConsulConfig holds the Consul agent connection settings.
type ConsulConfig struct {
	Address    string `yaml:"address" mapstructure:"address"`
	Scheme     string `yaml:"scheme" mapstructure:"scheme"`
	Datacenter string `yaml:"datacenter" mapstructure:"datacenter"`
	Token      string `yaml:"token" mapstructure:"token"`

	// Tag filters discovered instances by tag when set.
	Tag string `yaml:"tag" mapstructure:"tag"`

	// PassingOnly limits results to instances whose checks pass. Defaults
	// to true.
	PassingOnly *bool `yaml:"passing_only" mapstructure:"passing_only"`
}

// StaticEndpoint is a fixed instance served by the static provider.
type StaticEndpoint struct {
	Name     string            `yaml:"name" mapstructure:"name"`
	ID       string            `yaml:"id" mapstructure:"id"`
	Scheme   string            `yaml:"scheme" mapstructure:"scheme"`
	Address  string            `yaml:"address" mapstructure:"address"`
	Port     int               `yaml:"port" mapstructure:"port"`
	Tags     []string          `yaml:"tags" mapstructure:"tags"`
	Metadata map[string]string `yaml:"metadata" mapstructure:"metadata"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderStatic
	}
	if c.ServiceID == "" && c.ServiceName != "" {
		c.ServiceID = c.ServiceName
		if c.ServicePort > 0 {
			c.ServiceID = c.ServiceName + "-" + strconv.Itoa(c.ServicePort)
		}
	}
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = DefaultHealthCheckPath
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = 10 * time.Second
	}
	if c.HealthCheckTimeout == 0 {
		c.HealthCheckTimeout = 5 * time.Second
	}
	if c.DeregisterAfter == 0 {
		c.DeregisterAfter = time.Minute
	}
	c.Consul.ApplyDefaults()
}

// ApplyDefaults fills zero-valued Consul settings.
func (c *ConsulConfig) ApplyDefaults() {
	if c.Address == "" {
		c.Address = "localhost:8500"
	}
	if c.Scheme == "" {
		c.Scheme = "http"
	}
	if c.PassingOnly == nil {
		passing := true
		c.PassingOnly = &passing
	}
}

// Validate checks provider selection and, when registering, the advertised
// identity.
func (c *Config) Validate() error {
	v := validation.New()
	if !c.Enabled {
		return v.Validate()
	}
	v.OneOf("discovery.provider", c.Provider, []string{ProviderConsul, ProviderStatic}).
		Required("discovery.provider", c.Provider)
	if c.Provider == ProviderConsul {
		v.Required("discovery.consul.address", c.Consul.Address).
			OneOf("discovery.consul.scheme", c.Consul.Scheme, []string{"http", "https"})
	}
	if c.Register {
		v.Required("discovery.service_name", c.ServiceName).
			Range("discovery.service_port", c.ServicePort, 1, 65535).
			AbsolutePath("discovery.health_check_path", c.HealthCheckPath)
	}
	return v.Validate()
}
