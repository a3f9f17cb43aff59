package pingproxy

import (
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/discoveryping/validation"
)

// DefaultTargetService is the logical service /discoveryClient looks up.
const DefaultTargetService = "consul-integration-demo"

// Config configures the proxy route.
type Config struct {
	// TargetService is the service name queried in the registry.
	TargetService string `yaml:"target_service" mapstructure:"target_service" validate:"required"`
	// TargetPath is resolved against the selected instance's base URL.
	TargetPath string `yaml:"target_path" mapstructure:"target_path" validate:"required,startswith=/"`
	// DiscoveryTimeout bounds a single registry query.
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout" mapstructure:"discovery_timeout" validate:"gt=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.TargetService == "" {
		c.TargetService = DefaultTargetService
	}
	if c.TargetPath == "" {
		c.TargetPath = "/ping"
	}
	if c.DiscoveryTimeout == 0 {
		c.DiscoveryTimeout = 5 * time.Second
	}
}

// Validate checks required fields and that the target path is an absolute
// path on the selected instance.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	ref, err := url.Parse(c.TargetPath)
	return validation.New().
		Custom(err == nil, "proxy.target_path", "must be a valid URL path").
		Custom(!strings.HasPrefix(c.TargetPath, "//") && (ref == nil || ref.Host == ""),
			"proxy.target_path", "must not name a host").
		Validate()
}
