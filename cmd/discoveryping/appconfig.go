package main

import (
	"fmt"

	"github.com/kbukum/discoveryping/config"
	"github.com/kbukum/discoveryping/discovery"
	"github.com/kbukum/discoveryping/httpclient"
	"github.com/kbukum/discoveryping/observability"
	"github.com/kbukum/discoveryping/pingproxy"
	"github.com/kbukum/discoveryping/server"
	"github.com/kbukum/discoveryping/version"
)

const serviceName = "discoveryping"

// AppConfig is the full service configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Proxy         pingproxy.Config     `yaml:"proxy" mapstructure:"proxy"`
	HTTPClient    httpclient.Config    `yaml:"httpclient" mapstructure:"httpclient"`
	Discovery     discovery.Config     `yaml:"discovery" mapstructure:"discovery"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section. The registration identity follows the
// service name and HTTP port unless set explicitly.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Proxy.ApplyDefaults()
	c.HTTPClient.ApplyDefaults()

	if c.Discovery.ServiceName == "" {
		c.Discovery.ServiceName = c.Name
	}
	if c.Discovery.ServicePort == 0 {
		c.Discovery.ServicePort = c.Server.Port
	}
	c.Discovery.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	sections := []struct {
		name     string
		validate func() error
	}{
		{"service", c.ServiceConfig.Validate},
		{"server", c.Server.Validate},
		{"proxy", c.Proxy.Validate},
		{"httpclient", c.HTTPClient.Validate},
		{"discovery", c.Discovery.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// loadConfig reads config.yml, .env and the environment into an AppConfig.
// Defaults are applied later by bootstrap.NewApp.
func loadConfig(configFile, envFile string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
	); err != nil {
		return nil, err
	}
	return cfg, nil
}
