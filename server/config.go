package server

import (
	"fmt"
	"time"

	"github.com/kbukum/discoveryping/validation"
)

// Config holds HTTP server configuration. Timeouts are in seconds.
type Config struct {
	Host            string `yaml:"host" mapstructure:"host"`
	Port            int    `yaml:"port" mapstructure:"port"`
	ReadTimeout     int    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    int    `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.New().
		Range("server.port", c.Port, 0, 65535).
		Custom(c.ReadTimeout >= 0, "server.read_timeout", "must not be negative").
		Custom(c.WriteTimeout >= 0, "server.write_timeout", "must not be negative").
		Custom(c.IdleTimeout >= 0, "server.idle_timeout", "must not be negative").
		Custom(c.ShutdownTimeout >= 0, "server.shutdown_timeout", "must not be negative").
		Validate()
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
