package httpclient

import (
	"time"

	"github.com/kbukum/discoveryping/validation"
)

const (
	defaultTimeout         = 5 * time.Second
	defaultMaxIdleConns    = 100
	defaultMaxIdlePerHost  = 10
	defaultIdleConnTimeout = 90 * time.Second
	defaultMaxBodyBytes    = 10 << 20
)

// Config configures the shared outbound client.
type Config struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	MaxIdleConns        int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// UserAgent is sent when the request does not set one.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are sent with every request unless the request overrides them.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdlePerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = defaultIdleConnTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
}

// Validate checks that limits are positive.
func (c *Config) Validate() error {
	return validation.New().
		Custom(c.Timeout > 0, "httpclient.timeout", "must be positive").
		Custom(c.MaxIdleConns >= 0, "httpclient.max_idle_conns", "must not be negative").
		Custom(c.MaxIdleConnsPerHost >= 0, "httpclient.max_idle_conns_per_host", "must not be negative").
		Custom(c.MaxBodyBytes > 0, "httpclient.max_body_bytes", "must be positive").
		Validate()
}
