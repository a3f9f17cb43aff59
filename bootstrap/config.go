package bootstrap

import "github.com/kbukum/discoveryping/config"

// Config is the constraint for application config types. A struct that
// embeds config.ServiceConfig and overrides ApplyDefaults and Validate for
// its own sections satisfies it.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
