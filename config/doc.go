// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment.
//
// Values resolve in this order, last wins: config.yml, then environment
// variables (including those loaded from .env). An environment variable
// such as PROXY_TARGET_SERVICE is bound to the key proxy.target_service when
// the target struct declares that key.
//
//	var cfg AppConfig
//	if err := config.LoadConfig("discoveryping", &cfg); err != nil { ... }
package config
