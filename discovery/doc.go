// Package discovery looks up service instances by logical name and registers
// this process with the discovery backend.
//
// A Discover call returns the instances in registry order. An empty result
// means the registry answered and knows no instance; a failed query is an
// error wrapping ErrDiscoveryUnavailable. SelectFirst picks the instance the
// proxy calls.
//
// # Backends
//
// Backends register a ProviderFactory from init; import them for effect:
//
//	import _ "github.com/kbukum/discoveryping/discovery/consul"
//	import _ "github.com/kbukum/discoveryping/discovery/static"
package discovery
