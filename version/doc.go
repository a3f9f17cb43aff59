// Package version exposes build information for the /info endpoint and the
// version command.
//
// Values are set at link time and fall back to the module's VCS stamp:
//
//	go build -ldflags "-X github.com/kbukum/discoveryping/version.Version=1.0.0"
package version
