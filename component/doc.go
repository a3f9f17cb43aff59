// Package component defines the lifecycle contract shared by the service's
// infrastructure pieces (HTTP server, outbound client, discovery, telemetry)
// and a Registry that starts them in order, stops them in reverse and
// aggregates their health.
package component
