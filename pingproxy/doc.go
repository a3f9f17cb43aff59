// Package pingproxy serves the discovery ping routes: /discoveryClient looks
// up the target service, forwards a GET to the first instance's /ping and
// returns its body; /ping and /app-health-check answer with constants.
package pingproxy
