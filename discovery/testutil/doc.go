// Package testutil provides an in-memory discovery.Discovery for tests.
//
//	disc := testutil.NewDiscovery(discovery.ServiceInstance{
//	    ID: "a", Name: "consul-integration-demo", Address: "127.0.0.1", Port: 8080,
//	})
//	disc.SetError(errors.New("agent down"))
//	disc.Calls() // number of Discover calls
package testutil
