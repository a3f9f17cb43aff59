// Package httpclient is the process-wide outbound HTTP client.
//
// One Client owns one *http.Client over one pooled transport and is shared
// by every request handler. Each call is bounded by the configured timeout
// and the caller's context, carries W3C trace context, and fails with a
// typed *Error that separates timeouts, connection failures and non-2xx
// responses.
//
//	c, err := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
//	resp, err := c.Get(ctx, "http://10.0.0.1:8080/ping", nil)
//	if httpclient.IsTimeout(err) { ... }
package httpclient
