package httpclient

import (
	"context"
	"sync"

	"github.com/kbukum/discoveryping/component"
)

// Component owns the shared Client for the process lifetime.
type Component struct {
	config Config

	mu     sync.RWMutex
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the component. The Client is built on Start.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg}
}

// Name returns the component name.
func (c *Component) Name() string { return "httpclient" }

// Start builds the shared Client.
func (c *Component) Start(_ context.Context) error {
	client, err := New(c.config)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Stop closes idle pooled connections.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.CloseIdleConnections()
	}
	return nil
}

// Health is healthy once the Client exists.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.Client() == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Client",
		Type:    "httpclient",
		Details: "timeout=" + c.config.Timeout.String(),
	}
}

// Client returns the shared Client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Do sends req through the shared Client.
func (c *Component) Do(ctx context.Context, req Request) (*Response, error) {
	client := c.Client()
	if client == nil {
		return nil, NewRequestError(errNotStarted)
	}
	return client.Do(ctx, req)
}

// Get sends a GET through the shared Client.
func (c *Component) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	client := c.Client()
	if client == nil {
		return nil, NewRequestError(errNotStarted)
	}
	return client.Get(ctx, url, headers)
}
