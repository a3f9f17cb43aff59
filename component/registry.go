package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/discoveryping/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

type slot struct {
	c       Component
	running bool
}

// Registry owns component lifecycle. Components start in registration order
// and stop in reverse, so a component may rely on everything registered
// before it. Start, Stop and Health run without mu held, so health checks
// stay responsive while a component is shutting down.
type Registry struct {
	life   sync.Mutex // serializes StartAll and StopAll
	mu     sync.RWMutex
	slots  []slot
	byName map[string]int
	log    *logger.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{byName: map[string]int{}, log: log.WithComponent("registry")}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.byName[name] = len(r.slots)
	r.slots = append(r.slots, slot{c: c})
	return nil
}

// indexes returns the slots whose running flag equals running, in
// registration order.
func (r *Registry) indexes(running bool) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idx []int
	for i, s := range r.slots {
		if s.running == running {
			idx = append(idx, i)
		}
	}
	return idx
}

func (r *Registry) at(i int) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[i].c
}

func (r *Registry) setRunning(i int, running bool) {
	r.mu.Lock()
	r.slots[i].running = running
	r.mu.Unlock()
}

// StartAll starts every component not yet running and stops at the first
// failure. Components started before the failure keep running until
// StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.life.Lock()
	defer r.life.Unlock()

	idx := r.indexes(false)
	r.log.Info("Starting components", logger.Fields("count", len(idx)))
	for _, i := range idx {
		c := r.at(i)
		name := c.Name()
		began := time.Now()
		if err := c.Start(ctx); err != nil {
			r.log.Error("Component start failed", logger.ErrorFields("start", err), logger.Fields(logger.FieldComponent, name))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		r.setRunning(i, true)
		r.log.Debug("Component started", logger.DurationFields("start", time.Since(began)), logger.Fields(logger.FieldComponent, name))
	}
	return nil
}

// StopAll stops running components in reverse order, each bounded by
// DefaultStopTimeout. It keeps going past failures and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.life.Lock()
	defer r.life.Unlock()

	idx := r.indexes(true)
	var errs []error
	for j := len(idx) - 1; j >= 0; j-- {
		i := idx[j]
		c := r.at(i)
		r.setRunning(i, false)
		if err := stopOne(ctx, c); err != nil {
			r.log.Error("Component stop failed", logger.ErrorFields("stop", err), logger.Fields(logger.FieldComponent, c.Name()))
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func stopOne(ctx context.Context, c Component) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
	defer cancel()
	return c.Stop(ctx)
}

// HealthAll collects health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	all := r.All()
	out := make([]Health, len(all))
	for i, c := range all {
		out[i] = c.Health(ctx)
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byName[name]
	if !ok {
		return nil
	}
	return r.slots[i].c
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.c
	}
	return out
}
