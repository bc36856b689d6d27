// Package registry is the process-wide map from pipeline name to running
// pipeline.Pipeline. It owns the only container.Container[*pipeline.Pipeline]
// in the process and enforces name uniqueness at Start.
package registry

import (
	"fmt"
	"sync"

	"github.com/coholabs/v4pipe/container"
	"github.com/coholabs/v4pipe/errs"
	"github.com/coholabs/v4pipe/pipeline"
	"github.com/coholabs/v4pipe/v4l2"
)

// Registry is a name -> *pipeline.Pipeline directory. The zero value is not
// usable; construct with New. A process normally needs exactly one;
// cmd/v4piped constructs the default instance returned by Default().
type Registry struct {
	pipelines *container.Container[*pipeline.Pipeline]
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{
		pipelines: container.New(container.Params[*pipeline.Pipeline]{
			Compare: func(p *pipeline.Pipeline, key any) bool { return p.Name() == key.(string) },
		}),
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide Registry, creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New() })
	return defaultReg
}

// Start builds a new pipeline.Pipeline from params, starts it, and adds it
// to the registry under params.Name. It fails with errs.Params if the name
// is already in use, and leaves the registry untouched if the pipeline's
// own Start fails (no partial state, per spec.md §4.2's unwind guarantee).
func (r *Registry) Start(params pipeline.Params) error {
	unlock := r.pipelines.Lock()
	for {
		existing, ok := r.pipelines.GetElement()
		if !ok {
			break
		}
		if existing.Name() == params.Name {
			unlock()
			return errs.New("registry.Start", errs.Params,
				fmt.Errorf("pipeline %q already started", params.Name))
		}
	}
	unlock()

	p := pipeline.New(params)
	if err := p.Start(); err != nil {
		return err
	}

	unlock = r.pipelines.Lock()
	r.pipelines.Add(p)
	unlock()
	return nil
}

// Stop looks up the pipeline named name, stops it, and removes it from the
// registry. Looking up a name that isn't running fails with
// errs.Params ("pipeline not found").
func (r *Registry) Stop(name string) error {
	p, err := r.lookup("registry.Stop", name)
	if err != nil {
		return err
	}

	if err := p.Stop(); err != nil {
		return err
	}

	unlock := r.pipelines.Lock()
	r.pipelines.Remove(name)
	unlock()
	return nil
}

// RegisterListener adds l to the pipeline named name.
func (r *Registry) RegisterListener(name string, l pipeline.Listener) error {
	p, err := r.lookup("registry.RegisterListener", name)
	if err != nil {
		return err
	}
	return p.RegisterListener(l)
}

// UnregisterListener removes the listener named listenerName from the
// pipeline named name.
func (r *Registry) UnregisterListener(name, listenerName string) error {
	p, err := r.lookup("registry.UnregisterListener", name)
	if err != nil {
		return err
	}
	return p.UnregisterListener(listenerName)
}

// FinalVideoArea returns the post-negotiation area of the pipeline named
// name.
func (r *Registry) FinalVideoArea(name string) (v4l2.Area, error) {
	p, err := r.lookup("registry.FinalVideoArea", name)
	if err != nil {
		return v4l2.Area{}, err
	}
	return p.FinalVideoArea(), nil
}

// MaxBufferSize returns the buffer size of the pipeline named name.
func (r *Registry) MaxBufferSize(name string) (uint32, error) {
	p, err := r.lookup("registry.MaxBufferSize", name)
	if err != nil {
		return 0, err
	}
	return p.MaxBufferSize(), nil
}

// State returns the current lifecycle state of the pipeline named name.
func (r *Registry) State(name string) (pipeline.State, error) {
	p, err := r.lookup("registry.State", name)
	if err != nil {
		return pipeline.StateUninitialized, err
	}
	return p.State(), nil
}

// Stats returns a counters snapshot for the pipeline named name.
func (r *Registry) Stats(name string) (pipeline.Stats, error) {
	p, err := r.lookup("registry.Stats", name)
	if err != nil {
		return pipeline.Stats{}, err
	}
	return p.Stats(), nil
}

// Names returns the names of every pipeline currently registered, in
// registration order.
func (r *Registry) Names() []string {
	unlock := r.pipelines.Lock()
	defer unlock()

	names := make([]string, 0, r.pipelines.NbElements())
	for {
		p, ok := r.pipelines.GetElement()
		if !ok {
			break
		}
		names = append(names, p.Name())
	}
	return names
}

// lookup finds the pipeline named name under the registry lock and returns
// it; the lock is released before returning so callers never hold
// registryLock while driving a pipeline op, per the §5 lock-order rule
// (registryLock -> bufferLock -> listenersLock, never held concurrently
// across a pipeline call).
func (r *Registry) lookup(op, name string) (*pipeline.Pipeline, error) {
	unlock := r.pipelines.Lock()
	defer unlock()

	for {
		p, ok := r.pipelines.GetElement()
		if !ok {
			break
		}
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, errs.New(op, errs.Params, fmt.Errorf("pipeline %q not found", name))
}
