package stage

import (
	"fmt"
	"sort"

	"ministory/internal/services"
	"ministory/internal/session"
)

// Registry holds the handler for each pipeline stage name.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a stage name. The name must be one of the
// canonical pipeline stages.
func (r *Registry) Register(name string, handler Handler) error {
	if session.StageIndex(name) < 0 {
		return fmt.Errorf("unknown stage %q", name)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for stage %q", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("stage %q already registered", name)
	}
	r.handlers[name] = handler
	return nil
}

// Resolve returns the handler for a stage name.
func (r *Registry) Resolve(name string) (Handler, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, name, "resolve stage",
			"no handler registered", nil)
	}
	return handler, nil
}

// Names returns the registered stage names in canonical pipeline order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return session.StageIndex(names[i]) < session.StageIndex(names[j])
	})
	return names
}
