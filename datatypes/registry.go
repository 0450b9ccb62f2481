package datatypes

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps data type ids to their implementations. One is built at
// startup and handed to everything that needs to resolve a type.
type Registry struct {
	mu    sync.RWMutex
	types map[string]DataType
	order []string
}

// NewRegistry returns a registry holding every built-in type
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]DataType)}
	for _, dt := range builtinPrimitives() {
		r.mustRegister(dt)
	}
	r.mustRegister(stringUTF8{})
	return r
}

func (r *Registry) mustRegister(dt DataType) {
	if err := r.Register(dt); err != nil {
		panic(err)
	}
}

// Register adds a plugin type. Ids are fixed for the lifetime of the registry.
func (r *Registry) Register(dt DataType) error {
	if dt == nil || dt.ID() == "" {
		return fmt.Errorf("register data type: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[dt.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDataType, dt.ID())
	}
	r.types[dt.ID()] = dt
	r.order = append(r.order, dt.ID())
	return nil
}

func (r *Registry) Get(id string) (DataType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dt, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, id)
	}
	return dt, nil
}

func (r *Registry) MustGet(id string) DataType {
	dt, err := r.Get(id)
	if err != nil {
		panic(err)
	}
	return dt
}

// IDs lists registered ids in registration order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedIDs lists registered ids alphabetically
func (r *Registry) SortedIDs() []string {
	ids := r.IDs()
	sort.Strings(ids)
	return ids
}
