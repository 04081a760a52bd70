package ecs

type namedStore struct {
	name  string
	store Removable
}

// Registry holds the named component stores of a world so an entity can be
// stripped from all of them at once, and so diagnostics can say where an
// entity still has data.
type Registry struct {
	stores []namedStore
}

func NewRegistry() *Registry {
	return &Registry{stores: make([]namedStore, 0, 8)}
}

// Register adds a store under a diagnostic name.
func (r *Registry) Register(name string, store Removable) {
	r.stores = append(r.stores, namedStore{name: name, store: store})
}

// RemoveAll clears the entity from every registered store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.store.Remove(id)
	}
}

// Holding names the stores that hold a component for id, in registration order.
func (r *Registry) Holding(id EntityID) []string {
	var out []string
	for _, s := range r.stores {
		if s.store.Has(id) {
			out = append(out, s.name)
		}
	}
	return out
}
