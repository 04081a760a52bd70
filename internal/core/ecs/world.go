package ecs

// World is the top-level ECS container: the entity pool plus the registry of
// component stores. Destruction is immediate so a removed entity disappears
// from every store before the caller's next lookup.
type World struct {
	pool     *EntityPool
	registry *Registry
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Destroy removes the entity from every component store and retires its ID.
// Returns false for stale or unknown IDs.
func (w *World) Destroy(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	w.registry.RemoveAll(id)
	return w.pool.Destroy(id)
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.pool.Len() }
