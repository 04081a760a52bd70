package ecs

// Each2 visits entities that have both component A and B in ascending ID
// order, so per-tick systems built on it are reproducible.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	small := sa.IDs()
	if sb.Len() < sa.Len() {
		small = sb.IDs()
	}
	for _, id := range small {
		a, okA := sa.data[id]
		b, okB := sb.data[id]
		if okA && okB {
			fn(id, a, b)
		}
	}
}
