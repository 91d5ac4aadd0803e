package ecs

// Each2 iterates, in sa's order, over entities that have both component A and B.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	for i, id := range sa.ids {
		if b, ok := sb.Get(id); ok {
			fn(id, sa.items[i], b)
		}
	}
}
