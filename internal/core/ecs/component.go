package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a typed component store that iterates in insertion order.
// Iteration order is part of the simulation's determinism: the first
// obstacle registered is the first one a mover collides with.
type Store[T any] struct {
	ids   []EntityID
	items []*T
	index map[EntityID]int
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		ids:   make([]EntityID, 0, 256),
		items: make([]*T, 0, 256),
		index: make(map[EntityID]int, 256),
	}
}

// Set adds or replaces the component for id. Replacing keeps the original slot.
func (s *Store[T]) Set(id EntityID, c *T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = c
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.items = append(s.items, c)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

func (s *Store[T]) Remove(id EntityID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	copy(s.ids[i:], s.ids[i+1:])
	copy(s.items[i:], s.items[i+1:])
	s.ids = s.ids[:len(s.ids)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the stored IDs in iteration order. Use it when the
// loop body may add or remove components of this store.
func (s *Store[T]) IDs() []EntityID {
	out := make([]EntityID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Each visits every component in insertion order. fn must not add to or
// remove from s.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i, id := range s.ids {
		fn(id, s.items[i])
	}
}
