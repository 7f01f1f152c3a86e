package queue

// OrderedSet keeps unique items in insertion order, oldest first.
// Re-adding a present item keeps its original position.
// It is not safe for concurrent use; callers guard it.
type OrderedSet[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewOrderedSet creates an empty set.
func NewOrderedSet[T comparable]() *OrderedSet[T] {
	return &OrderedSet[T]{index: make(map[T]struct{})}
}

// Add inserts v at the end if absent. Returns false if v was already present.
func (s *OrderedSet[T]) Add(v T) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Remove deletes v. Returns false if v was absent.
func (s *OrderedSet[T]) Remove(v T) bool {
	if _, ok := s.index[v]; !ok {
		return false
	}
	delete(s.index, v)
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of items.
func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the items, oldest first.
func (s *OrderedSet[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Drain removes every item and returns them, oldest first.
func (s *OrderedSet[T]) Drain() []T {
	out := s.items
	s.items = nil
	s.index = make(map[T]struct{})
	return out
}
