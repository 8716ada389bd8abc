package set

// Set is a set of comparable values. The zero value is not usable, create
// a set using make or a composite literal.
type Set[T comparable] map[T]struct{}

// Insert adds value and reports whether it was not yet part of the set.
func (s Set[T]) Insert(value T) bool {
	if _, exists := s[value]; exists {
		return false
	}

	s[value] = struct{}{}
	return true
}

func (s Set[T]) Remove(value T) {
	delete(s, value)
}

func (s Set[T]) Has(value T) bool {
	_, exists := s[value]
	return exists
}

func (s Set[T]) Len() int {
	return len(s)
}
