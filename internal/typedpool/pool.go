package typedpool

import "sync"

// Pool is a typed sync.Pool.
type Pool[T any] struct {
	pool sync.Pool
}

func New[T any](newValue func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return newValue() },
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// Slices hands out reusable slices of E.
type Slices[E any] struct {
	pool *Pool[*[]E]
}

func NewSlices[E any]() *Slices[E] {
	return &Slices[E]{
		pool: New(func() *[]E { return new([]E) }),
	}
}

// Get returns a slice of length n. The content of the slice is
// the zero value of E.
func (s *Slices[E]) Get(n int) *[]E {
	buf := s.pool.Get()

	if cap(*buf) < n {
		*buf = make([]E, n)
	}

	*buf = (*buf)[:n]
	return buf
}

// Put clears buf and returns it to the pool. buf must not be used afterwards.
func (s *Slices[E]) Put(buf *[]E) {
	clear(*buf)
	*buf = (*buf)[:0]
	s.pool.Put(buf)
}
