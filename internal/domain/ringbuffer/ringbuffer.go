// Package ringbuffer provides a fixed-capacity FIFO window that keeps only
// the most recent pushes.
package ringbuffer

import (
	"errors"
	"fmt"
	"iter"
)

// ErrInvalidCapacity is returned when a buffer is constructed with capacity < 1.
var ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

// Buffer holds at most Cap() samples. It is not safe for concurrent use; the
// owner serializes access.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest sample
	size  int
}

// New creates an empty buffer with the given capacity.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Buffer[T]{items: make([]T, capacity)}, nil
}

// MustNew is New for capacities known at compile time; it panics on misuse.
func MustNew[T any](capacity int) *Buffer[T] {
	b, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return b
}

// Push appends v, evicting the oldest sample when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = v
		b.size++
		return
	}
	b.items[b.head] = v
	b.head = (b.head + 1) % capacity
}

// Len returns the number of retained samples.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Full reports whether the next Push evicts.
func (b *Buffer[T]) Full() bool { return b.size == len(b.items) }

// Slice returns a copy of the retained samples, oldest first.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, 0, b.size)
	for v := range b.All() {
		out = append(out, v)
	}
	return out
}

// All yields the retained samples oldest first. The sequence may be ranged
// over repeatedly; it reflects the buffer at iteration time.
func (b *Buffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		capacity := len(b.items)
		for i := 0; i < b.size; i++ {
			if !yield(b.items[(b.head+i)%capacity]) {
				return
			}
		}
	}
}

// Reset drops every sample and keeps the capacity.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head, b.size = 0, 0
}
