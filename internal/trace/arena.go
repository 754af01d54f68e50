package trace

import (
	"fmt"

	"fortio.org/safecast"
)

// Pos is a 1-based position in an Arena. NoPos never resolves.
type Pos uint32

// NoPos is the zero position.
const NoPos Pos = 0

// Arena is a flat append-only store that owns every record of one trace.
type Arena[T any] struct {
	data []T
}

// NewArena returns an arena whose backing slice has room for capHint values.
func NewArena[T any](capHint int) *Arena[T] {
	return &Arena[T]{data: make([]T, 0, max(capHint, 0))}
}

// Allocate appends value and returns its position.
// Values must not be allocated once pointers from Get have been handed out.
func (a *Arena[T]) Allocate(value T) Pos {
	a.data = append(a.data, value)
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	return Pos(n)
}

// Get resolves p. It returns nil for NoPos and for positions past the end.
func (a *Arena[T]) Get(p Pos) *T {
	if a == nil || p == NoPos || int(p) > len(a.data) {
		return nil
	}
	return &a.data[p-1]
}

// Slice exposes the backing store. READONLY.
func (a *Arena[T]) Slice() []T {
	if a == nil {
		return nil
	}
	return a.data
}

// Len returns the number of values.
func (a *Arena[T]) Len() int {
	if a == nil {
		return 0
	}
	return len(a.data)
}

// PosOf converts a 0-based slice index into a position.
func PosOf(index int) Pos {
	n, err := safecast.Conv[uint32](index + 1)
	if err != nil {
		panic(fmt.Errorf("arena index overflow: %w", err))
	}
	return Pos(n)
}
