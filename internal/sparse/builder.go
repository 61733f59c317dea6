package sparse

import "fmt"

// Builder accumulates entries for a tensor. Coordinates are checked as they
// are added; the first invalid entry is reported by Build.
type Builder struct {
	order  int
	dim    int
	coords []int
	data   []float64
	err    error
}

func NewBuilder(order, dim int) *Builder {
	return &Builder{order: order, dim: dim}
}

func (b *Builder) Dim() int { return b.dim }

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return len(b.data) }

// Add appends value v at the given coordinate. Zero values are skipped.
// Adding the same coordinate twice stores two entries.
func (b *Builder) Add(v float64, idx ...int) {
	if b.err != nil {
		return
	}
	if len(idx) != b.order {
		b.err = fmt.Errorf("%w: entry %d has %d indices, want %d", ErrShape, len(b.data), len(idx), b.order)
		return
	}
	for ax, i := range idx {
		if i < 0 || i >= b.dim {
			b.err = &IndexError{Entry: len(b.data), Axis: ax, Index: i, Dim: b.dim}
			return
		}
	}
	if v == 0 {
		return
	}
	b.coords = append(b.coords, idx...)
	b.data = append(b.data, v)
}

// Err returns the first error recorded by Add.
func (b *Builder) Err() error { return b.err }

func (b *Builder) Build() (*Tensor, error) {
	if b.err != nil {
		return nil, b.err
	}
	return New(b.order, b.dim, b.coords, b.data)
}
