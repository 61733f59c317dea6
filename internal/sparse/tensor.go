package sparse

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrIndexOutOfRange indicates a coordinate outside [0, dim).
	ErrIndexOutOfRange = errors.New("sparse: index out of range")

	// ErrShape indicates coordinate and value arrays of inconsistent lengths.
	ErrShape = errors.New("sparse: inconsistent shape")
)

// IndexError reports the entry and axis holding an out-of-range coordinate.
type IndexError struct {
	Entry int
	Axis  int
	Index int
	Dim   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: entry %d axis %d has index %d, want [0, %d)", ErrIndexOutOfRange, e.Entry, e.Axis, e.Index, e.Dim)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// Tensor is a sparse tensor of the given order whose axes all have length dim.
type Tensor struct {
	order  int
	dim    int
	coords []int32
	data   []float64
}

// New builds a tensor from a flat coordinate array (len(data) × order,
// row-major) and a value array. Both slices are copied.
func New(order, dim int, coords []int, data []float64) (*Tensor, error) {
	if order < 1 || dim < 1 {
		return nil, fmt.Errorf("%w: order %d, dim %d", ErrShape, order, dim)
	}
	if dim > math.MaxInt32 {
		return nil, fmt.Errorf("%w: dim %d exceeds int32 coordinates", ErrShape, dim)
	}
	if len(coords) != order*len(data) {
		return nil, fmt.Errorf("%w: %d coordinates for %d values of order %d", ErrShape, len(coords), len(data), order)
	}

	t := &Tensor{
		order:  order,
		dim:    dim,
		coords: make([]int32, len(coords)),
		data:   make([]float64, len(data)),
	}
	for p, c := range coords {
		if c < 0 || c >= dim {
			return nil, &IndexError{Entry: p / order, Axis: p % order, Index: c, Dim: dim}
		}
		t.coords[p] = int32(c)
	}
	copy(t.data, data)
	return t, nil
}

// Zeros returns an empty tensor.
func Zeros(order, dim int) (*Tensor, error) {
	return New(order, dim, nil, nil)
}

func (t *Tensor) Order() int { return t.order }
func (t *Tensor) Dim() int   { return t.dim }
func (t *Tensor) NNZ() int   { return len(t.data) }

// Index returns the coordinate of entry n along axis.
func (t *Tensor) Index(n, axis int) int {
	return int(t.coords[n*t.order+axis])
}

func (t *Tensor) Value(n int) float64 {
	return t.data[n]
}

// Coords returns a copy of the flat coordinate array.
func (t *Tensor) Coords() []int {
	out := make([]int, len(t.coords))
	for p, c := range t.coords {
		out[p] = int(c)
	}
	return out
}

// Data returns a copy of the value array.
func (t *Tensor) Data() []float64 {
	out := make([]float64, len(t.data))
	copy(out, t.data)
	return out
}

// Sum returns the sum of all stored values.
func (t *Tensor) Sum() float64 {
	s := 0.0
	for _, v := range t.data {
		s += v
	}
	return s
}

// Coalesce returns a tensor with entries sorted lexicographically by
// coordinate, duplicates summed and exact zeros dropped.
func (t *Tensor) Coalesce() *Tensor {
	perm := make([]int, len(t.data))
	for n := range perm {
		perm[n] = n
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return t.less(perm[a], perm[b])
	})

	out := &Tensor{order: t.order, dim: t.dim}
	for _, n := range perm {
		last := len(out.data) - 1
		if last >= 0 && t.sameCoords(n, out, last) {
			out.data[last] += t.data[n]
			continue
		}
		out.coords = append(out.coords, t.coords[n*t.order:(n+1)*t.order]...)
		out.data = append(out.data, t.data[n])
	}
	return out.dropZeros()
}

// UpperTriangular folds the last two axes so that every entry satisfies
// index[order-2] <= index[order-1]. The contraction with identical vectors
// on both folded axes is unchanged.
func (t *Tensor) UpperTriangular() *Tensor {
	out := &Tensor{
		order:  t.order,
		dim:    t.dim,
		coords: make([]int32, len(t.coords)),
		data:   make([]float64, len(t.data)),
	}
	copy(out.coords, t.coords)
	copy(out.data, t.data)
	if t.order < 2 {
		return out
	}
	for n := range out.data {
		p := n*t.order + t.order - 2
		if out.coords[p] > out.coords[p+1] {
			out.coords[p], out.coords[p+1] = out.coords[p+1], out.coords[p]
		}
	}
	return out
}

func (t *Tensor) less(a, b int) bool {
	pa, pb := a*t.order, b*t.order
	for ax := 0; ax < t.order; ax++ {
		if t.coords[pa+ax] != t.coords[pb+ax] {
			return t.coords[pa+ax] < t.coords[pb+ax]
		}
	}
	return false
}

func (t *Tensor) sameCoords(n int, other *Tensor, m int) bool {
	pn, pm := n*t.order, m*other.order
	for ax := 0; ax < t.order; ax++ {
		if t.coords[pn+ax] != other.coords[pm+ax] {
			return false
		}
	}
	return true
}

func (t *Tensor) dropZeros() *Tensor {
	w := 0
	for n, v := range t.data {
		if v == 0 {
			continue
		}
		copy(t.coords[w*t.order:(w+1)*t.order], t.coords[n*t.order:(n+1)*t.order])
		t.data[w] = v
		w++
	}
	t.coords = t.coords[:w*t.order]
	t.data = t.data[:w]
	return t
}
