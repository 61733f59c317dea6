package tendency

import (
	"fmt"

	"github.com/san-kum/qgsim/internal/dynamo"
	"github.com/san-kum/qgsim/internal/sparse"
	"gonum.org/v1/gonum/mat"
)

// Func is the tendency signature expected by integrators.
type Func func(t float64, x []float64) []float64

// JacobianFunc is the linearized tendency signature.
type JacobianFunc func(t float64, x []float64) *mat.Dense

// Evaluator owns shared, read-only references to the tendency tensor and
// its Jacobian tensor for an ndim-dimensional state.
type Evaluator struct {
	ndim     int
	tensor   *sparse.Tensor
	jacobian *sparse.Tensor

	vec *dynamo.StatePool // ndim+1
	mat *dynamo.StatePool // (ndim+1)²
}

// NewEvaluator binds t and j. Both must be order-3 tensors with axes of
// length ndim+1.
func NewEvaluator(ndim int, t, j *sparse.Tensor) (*Evaluator, error) {
	if ndim < 1 {
		return nil, fmt.Errorf("%w: ndim must be positive, got %d", dynamo.ErrDimensionMismatch, ndim)
	}
	for _, b := range []struct {
		name string
		tt   *sparse.Tensor
	}{{"tendency", t}, {"jacobian", j}} {
		name, tt := b.name, b.tt
		if tt == nil {
			return nil, fmt.Errorf("%w: %s tensor is nil", sparse.ErrShape, name)
		}
		if tt.Order() != 3 {
			return nil, fmt.Errorf("%w: %s tensor has order %d, want 3", sparse.ErrShape, name, tt.Order())
		}
		if tt.Dim() != ndim+1 {
			return nil, fmt.Errorf("%w: %s tensor has dim %d, want %d", dynamo.ErrDimensionMismatch, name, tt.Dim(), ndim+1)
		}
	}

	n1 := ndim + 1
	return &Evaluator{
		ndim:     ndim,
		tensor:   t,
		jacobian: j,
		vec:      dynamo.NewStatePool(n1),
		mat:      dynamo.NewStatePool(n1 * n1),
	}, nil
}

func (e *Evaluator) Ndim() int { return e.ndim }

func (e *Evaluator) Tensor() *sparse.Tensor { return e.tensor }

func (e *Evaluator) JacobianTensor() *sparse.Tensor { return e.jacobian }

// F returns the tendency at x. It panics if len(x) != Ndim().
func (e *Evaluator) F(t float64, x []float64) []float64 {
	dst := make([]float64, e.ndim)
	e.FInto(dst, t, x)
	return dst
}

// FInto writes the tendency at x into dst without allocating.
func (e *Evaluator) FInto(dst []float64, _ float64, x []float64) {
	e.checkLen(x)
	e.checkLen(dst)

	xx := e.augment(x)
	y := e.vec.Get()
	sparse.Mul3(*y, e.tensor, *xx, *xx)
	copy(dst, (*y)[1:])

	e.vec.Put(y)
	e.vec.Put(xx)
}

// Df returns the Jacobian ∂f/∂x at x as an ndim×ndim matrix.
func (e *Evaluator) Df(t float64, x []float64) *mat.Dense {
	dst := mat.NewDense(e.ndim, e.ndim, nil)
	e.DfInto(dst, t, x)
	return dst
}

// DfInto writes the Jacobian at x into dst, which must be ndim×ndim.
func (e *Evaluator) DfInto(dst *mat.Dense, _ float64, x []float64) {
	e.checkLen(x)
	if r, c := dst.Dims(); r != e.ndim || c != e.ndim {
		panic(fmt.Errorf("%w: jacobian destination is %d×%d, want %d×%d", dynamo.ErrDimensionMismatch, r, c, e.ndim, e.ndim))
	}

	n1 := e.ndim + 1
	xx := e.augment(x)
	full := e.mat.Get()
	sparse.Mul2(*full, e.jacobian, *xx)
	for i := 1; i < n1; i++ {
		dst.SetRow(i-1, (*full)[i*n1+1:(i+1)*n1])
	}

	e.mat.Put(full)
	e.vec.Put(xx)
}

// Funcs returns F and Df as plain function values.
func (e *Evaluator) Funcs() (Func, JacobianFunc) {
	return e.F, e.Df
}

// Derive implements dynamo.System.
func (e *Evaluator) Derive(x dynamo.State, t float64) dynamo.State {
	return e.F(t, x)
}

// DeriveInto implements dynamo.InPlaceSystem.
func (e *Evaluator) DeriveInto(dst, x dynamo.State, t float64) {
	e.FInto(dst, t, x)
}

func (e *Evaluator) StateDim() int { return e.ndim }

func (e *Evaluator) augment(x []float64) *dynamo.State {
	xx := e.vec.Get()
	(*xx)[0] = 1
	copy((*xx)[1:], x)
	return xx
}

func (e *Evaluator) checkLen(x []float64) {
	if len(x) != e.ndim {
		panic(&dynamo.DimensionError{Want: e.ndim, Got: len(x)})
	}
}
