// Package tensor assembles the coefficient blocks into the sparse tendency
// tensor T and its Jacobian tensor J over the augmented state xx = [1, x].
//
// T is stored upper triangular in its last two axes with duplicates summed.
// J holds, for every entry (i, j, k, v) of T, the entries (i, j, k, v) and
// (i, k, j, v), so that contracting J's third axis with xx yields ∂y/∂xx.
package tensor

import (
	"errors"
	"fmt"

	"github.com/san-kum/qgsim/internal/innerproducts"
	"github.com/san-kum/qgsim/internal/sparse"
)

var (
	ErrNoAtmosphere = errors.New("tensor: atmospheric block required")
	ErrNotConnected = errors.New("tensor: ocean block is not connected to the atmosphere")
)

type QgsTensor struct {
	Atmosphere *innerproducts.Atmospheric
	Ocean      *innerproducts.Oceanic
	Layout     innerproducts.Layout
	Ndim       int

	Tensor         *sparse.Tensor
	JacobianTensor *sparse.Tensor
}

// New builds the tensors for an atmosphere and an optional ocean. A non-nil
// ocean must already be connected to aip.
func New(aip *innerproducts.Atmospheric, oip *innerproducts.Oceanic) (*QgsTensor, error) {
	if aip == nil {
		return nil, ErrNoAtmosphere
	}
	if oip != nil && oip.Atmosphere() != aip {
		return nil, ErrNotConnected
	}

	q := &QgsTensor{
		Atmosphere: aip,
		Ocean:      oip,
		Layout:     innerproducts.Layout{Atmosphere: 1, Ocean: 1 + aip.Dim()},
		Ndim:       aip.Dim(),
	}
	if oip != nil {
		q.Ndim += oip.Dim()
	}

	b := sparse.NewBuilder(3, q.Ndim+1)
	aip.Contribute(b, q.Layout)
	if oip != nil {
		oip.Contribute(b, q.Layout)
	}
	raw, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("tensor: assembling tendencies: %w", err)
	}

	q.Tensor = raw.UpperTriangular().Coalesce()
	q.JacobianTensor, err = Jacobian(q.Tensor)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Jacobian returns the tensor J with J·xx = ∂(T·xx·xx)/∂xx.
func Jacobian(t *sparse.Tensor) (*sparse.Tensor, error) {
	if t.Order() != 3 {
		return nil, fmt.Errorf("%w: jacobian needs an order-3 tensor, got %d", sparse.ErrShape, t.Order())
	}
	b := sparse.NewBuilder(3, t.Dim())
	for n := 0; n < t.NNZ(); n++ {
		i, j, k, v := t.Index(n, 0), t.Index(n, 1), t.Index(n, 2), t.Value(n)
		b.Add(v, i, j, k)
		b.Add(v, i, k, j)
	}
	jt, err := b.Build()
	if err != nil {
		return nil, err
	}
	return jt.Coalesce(), nil
}
