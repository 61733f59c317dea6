package innerproducts

import (
	"errors"
	"fmt"

	"github.com/san-kum/qgsim/internal/params"
	"github.com/san-kum/qgsim/internal/sparse"
)

var (
	ErrMissingBlock     = errors.New("innerproducts: block not configured")
	ErrAlreadyConnected = errors.New("innerproducts: block already connected to another partner")
)

// Layout holds the augmented index of the first variable of each block.
type Layout struct {
	Atmosphere int
	Ocean      int
}

type Atmospheric struct {
	p     params.AtmosphereParams
	ocean *Oceanic
}

func NewAtmospheric(p *params.QgParams) (*Atmospheric, error) {
	if p.Atmosphere == nil {
		return nil, fmt.Errorf("%w: atmosphere", ErrMissingBlock)
	}
	return &Atmospheric{p: *p.Atmosphere}, nil
}

func (a *Atmospheric) Dim() int { return 3 }

func (a *Atmospheric) Params() params.AtmosphereParams { return a.p }

// Ocean returns the connected ocean block, or nil.
func (a *Atmospheric) Ocean() *Oceanic { return a.ocean }

// ConnectToOcean binds the atmosphere and ocean blocks to each other so that
// both emit their cross terms. Connecting the same pair again is a no-op.
func (a *Atmospheric) ConnectToOcean(o *Oceanic) error {
	if o == nil {
		return fmt.Errorf("%w: ocean", ErrMissingBlock)
	}
	if a.ocean == o && o.atmosphere == a {
		return nil
	}
	if a.ocean != nil || o.atmosphere != nil {
		return ErrAlreadyConnected
	}
	a.ocean = o
	o.atmosphere = a
	return nil
}

// Contribute adds the atmospheric rows to b.
func (a *Atmospheric) Contribute(b *sparse.Builder, l Layout) {
	x, y, z := l.Atmosphere, l.Atmosphere+1, l.Atmosphere+2
	p := a.p

	b.Add(p.A*p.F, x, 0, 0)
	b.Add(-p.A, x, 0, x)
	b.Add(-1, x, y, y)
	b.Add(-1, x, z, z)

	b.Add(p.G, y, 0, 0)
	b.Add(-1, y, 0, y)
	b.Add(1, y, x, y)
	b.Add(-p.B, y, x, z)

	b.Add(-1, z, 0, z)
	b.Add(p.B, z, x, y)
	b.Add(1, z, x, z)

	if a.ocean == nil {
		return
	}
	for k, c := range a.ocean.p.Coupling {
		b.Add(p.A*c, x, 0, l.Ocean+k)
	}
}
