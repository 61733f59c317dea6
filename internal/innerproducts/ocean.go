package innerproducts

import (
	"fmt"

	"github.com/san-kum/qgsim/internal/params"
	"github.com/san-kum/qgsim/internal/sparse"
)

type Oceanic struct {
	p          params.OceanParams
	atmosphere *Atmospheric
}

// NewOceanic requires an ocean block named params.OceanicTemperature.
func NewOceanic(p *params.QgParams) (*Oceanic, error) {
	if p.Ocean == nil {
		return nil, fmt.Errorf("%w: ocean", ErrMissingBlock)
	}
	if p.Ocean.Name != params.OceanicTemperature {
		return nil, fmt.Errorf("%w: ocean block %q is not %q", ErrMissingBlock, p.Ocean.Name, params.OceanicTemperature)
	}
	o := p.Ocean
	if len(o.Gamma) == 0 || len(o.Kappa) != len(o.Gamma) || len(o.Coupling) != len(o.Gamma) {
		return nil, fmt.Errorf("%w: ocean coefficients", params.ErrInvalidParams)
	}
	return &Oceanic{p: params.OceanParams{
		Name:     o.Name,
		Gamma:    append([]float64(nil), o.Gamma...),
		Kappa:    append([]float64(nil), o.Kappa...),
		Coupling: append([]float64(nil), o.Coupling...),
	}}, nil
}

func (o *Oceanic) Dim() int { return len(o.p.Gamma) }

// Atmosphere returns the connected atmosphere block, or nil.
func (o *Oceanic) Atmosphere() *Atmospheric { return o.atmosphere }

func (o *Oceanic) Connected() bool { return o.atmosphere != nil }

// Contribute adds the ocean rows to b. The heat uptake terms are only
// emitted once the block is connected.
func (o *Oceanic) Contribute(b *sparse.Builder, l Layout) {
	for k, g := range o.p.Gamma {
		b.Add(-g, l.Ocean+k, 0, l.Ocean+k)
	}
	if o.atmosphere == nil {
		return
	}
	for k, kappa := range o.p.Kappa {
		b.Add(kappa, l.Ocean+k, 0, l.Atmosphere)
	}
}
