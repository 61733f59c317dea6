package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/qgsim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble integrates independent trajectories from seeded random initial
// conditions. The system is shared between runs; each run gets its own
// integrator from newIntegrator.
type Ensemble struct {
	dyn           dynamo.System
	newIntegrator func() dynamo.Integrator
	numRuns       int
	seedStart     int64
	initScale     float64
}

func NewEnsemble(dyn dynamo.System, newIntegrator func() dynamo.Integrator, numRuns int, seedStart int64, initScale float64) *Ensemble {
	return &Ensemble{
		dyn:           dyn,
		newIntegrator: newIntegrator,
		numRuns:       numRuns,
		seedStart:     seedStart,
		initScale:     initScale,
	}
}

func (e *Ensemble) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)
			x0 := RandomInitialState(e.dyn.StateDim(), e.initScale, cfgCopy.Seed)

			res, err := New(e.dyn, e.newIntegrator()).Run(ctx, x0, cfgCopy)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
