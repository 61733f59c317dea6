// Package sim drives a system along a trajectory: a transient phase that
// brings the state onto the attractor, then a sampled phase whose states are
// recorded every WriteSteps steps.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/qgsim/internal/dynamo"
)

type Phase int

const (
	PhaseTransient Phase = iota
	PhaseAttractor
)

func (p Phase) String() string {
	if p == PhaseTransient {
		return "transient"
	}
	return "attractor"
}

// Progress is reported every WriteSteps steps of either phase.
type Progress struct {
	Phase    Phase
	Time     float64
	Fraction float64
}

type ProgressFunc func(Progress)

// inPlaceIntegrator is satisfied by integrators that can step without
// allocating a new state.
type inPlaceIntegrator interface {
	StepInto(dst dynamo.State, dyn dynamo.System, x dynamo.State, t, dt float64)
}

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	observers  []dynamo.Observer
	progress   ProgressFunc
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) OnProgress(fn ProgressFunc)    { s.progress = fn }

// Run integrates from x0. Recorded times start at 0 at the end of the
// transient phase.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, &dynamo.DimensionError{Want: s.dyn.StateDim(), Got: len(x0)}
	}

	transient := int(math.Round(cfg.TransientTime / cfg.Dt))
	samples := int(math.Round(cfg.IntegrationTime / cfg.Dt))
	result := &dynamo.Result{
		States: make([]dynamo.State, 0, samples/cfg.WriteSteps+1),
		Times:  make([]float64, 0, samples/cfg.WriteSteps+1),
	}

	x := x0.Clone()
	t := 0.0

	for i := 0; i < transient; i++ {
		if err := s.advance(ctx, x, t, cfg, i, transient, PhaseTransient); err != nil {
			return result, err
		}
		t += cfg.Dt
	}

	t = 0.0
	s.record(result, x, t)
	for i := 0; i < samples; i++ {
		if err := s.advance(ctx, x, t, cfg, i, samples, PhaseAttractor); err != nil {
			return result, err
		}
		t += cfg.Dt
		result.StepsTaken++

		if (i+1)%cfg.WriteSteps == 0 {
			s.record(result, x, t)
		}
	}

	return result, nil
}

func (s *Simulator) advance(ctx context.Context, x dynamo.State, t float64, cfg dynamo.Config, i, total int, phase Phase) error {
	if i%cfg.WriteSteps == 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if s.progress != nil {
			s.progress(Progress{Phase: phase, Time: t, Fraction: float64(i) / float64(total)})
		}
	}

	if ip, ok := s.integrator.(inPlaceIntegrator); ok {
		ip.StepInto(x, s.dyn, x, t, cfg.Dt)
	} else {
		copy(x, s.integrator.Step(s.dyn, x, t, cfg.Dt))
	}

	if cfg.ValidateState && !x.IsValid() {
		return &dynamo.SimulationError{
			Step:    i,
			Time:    t + cfg.Dt,
			State:   x.Clone(),
			Wrapped: dynamo.SimError{Time: t + cfg.Dt, Step: i, Message: phase.String() + " state diverged (NaN/Inf)"},
		}
	}
	return nil
}

func (s *Simulator) record(result *dynamo.Result, x dynamo.State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.TransientTime < 0 || cfg.IntegrationTime < 0 {
		return fmt.Errorf("integration times must not be negative")
	}
	if cfg.WriteSteps <= 0 {
		return fmt.Errorf("write steps must be positive, got %d", cfg.WriteSteps)
	}
	return nil
}

// RandomInitialState draws n uniform values in [0, scale).
func RandomInitialState(n int, scale float64, seed int64) dynamo.State {
	rng := rand.New(rand.NewSource(seed))
	x := make(dynamo.State, n)
	for i := range x {
		x[i] = rng.Float64() * scale
	}
	return x
}
