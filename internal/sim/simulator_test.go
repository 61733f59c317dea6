package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/qgsim/internal/dynamo"
	"github.com/san-kum/qgsim/internal/integrators"
	"github.com/san-kum/qgsim/internal/params"
	"github.com/san-kum/qgsim/internal/tendency"
)

type decay struct{}

func (d *decay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (d *decay) StateDim() int { return 1 }

type blowup struct{}

func (b *blowup) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{math.Inf(1)}
}

func (b *blowup) StateDim() int { return 1 }

type countingObserver struct{ calls int }

func (c *countingObserver) OnStep(x dynamo.State, t float64) { c.calls++ }

func testConfig() dynamo.Config {
	return dynamo.Config{
		Dt:              0.1,
		TransientTime:   1.0,
		IntegrationTime: 1.0,
		WriteSteps:      2,
		ValidateState:   true,
	}
}

func TestSimulatorRun(t *testing.T) {
	s := New(&decay{}, integrators.NewRK4())
	obs := &countingObserver{}
	s.AddObserver(obs)

	result, err := s.Run(context.Background(), dynamo.State{1.0}, testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// 10 attractor steps sampled every 2 steps plus the initial sample.
	if len(result.States) != 6 {
		t.Errorf("expected 6 states, got %d", len(result.States))
	}
	if obs.calls != len(result.States) {
		t.Errorf("observer saw %d samples, want %d", obs.calls, len(result.States))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if result.Times[0] != 0 || math.Abs(result.Times[5]-1.0) > 1e-12 {
		t.Errorf("unexpected sample times: %v", result.Times)
	}

	// The first sample is taken after the transient phase.
	if math.Abs(result.States[0][0]-math.Exp(-1)) > 1e-6 {
		t.Errorf("expected state after transient ~%.6f, got %.6f", math.Exp(-1), result.States[0][0])
	}
	if math.Abs(result.States[5][0]-math.Exp(-2)) > 1e-6 {
		t.Errorf("expected final state ~%.6f, got %.6f", math.Exp(-2), result.States[5][0])
	}
}

func TestSimulatorProgress(t *testing.T) {
	s := New(&decay{}, integrators.NewEuler())

	var phases []Phase
	s.OnProgress(func(p Progress) {
		if p.Fraction < 0 || p.Fraction >= 1 {
			t.Errorf("fraction out of range: %f", p.Fraction)
		}
		phases = append(phases, p.Phase)
	})

	if _, err := s.Run(context.Background(), dynamo.State{1.0}, testConfig()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(phases) != 10 {
		t.Fatalf("expected 10 progress reports, got %d", len(phases))
	}
	if phases[0] != PhaseTransient || phases[9] != PhaseAttractor {
		t.Errorf("unexpected phase order: %v", phases)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(&decay{}, integrators.NewRK4())

	tests := []struct {
		name   string
		mutate func(c *dynamo.Config)
	}{
		{"zero dt", func(c *dynamo.Config) { c.Dt = 0 }},
		{"negative dt", func(c *dynamo.Config) { c.Dt = -0.1 }},
		{"negative transient", func(c *dynamo.Config) { c.TransientTime = -1 }},
		{"zero write steps", func(c *dynamo.Config) { c.WriteSteps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := s.Run(context.Background(), dynamo.State{1.0}, cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	s := New(&decay{}, integrators.NewRK4())
	_, err := s.Run(context.Background(), dynamo.State{1.0, 2.0}, testConfig())
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSimulatorDiverges(t *testing.T) {
	s := New(&blowup{}, integrators.NewEuler())
	_, err := s.Run(context.Background(), dynamo.State{1.0}, testConfig())

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if simErr.Step != 0 {
		t.Errorf("expected divergence at step 0, got %d", simErr.Step)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(&decay{}, integrators.NewRK4())
	_, err := s.Run(ctx, dynamo.State{1.0}, testConfig())
	if !errors.Is(err, dynamo.ErrContextCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestSimulatorCoupledModel(t *testing.T) {
	p := params.DefaultParams()
	tend, err := tendency.Create(p)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cfg := p.SimConfig()
	cfg.TransientTime = 50
	cfg.IntegrationTime = 20

	x0 := RandomInitialState(tend.Ndim(), p.Integration.InitScale, p.Integration.Seed)
	result, err := New(tend, integrators.NewRK4()).Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := int(math.Round(cfg.IntegrationTime/cfg.Dt))/cfg.WriteSteps + 1
	if len(result.States) != want {
		t.Errorf("expected %d samples, got %d", want, len(result.States))
	}
	for i, x := range result.States {
		if len(x) != tend.Ndim() || !x.IsValid() {
			t.Errorf("sample %d invalid: %v", i, x)
		}
	}
}

func TestRandomInitialState(t *testing.T) {
	a := RandomInitialState(5, 0.01, 21217)
	b := RandomInitialState(5, 0.01, 21217)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same seed should give the same state")
		}
		if a[i] < 0 || a[i] >= 0.01 {
			t.Errorf("value %f outside [0, 0.01)", a[i])
		}
	}
}
