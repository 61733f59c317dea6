package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is an autonomous or non-autonomous ODE dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// InPlaceSystem writes its tendencies into dst instead of allocating.
type InPlaceSystem interface {
	System
	DeriveInto(dst, x State, t float64)
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type Observer interface {
	OnStep(x State, t float64)
}

// Config controls a trajectory run: a transient phase that is discarded,
// followed by a sampled phase on the attractor.
type Config struct {
	Dt              float64
	TransientTime   float64
	IntegrationTime float64
	WriteSteps      int
	Seed            int64
	ValidateState   bool
}

type Result struct {
	States     []State
	Times      []float64
	StepsTaken int
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
