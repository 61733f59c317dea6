package integrators

import "github.com/san-kum/qgsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme. Stage vectors are
// kept between steps; an RK4 value must not be shared between goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	result := make(dynamo.State, len(x))
	r.StepInto(result, dyn, x, t, dt)
	return result
}

// StepInto advances x by dt and writes the new state into dst. dst may alias x.
func (r *RK4) StepInto(dst dynamo.State, dyn dynamo.System, x dynamo.State, t, dt float64) {
	n := len(x)
	r.ensureScratch(n)

	derive(r.k1, dyn, x, t)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	derive(r.k2, dyn, r.scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	derive(r.k3, dyn, r.scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	derive(r.k4, dyn, r.scratch, t+dt)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		dst[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}

// derive uses the allocation-free path when the system offers one.
func derive(dst dynamo.State, dyn dynamo.System, x dynamo.State, t float64) {
	if ip, ok := dyn.(dynamo.InPlaceSystem); ok {
		ip.DeriveInto(dst, x, t)
		return
	}
	copy(dst, dyn.Derive(x, t))
}
