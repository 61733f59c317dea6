// Package dynamo provides core primitives shared by the tendency engine, the
// integrators and the trajectory driver.
//
// The package defines the fundamental interfaces and types for numerical
// integration of autonomous ordinary differential equations (ODEs):
//
//   - [State]: vector representing the model state (one entry per mode)
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [InPlaceSystem]: systems able to write tendencies into caller buffers
//   - [Integrator]: numerical stepping interface
//   - [StatePool]: reusable scratch vectors for hot loops
//
// # Example
//
//	tend, _ := tendency.Create(params.DefaultParams())
//	integ := integrators.NewRK4()
//	s := sim.New(tend.Evaluator, integ)
//	result, _ := s.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// States are plain slices and are NOT safe for concurrent mutation. A
// [StatePool] may be shared between goroutines.
package dynamo
