// Package tendency binds assembled sparse tensors into the two functions an
// integrator needs: the tendency f(t, x) and its Jacobian Df(t, x).
//
// Both functions augment the state to xx = [1, x...] so that constant,
// linear and quadratic terms of the model share one contraction:
//
//	f(t, x)  = (T·xx·xx)[1:]
//	Df(t, x) = (J·xx)[1:, 1:]
//
// The model is autonomous; t is accepted for integrator compatibility and
// ignored.
//
// # Example
//
//	tend, err := tendency.Create(params.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	dx := tend.F(0, x)
//	jac := tend.Df(0, x)
//
// # Thread Safety
//
// An [Evaluator] holds only immutable tensors. Scratch vectors come from a
// pool and belong to a single call, so F and Df may be called concurrently.
package tendency
