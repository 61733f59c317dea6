package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/qgsim/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// Get returns a fresh integrator by name.
func Get(name string) (dynamo.Integrator, error) {
	fn, err := Factory(name)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

// Factory returns the constructor registered under name, for callers that
// need one integrator per trajectory.
func Factory(name string) (func() dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn, nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
