package params

import "sort"

var Presets = map[string]*QgParams{
	"coupled": DefaultParams(),
	"lorenz84": {
		Atmosphere:  DefaultAtmosphere(),
		Integration: DefaultIntegration(),
	},
	"lorenz84-summer": {
		Atmosphere:  &AtmosphereParams{A: DefaultA, B: DefaultB, F: 6.0, G: 1.0},
		Integration: DefaultIntegration(),
	},
	"coupled-strong": {
		Atmosphere: DefaultAtmosphere(),
		Ocean: &OceanParams{
			Name:     OceanicTemperature,
			Gamma:    []float64{0.01, 0.02, 0.04},
			Kappa:    []float64{0.02, 0.01, 0.005},
			Coupling: []float64{2.0, 1.0, 0.5},
		},
		Integration: DefaultIntegration(),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *QgParams {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
