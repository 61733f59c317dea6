// Package params holds the parameter set that fully specifies a model
// configuration: which coefficient blocks are present, their physical
// coefficients, and the integration settings of the driver.
package params

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/qgsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

// OceanicTemperature is the only ocean block name the tensor builder couples
// to the atmosphere.
const OceanicTemperature = "Oceanic Temperature"

const (
	DefaultA = 0.25
	DefaultB = 4.0
	DefaultF = 8.0
	DefaultG = 1.0

	DefaultDt              = 0.05
	DefaultTransientTime   = 1000.0
	DefaultIntegrationTime = 500.0
	DefaultWriteSteps      = 20
	DefaultSeed            = 21217
	DefaultInitScale       = 0.01
)

var ErrInvalidParams = errors.New("params: invalid parameters")

type QgParams struct {
	Atmosphere  *AtmosphereParams `yaml:"atmosphere,omitempty"`
	Ocean       *OceanParams      `yaml:"ocean,omitempty"`
	Integration IntegrationParams `yaml:"integration"`
}

// AtmosphereParams are the coefficients of the Lorenz-84 general circulation
// block.
type AtmosphereParams struct {
	A float64 `yaml:"a"` // damping of the westerly wind
	B float64 `yaml:"b"` // displacement of eddies by the westerly
	F float64 `yaml:"F"` // symmetric thermal forcing
	G float64 `yaml:"G"` // asymmetric thermal forcing
}

// OceanParams describe a slab ocean with one temperature anomaly per mode.
// All three slices hold one value per mode.
type OceanParams struct {
	Name     string    `yaml:"name"`
	Gamma    []float64 `yaml:"gamma"`    // relaxation rate of each mode
	Kappa    []float64 `yaml:"kappa"`    // heat uptake from the westerly wind
	Coupling []float64 `yaml:"coupling"` // feedback of each mode on the forcing F
}

type IntegrationParams struct {
	Dt              float64 `yaml:"dt"`
	TransientTime   float64 `yaml:"transient_time"`
	IntegrationTime float64 `yaml:"integration_time"`
	WriteSteps      int     `yaml:"write_steps"`
	Seed            int64   `yaml:"seed"`
	InitScale       float64 `yaml:"init_scale"`
}

func DefaultAtmosphere() *AtmosphereParams {
	return &AtmosphereParams{A: DefaultA, B: DefaultB, F: DefaultF, G: DefaultG}
}

func DefaultOcean() *OceanParams {
	return &OceanParams{
		Name:     OceanicTemperature,
		Gamma:    []float64{0.01, 0.02},
		Kappa:    []float64{0.005, 0.0025},
		Coupling: []float64{1.0, 0.5},
	}
}

func DefaultIntegration() IntegrationParams {
	return IntegrationParams{
		Dt:              DefaultDt,
		TransientTime:   DefaultTransientTime,
		IntegrationTime: DefaultIntegrationTime,
		WriteSteps:      DefaultWriteSteps,
		Seed:            DefaultSeed,
		InitScale:       DefaultInitScale,
	}
}

// DefaultParams returns the coupled atmosphere-ocean configuration.
func DefaultParams() *QgParams {
	return &QgParams{
		Atmosphere:  DefaultAtmosphere(),
		Ocean:       DefaultOcean(),
		Integration: DefaultIntegration(),
	}
}

func Load(path string) (*QgParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the default integration settings. Blocks absent
// from the document stay absent.
func Parse(data []byte) (*QgParams, error) {
	p := &QgParams{Integration: DefaultIntegration()}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func Save(path string, p *QgParams) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NumAtmosphericModes is 3 when the atmosphere block is configured.
func (p *QgParams) NumAtmosphericModes() int {
	if p.Atmosphere == nil {
		return 0
	}
	return 3
}

func (p *QgParams) NumOceanicModes() int {
	if p.Ocean == nil {
		return 0
	}
	return len(p.Ocean.Gamma)
}

// Ndim is the number of state variables of the configuration.
func (p *QgParams) Ndim() int {
	return p.NumAtmosphericModes() + p.NumOceanicModes()
}

func (p *QgParams) Validate() error {
	if p.Atmosphere == nil && p.Ocean == nil {
		return fmt.Errorf("%w: no coefficient block configured", ErrInvalidParams)
	}
	if o := p.Ocean; o != nil {
		n := len(o.Gamma)
		if n == 0 {
			return fmt.Errorf("%w: ocean block has no modes", ErrInvalidParams)
		}
		if len(o.Kappa) != n || len(o.Coupling) != n {
			return fmt.Errorf("%w: ocean gamma/kappa/coupling lengths %d/%d/%d differ",
				ErrInvalidParams, n, len(o.Kappa), len(o.Coupling))
		}
		for k, g := range o.Gamma {
			if g <= 0 {
				return fmt.Errorf("%w: ocean gamma[%d] must be positive, got %g", ErrInvalidParams, k, g)
			}
		}
	}

	in := p.Integration
	if in.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidParams, in.Dt)
	}
	if in.TransientTime < 0 || in.IntegrationTime < 0 {
		return fmt.Errorf("%w: integration times must not be negative", ErrInvalidParams)
	}
	if in.WriteSteps <= 0 {
		return fmt.Errorf("%w: write_steps must be positive, got %d", ErrInvalidParams, in.WriteSteps)
	}
	return nil
}

// Clone returns a deep copy.
func (p *QgParams) Clone() *QgParams {
	c := &QgParams{Integration: p.Integration}
	if p.Atmosphere != nil {
		a := *p.Atmosphere
		c.Atmosphere = &a
	}
	if p.Ocean != nil {
		c.Ocean = &OceanParams{
			Name:     p.Ocean.Name,
			Gamma:    append([]float64(nil), p.Ocean.Gamma...),
			Kappa:    append([]float64(nil), p.Ocean.Kappa...),
			Coupling: append([]float64(nil), p.Ocean.Coupling...),
		}
	}
	return c
}

// SimConfig converts the integration settings for the trajectory driver.
func (p *QgParams) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:              p.Integration.Dt,
		TransientTime:   p.Integration.TransientTime,
		IntegrationTime: p.Integration.IntegrationTime,
		WriteSteps:      p.Integration.WriteSteps,
		Seed:            p.Integration.Seed,
		ValidateState:   true,
	}
}
