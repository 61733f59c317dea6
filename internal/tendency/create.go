package tendency

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/qgsim/internal/innerproducts"
	"github.com/san-kum/qgsim/internal/logging"
	"github.com/san-kum/qgsim/internal/params"
	"github.com/san-kum/qgsim/internal/tensor"
)

var (
	// ErrNoAtmosphere is returned when the configuration has no atmospheric block.
	ErrNoAtmosphere = tensor.ErrNoAtmosphere

	// ErrOceanConfig is returned when an ocean block is configured but is not
	// an "Oceanic Temperature" block.
	ErrOceanConfig = errors.New("tendency: ocean block is not an oceanic temperature configuration")
)

// Tendencies is the result of Create. Atmosphere, Ocean and QgTensor are only
// set when requested with WithInnerProducts and WithTensor.
type Tendencies struct {
	*Evaluator

	Atmosphere *innerproducts.Atmospheric
	Ocean      *innerproducts.Oceanic
	QgTensor   *tensor.QgsTensor
}

type options struct {
	innerProducts bool
	tensor        bool
	logger        *slog.Logger
}

type Option func(*options)

// WithInnerProducts keeps the coefficient blocks on the result.
func WithInnerProducts() Option {
	return func(o *options) { o.innerProducts = true }
}

// WithTensor keeps the assembled tensor object on the result.
func WithTensor() Option {
	return func(o *options) { o.tensor = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Create builds the coefficient blocks described by p, couples them, assembles
// the tendency tensors and binds them into an Evaluator.
//
// Without an ocean block the model is atmosphere-only. An ocean block must
// be named params.OceanicTemperature; any other name is a configuration
// error rather than a silent fallback.
func Create(p *params.QgParams, opts ...Option) (*Tendencies, error) {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Atmosphere == nil {
		return nil, ErrNoAtmosphere
	}

	aip, err := innerproducts.NewAtmospheric(p)
	if err != nil {
		return nil, err
	}

	var oip *innerproducts.Oceanic
	if p.Ocean != nil {
		if p.Ocean.Name != params.OceanicTemperature {
			return nil, fmt.Errorf("%w: got %q", ErrOceanConfig, p.Ocean.Name)
		}
		if oip, err = innerproducts.NewOceanic(p); err != nil {
			return nil, err
		}
		if err := aip.ConnectToOcean(oip); err != nil {
			return nil, err
		}
	}

	q, err := tensor.New(aip, oip)
	if err != nil {
		return nil, err
	}

	ev, err := NewEvaluator(q.Ndim, q.Tensor, q.JacobianTensor)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("tendencies created",
		"ndim", q.Ndim,
		"ocean", oip != nil,
		"tensor_nnz", q.Tensor.NNZ(),
		"jacobian_nnz", q.JacobianTensor.NNZ(),
	)

	t := &Tendencies{Evaluator: ev}
	if o.innerProducts {
		t.Atmosphere, t.Ocean = aip, oip
	}
	if o.tensor {
		t.QgTensor = q
	}
	return t, nil
}
