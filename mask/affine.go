package mask

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Activation names the nonlinearity of an Affine model.
type Activation string

const (
	ActivationSoftmax Activation = "softmax"
	ActivationSigmoid Activation = "sigmoid"
)

// AffineWeights are per-speaker, per-bin scale and bias vectors.
type AffineWeights struct {
	Scale      [][]float64 `msgpack:"scale"`
	Bias       [][]float64 `msgpack:"bias"`
	Activation Activation  `msgpack:"activation"`
}

// Affine computes mask_k[t][f] = act(Scale[k][f]*x[t][f] + Bias[k][f]).
// With softmax the masks of all speakers sum to one in every bin.
type Affine struct {
	w    AffineWeights
	bins int
}

// NewAffine validates w and returns the model.
func NewAffine(w AffineWeights) (*Affine, error) {
	if len(w.Scale) == 0 {
		return nil, fmt.Errorf("%w: affine weights have no speakers", ErrModelLoad)
	}
	if len(w.Bias) != len(w.Scale) {
		return nil, fmt.Errorf("%w: %d scale rows, %d bias rows", ErrModelLoad, len(w.Scale), len(w.Bias))
	}
	bins := len(w.Scale[0])
	for k := range w.Scale {
		if len(w.Scale[k]) != bins || len(w.Bias[k]) != bins {
			return nil, fmt.Errorf("%w: speaker %d weights do not have %d bins", ErrModelLoad, k, bins)
		}
	}
	switch w.Activation {
	case "":
		w.Activation = ActivationSoftmax
	case ActivationSoftmax, ActivationSigmoid:
	default:
		return nil, fmt.Errorf("%w: unknown activation %q", ErrModelLoad, w.Activation)
	}
	return &Affine{w: w, bins: bins}, nil
}

// LoadAffine reads msgpack encoded AffineWeights and checks them against opts.
func LoadAffine(path string, opts Options) (*Affine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	var w AffineWeights
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelLoad, path, err)
	}

	m, err := NewAffine(w)
	if err != nil {
		return nil, err
	}
	if m.NumSpeakers() != opts.NumSpeakers {
		return nil, fmt.Errorf("%w: %s has %d speakers, configured %d", ErrModelLoad, path, m.NumSpeakers(), opts.NumSpeakers)
	}
	if opts.NumBins > 0 && m.bins != opts.NumBins {
		return nil, fmt.Errorf("%w: %s has %d bins, configured %d", ErrModelLoad, path, m.bins, opts.NumBins)
	}
	return m, nil
}

// SaveAffine writes w as msgpack to path.
func SaveAffine(path string, w AffineWeights) error {
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (a *Affine) NumSpeakers() int { return len(a.w.Scale) }

func (a *Affine) Predict(_ context.Context, feature [][]float64) ([][][]float64, error) {
	frames, bins, err := shape(feature)
	if err != nil {
		return nil, err
	}
	if bins != a.bins {
		return nil, fmt.Errorf("%w: feature has %d bins, model expects %d", ErrShape, bins, a.bins)
	}

	n := a.NumSpeakers()
	masks := make([][][]float64, n)
	for k := range masks {
		masks[k] = newMatrix(frames, bins)
	}

	logits := make([]float64, n)
	for t, row := range feature {
		for f, x := range row {
			for k := range logits {
				logits[k] = a.w.Scale[k][f]*x + a.w.Bias[k][f]
			}
			a.activate(logits)
			for k, v := range logits {
				masks[k][t][f] = v
			}
		}
	}
	return masks, nil
}

func (a *Affine) activate(z []float64) {
	if a.w.Activation == ActivationSigmoid {
		for i, v := range z {
			z[i] = 1 / (1 + math.Exp(-v))
		}
		return
	}

	hi := math.Inf(-1)
	for _, v := range z {
		hi = math.Max(hi, v)
	}
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - hi)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}

func (a *Affine) Close() error { return nil }
