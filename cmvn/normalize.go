package cmvn

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// DefaultFloor keeps log(|X|) finite for zero-valued bins.
const DefaultFloor = 1e-10

// ErrTypeMismatch reports input that is not a well-formed complex
// spectrogram. Reaching it means a caller broke the pipeline contract.
var ErrTypeMismatch = errors.New("input must be a complex spectrogram")

// Normalizer computes normalized log-magnitude features. A nil Stats passes
// the log-magnitude through unchanged.
type Normalizer struct {
	Stats *Stats
	Floor float64
}

// NewNormalizer returns a Normalizer using stats, which may be nil.
func NewNormalizer(stats *Stats) *Normalizer {
	return &Normalizer{Stats: stats, Floor: DefaultFloor}
}

// Normalize returns the [frames][bins] feature matrix of spectra.
func (n *Normalizer) Normalize(spectra [][]complex128) ([][]float64, error) {
	if len(spectra) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrTypeMismatch)
	}
	bins := len(spectra[0])
	if bins == 0 {
		return nil, fmt.Errorf("%w: no bins", ErrTypeMismatch)
	}
	for t, row := range spectra {
		if len(row) != bins {
			return nil, fmt.Errorf("%w: frame %d has %d bins, want %d", ErrTypeMismatch, t, len(row), bins)
		}
	}
	if n.Stats != nil && n.Stats.Bins() != bins {
		return nil, fmt.Errorf("%w: spectrogram has %d bins, statistics have %d", ErrTypeMismatch, bins, n.Stats.Bins())
	}

	feats := LogMagnitude(spectra, n.floor())
	if n.Stats != nil {
		n.Stats.Apply(feats)
	}
	return feats, nil
}

func (n *Normalizer) floor() float64 {
	if n.Floor > 0 {
		return n.Floor
	}
	return DefaultFloor
}

// LogMagnitude returns log(max(|X|, floor)) for every bin.
func LogMagnitude(spectra [][]complex128, floor float64) [][]float64 {
	out := make([][]float64, len(spectra))
	var re, im []float64
	for t, row := range spectra {
		if cap(re) < len(row) {
			re = make([]float64, len(row))
			im = make([]float64, len(row))
		}
		re, im = re[:len(row)], im[:len(row)]
		for f, v := range row {
			re[f], im[f] = real(v), imag(v)
		}

		mag := make([]float64, len(row))
		vecmath.Magnitude(mag, re, im)
		for f, m := range mag {
			mag[f] = math.Log(math.Max(m, floor))
		}
		out[t] = mag
	}
	return out
}

// Apply normalizes feats in place with the per-bin statistics.
func (s *Stats) Apply(feats [][]float64) {
	for _, row := range feats {
		for f := range row {
			row[f] = (row[f] - s.Mean[f]) / s.Std[f]
		}
	}
}
