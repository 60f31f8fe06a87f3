package spectrum

import (
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"
	"github.com/mjibson/go-dsp/fft"
)

// normFloor is the smallest squared-window sum that is divided out.
const normFloor = 1e-10

// Synthesizer inverts one-sided spectrograms produced with the same Config.
type Synthesizer struct {
	cfg      Config
	window   []float64
	sqWindow []float64
}

// NewSynthesizer validates cfg and prepares the synthesis window.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := cfg.coefficients()
	sq := make([]float64, len(w))
	vecmath.MulBlock(sq, w, w)

	return &Synthesizer{cfg: cfg, window: w, sqWindow: sq}, nil
}

// Synthesize reconstructs numSamples samples from frames. If peak is positive
// the output is rescaled so its largest absolute sample equals peak; an
// all-zero output stays silent.
func (s *Synthesizer) Synthesize(frames [][]complex128, numSamples int, peak float64) ([]float64, error) {
	if numSamples < 0 {
		return nil, fmt.Errorf("%w: negative sample count %d", ErrShape, numSamples)
	}
	if len(frames) == 0 {
		return make([]float64, numSamples), nil
	}

	frameLen := s.cfg.FrameLength
	frameShift := s.cfg.FrameShift
	bins := s.cfg.Bins()

	outLen := frameLen + (len(frames)-1)*frameShift
	signal := make([]float64, outLen)
	norm := make([]float64, outLen)

	full := make([]complex128, frameLen)
	chunk := make([]float64, frameLen)

	for t, frame := range frames {
		if len(frame) != bins {
			return nil, fmt.Errorf("%w: frame %d has %d bins, want %d", ErrShape, t, len(frame), bins)
		}

		// conjugate-symmetric completion of the one-sided spectrum
		copy(full, frame)
		for k := bins; k < frameLen; k++ {
			full[k] = cmplx.Conj(frame[frameLen-k])
		}

		buf := fft.IFFT(full)
		for i := range chunk {
			chunk[i] = real(buf[i])
		}
		vecmath.MulBlockInPlace(chunk, s.window)

		pos := t * frameShift
		vecmath.AddBlockInPlace(signal[pos:pos+frameLen], chunk)
		vecmath.AddBlockInPlace(norm[pos:pos+frameLen], s.sqWindow)
	}

	for i := range signal {
		if norm[i] > normFloor {
			signal[i] /= norm[i]
		}
	}

	if s.cfg.Center {
		signal = signal[frameLen/2:]
	}

	out := fitLength(signal, numSamples)

	if peak > 0 {
		if m := vecmath.MaxAbs(out); m > 0 {
			vecmath.ScaleBlockInPlace(out, peak/m)
		}
	}

	return out, nil
}

func fitLength(in []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, in)

	return out
}
