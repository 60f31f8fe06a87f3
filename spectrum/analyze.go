package spectrum

import "github.com/r9y9/gossp/stft"
import "github.com/cwbudde/algo-vecmath"

// Spectrogram is a one-sided complex spectrogram together with what is needed
// to reconstruct the source exactly: its sample count and peak amplitude.
type Spectrogram struct {
	// Frames is indexed [frame][bin].
	Frames     [][]complex128
	NumSamples int
	Peak       float64
}

// Shape returns the frame and bin counts.
func (s *Spectrogram) Shape() (frames, bins int) {
	if len(s.Frames) == 0 {
		return 0, 0
	}
	return len(s.Frames), len(s.Frames[0])
}

// Analyzer computes the STFT of real waveforms.
type Analyzer struct {
	cfg  Config
	stft *stft.STFT
}

// NewAnalyzer validates cfg and prepares the analysis window.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := stft.New(cfg.FrameShift, cfg.FrameLength)
	s.Window = cfg.coefficients()

	return &Analyzer{cfg: cfg, stft: s}, nil
}

// Config returns the analyzer frame parameters.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze returns the spectrogram of samples.
func (a *Analyzer) Analyze(samples []float64) *Spectrogram {
	buf := a.pad(samples)

	spectrum := a.stft.STFT(buf)

	bins := a.cfg.Bins()
	frames := make([][]complex128, len(spectrum))
	for i := range spectrum {
		frames[i] = spectrum[i][:bins:bins]
	}

	return &Spectrogram{
		Frames:     frames,
		NumSamples: len(samples),
		Peak:       vecmath.MaxAbs(samples),
	}
}

// pad applies the centering pad, makes sure at least one full frame exists and
// zero-fills the tail up to a whole number of hops, so the last frame starts
// at or after the final source sample.
func (a *Analyzer) pad(samples []float64) []float64 {
	frameLen := a.cfg.FrameLength
	buf := samples

	if a.cfg.Center {
		half := frameLen / 2
		n := len(samples)
		buf = make([]float64, n+2*half)
		copy(buf[half:], samples)

		// reflect without repeating the edge sample; zeros when too short
		if n > half {
			for i := 0; i < half; i++ {
				buf[half-1-i] = samples[i+1]
				buf[half+n+i] = samples[n-2-i]
			}
		}
	}

	if len(buf) < frameLen {
		grown := make([]float64, frameLen)
		copy(grown, buf)
		buf = grown
	}

	if rem := (len(buf) - frameLen) % a.cfg.FrameShift; rem != 0 {
		aligned := make([]float64, len(buf)+a.cfg.FrameShift-rem)
		copy(aligned, buf)
		buf = aligned
	}

	return buf
}
