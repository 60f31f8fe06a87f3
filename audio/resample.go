package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts w to rate. A waveform already at rate is returned as is.
func Resample(w *Waveform, rate int) (*Waveform, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("resample: invalid target rate %d", rate)
	}
	if w.SampleRate == rate || w.Len() == 0 {
		return &Waveform{Samples: w.Samples, SampleRate: rate}, nil
	}
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("resample: invalid source rate %d", w.SampleRate)
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Process(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush: %w", err)
	}
	out = append(out, tail...)

	// trim or pad to the exact duration of the source
	want := int((int64(w.Len())*int64(rate) + int64(w.SampleRate)/2) / int64(w.SampleRate))
	fitted := make([]float64, want)
	copy(fitted, out)

	return &Waveform{Samples: fitted, SampleRate: rate}, nil
}
