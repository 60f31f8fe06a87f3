package testutil

import (
	"math"
	"math/rand"
)

// Sine generates a deterministic sine wave.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates white noise with a fixed seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Mixture sums a speech-like pair of sources: a sine and seeded noise.
func Mixture(seed int64, sampleRate float64, length int) []float64 {
	a := Sine(440, sampleRate, 0.4, length)
	b := Noise(seed, 0.2, length)
	for i := range a {
		a[i] += b[i]
	}
	return a
}

// Matrix returns a frames x bins matrix filled from a seeded generator in [lo, hi).
func Matrix(seed int64, frames, bins int, lo, hi float64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	m := make([][]float64, frames)
	for t := range m {
		m[t] = make([]float64, bins)
		for f := range m[t] {
			m[t][f] = lo + rng.Float64()*(hi-lo)
		}
	}
	return m
}
