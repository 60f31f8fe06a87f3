// Package audio loads and saves mono waveforms.
//
// Input files are decoded to float64 samples in [-1, 1]. It supports:
//   - WAV input and output (16-bit PCM on output)
//   - FLAC input
//   - Reporting a missing input file as ErrNotFound so batch callers can skip it
//
// Multichannel input is reduced to its first channel.
package audio
