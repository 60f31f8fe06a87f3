// Command tofeature renders the normalized log-magnitude features of audio
// files, the exact matrix a mask model receives.
//
// Usage:
//
//	tofeature <config> <audio_file>... [--format png|npy|npy16]
//
// Each output is written next to its input as <audio_file>.<ext>. When the
// config sets output.resample, sources are resampled to output.sample_rate
// first, as separate does.
//
// Supported input formats: .wav, .flac
package main
