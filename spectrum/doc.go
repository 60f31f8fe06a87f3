// Package spectrum provides short-time Fourier analysis and synthesis.
//
// The Analyzer turns a real waveform into a one-sided complex spectrogram with
// FrameLength/2+1 bins per frame. The Synthesizer inverts such a spectrogram
// with weighted overlap-add:
//   - frames are windowed again after the inverse transform
//   - the sum is divided by the per-sample sum of squared window values
//   - the centering pad added during analysis is removed
//   - the result is fitted to the original sample count and rescaled to a
//     target peak amplitude
//
// With centering enabled and a hop no larger than half the frame, analysis
// followed by synthesis reproduces the input up to floating point error.
package spectrum
