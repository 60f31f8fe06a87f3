// Package mask bridges mask-prediction models and applies their masks.
//
// A Model maps a [frames][bins] feature matrix to one [frames][bins] mask per
// speaker. Any implementation honoring that shape contract can be used:
//   - Uniform splits every bin evenly between speakers
//   - Affine applies per-bin affine maps followed by softmax or sigmoid
//   - ONNX runs an exported network with ONNX Runtime, optionally on CUDA
//   - Remote asks an HTTP service speaking msgpack
//
// Apply multiplies masks against the original complex spectrogram, and
// DumpMask writes raw masks as .npy or .png files.
package mask
