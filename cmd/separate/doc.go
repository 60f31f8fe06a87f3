// Command separate splits single-channel mixtures into per-speaker audio.
//
// Usage:
//
//	separate <config> <model> <manifest> [flags]
//
// The config is a YAML or TOML file with spectrogram, CMVN, model and output
// settings. The model is an .onnx network, an .msgpack affine model, an
// http(s) URL of a mask service, or the literal "uniform". The manifest lists
// "key path" pairs, one per line.
//
// For every utterance, {key}.spk{N}.wav is written to --dump-dir; with
// --dump-mask the raw masks are written next to them as .npy or .png.
// Utterances whose audio file is missing are skipped.
package main
