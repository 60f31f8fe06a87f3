// Package config loads separation settings from YAML or TOML.
//
// The file selects spectrogram parameters, optional CMVN statistics, the
// speaker count and mask model tensor names, and output options. Defaults
// are applied before decoding so a file only needs to name what differs.
package config
