package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/gopit/spectrum"
)

// ErrInvalid reports a configuration that cannot drive a separation run.
var ErrInvalid = errors.New("invalid configuration")

// SpectrogramReader holds frame parameters.
type SpectrogramReader struct {
	FrameLength int    `yaml:"frame_length" toml:"frame_length"`
	FrameShift  int    `yaml:"frame_shift" toml:"frame_shift"`
	Window      string `yaml:"window" toml:"window"`
	Center      bool   `yaml:"center" toml:"center"`
}

// Dataloader names the feature statistics.
type Dataloader struct {
	// MVNDict is the msgpack CMVN statistics file; empty disables CMVN.
	MVNDict string `yaml:"mvn_dict" toml:"mvn_dict"`
}

// Model describes the mask model contract.
type Model struct {
	NumSpeakers int      `yaml:"num_spks" toml:"num_spks"`
	InputName   string   `yaml:"input_name" toml:"input_name"`
	OutputNames []string `yaml:"output_names" toml:"output_names"`
	ONNXLibrary string   `yaml:"onnx_library" toml:"onnx_library"`
	Timeout     string   `yaml:"timeout" toml:"timeout"`
}

// Output controls written files.
type Output struct {
	SampleRate int    `yaml:"sample_rate" toml:"sample_rate"`
	MaskFormat string `yaml:"mask_format" toml:"mask_format"`
	// Resample converts sources to SampleRate before analysis.
	Resample bool `yaml:"resample" toml:"resample"`
}

// Config is the root configuration document.
type Config struct {
	SpectrogramReader SpectrogramReader `yaml:"spectrogram_reader" toml:"spectrogram_reader"`
	Dataloader        Dataloader        `yaml:"dataloader" toml:"dataloader"`
	Model             Model             `yaml:"model" toml:"model"`
	Output            Output            `yaml:"output" toml:"output"`
}

// Load reads path, decoding TOML for .toml files and YAML otherwise.
// Relative mvn_dict paths are resolved against the config file directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}

	cfg.normalize(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize(baseDir string) {
	c.SpectrogramReader.Window = strings.ToLower(strings.TrimSpace(c.SpectrogramReader.Window))
	c.Output.MaskFormat = strings.ToLower(strings.TrimSpace(c.Output.MaskFormat))
	if p := c.Dataloader.MVNDict; p != "" && !filepath.IsAbs(p) {
		c.Dataloader.MVNDict = filepath.Join(baseDir, p)
	}
}

// Spectrum returns the analysis and synthesis frame parameters.
func (c *Config) Spectrum() spectrum.Config {
	return spectrum.Config{
		FrameLength: c.SpectrogramReader.FrameLength,
		FrameShift:  c.SpectrogramReader.FrameShift,
		Window:      spectrum.Window(c.SpectrogramReader.Window),
		Center:      c.SpectrogramReader.Center,
	}
}

// NumBins returns the one-sided bin count implied by the frame length.
func (c *Config) NumBins() int { return c.Spectrum().Bins() }

// ModelTimeout parses model.timeout; empty means no explicit timeout.
func (c *Config) ModelTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Model.Timeout)
	return d
}
