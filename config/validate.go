package config

import (
	"fmt"
	"time"

	"github.com/neurlang/gopit/mask"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Spectrum().Validate(); err != nil {
		return fmt.Errorf("%w: spectrogram_reader: %v", ErrInvalid, err)
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateModel() error {
	if c.Model.NumSpeakers < 1 {
		return fmt.Errorf("%w: model.num_spks must be >= 1: %d", ErrInvalid, c.Model.NumSpeakers)
	}
	if n := len(c.Model.OutputNames); n > 1 && n != c.Model.NumSpeakers {
		return fmt.Errorf("%w: model.output_names has %d names for %d speakers", ErrInvalid, n, c.Model.NumSpeakers)
	}
	if c.Model.Timeout != "" {
		d, err := time.ParseDuration(c.Model.Timeout)
		if err != nil {
			return fmt.Errorf("%w: model.timeout: %v", ErrInvalid, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: model.timeout must not be negative: %s", ErrInvalid, d)
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.SampleRate <= 0 {
		return fmt.Errorf("%w: output.sample_rate must be positive: %d", ErrInvalid, c.Output.SampleRate)
	}
	if _, err := mask.ParseFormat(c.Output.MaskFormat); err != nil {
		return fmt.Errorf("%w: output.mask_format: %v", ErrInvalid, err)
	}
	return nil
}
