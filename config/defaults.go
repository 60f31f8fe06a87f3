package config

// Default returns the configuration used when a file omits a setting.
func Default() *Config {
	return &Config{
		SpectrogramReader: SpectrogramReader{
			FrameLength: 256,
			FrameShift:  64,
			Window:      "hann",
			Center:      true,
		},
		Model: Model{
			NumSpeakers: 2,
			Timeout:     "30s",
		},
		Output: Output{
			SampleRate: 8000,
			MaskFormat: "npy",
		},
	}
}
