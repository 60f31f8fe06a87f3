package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neurlang/gopit/config"
	"github.com/neurlang/gopit/spectrum"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "sep.yaml", `
spectrogram_reader:
  frame_length: 512
  window: Hamming
dataloader:
  mvn_dict: stats/cmvn.msgpack
model:
  num_spks: 3
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := spectrum.Config{FrameLength: 512, FrameShift: 64, Window: spectrum.WindowHamming, Center: true}
	if got := cfg.Spectrum(); got != want {
		t.Fatalf("spectrum config = %+v, want %+v", got, want)
	}
	if cfg.NumBins() != 257 {
		t.Fatalf("bins = %d, want 257", cfg.NumBins())
	}
	if cfg.Model.NumSpeakers != 3 {
		t.Fatalf("num_spks = %d, want 3", cfg.Model.NumSpeakers)
	}
	if cfg.Output.SampleRate != 8000 || cfg.Output.MaskFormat != "npy" {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.ModelTimeout() != 30*time.Second {
		t.Fatalf("timeout = %s, want 30s", cfg.ModelTimeout())
	}
	wantStats := filepath.Join(filepath.Dir(path), "stats", "cmvn.msgpack")
	if cfg.Dataloader.MVNDict != wantStats {
		t.Fatalf("mvn_dict = %q, want %q", cfg.Dataloader.MVNDict, wantStats)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "sep.toml", `
[spectrogram_reader]
frame_length = 400
frame_shift = 100
window = "sqrthann"
center = false

[model]
num_spks = 2
output_names = ["spk1", "spk2"]
timeout = "5s"

[output]
sample_rate = 16000
mask_format = "png"
resample = true
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SpectrogramReader.Center {
		t.Fatal("expected center disabled")
	}
	if cfg.SpectrogramReader.FrameShift != 100 || cfg.Output.SampleRate != 16000 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.ModelTimeout() != 5*time.Second {
		t.Fatalf("timeout = %s, want 5s", cfg.ModelTimeout())
	}
	if !cfg.Output.Resample {
		t.Fatal("expected resampling enabled")
	}
	if len(cfg.Model.OutputNames) != 2 {
		t.Fatalf("output_names = %v", cfg.Model.OutputNames)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"frame shift":  "spectrogram_reader: {frame_shift: 0}\n",
		"window":       "spectrogram_reader: {window: kaiser}\n",
		"speakers":     "model: {num_spks: 0}\n",
		"output names": "model: {num_spks: 2, output_names: [a, b, c]}\n",
		"timeout":      "model: {timeout: soon}\n",
		"sample rate":  "output: {sample_rate: -1}\n",
		"mask format":  "output: {mask_format: tiff}\n",
		"syntax":       "spectrogram_reader: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, "bad.yaml", body)
			if _, err := config.Load(path); !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := config.Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
