package mask

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrModelLoad reports a model that cannot be opened.
	ErrModelLoad = errors.New("mask model load failed")

	// ErrShape reports masks or features that break the shape contract.
	ErrShape = errors.New("mask shape mismatch")
)

// Model predicts one mask per speaker from a normalized feature matrix.
// Predict must not keep state between calls.
type Model interface {
	NumSpeakers() int
	Predict(ctx context.Context, feature [][]float64) ([][][]float64, error)
	Close() error
}

// Backend selects where a model runs.
type Backend int

const (
	BackendCPU Backend = iota
	BackendCUDA
)

func (b Backend) String() string {
	if b == BackendCUDA {
		return "cuda"
	}
	return "cpu"
}

// Options configures Open.
type Options struct {
	NumSpeakers int
	// NumBins, when positive, is checked against file based weights.
	NumBins int
	Backend Backend

	// ONNX input and output tensor names.
	InputName   string
	OutputNames []string
	// SharedLibrary is the onnxruntime library path; empty uses the default.
	SharedLibrary string

	// Timeout bounds remote requests.
	Timeout time.Duration

	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Open loads the model named by path:
//   - "uniform" selects the Uniform model
//   - http:// and https:// URLs select a Remote model
//   - .onnx files select an ONNX model
//   - .msgpack and .mpk files select an Affine model
func Open(path string, opts Options) (Model, error) {
	if opts.NumSpeakers < 1 {
		return nil, fmt.Errorf("%w: speaker count must be >= 1: %d", ErrModelLoad, opts.NumSpeakers)
	}

	log := opts.logger()

	switch {
	case path == "uniform":
		cpuOnly(log, "uniform", opts.Backend)
		return NewUniform(opts.NumSpeakers), nil
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		cpuOnly(log, "remote", opts.Backend)
		return NewRemote(path, opts)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: could not find model %s: %v", ErrModelLoad, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return OpenONNX(path, opts)
	case ".msgpack", ".mpk":
		cpuOnly(log, "affine", opts.Backend)
		return LoadAffine(path, opts)
	default:
		return nil, fmt.Errorf("%w: unsupported model file %s", ErrModelLoad, path)
	}
}

func cpuOnly(log *zap.Logger, kind string, b Backend) {
	if b != BackendCPU {
		log.Warn("backend not supported by model, running on cpu",
			zap.String("model", kind),
			zap.Stringer("backend", b))
	}
}

// Validate checks that masks holds numSpeakers matrices of frames x bins.
func Validate(masks [][][]float64, numSpeakers, frames, bins int) error {
	if len(masks) != numSpeakers {
		return fmt.Errorf("%w: got %d masks, want %d", ErrShape, len(masks), numSpeakers)
	}
	for k, m := range masks {
		if len(m) != frames {
			return fmt.Errorf("%w: mask %d has %d frames, want %d", ErrShape, k, len(m), frames)
		}
		for t, row := range m {
			if len(row) != bins {
				return fmt.Errorf("%w: mask %d frame %d has %d bins, want %d", ErrShape, k, t, len(row), bins)
			}
		}
	}
	return nil
}

func shape(feature [][]float64) (frames, bins int, err error) {
	if len(feature) == 0 || len(feature[0]) == 0 {
		return 0, 0, fmt.Errorf("%w: empty feature matrix", ErrShape)
	}
	bins = len(feature[0])
	for t, row := range feature {
		if len(row) != bins {
			return 0, 0, fmt.Errorf("%w: feature frame %d has %d bins, want %d", ErrShape, t, len(row), bins)
		}
	}
	return len(feature), bins, nil
}

func newMatrix(frames, bins int) [][]float64 {
	m := make([][]float64, frames)
	for t := range m {
		m[t] = make([]float64, bins)
	}
	return m
}
