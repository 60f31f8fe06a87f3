package mask

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

const (
	defaultInputName  = "input"
	defaultOutputName = "mask"
)

// ONNX runs an exported mask network with ONNX Runtime.
//
// The input tensor is [1, frames, bins] float32. The outputs are either one
// tensor holding speakers*frames*bins values in speaker-major order, or one
// tensor per speaker holding frames*bins values.
type ONNX struct {
	session     *ort.DynamicAdvancedSession
	numSpeakers int
	outputNames []string
	log         *zap.Logger
}

// OpenONNX creates an inference session for the model at path.
func OpenONNX(path string, opts Options) (*ONNX, error) {
	log := opts.logger()

	inputName := opts.InputName
	if inputName == "" {
		inputName = defaultInputName
	}
	outputNames := opts.OutputNames
	if len(outputNames) == 0 {
		outputNames = []string{defaultOutputName}
	}
	if len(outputNames) != 1 && len(outputNames) != opts.NumSpeakers {
		return nil, fmt.Errorf("%w: %d output names for %d speakers", ErrModelLoad, len(outputNames), opts.NumSpeakers)
	}

	if opts.SharedLibrary != "" {
		ort.SetSharedLibraryPath(opts.SharedLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnxruntime: %v", ErrModelLoad, err)
		}
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %v", ErrModelLoad, err)
	}
	defer sessionOpts.Destroy()

	if opts.Backend == BackendCUDA {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("%w: cuda provider options: %v", ErrModelLoad, err)
		}
		defer cudaOpts.Destroy()

		if err := sessionOpts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return nil, fmt.Errorf("%w: enable cuda: %v", ErrModelLoad, err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, outputNames, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: create session for %s: %v", ErrModelLoad, path, err)
	}

	log.Info("onnx mask model loaded",
		zap.String("path", path),
		zap.Stringer("backend", opts.Backend),
		zap.Strings("outputs", outputNames))

	return &ONNX{
		session:     session,
		numSpeakers: opts.NumSpeakers,
		outputNames: outputNames,
		log:         log,
	}, nil
}

func (m *ONNX) NumSpeakers() int { return m.numSpeakers }

func (m *ONNX) Predict(ctx context.Context, feature [][]float64) ([][][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames, bins, err := shape(feature)
	if err != nil {
		return nil, err
	}

	data := make([]float32, 0, frames*bins)
	for _, row := range feature {
		for _, v := range row {
			data = append(data, float32(v))
		}
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(frames), int64(bins)), data)
	if err != nil {
		return nil, fmt.Errorf("onnx input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := make([]ort.Value, len(m.outputNames))
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	flat := make([][]float32, len(outputs))
	for i, o := range outputs {
		t, ok := o.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("%w: output %q is not a float32 tensor", ErrShape, m.outputNames[i])
		}
		flat[i] = t.GetData()
	}

	return splitMasks(flat, m.numSpeakers, frames, bins)
}

// splitMasks reshapes flat model outputs into [speakers][frames][bins].
func splitMasks(flat [][]float32, speakers, frames, bins int) ([][][]float64, error) {
	size := frames * bins
	chunks := make([][]float32, 0, speakers)

	switch len(flat) {
	case 1:
		if len(flat[0]) != speakers*size {
			return nil, fmt.Errorf("%w: output has %d values, want %d", ErrShape, len(flat[0]), speakers*size)
		}
		for k := 0; k < speakers; k++ {
			chunks = append(chunks, flat[0][k*size:(k+1)*size])
		}
	case speakers:
		for k, f := range flat {
			if len(f) != size {
				return nil, fmt.Errorf("%w: output %d has %d values, want %d", ErrShape, k, len(f), size)
			}
			chunks = append(chunks, f)
		}
	default:
		return nil, fmt.Errorf("%w: %d outputs for %d speakers", ErrShape, len(flat), speakers)
	}

	masks := make([][][]float64, speakers)
	for k, c := range chunks {
		masks[k] = newMatrix(frames, bins)
		for t := range masks[k] {
			for f := range masks[k][t] {
				masks[k][t][f] = float64(c[t*bins+f])
			}
		}
	}
	return masks, nil
}

func (m *ONNX) Close() error {
	if err := m.session.Destroy(); err != nil {
		return err
	}
	return ort.DestroyEnvironment()
}
