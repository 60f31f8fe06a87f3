package mask

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/neurlang/gopit/internal/testutil"
	"github.com/neurlang/gopit/spectrum"
)

func TestApplyMultipliesElementwise(t *testing.T) {
	spectra := [][]complex128{
		{1 + 1i, 2},
		{-3i, 4 - 4i},
	}
	masks := [][][]float64{
		{{0.5, 1}, {0, 0.25}},
		{{0.5, 0}, {1, 0.75}},
	}

	out, err := Apply(spectra, masks)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := [][][]complex128{
		{{0.5 + 0.5i, 2}, {0, 1 - 1i}},
		{{0.5 + 0.5i, 0}, {-3i, 3 - 3i}},
	}
	for k := range want {
		for tt := range want[k] {
			for f := range want[k][tt] {
				if out[k][tt][f] != want[k][tt][f] {
					t.Fatalf("speaker %d [%d][%d] = %v, want %v", k, tt, f, out[k][tt][f], want[k][tt][f])
				}
			}
		}
	}
	if spectra[0][0] != 1+1i {
		t.Fatalf("Apply modified its input")
	}
}

func TestApplyRejectsShapeMismatch(t *testing.T) {
	spectra := [][]complex128{{1, 2}, {3, 4}}
	cases := map[string][][][]float64{
		"frames": {{{1, 1}}},
		"bins":   {{{1, 1}, {1}}},
	}
	for name, masks := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Apply(spectra, masks); !errors.Is(err, ErrShape) {
				t.Fatalf("err = %v, want ErrShape", err)
			}
		})
	}
}

// Complementary masks must add back up to the mixture once synthesized
// without peak renormalization.
func TestComplementaryMasksReconstructMixture(t *testing.T) {
	cfg := spectrum.Config{FrameLength: 256, FrameShift: 64, Window: spectrum.WindowHann, Center: true}
	a, err := spectrum.NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	s, err := spectrum.NewSynthesizer(cfg)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	x := testutil.Mixture(7, 8000, 2000)
	spec := a.Analyze(x)
	frames, bins := spec.Shape()

	m1 := testutil.Matrix(3, frames, bins, 0, 1)
	m2 := newMatrix(frames, bins)
	for tt := range m1 {
		for f := range m1[tt] {
			m2[tt][f] = 1 - m1[tt][f]
		}
	}

	parts, err := Apply(spec.Frames, [][][]float64{m1, m2})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sum := make([]float64, len(x))
	for _, p := range parts {
		y, err := s.Synthesize(p, spec.NumSamples, 0)
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		for i, v := range y {
			sum[i] += v
		}
	}

	testutil.RequireSliceNearlyEqual(t, sum, x, 1e-9)
}

func TestValidate(t *testing.T) {
	good := [][][]float64{{{0, 1}}, {{1, 0}}}
	if err := Validate(good, 2, 1, 2); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []struct {
		name                   string
		speakers, frames, bins int
	}{
		{"speakers", 3, 1, 2},
		{"frames", 2, 2, 2},
		{"bins", 2, 1, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := Validate(good, c.speakers, c.frames, c.bins); !errors.Is(err, ErrShape) {
				t.Fatalf("err = %v, want ErrShape", err)
			}
		})
	}
}

func TestUniform(t *testing.T) {
	m := NewUniform(4)
	feature := testutil.Matrix(1, 3, 5, -2, 2)

	masks, err := m.Predict(context.Background(), feature)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if err := Validate(masks, 4, 3, 5); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, mk := range masks {
		for _, row := range mk {
			for _, v := range row {
				if v != 0.25 {
					t.Fatalf("mask value = %v, want 0.25", v)
				}
			}
		}
	}

	if _, err := m.Predict(context.Background(), nil); !errors.Is(err, ErrShape) {
		t.Fatalf("empty feature err = %v, want ErrShape", err)
	}
}

func testWeights(act Activation) AffineWeights {
	return AffineWeights{
		Scale:      [][]float64{{1, -1, 0.5}, {-1, 1, 2}},
		Bias:       [][]float64{{0, 0.1, 0}, {0.2, 0, -1}},
		Activation: act,
	}
}

func TestAffineSoftmaxSumsToOne(t *testing.T) {
	m, err := NewAffine(testWeights(ActivationSoftmax))
	if err != nil {
		t.Fatalf("NewAffine: %v", err)
	}
	feature := testutil.Matrix(2, 6, 3, -5, 5)

	masks, err := m.Predict(context.Background(), feature)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for tt := range feature {
		for f := range feature[tt] {
			sum := masks[0][tt][f] + masks[1][tt][f]
			if math.Abs(sum-1) > 1e-12 {
				t.Fatalf("[%d][%d] masks sum to %v", tt, f, sum)
			}
		}
	}
}

func TestAffineSigmoid(t *testing.T) {
	m, err := NewAffine(testWeights(ActivationSigmoid))
	if err != nil {
		t.Fatalf("NewAffine: %v", err)
	}

	masks, err := m.Predict(context.Background(), [][]float64{{0, 0, 0}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := 1 / (1 + math.Exp(-0.1))
	if got := masks[0][0][1]; math.Abs(got-want) > 1e-12 {
		t.Fatalf("mask = %v, want %v", got, want)
	}
	if got := masks[0][0][0]; got != 0.5 {
		t.Fatalf("mask = %v, want 0.5", got)
	}

	if _, err := m.Predict(context.Background(), [][]float64{{0, 0}}); !errors.Is(err, ErrShape) {
		t.Fatalf("bin mismatch err = %v, want ErrShape", err)
	}
}

func TestNewAffineRejectsBadWeights(t *testing.T) {
	cases := map[string]AffineWeights{
		"empty":      {},
		"bias rows":  {Scale: [][]float64{{1}}, Bias: nil},
		"ragged":     {Scale: [][]float64{{1, 2}, {1}}, Bias: [][]float64{{0, 0}, {0}}},
		"activation": {Scale: [][]float64{{1}}, Bias: [][]float64{{0}}, Activation: "relu"},
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewAffine(w); !errors.Is(err, ErrModelLoad) {
				t.Fatalf("err = %v, want ErrModelLoad", err)
			}
		})
	}
}

func TestOpenAffine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.msgpack")
	if err := SaveAffine(path, testWeights(ActivationSoftmax)); err != nil {
		t.Fatalf("SaveAffine: %v", err)
	}

	m, err := Open(path, Options{NumSpeakers: 2, NumBins: 3})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()
	if m.NumSpeakers() != 2 {
		t.Fatalf("NumSpeakers = %d, want 2", m.NumSpeakers())
	}

	if _, err := Open(path, Options{NumSpeakers: 3}); !errors.Is(err, ErrModelLoad) {
		t.Fatalf("speaker mismatch err = %v, want ErrModelLoad", err)
	}
	if _, err := Open(path, Options{NumSpeakers: 2, NumBins: 129}); !errors.Is(err, ErrModelLoad) {
		t.Fatalf("bin mismatch err = %v, want ErrModelLoad", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "model.bin")
	if err := SaveAffine(unknown, testWeights(ActivationSoftmax)); err != nil {
		t.Fatalf("SaveAffine: %v", err)
	}

	cases := map[string]struct {
		path string
		opts Options
	}{
		"missing":   {filepath.Join(dir, "nope.onnx"), Options{NumSpeakers: 2}},
		"extension": {unknown, Options{NumSpeakers: 2}},
		"speakers":  {"uniform", Options{NumSpeakers: 0}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Open(c.path, c.opts); !errors.Is(err, ErrModelLoad) {
				t.Fatalf("err = %v, want ErrModelLoad", err)
			}
		})
	}
}

func TestOpenUniform(t *testing.T) {
	m, err := Open("uniform", Options{NumSpeakers: 3, Backend: BackendCUDA})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := m.(*Uniform); !ok {
		t.Fatalf("Open returned %T, want *Uniform", m)
	}
}

func TestSplitMasks(t *testing.T) {
	flat := []float32{1, 2, 3, 4, 5, 6, 7, 8}

	masks, err := splitMasks([][]float32{flat}, 2, 2, 2)
	if err != nil {
		t.Fatalf("splitMasks: %v", err)
	}
	if masks[1][0][1] != 6 || masks[0][1][0] != 3 {
		t.Fatalf("unexpected layout: %v", masks)
	}

	masks, err = splitMasks([][]float32{flat[:4], flat[4:]}, 2, 2, 2)
	if err != nil {
		t.Fatalf("splitMasks per speaker: %v", err)
	}
	if masks[1][1][1] != 8 {
		t.Fatalf("unexpected layout: %v", masks)
	}

	if _, err := splitMasks([][]float32{flat[:7]}, 2, 2, 2); !errors.Is(err, ErrShape) {
		t.Fatalf("short output err = %v, want ErrShape", err)
	}
	if _, err := splitMasks([][]float32{flat, flat, flat}, 2, 2, 2); !errors.Is(err, ErrShape) {
		t.Fatalf("output count err = %v, want ErrShape", err)
	}
}
