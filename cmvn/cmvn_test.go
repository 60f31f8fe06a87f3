package cmvn

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/neurlang/gopit/internal/testutil"
)

var fixedSpectra = [][]complex128{
	{complex(3, 4), 0},
	{1, complex(0, -2)},
}

func TestNormalizeExactValues(t *testing.T) {
	n := NewNormalizer(&Stats{Mean: []float64{1, -20}, Std: []float64{2, 4}})

	got, err := n.Normalize(fixedSpectra)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := [][]float64{
		{0.30471895621705014, -0.7564627324851142},
		{-0.5, 5.173286795139986},
	}
	testutil.RequireMatrixNearlyEqual(t, got, want, 1e-12)
}

func TestNormalizeWithoutStatsPassesThrough(t *testing.T) {
	got, err := NewNormalizer(nil).Normalize(fixedSpectra)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := [][]float64{
		{math.Log(5), math.Log(DefaultFloor)},
		{0, math.Log(2)},
	}
	testutil.RequireMatrixNearlyEqual(t, got, want, 1e-12)
}

func TestNormalizeCustomFloor(t *testing.T) {
	n := &Normalizer{Floor: 1e-3}
	got, err := n.Normalize([][]complex128{{0, 1e-5}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got[0], []float64{math.Log(1e-3), math.Log(1e-3)}, 1e-12)
}

func TestNormalizeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		stats   *Stats
		spectra [][]complex128
	}{
		{"nil", nil, nil},
		{"no bins", nil, [][]complex128{{}}},
		{"ragged", nil, [][]complex128{{1, 2}, {1}}},
		{"bins differ from stats", &Stats{Mean: []float64{0, 0, 0}, Std: []float64{1, 1, 1}}, [][]complex128{{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNormalizer(tt.stats).Normalize(tt.spectra)
			if !errors.Is(err, ErrTypeMismatch) {
				t.Fatalf("error = %v, want ErrTypeMismatch", err)
			}
		})
	}
}

func TestLoadStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmvn.msgpack")
	in := &Stats{Mean: []float64{0.5, -1}, Std: []float64{1, 3}}
	if err := SaveStats(path, in); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}

	got, err := LoadStats(path)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got.Mean, in.Mean, 0)
	testutil.RequireSliceNearlyEqual(t, got.Std, in.Std, 0)
}

func TestLoadStatsErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.msgpack")
	if err := os.WriteFile(garbage, []byte{0xc1}, 0o644); err != nil {
		t.Fatal(err)
	}

	zeroStd := filepath.Join(dir, "zero.msgpack")
	if err := SaveStats(zeroStd, &Stats{Mean: []float64{0, 0}, Std: []float64{1, 0}}); err != nil {
		t.Fatal(err)
	}

	mismatch := filepath.Join(dir, "mismatch.msgpack")
	if err := SaveStats(mismatch, &Stats{Mean: []float64{0, 0}, Std: []float64{1}}); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.msgpack"), garbage, zeroStd, mismatch} {
		if _, err := LoadStats(path); !errors.Is(err, ErrInvalidStats) {
			t.Fatalf("LoadStats(%s) error = %v, want ErrInvalidStats", filepath.Base(path), err)
		}
	}
}
