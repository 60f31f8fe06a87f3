package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrNotFound reports that an input file does not exist.
	ErrNotFound = errors.New("audio file not found")

	// ErrFileNotLoaded reports a file that exists but decoded to nothing.
	ErrFileNotLoaded = errors.New("audio file not loaded")
)

// Waveform is a mono sample vector at a fixed sample rate.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples.
func (w *Waveform) Len() int { return len(w.Samples) }

// Peak returns the L-infinity norm of the samples.
func (w *Waveform) Peak() float64 { return vecmath.MaxAbs(w.Samples) }

// Load decodes a mono waveform from a WAV or FLAC file, chosen by extension.
// A missing file yields an error wrapping ErrNotFound.
func Load(path string) (*Waveform, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return LoadFlac(path)
	default:
		return LoadWav(path)
	}
}

// openError maps a failed open of name to ErrNotFound when the file is absent.
func openError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
