package spectrum

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports frame parameters that cannot be analyzed.
	ErrInvalidConfig = errors.New("invalid spectrogram configuration")

	// ErrShape reports a spectrogram whose bin count does not match the configuration.
	ErrShape = errors.New("spectrogram shape mismatch")
)

// Config holds the frame parameters shared by analysis and synthesis.
type Config struct {
	FrameLength int
	FrameShift  int
	Window      Window
	Center      bool
}

// Bins returns the number of one-sided frequency bins per frame.
func (c Config) Bins() int { return c.FrameLength/2 + 1 }

// Validate checks that frames are at least two samples long and that the hop
// is positive and not longer than a frame.
func (c Config) Validate() error {
	if c.FrameLength < 2 {
		return fmt.Errorf("%w: frame length must be >= 2: %d", ErrInvalidConfig, c.FrameLength)
	}
	if c.FrameShift <= 0 || c.FrameShift > c.FrameLength {
		return fmt.Errorf("%w: frame shift must be in [1, %d]: %d", ErrInvalidConfig, c.FrameLength, c.FrameShift)
	}
	if _, err := ParseWindow(string(c.Window)); err != nil {
		return err
	}
	return nil
}

func (c Config) coefficients() []float64 {
	w, _ := ParseWindow(string(c.Window))
	return w.Coefficients(c.FrameLength)
}
