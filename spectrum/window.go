package spectrum

import (
	"fmt"
	"math"
	"strings"

	"github.com/r9y9/gossp/window"
)

// Window names a window function.
type Window string

const (
	WindowRect     Window = "rect"
	WindowHann     Window = "hann"
	WindowHamming  Window = "hamming"
	WindowBlackman Window = "blackman"
	WindowSqrtHann Window = "sqrthann"
)

// ParseWindow maps a configuration string to a Window. "hanning" is accepted
// as an alias of "hann" and "" selects hann.
func ParseWindow(name string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(name))); w {
	case "", "hanning":
		return WindowHann, nil
	case "rectangular", "boxcar":
		return WindowRect, nil
	case WindowRect, WindowHann, WindowHamming, WindowBlackman, WindowSqrtHann:
		return w, nil
	default:
		return "", fmt.Errorf("%w: unknown window %q", ErrInvalidConfig, name)
	}
}

// Coefficients returns n periodic window coefficients.
func (w Window) Coefficients(n int) []float64 {
	switch w {
	case WindowRect:
		out := make([]float64, n)
		for i := range out {
			out[i] = 1
		}
		return out
	case WindowHamming:
		return periodic(window.CreateHamming, n)
	case WindowBlackman:
		return periodic(window.CreateBlackman, n)
	case WindowSqrtHann:
		out := periodic(window.CreateHanning, n)
		for i, v := range out {
			out[i] = math.Sqrt(math.Max(v, 0))
		}
		return out
	default:
		return periodic(window.CreateHanning, n)
	}
}

// periodic drops the closing sample of a symmetric window of length n+1.
func periodic(create func(int) []float64, n int) []float64 {
	return create(n + 1)[:n:n]
}
