package mask

import "fmt"

// Apply multiplies each mask elementwise with spectra and returns one
// complex spectrogram per speaker. spectra is left untouched.
func Apply(spectra [][]complex128, masks [][][]float64) ([][][]complex128, error) {
	frames := len(spectra)
	bins := 0
	if frames > 0 {
		bins = len(spectra[0])
	}
	for t, row := range spectra {
		if len(row) != bins {
			return nil, fmt.Errorf("%w: spectrogram frame %d has %d bins, want %d", ErrShape, t, len(row), bins)
		}
	}
	if err := Validate(masks, len(masks), frames, bins); err != nil {
		return nil, err
	}

	out := make([][][]complex128, len(masks))
	for k, m := range masks {
		out[k] = make([][]complex128, frames)
		for t, row := range spectra {
			dst := make([]complex128, bins)
			for f, x := range row {
				dst[f] = x * complex(m[t][f], 0)
			}
			out[k][t] = dst
		}
	}
	return out, nil
}
