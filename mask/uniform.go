package mask

import "context"

// Uniform assigns 1/N of every bin to each of N speakers.
type Uniform struct {
	n int
}

// NewUniform returns a Uniform model for n speakers.
func NewUniform(n int) *Uniform { return &Uniform{n: n} }

func (u *Uniform) NumSpeakers() int { return u.n }

func (u *Uniform) Predict(_ context.Context, feature [][]float64) ([][][]float64, error) {
	frames, bins, err := shape(feature)
	if err != nil {
		return nil, err
	}

	v := 1 / float64(u.n)
	masks := make([][][]float64, u.n)
	for k := range masks {
		masks[k] = newMatrix(frames, bins)
		for _, row := range masks[k] {
			for f := range row {
				row[f] = v
			}
		}
	}
	return masks, nil
}

func (u *Uniform) Close() error { return nil }
