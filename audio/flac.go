package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// LoadFlac loads a mono flac file to a sample vector.
func LoadFlac(name string) (*Waveform, error) {
	stream, err := flac.Open(name)
	if err != nil {
		return nil, openError(name, fmt.Errorf("open flac %s: %w", name, err))
	}
	defer stream.Close()

	if stream.Info.BitsPerSample == 0 || stream.Info.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotLoaded, name)
	}
	scale := float64(int64(1) << (stream.Info.BitsPerSample - 1))

	out := make([]float64, 0, stream.Info.NSamples)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode flac %s: %w", name, err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}
		for _, s := range frame.Subframes[0].Samples {
			out = append(out, float64(s)/scale)
		}
	}

	return &Waveform{Samples: out, SampleRate: int(stream.Info.SampleRate)}, nil
}
