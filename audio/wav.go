package audio

import "os"
import "fmt"

import "github.com/faiface/beep"
import "github.com/faiface/beep/wav"

const wavChunk = 512

// LoadWav loads a mono wav file to a sample vector.
func LoadWav(name string) (*Waveform, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, openError(name, err)
	}

	stream, format, err := wav.Decode(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("decode wav %s: %w", name, err)
	}
	defer stream.Close()

	out := make([]float64, 0, stream.Len())
	samples := make([][2]float64, wavChunk)
	for {
		n, ok := stream.Stream(samples)
		for i := 0; i < n; i++ {
			out = append(out, samples[i][0])
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", name, err)
	}
	if format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotLoaded, name)
	}

	return &Waveform{Samples: out, SampleRate: int(format.SampleRate)}, nil
}

// SaveWav saves a mono 16-bit wav file from a sample vector.
func SaveWav(outputFile string, vec []float64, sr int) error {
	if sr <= 0 {
		return fmt.Errorf("save wav %s: invalid sample rate %d", outputFile, sr)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(sr),
		NumChannels: 1,
		Precision:   2,
	}

	pos := 0
	streamer := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= len(vec) {
			return 0, false
		}
		for n < len(samples) && pos < len(vec) {
			samples[n][0] = vec[pos]
			samples[n][1] = vec[pos]
			n++
			pos++
		}
		return n, true
	})

	if err := wav.Encode(f, streamer, format); err != nil {
		f.Close()
		return fmt.Errorf("encode wav %s: %w", outputFile, err)
	}

	return f.Close()
}
