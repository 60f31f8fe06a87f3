package cmvn

import (
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidStats reports a statistics file that is missing or unusable.
var ErrInvalidStats = errors.New("invalid cmvn statistics")

// Stats holds global per-bin mean and standard deviation.
type Stats struct {
	Mean []float64 `msgpack:"mean"`
	Std  []float64 `msgpack:"std"`
}

// Bins returns the number of frequency bins the stats cover.
func (s *Stats) Bins() int { return len(s.Mean) }

// Validate checks that mean and std have the same non-zero length and that
// every std is positive.
func (s *Stats) Validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("%w: empty mean vector", ErrInvalidStats)
	}
	if len(s.Mean) != len(s.Std) {
		return fmt.Errorf("%w: mean has %d bins, std has %d", ErrInvalidStats, len(s.Mean), len(s.Std))
	}
	for i, v := range s.Std {
		if !(v > 0) {
			return fmt.Errorf("%w: std[%d] = %v is not positive", ErrInvalidStats, i, v)
		}
	}
	return nil
}

// LoadStats reads msgpack encoded statistics from path.
func LoadStats(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStats, err)
	}

	var s Stats
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidStats, path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &s, nil
}

// SaveStats writes msgpack encoded statistics to path.
func SaveStats(path string, s *Stats) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
