package mask

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/x448/float16"
)

// Format selects the on-disk encoding of a dumped mask.
type Format string

const (
	FormatNPY   Format = "npy"
	FormatNPY16 Format = "npy16"
	FormatPNG   Format = "png"
)

// ParseFormat maps a name to a Format. The empty string selects FormatNPY.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatNPY, nil
	case FormatNPY, FormatNPY16, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown mask format %q", name)
	}
}

// Ext returns the file extension for f without the leading dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return "png"
	}
	return "npy"
}

// DumpMask writes m to path in format f.
func DumpMask(path string, m [][]float64, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	if err := WriteMask(w, m, f); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteMask encodes a [frames][bins] mask to w.
func WriteMask(w io.Writer, m [][]float64, f Format) error {
	frames := len(m)
	bins := 0
	if frames > 0 {
		bins = len(m[0])
	}
	for t, row := range m {
		if len(row) != bins {
			return fmt.Errorf("%w: mask frame %d has %d bins, want %d", ErrShape, t, len(row), bins)
		}
	}

	switch f {
	case FormatNPY, "":
		return writeNPY(w, m, frames, bins, false)
	case FormatNPY16:
		return writeNPY(w, m, frames, bins, true)
	case FormatPNG:
		return writePNG(w, m, frames, bins)
	default:
		return fmt.Errorf("unknown mask format %q", f)
	}
}

const npyAlign = 64

var npyMagic = []byte("\x93NUMPY\x01\x00")

// npyHeader builds a version 1.0 header whose total length is a multiple
// of 64 bytes.
func npyHeader(descr string, frames, bins int) []byte {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }", descr, frames, bins)

	// magic + version + uint16 length + dict + '\n'
	total := len(npyMagic) + 2 + len(dict) + 1
	pad := (npyAlign - total%npyAlign) % npyAlign
	dict += strings.Repeat(" ", pad) + "\n"

	hdr := make([]byte, 0, total+pad)
	hdr = append(hdr, npyMagic...)
	hdr = binary.LittleEndian.AppendUint16(hdr, uint16(len(dict)))
	hdr = append(hdr, dict...)
	return hdr
}

func writeNPY(w io.Writer, m [][]float64, frames, bins int, half bool) error {
	descr, size := "<f4", 4
	if half {
		descr, size = "<f2", 2
	}
	if _, err := w.Write(npyHeader(descr, frames, bins)); err != nil {
		return err
	}

	buf := make([]byte, bins*size)
	for _, row := range m {
		for f, v := range row {
			if half {
				binary.LittleEndian.PutUint16(buf[f*2:], float16.Fromfloat32(float32(v)).Bits())
			} else {
				binary.LittleEndian.PutUint32(buf[f*4:], math.Float32bits(float32(v)))
			}
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// writePNG renders the mask as grayscale, one column per frame with the
// lowest bin at the bottom, stretched to the mask's own value range.
func writePNG(w io.Writer, m [][]float64, frames, bins int) error {
	if frames == 0 || bins == 0 {
		return fmt.Errorf("%w: cannot render an empty mask", ErrShape)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo

	img := image.NewGray(image.Rect(0, 0, frames, bins))
	for x, row := range m {
		for y, v := range row {
			var val float64
			if span > 0 {
				val = (v - lo) / span
			}
			img.SetGray(x, bins-y-1, color.Gray{Y: uint8(255 * val)})
		}
	}
	return png.Encode(w, img)
}
