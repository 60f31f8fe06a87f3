// Package manifest reads utterance lists of "key path" lines.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformed reports a manifest that cannot be used as a batch.
var ErrMalformed = errors.New("malformed manifest")

// Entry is one utterance of a manifest.
type Entry struct {
	Key  string
	Path string
}

// Read parses r. Blank lines and lines starting with '#' are ignored.
// Entries are returned in input order; keys must be unique.
func Read(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		seen    = make(map[string]int)
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want \"key path\", got %d fields", ErrMalformed, lineNo, len(fields))
		}
		if prev, ok := seen[fields[0]]; ok {
			return nil, fmt.Errorf("%w: line %d: duplicate key %q (first seen on line %d)", ErrMalformed, lineNo, fields[0], prev)
		}
		seen[fields[0]] = lineNo
		entries = append(entries, Entry{Key: fields[0], Path: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

// ReadFile parses the manifest stored at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
