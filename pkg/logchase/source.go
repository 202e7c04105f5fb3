package logchase

import (
	"io"

	"github.com/logchase/logchase-go/internal/safefile"
)

// LineSource gives indexed access to a sequence of log lines.
// Implementations must be safe for concurrent reads if a graph is matched
// against them from several goroutines.
type LineSource interface {
	// LineAt returns line i, or false when i is past the end.
	LineAt(i int) (string, bool)
	// LineCount returns the number of lines.
	LineCount() int
}

// Lines is an in-memory LineSource.
type Lines []string

// LineAt implements LineSource.
func (l Lines) LineAt(i int) (string, bool) {
	if i < 0 || i >= len(l) {
		return "", false
	}
	return l[i], true
}

// LineCount implements LineSource.
func (l Lines) LineCount() int {
	return len(l)
}

// DefaultMaxFileBytes bounds OpenFile and ReadLines (256 MB).
const DefaultMaxFileBytes = 256 * 1024 * 1024

// ReadLines reads r into Lines. CRLF endings are normalized and blank lines
// are kept so line indexes match the input.
func ReadLines(r io.Reader) (Lines, error) {
	lines, err := safefile.ScanLines(r, safefile.Limits{MaxBytes: DefaultMaxFileBytes})
	if err != nil {
		return nil, err
	}
	return Lines(lines), nil
}

// OpenFile reads a regular file into Lines. Symlinks and special files are
// rejected.
func OpenFile(path string) (Lines, error) {
	return openFile(path, DefaultMaxFileBytes)
}

func openFile(path string, maxBytes int64) (Lines, error) {
	lines, err := safefile.ReadLines(path, safefile.Limits{MaxBytes: maxBytes})
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Lines(lines), nil
}

// window is a LineSource over src starting at offset.
type window struct {
	src    LineSource
	offset int
}

func (w window) LineAt(i int) (string, bool) {
	if i < 0 {
		return "", false
	}
	return w.src.LineAt(w.offset + i)
}

func (w window) LineCount() int {
	n := w.src.LineCount() - w.offset
	if n < 0 {
		return 0
	}
	return n
}
