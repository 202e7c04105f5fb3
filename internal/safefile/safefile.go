// Package safefile reads log and pattern files without following symlinks
// or blocking on special files, and with bounded memory.
package safefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotRegularFile is returned for symlinks, FIFOs, devices, sockets and
// directories.
var ErrNotRegularFile = errors.New("not a regular file")

// ErrTooLarge is returned when a file or a single line exceeds its limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Open lstat-s path, opens it, and re-stats the descriptor so that a file
// swapped for a symlink or FIFO between the two calls is still rejected.
//
// The caller must close the returned file.
func Open(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}
	return f, info, nil
}

// ReadAll reads a whole regular file of at most maxBytes bytes.
func ReadAll(path string, maxBytes int64) ([]byte, error) {
	f, info, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), maxBytes)
	}

	r := io.Reader(f)
	if maxBytes > 0 {
		// One extra byte detects growth between Stat and Read.
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), maxBytes)
	}
	return data, nil
}

// Limits bounds ReadLines. Zero means unlimited.
type Limits struct {
	MaxBytes     int64 // total bytes read
	MaxLineBytes int   // bytes in a single line
}

// DefaultMaxLineBytes is the line limit used when Limits.MaxLineBytes is 0.
// bufio.Scanner needs a finite buffer.
const DefaultMaxLineBytes = 4 * 1024 * 1024

// ReadLines reads every line of a regular file. Trailing CR is removed so
// CRLF files behave like LF files. Empty lines are kept so that line indexes
// match the file.
func ReadLines(path string, lim Limits) ([]string, error) {
	f, info, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if lim.MaxBytes > 0 && info.Size() > lim.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), lim.MaxBytes)
	}
	return ScanLines(f, lim)
}

// ScanLines splits r into lines under the same rules as ReadLines. Input
// longer than lim.MaxBytes is an error, never a silently shortened result.
func ScanLines(r io.Reader, lim Limits) ([]string, error) {
	cr := &countingReader{r: r}
	if lim.MaxBytes > 0 {
		// One extra byte is enough to detect oversized input.
		cr.r = io.LimitReader(r, lim.MaxBytes+1)
	}
	maxLine := lim.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}

	sc := bufio.NewScanner(cr)
	// Scanner enforces the larger of max and cap(buf).
	sc.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)

	tooLarge := func() error {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, lim.MaxBytes)
	}

	var lines []string
	for sc.Scan() {
		if lim.MaxBytes > 0 && cr.n > lim.MaxBytes {
			return nil, tooLarge()
		}
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrTooLarge, maxLine)
		}
		return nil, err
	}
	if lim.MaxBytes > 0 && cr.n > lim.MaxBytes {
		return nil, tooLarge()
	}
	return lines, nil
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
