package logchase

import (
	"fmt"

	"github.com/logchase/logchase-go/internal/parser"
)

// TimestampFunc extracts a line's time in milliseconds. An error marks the
// line's timestamp as invalid; time constraints involving an invalid
// timestamp are never satisfied.
type TimestampFunc func(line string) (int64, error)

// DefaultTimestamp parses the first whitespace-delimited token of line.
// RFC 3339 timestamps, "2006.01.02-15:04:05", epoch milliseconds and
// "T<seconds>" offsets are recognized.
func DefaultTimestamp(line string) (int64, error) {
	ms, err := parser.Timestamp(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, parser.FirstToken(line))
	}
	return ms, nil
}

// stamp is the timestamp and line index recorded by a match step on a
// search path.
type stamp struct {
	ms    int64
	valid bool
	line  int
}

func stampOf(fn TimestampFunc, text string, index int) stamp {
	ms, err := fn(text)
	if err != nil {
		return stamp{line: index}
	}
	return stamp{ms: ms, valid: true, line: index}
}
