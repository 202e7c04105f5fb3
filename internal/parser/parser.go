// Package parser extracts timestamps from log lines.
package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNoTimestamp is returned when the first token of a line is not a
// recognized timestamp.
var ErrNoTimestamp = errors.New("no timestamp found")

// FirstToken returns the first whitespace-delimited token of line, or "" if
// the line is blank.
func FirstToken(line string) string {
	line = strings.TrimLeft(line, " \t\r\n")
	if i := strings.IndexAny(line, " \t\r\n"); i >= 0 {
		return line[:i]
	}
	return line
}

// Timestamp parses the first token of line and returns it in Unix
// milliseconds.
//
// Accepted forms:
//   - RFC 3339 with or without fractional seconds and zone
//     ("2021-11-22T19:18:47.940Z")
//   - "2006.01.02-15:04:05"
//   - Unix epoch milliseconds ("1637608727940")
//   - "T<seconds>" offsets from the epoch ("T40")
func Timestamp(line string) (int64, error) {
	tok := FirstToken(line)
	if tok == "" {
		return 0, ErrNoTimestamp
	}

	if epochMillisPattern.MatchString(tok) {
		ms, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, ErrNoTimestamp
		}
		return ms, nil
	}

	if m := offsetPattern.FindStringSubmatch(tok); m != nil {
		sec, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, ErrNoTimestamp
		}
		return sec * 1000, nil
	}

	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, tok, time.UTC); err == nil {
			return ts.UnixMilli(), nil
		}
	}
	return 0, ErrNoTimestamp
}
